package types

// NullRowCount marks a row that carries an error message instead of a count.
// Downstream consumers of the legacy report key on this literal.
const NullRowCount = "[NULL]"

type TableRowStat struct {
	Server   string `json:"server"`
	Database string `json:"database"`
	Table    string `json:"table"`
	RowCount string `json:"rowCount"`
	Failed   bool   `json:"failed,omitempty"`
}

// FailedDatabase builds the synthetic row written when a database cannot be
// switched to. The message takes the place of the table name.
func FailedDatabase(server, database string, err error) TableRowStat {
	return TableRowStat{
		Server:   server,
		Database: database,
		Table:    err.Error(),
		RowCount: NullRowCount,
		Failed:   true,
	}
}
