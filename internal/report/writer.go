package report

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexanderjulianmartinez/tablecensus/internal/config"
	"github.com/alexanderjulianmartinez/tablecensus/pkg/types"
)

var header = []string{"Database", "Table", "Row Count"}

// Path is the report location for server. Path separators in instance names
// (HOST\INSTANCE) are flattened so each server maps to one file in dir.
func Path(dir, server, suffix string) string {
	name := strings.NewReplacer(`\`, "_", "/", "_").Replace(server)
	return filepath.Join(dir, name+suffix)
}

type Writer struct {
	path   string
	file   *os.File
	buf    *bufio.Writer
	csv    *csv.Writer
	rows   int
	closed bool
}

// Create truncates path and writes the header line.
//
// The legacy format joins fields with ", " and never quotes, so a value
// containing a comma shifts the columns. rfc4180 quotes as needed and uses a
// bare comma.
func Create(path, format string) (*Writer, error) {
	if format != config.FormatLegacy && format != config.FormatRFC4180 {
		return nil, fmt.Errorf("unknown report format %q", format)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}
	w := &Writer{path: path, file: f, buf: bufio.NewWriter(f)}
	if format == config.FormatRFC4180 {
		w.csv = csv.NewWriter(w.buf)
	}
	if err := w.writeLine(header); err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

// Rows is the number of data rows written, header excluded.
func (w *Writer) Rows() int {
	return w.rows
}

func (w *Writer) WriteRow(stat types.TableRowStat) error {
	if err := w.writeLine([]string{stat.Database, stat.Table, stat.RowCount}); err != nil {
		return err
	}
	w.rows++
	return nil
}

func (w *Writer) writeLine(fields []string) error {
	if w.closed {
		return fmt.Errorf("write %s: report closed", w.path)
	}
	if w.csv != nil {
		if err := w.csv.Write(fields); err != nil {
			return fmt.Errorf("write %s: %w", w.path, err)
		}
		return nil
	}
	if _, err := w.buf.WriteString(strings.Join(fields, ", ") + "\n"); err != nil {
		return fmt.Errorf("write %s: %w", w.path, err)
	}
	return nil
}

// Close flushes and closes the file. Further calls are no-ops.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.csv != nil {
		w.csv.Flush()
		if err := w.csv.Error(); err != nil {
			w.file.Close()
			return fmt.Errorf("flush %s: %w", w.path, err)
		}
	}
	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return fmt.Errorf("flush %s: %w", w.path, err)
	}
	return w.file.Close()
}
