package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverMSSQL    = "mssql"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"

	FormatLegacy  = "legacy"
	FormatRFC4180 = "rfc4180"

	DefaultDatabasePrefix = "Analytics_"
	DefaultFileSuffix     = "DatabaseTableRowCount.csv"
)

type Config struct {
	Driver          string        `yaml:"driver"`
	Servers         []Server      `yaml:"servers"`
	DatabasePrefix  string        `yaml:"database_prefix"`
	TableKeywords   []string      `yaml:"table_keywords"`
	OutputDir       string        `yaml:"output_dir"`
	FileSuffix      string        `yaml:"file_suffix"`
	Format          string        `yaml:"format"`
	Open            bool          `yaml:"open"`
	ContinueOnError bool          `yaml:"continue_on_error"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
	Queries         Queries       `yaml:"queries"`
	Kafka           KafkaConfig   `yaml:"kafka"`
}

// Server is one database server to inventory. When DSN is empty the dialect
// builds one from Name using the OS identity of the current user.
type Server struct {
	Name string `yaml:"name"`
	DSN  string `yaml:"dsn"`
}

// Queries overrides the dialect's catalog queries. Empty fields keep the
// dialect default.
type Queries struct {
	ListDatabases  string `yaml:"list_databases"`
	TableRowCounts string `yaml:"table_row_counts"`
}

type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Default returns the configuration the inventory historically ran with.
func Default() *Config {
	return &Config{
		Driver: DriverMSSQL,
		Servers: []Server{
			{Name: "WWMAVASQL01"},
			{Name: "WWMAVASQL02"},
		},
		DatabasePrefix: DefaultDatabasePrefix,
		TableKeywords:  []string{"fact", "dim"},
		FileSuffix:     DefaultFileSuffix,
		Format:         FormatLegacy,
		Open:           true,
	}
}

func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}

	_, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReportDir is the directory reports are written to.
func (c *Config) ReportDir() string {
	if c.OutputDir != "" {
		return c.OutputDir
	}
	return os.TempDir()
}

func (c *Config) Validate() error {
	switch c.Driver {
	case DriverMSSQL, DriverMySQL, DriverPostgres:
	default:
		return fmt.Errorf("driver must be one of %s, %s, %s", DriverMSSQL, DriverMySQL, DriverPostgres)
	}
	if len(c.Servers) == 0 {
		return errors.New("at least one server is required")
	}
	seen := map[string]bool{}
	for _, server := range c.Servers {
		if strings.TrimSpace(server.Name) == "" {
			return errors.New("server.name is required")
		}
		// names become report file names, which may be case-insensitive
		key := strings.ToLower(server.Name)
		if seen[key] {
			return fmt.Errorf("server %s is listed more than once", server.Name)
		}
		seen[key] = true
	}
	if len(c.TableKeywords) == 0 {
		return errors.New("at least one table keyword is required")
	}
	for _, kw := range c.TableKeywords {
		if kw == "" {
			return errors.New("table keywords must not be empty")
		}
	}
	if c.FileSuffix == "" {
		return errors.New("file_suffix is required")
	}
	if c.Format != FormatLegacy && c.Format != FormatRFC4180 {
		return fmt.Errorf("format must be %s or %s", FormatLegacy, FormatRFC4180)
	}
	if c.ConnectTimeout < 0 {
		return errors.New("connect_timeout must not be negative")
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return errors.New("kafka.brokers is required when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return errors.New("kafka.topic is required when kafka is enabled")
		}
	}
	return nil
}
