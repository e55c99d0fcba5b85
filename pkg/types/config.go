package types

import (
	"path/filepath"
	"time"
)

// Database drivers accepted in DatabaseConfig.Driver.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// DatabaseConfig describes the relational store that receives one record per run.
// User, Password, Host, and Name mirror the DB_USER, DB_PASSWORD, DB_HOST, and
// DB_DATABASE environment variables.
type DatabaseConfig struct {
	// Driver selects the backend: sqlite3 (default), postgres, or mysql.
	Driver string `json:"driver" yaml:"driver" mapstructure:"driver"`

	User     string `json:"user" yaml:"user" mapstructure:"user"`
	Password string `json:"password,omitempty" yaml:"password,omitempty" mapstructure:"password"`
	Host     string `json:"host" yaml:"host" mapstructure:"host"`
	Port     int    `json:"port" yaml:"port" mapstructure:"port"`
	Name     string `json:"name" yaml:"name" mapstructure:"name"`

	// Path is the SQLite database file. Ignored by network drivers.
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// ConnectTimeout bounds the initial ping (default 5s).
	ConnectTimeout time.Duration `json:"connect_timeout" yaml:"connect_timeout" mapstructure:"connect_timeout"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error (default info).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is text or json (default text).
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config is built once at startup and passed to every stage explicitly.
type Config struct {
	// DocumentsDir is where input files are looked up by name.
	DocumentsDir string `json:"documents_dir" yaml:"documents_dir" mapstructure:"documents_dir"`

	// OutputDir receives per-format extraction output (OutputDir/PDF/..., OutputDir/DOCX/...).
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// SecretsDir holds credential files such as db-password.
	SecretsDir string `json:"secrets_dir" yaml:"secrets_dir" mapstructure:"secrets_dir"`

	Database DatabaseConfig `json:"database" yaml:"database" mapstructure:"database"`
	Log      LogConfig      `json:"log" yaml:"log" mapstructure:"log"`
}

const (
	DefaultDocumentsDir   = "Documents"
	DefaultOutputDir      = "Output"
	DefaultSecretsDir     = ".secrets"
	DefaultConnectTimeout = 5 * time.Second
	defaultSQLiteFile     = "documents.db"
)

// ApplyDefaults fills unset fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.DocumentsDir == "" {
		c.DocumentsDir = DefaultDocumentsDir
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.SecretsDir == "" {
		c.SecretsDir = DefaultSecretsDir
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.Driver == DriverSQLite && c.Database.Path == "" {
		c.Database.Path = filepath.Join(c.OutputDir, defaultSQLiteFile)
	}
	if c.Database.ConnectTimeout <= 0 {
		c.Database.ConnectTimeout = DefaultConnectTimeout
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}
