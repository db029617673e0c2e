// Package config loads leapdb CLI configuration.
//
// Values are layered, highest priority first: command line flags, LEAPDB_
// environment variables, leapdb.yaml, built-in defaults.
package config

import (
	"strings"

	"github.com/leapstack-labs/leapdb/internal/telemetry"
	"github.com/leapstack-labs/leapdb/pkg/core"
)

// Config holds all CLI configuration options.
type Config struct {
	Connections       map[string]ConnectionConfig `koanf:"connections"`
	DefaultConnection string                      `koanf:"default_connection"`
	// Connection is the --connection override for this invocation.
	Connection   string           `koanf:"connection"`
	StatePath    string           `koanf:"state_path"`
	OutputFormat string           `koanf:"output"`
	Verbose      bool             `koanf:"verbose"`
	LogLevel     string           `koanf:"log_level"`
	LogFormat    string           `koanf:"log_format"`
	Telemetry    telemetry.Config `koanf:"telemetry"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
	// ConfigFile is the file the configuration was read from, if any.
	ConfigFile string `koanf:"-"`
}

// ConnectionConfig describes one database connection.
type ConnectionConfig struct {
	Type string `koanf:"type"`
	// Database is a file path for embedded databases and a database name otherwise.
	Database string            `koanf:"database"`
	Host     string            `koanf:"host"`
	Port     int               `koanf:"port"`
	User     string            `koanf:"user"`
	Password string            `koanf:"password"`
	Schema   string            `koanf:"schema"`
	Options  map[string]string `koanf:"options"`
	Params   map[string]any    `koanf:"params"`
}

// Default configuration values.
const (
	DefaultStateFile = ".leapdb/state.db"
	DefaultOutput    = "auto"
	DefaultLogLevel  = "warn"
)

// File names searched for configuration.
var configFileNames = []string{"leapdb.yaml", "leapdb.yml"}

// embedded adapters take a file path instead of a server address.
func isEmbedded(typ string) bool {
	switch strings.ToLower(typ) {
	case "duckdb", "sqlite":
		return true
	}
	return false
}

// AdapterConfig converts c to the adapter layer's configuration.
func (c ConnectionConfig) AdapterConfig() core.AdapterConfig {
	cfg := core.AdapterConfig{
		Type:     strings.ToLower(c.Type),
		Host:     c.Host,
		Port:     c.Port,
		Database: c.Database,
		Username: c.User,
		Password: c.Password,
		Schema:   c.Schema,
		Options:  c.Options,
		Params:   c.Params,
	}
	if isEmbedded(c.Type) {
		cfg.Path = c.Database
	}
	return cfg
}
