package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapdb/internal/cli/output"
	"github.com/leapstack-labs/leapdb/pkg/adapter"
)

// ErrNoConnection is returned when no connection can be selected.
var ErrNoConnection = errors.New("no connection configured")

// Validate checks the configuration.
func (c *Config) Validate() error {
	if !output.Mode(c.OutputFormat).Valid() {
		return fmt.Errorf("invalid output format %q\nHint: Use one of auto, text, markdown, json", c.OutputFormat)
	}
	for _, name := range c.ConnectionNames() {
		if err := c.Connections[name].Validate(); err != nil {
			return fmt.Errorf("invalid connection %q: %w", name, err)
		}
	}
	if c.DefaultConnection != "" {
		if _, ok := c.Connections[c.DefaultConnection]; !ok {
			return fmt.Errorf("default_connection %q is not defined\nHint: Available connections: %s",
				c.DefaultConnection, strings.Join(c.ConnectionNames(), ", "))
		}
	}
	return nil
}

// Validate checks that the connection names a registered adapter.
func (c ConnectionConfig) Validate() error {
	if c.Type == "" {
		return errors.New("connection type is required")
	}
	typ := strings.ToLower(c.Type)
	if !adapter.IsRegistered(typ) {
		return &adapter.UnknownAdapterError{Type: c.Type, Available: adapter.ListAdapters()}
	}
	return nil
}

// ConnectionNames returns the configured connection names, sorted.
func (c *Config) ConnectionNames() []string {
	names := make([]string, 0, len(c.Connections))
	for name := range c.Connections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve picks the connection for this invocation: the --connection
// override, then default_connection, then the only configured connection.
func (c *Config) Resolve() (string, ConnectionConfig, error) {
	name := c.Connection
	if name == "" {
		name = c.DefaultConnection
	}
	if name == "" {
		switch len(c.Connections) {
		case 0:
			return "", ConnectionConfig{}, fmt.Errorf("%w\nHint: Add a connections section to leapdb.yaml", ErrNoConnection)
		case 1:
			name = c.ConnectionNames()[0]
		default:
			return "", ConnectionConfig{}, fmt.Errorf("%w: several connections are defined\nHint: Use --connection or set default_connection (available: %s)",
				ErrNoConnection, strings.Join(c.ConnectionNames(), ", "))
		}
	}

	conn, ok := c.Connections[name]
	if !ok {
		return "", ConnectionConfig{}, fmt.Errorf("%w: unknown connection %q\nHint: Available connections: %s",
			ErrNoConnection, name, strings.Join(c.ConnectionNames(), ", "))
	}
	return name, conn, nil
}
