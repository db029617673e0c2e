// Package core defines the shared language of the LeapDB system.
//
// This package contains:
//   - Connection configuration (AdapterConfig)
//   - Catalog metadata read from live databases (TableMetadata, Column)
//   - Pure dialect data (DialectConfig, identifier and DDL feature settings)
//
// The Golden Rule: pkg/core imports only the standard library.
// All other packages depend on core, not the reverse.
package core
