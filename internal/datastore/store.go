// Package datastore publishes library rows for Datasette, either into a local
// SQLite file or through a remote instance's insert API.
package datastore

// Store is a destination for Datasette rows
type Store interface {
	// Connect establishes a connection to the data store
	Connect() error

	// CreateTable creates a table with the given schema if it doesn't exist
	CreateTable(schema string) error

	// BatchInsert upserts records into table of database
	BatchInsert(database string, table string, records []map[string]any) error

	// Close closes the connection to the data store
	Close() error
}
