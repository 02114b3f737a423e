package core

import "database/sql"

// AdapterConfig holds configuration for connecting to a sink database.
type AdapterConfig struct {
	Type     string
	Path     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Options  map[string]string
}

// Column represents a column in a sink table.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Position int
}

// TableMetadata holds metadata about a sink table.
type TableMetadata struct {
	Name     string
	Columns  []Column
	RowCount int64
}

// Rows wraps sql.Rows so callers outside the adapter packages don't
// import database/sql directly.
type Rows struct {
	*sql.Rows
}

// SampleRow is a verification row fetched after a load: the natural key
// plus the two columns a human checks first.
type SampleRow struct {
	ID        string
	Brand     string
	Sentiment string
}
