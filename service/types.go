package service

import (
	"go-pkresolve/migration"
	"go-pkresolve/pkgdb"
	"go-pkresolve/stats"
)

// InitOptions contains options for the Initialize service.
type InitOptions struct {
	AutoMigrate bool // Import legacy world/system set files if found
}

// InitResult contains the results of an initialization operation.
type InitResult struct {
	DirsCreated         []string           // Directories created
	DatabaseInitialized bool               // Whether the database is ready
	SchemaVersion       string             // Schema version stamped in the database
	MigrationNeeded     bool               // Whether legacy set files were found
	MigrationPerformed  bool               // Whether migration was performed
	Migrated            []migration.Result // Per-file migration results
	Warnings            []string           // Non-fatal warnings
}

// ImportOptions contains options for the Import service.
type ImportOptions struct {
	Path    string // YAML manifest to import
	Replace bool   // Clear the installed and repository trees first
}

// StatusResult contains the results of a status query.
type StatusResult struct {
	DatabasePath  string         // Path of the package database
	DatabaseSize  int64          // Size of the database file in bytes
	SchemaVersion string         // Stored schema version
	Counts        pkgdb.Stats    // Records per bucket
	Sets          []string       // Stored package sets
	Queries       stats.Snapshot // Query statistics of this process
}

// DatabaseResult contains the results of a database operation.
type DatabaseResult struct {
	DatabaseRemoved bool     // Whether the database was removed
	FilesRemoved    []string // List of files that were removed
}
