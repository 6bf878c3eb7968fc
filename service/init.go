package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go-pkresolve/migration"
)

// Initialize sets up the pkresolve environment for the first time.
//
// The initialization process includes:
//  1. Creating required directories (database, logs, lock file)
//  2. Verifying the package database is writable and stamped
//  3. Optionally migrating legacy world/system set files
//
// This method handles all the business logic but does not interact with the user.
// The caller is responsible for:
//   - Displaying progress/status to the user
//   - Prompting for confirmations (e.g., migration)
//   - Handling errors and warnings
func (s *Service) Initialize(ctx context.Context, opts InitOptions) (*InitResult, error) {
	result := &InitResult{
		DirsCreated: make([]string, 0),
		Warnings:    make([]string, 0),
	}

	// 1. Create required directories
	dirs := []struct{ label, dir string }{
		{"Database", filepath.Dir(s.cfg.DatabasePath)},
		{"Logs", s.cfg.LogsPath},
		{"Lock", filepath.Dir(s.cfg.LockFile)},
	}
	for _, d := range dirs {
		if d.dir == "" || d.dir == "." {
			continue
		}
		if err := os.MkdirAll(d.dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s directory (%s): %w", d.label, d.dir, err)
		}
		result.DirsCreated = append(result.DirsCreated, d.dir)
		s.logger.Info("Created %s: %s", d.label, d.dir)
	}

	// 2. The database was opened (and stamped) by NewService
	if s.db == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	version, err := s.db.SchemaVersion()
	if err != nil {
		return nil, fmt.Errorf("failed to read schema version: %w", err)
	}
	result.DatabaseInitialized = true
	result.SchemaVersion = version
	s.logger.Info("Database initialized: %s (schema %s)", s.cfg.DatabasePath, version)

	// 3. Check for legacy set files
	if migration.DetectMigrationNeeded(s.cfg) {
		result.MigrationNeeded = true
		if opts.AutoMigrate {
			s.logger.Info("Migrating legacy set files...")
			migrated, err := migration.MigrateLegacySets(ctx, s.cfg, s.db, s.logger)
			if err != nil {
				return nil, fmt.Errorf("migration failed: %w", err)
			}
			result.Migrated = migrated
			result.MigrationPerformed = true
			for _, m := range migrated {
				if m.Skipped > 0 {
					result.Warnings = append(result.Warnings,
						fmt.Sprintf("%s: %d lines skipped", m.Path, m.Skipped))
				}
			}
			s.logger.Info("Migration complete")
		}
	}

	return result, nil
}

// NeedsMigration checks if legacy set files exist without initializing anything.
func (s *Service) NeedsMigration() bool {
	return migration.DetectMigrationNeeded(s.cfg)
}

// LegacySetFiles returns the legacy set files that exist.
func (s *Service) LegacySetFiles() []string {
	var files []string
	for _, lf := range migration.LegacyFiles(s.cfg) {
		if _, err := os.Stat(lf.Path); err == nil {
			files = append(files, lf.Path)
		}
	}
	return files
}
