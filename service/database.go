package service

import (
	"context"
	"fmt"
	"io"
	"os"

	"go-pkresolve/pkgdb"
)

// Import loads a YAML tree manifest into the package database.
//
// The manifest is validated completely before anything is written, so a
// bad entry leaves the database untouched.
func (s *Service) Import(ctx context.Context, opts ImportOptions) (pkgdb.ImportStats, error) {
	m, err := pkgdb.LoadManifestFile(opts.Path)
	if err != nil {
		return pkgdb.ImportStats{}, fmt.Errorf("failed to load manifest %s: %w", opts.Path, err)
	}
	st, err := s.db.Import(ctx, m, opts.Replace)
	if err != nil {
		return pkgdb.ImportStats{}, fmt.Errorf("failed to import %s: %w", opts.Path, err)
	}
	s.logger.Info("Imported %s: %d installed, %d available", opts.Path, st.Installed, st.Available)
	return st, nil
}

// ResetDatabase removes the package database.
//
// This is a destructive operation that deletes every imported tree, set
// and repository state.
//
// This method handles all the business logic but does not interact with the user.
// The caller is responsible for:
//   - Confirming the operation with the user
//   - Displaying what will be deleted
func (s *Service) ResetDatabase() (*DatabaseResult, error) {
	result := &DatabaseResult{
		FilesRemoved: make([]string, 0),
	}

	dbPath := s.cfg.DatabasePath

	// Check if database exists
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return result, nil // No database to remove
	}

	// Close the database connection before removing
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return nil, fmt.Errorf("failed to close database before reset: %w", err)
		}
	}

	if err := os.Remove(dbPath); err != nil {
		return nil, fmt.Errorf("failed to remove database: %w", err)
	}

	result.DatabaseRemoved = true
	result.FilesRemoved = append(result.FilesRemoved, dbPath)
	s.logger.Info("Package database removed: %s", dbPath)

	// Also remove backup if present
	backupFile := dbPath + ".backup"
	if _, err := os.Stat(backupFile); err == nil {
		if err := os.Remove(backupFile); err == nil {
			result.FilesRemoved = append(result.FilesRemoved, backupFile)
			s.logger.Info("Database backup removed: %s", backupFile)
		}
	}

	return result, nil
}

// DatabaseExists checks if the package database file exists.
func (s *Service) DatabaseExists() bool {
	_, err := os.Stat(s.cfg.DatabasePath)
	return err == nil
}

// BackupDatabase copies the package database next to itself.
func (s *Service) BackupDatabase() (string, error) {
	dbPath := s.cfg.DatabasePath
	backupPath := dbPath + ".backup"

	in, err := os.Open(dbPath)
	if err != nil {
		return "", fmt.Errorf("failed to read database: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(backupPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	s.logger.Info("Database backed up to: %s", backupPath)
	return backupPath, nil
}
