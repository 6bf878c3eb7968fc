// Package migration imports the legacy portage set files into the package
// database.
//
// Portage keeps the world set in a plain text file (by default
// /var/lib/portage/world) and the system set in a profile packages file,
// one atom per line. The system file may prefix atoms with '*'.
//
// Example usage:
//
//	if migration.DetectMigrationNeeded(cfg) {
//	    if _, err := migration.MigrateLegacySets(ctx, cfg, db, logger); err != nil {
//	        return fmt.Errorf("migration failed: %w", err)
//	    }
//	}
package migration

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go-pkresolve/config"
	"go-pkresolve/log"
	"go-pkresolve/pkg"
	"go-pkresolve/pkgdb"
	"go-pkresolve/version"
)

// LegacyFile ties a set name to the file it is read from.
type LegacyFile struct {
	Set  string
	Path string
}

// Result reports one migrated file.
type Result struct {
	LegacyFile
	Read    int // valid atoms found in the file
	Added   int // atoms not already in the set
	Skipped int // lines that did not parse
	Backup  string
}

// LegacyFiles returns the set files named by cfg, world first.
func LegacyFiles(cfg *config.Config) []LegacyFile {
	var files []LegacyFile
	if cfg.WorldFile != "" {
		files = append(files, LegacyFile{Set: pkg.SetWorld, Path: cfg.WorldFile})
	}
	if cfg.SystemFile != "" {
		files = append(files, LegacyFile{Set: pkg.SetSystem, Path: cfg.SystemFile})
	}
	return files
}

// MigrateLegacySets adds the atoms of every existing legacy set file to the
// matching set in db. Atoms already present are kept once.
//
// Lines starting with '#' and empty lines are ignored. Lines that do not
// parse as atoms are logged as warnings and do not fail the migration.
//
// With cfg.Migration.BackupLegacy each migrated file is copied to
// <file>.bak. The original is left in place since portage still owns it.
//
// Missing files are not an error; the returned slice only lists files that
// were found.
func MigrateLegacySets(ctx context.Context, cfg *config.Config, db *pkgdb.DB, logger log.LibraryLogger) ([]Result, error) {
	if logger == nil {
		logger = log.NoOpLogger{}
	}

	var results []Result
	for _, lf := range LegacyFiles(cfg) {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if _, err := os.Stat(lf.Path); os.IsNotExist(err) {
			logger.Debug("migration: %s not found, skipping %s set", lf.Path, lf.Set)
			continue
		}

		logger.Info("migration: reading %s set from %s", lf.Set, lf.Path)
		atoms, skipped, err := readLegacySetFile(lf.Path, logger)
		if err != nil {
			return results, fmt.Errorf("failed to read legacy set file %s: %w", lf.Path, err)
		}

		added, err := db.AddToSet(ctx, lf.Set, atoms)
		if err != nil {
			return results, fmt.Errorf("failed to migrate %s set: %w", lf.Set, err)
		}
		res := Result{LegacyFile: lf, Read: len(atoms), Added: added, Skipped: skipped}
		logger.Info("migration: %s set: %d/%d atoms added, %d lines skipped", lf.Set, added, len(atoms), skipped)

		if cfg.Migration.BackupLegacy {
			backup := lf.Path + ".bak"
			if err := copyFile(lf.Path, backup); err != nil {
				logger.Warn("migration: failed to back up %s: %v", lf.Path, err)
			} else {
				res.Backup = backup
				logger.Info("migration: %s backed up to %s", lf.Path, backup)
			}
		}
		results = append(results, res)
	}
	return results, nil
}

// readLegacySetFile parses a set file.
//
// Expected format:
//
//	# Comment lines start with hash
//	app-editors/vim
//	*>=sys-libs/glibc-2.38
//	dev-lang/go:0
//
// It returns the valid atoms in file order and the number of skipped lines.
func readLegacySetFile(path string, logger log.LibraryLogger) ([]string, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()
	return parseLegacySet(file, logger)
}

func parseLegacySet(r io.Reader, logger log.LibraryLogger) ([]string, int, error) {
	var atoms []string
	skipped := 0
	scanner := bufio.NewScanner(r)

	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "*")

		if _, err := version.ParseAtom(line); err != nil {
			logger.Warn("migration: line %d: skipping %q: %v", lineNo, line, err)
			skipped++
			continue
		}
		atoms = append(atoms, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, skipped, err
	}
	return atoms, skipped, nil
}

// DetectMigrationNeeded reports whether any legacy set file exists.
//
// This function can be used to prompt the user before running migration.
func DetectMigrationNeeded(cfg *config.Config) bool {
	for _, lf := range LegacyFiles(cfg) {
		if _, err := os.Stat(lf.Path); err == nil {
			return true
		}
	}
	return false
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
