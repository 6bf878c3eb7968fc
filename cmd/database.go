package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"go-pkresolve/config"
	"go-pkresolve/log"
	"go-pkresolve/service"
	"go-pkresolve/util"
)

func (a *app) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the configuration, directories and package database",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			out := c.OutOrStdout()
			text := a.format == FormatText
			if text {
				fmt.Fprintln(out, "Initializing pkresolve environment...")
				fmt.Fprintln(out)
			}

			if a.cfg.ConfigFile == "" {
				path := config.DefaultConfigFile
				if a.configDir != "" {
					path = filepath.Join(a.configDir, config.ConfigFileName)
				}
				if err := config.WriteDefault(path); err != nil {
					return err
				}
				if text {
					fmt.Fprintf(out, "  ✓ Config: %s\n", path)
				}
			}

			return a.withWriter(func(svc *service.Service) error {
				// Prompts stay off stdout when it carries JSON or YAML
				msg := out
				if !text {
					msg = c.ErrOrStderr()
				}
				migrate := false
				if svc.NeedsMigration() {
					fmt.Fprintln(msg, "\n⚠️  Legacy set files detected!")
					for _, f := range svc.LegacySetFiles() {
						fmt.Fprintf(msg, "Found: %s\n", f)
					}
					switch {
					case !a.cfg.Migration.AutoMigrate:
						fmt.Fprintln(msg, "  - Migration disabled by Migration_auto_migrate")
					case a.yesAll:
						fmt.Fprintln(msg, "Migrating automatically (-y flag)...")
						migrate = true
					default:
						migrate = util.AskYN(c.InOrStdin(), msg, "Migrate legacy set files now?", true)
						if !migrate {
							fmt.Fprintln(msg, "  - Migration skipped (run 'pkresolve init' again to migrate)")
						}
					}
				}

				res, err := svc.Initialize(commandContext(c), service.InitOptions{AutoMigrate: migrate})
				if err != nil {
					return err
				}
				if done, err := a.encode(out, res); done {
					return err
				}
				printInitResult(out, res)
				return nil
			})
		},
	}
}

func printInitResult(out io.Writer, res *service.InitResult) {
	fmt.Fprintln(out, "\nSetting up directories:")
	for _, dir := range res.DirsCreated {
		fmt.Fprintf(out, "  ✓ %s\n", dir)
	}

	fmt.Fprintln(out, "\nInitializing package database:")
	fmt.Fprintf(out, "  ✓ Schema version: %s\n", res.SchemaVersion)

	if res.MigrationPerformed {
		fmt.Fprintln(out, "\nMigrated legacy sets:")
		for _, m := range res.Migrated {
			fmt.Fprintf(out, "  ✓ %s: %s (%d read, %d added, %d skipped)\n",
				m.Set, m.Path, m.Read, m.Added, m.Skipped)
			if m.Backup != "" {
				fmt.Fprintf(out, "    backup: %s\n", m.Backup)
			}
		}
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(out, "  ⚠  %s\n", w)
	}

	fmt.Fprintln(out, "\n✓ Initialization complete!")
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  1. Verify configuration file (if needed)")
	fmt.Fprintln(out, "  2. Run: pkresolve import <manifest>")
	fmt.Fprintln(out, "  3. Run: pkresolve get-packages")
	fmt.Fprintln(out)
}

func (a *app) importCmd() *cobra.Command {
	var replace bool

	c := &cobra.Command{
		Use:   "import <manifest>",
		Short: "Load a YAML tree manifest into the package database",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return a.withWriter(func(svc *service.Service) error {
				st, err := svc.Import(commandContext(c), service.ImportOptions{Path: args[0], Replace: replace})
				if err != nil {
					return err
				}
				out := c.OutOrStdout()
				if done, err := a.encode(out, st); done {
					return err
				}
				fmt.Fprintf(out, "✓ Imported %s\n", args[0])
				fmt.Fprintf(out, "  Installed:      %d\n", st.Installed)
				fmt.Fprintf(out, "  Available:      %d\n", st.Available)
				fmt.Fprintf(out, "  Repositories:   %d\n", st.Repos)
				fmt.Fprintf(out, "  Sets:           %d\n", st.Sets)
				fmt.Fprintf(out, "  License groups: %d\n", st.LicenseGroups)
				return nil
			})
		},
	}
	c.Flags().BoolVar(&replace, "replace", false, "Drop installed and repository records before importing")
	return c
}

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show package database statistics",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			out := c.OutOrStdout()
			if !util.FileExists(a.cfg.DatabasePath) && a.format == FormatText {
				fmt.Fprintf(out, "No package database found at %s\n", a.cfg.DatabasePath)
				fmt.Fprintln(out, "Run 'pkresolve import <manifest>' first.")
				return nil
			}

			svc, err := a.openService(true)
			if err != nil {
				return err
			}
			defer svc.Close()

			st, err := svc.GetStatus()
			if err != nil {
				return err
			}
			if done, err := a.encode(out, st); done {
				return err
			}

			fmt.Fprintln(out, "=== Package Database Status ===")
			fmt.Fprintf(out, "Database:       %s\n", st.DatabasePath)
			fmt.Fprintf(out, "Size:           %s\n", util.FormatBytes(st.DatabaseSize))
			fmt.Fprintf(out, "Schema:         %s\n", st.SchemaVersion)
			fmt.Fprintf(out, "Installed:      %d\n", st.Counts.Installed)
			fmt.Fprintf(out, "Available:      %d\n", st.Counts.Repository)
			fmt.Fprintf(out, "Repositories:   %d\n", st.Counts.Repos)
			fmt.Fprintf(out, "License groups: %d\n", st.Counts.LicenseGroups)
			fmt.Fprintf(out, "Sets:           %s\n", strings.Join(st.Sets, ", "))

			summary := log.GetLogSummary(a.cfg)
			keys := make([]string, 0, len(summary))
			for k := range summary {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			parts := make([]string, len(keys))
			for i, k := range keys {
				parts[i] = fmt.Sprintf("%d %s", summary[k], k)
			}
			fmt.Fprintf(out, "Logs:           %s\n", strings.Join(parts, ", "))
			return nil
		},
	}
}

func (a *app) resetDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-db",
		Short: "Delete the package database",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			out := c.OutOrStdout()
			if !util.FileExists(a.cfg.DatabasePath) {
				fmt.Fprintln(out, "No database found")
				return nil
			}

			if !a.yesAll {
				fmt.Fprintln(out, "⚠️  WARNING: This will delete the package database")
				fmt.Fprintf(out, "Database: %s\n\n", a.cfg.DatabasePath)
				if !a.confirm(c, "Are you sure?", false) {
					fmt.Fprintln(out, "Cancelled")
					return nil
				}
			}

			return a.withWriter(func(svc *service.Service) error {
				res, err := svc.ResetDatabase()
				if err != nil {
					return err
				}
				if done, err := a.encode(out, res); done {
					return err
				}
				for _, f := range res.FilesRemoved {
					fmt.Fprintf(out, "✓ Removed %s\n", f)
				}
				fmt.Fprintln(out, "✓ Package database reset successfully")
				return nil
			})
		},
	}
}

func (a *app) backupDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup-db",
		Short: "Copy the package database next to itself",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			svc, err := a.openService(true)
			if err != nil {
				return err
			}
			defer svc.Close()

			path, err := svc.BackupDatabase()
			if err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "✓ Database backed up to %s\n", path)
			return nil
		},
	}
}
