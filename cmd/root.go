// Package cmd implements the pkresolve command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go-pkresolve/config"
	"go-pkresolve/pkg"
	"go-pkresolve/service"
	"go-pkresolve/util"
)

// Version is stamped at build time.
var Version = "dev"

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// app carries the global flags and the loaded configuration to every
// subcommand.
type app struct {
	configDir string
	profile   string
	format    string
	debug     bool
	yesAll    bool
	noLock    bool

	cfg *config.Config
}

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "pkresolve",
		Short: "Package resolution backend for portage trees",
		Long: `pkresolve answers PackageKit style queries (get-packages, resolve,
search, depends, requires, updates, details) against a package database
imported from a portage tree manifest.`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.loadConfig,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&a.configDir, "config-dir", "C", "", "Config base directory")
	pf.StringVarP(&a.profile, "profile", "p", "default", "Profile to use")
	pf.StringVar(&a.format, "format", FormatText, "Output format: text, json or yaml")
	pf.BoolVarP(&a.debug, "debug", "d", false, "Debug verbosity")
	pf.BoolVarP(&a.yesAll, "yes", "y", false, "Answer yes to all prompts")
	pf.BoolVar(&a.noLock, "no-lock", false, "Do not take the lock file for writing commands")

	rootCmd.AddCommand(
		a.initCmd(),
		a.importCmd(),
		a.statusCmd(),
		a.resetDBCmd(),
		a.backupDBCmd(),
		a.logsCmd(),
		a.serveCmd(),
		a.monitorCmd(),
		a.repoCmd(),
	)
	rootCmd.AddCommand(a.queryCmds()...)

	return rootCmd
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		if code := pkg.ErrorCode(err); code != pkg.CodeInternalError {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", code, err)
		} else {
			fmt.Fprintf(os.Stderr, "✗ %v\n", err)
		}
		os.Exit(1)
	}
}

func (a *app) loadConfig(c *cobra.Command, _ []string) error {
	switch a.format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("unknown output format %q", a.format)
	}

	cfg, err := config.LoadConfig(a.configDir, a.profile)
	if err != nil {
		return err
	}
	if a.debug {
		cfg.Debug = true
	}
	config.SetConfig(cfg)
	a.cfg = cfg
	return nil
}

// openService opens the package database. Queries open it read-only so
// they can run next to each other.
func (a *app) openService(readOnly bool) (*service.Service, error) {
	if readOnly && !util.FileExists(a.cfg.DatabasePath) {
		return nil, fmt.Errorf("no package database at %s, run 'pkresolve import' first: %w",
			a.cfg.DatabasePath, pkg.ErrStoreUnavailable)
	}
	return service.NewService(a.cfg, service.Options{ReadOnly: readOnly})
}

// withWriter runs fn with a writable service while holding the lock file.
func (a *app) withWriter(fn func(svc *service.Service) error) error {
	if !a.noLock {
		lock := util.NewFlock(a.cfg.LockFile)
		if err := lock.TryLock(); err != nil {
			if errors.Is(err, util.ErrLocked) {
				return fmt.Errorf("another pkresolve process holds %s", lock.Path())
			}
			return err
		}
		defer lock.Unlock()
	}

	svc, err := a.openService(false)
	if err != nil {
		return err
	}
	defer svc.Close()
	return fn(svc)
}

// confirm asks a yes/no question unless -y was given.
func (a *app) confirm(c *cobra.Command, prompt string, defaultYes bool) bool {
	if a.yesAll {
		return true
	}
	return util.AskYN(c.InOrStdin(), c.OutOrStdout(), prompt, defaultYes)
}

func commandContext(c *cobra.Command) context.Context {
	if ctx := c.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
