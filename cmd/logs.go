package cmd

import (
	"github.com/spf13/cobra"

	"go-pkresolve/log"
)

func (a *app) logsCmd() *cobra.Command {
	var lines int
	var pattern string

	c := &cobra.Command{
		Use:   "logs [queries|errors|debug]",
		Short: "List the log files or show one of them",
		Long: `Without an argument the log files and their sizes are listed.
With a log name (queries, errors, debug or 00, 01, 02) its last lines are
shown, or the lines matching --grep.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			out := c.OutOrStdout()
			if len(args) == 0 {
				log.ListLogs(out, a.cfg)
				return nil
			}
			if pattern != "" {
				return log.GrepLog(out, a.cfg, args[0], pattern)
			}
			return log.TailLog(out, a.cfg, args[0], lines)
		},
	}
	c.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show")
	c.Flags().StringVar(&pattern, "grep", "", "Show only lines containing this text")
	return c
}
