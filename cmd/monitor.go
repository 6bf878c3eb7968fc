package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"go-pkresolve/client"
	"go-pkresolve/stats"
	"go-pkresolve/ui"
)

// monitorCmd polls the status route of a running server and prints its
// query statistics.
//
// Usage:
//
//	pkresolve monitor                      # watch Listen_address
//	pkresolve monitor --url http://h:8484  # watch another server
//	pkresolve monitor --count 1            # print one snapshot and exit
//	pkresolve monitor --ui                 # full screen dashboard
func (a *app) monitorCmd() *cobra.Command {
	var baseURL string
	var interval time.Duration
	var count int
	var useUI bool

	c := &cobra.Command{
		Use:   "monitor",
		Short: "Watch the query statistics of a running server",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			if interval <= 0 {
				return fmt.Errorf("--interval must be positive")
			}
			if baseURL == "" {
				baseURL = "http://" + a.cfg.ListenAddress
			}
			out := c.OutOrStdout()
			cl := client.New(&http.Client{Timeout: 5 * time.Second}, baseURL)
			ctx := commandContext(c)

			if useUI {
				return runMonitorUI(ctx, cl, interval)
			}

			fmt.Fprintf(out, "Monitoring %s (press Ctrl+C to exit)...\n\n", baseURL)

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for i := 0; count <= 0 || i < count; i++ {
				st, err := cl.GetStatus(ctx)
				if err != nil {
					if count > 0 {
						return err
					}
					fmt.Fprintf(out, "Error reading status: %v\n", err)
				} else {
					displaySnapshot(out, st.Queries)
				}

				if count > 0 && i == count-1 {
					break
				}
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
				}
			}
			return nil
		},
	}
	c.Flags().StringVar(&baseURL, "url", "", "Server base URL (default http://Listen_address)")
	c.Flags().DurationVar(&interval, "interval", time.Second, "Polling interval")
	c.Flags().IntVar(&count, "count", 0, "Number of snapshots to print, 0 for no limit")
	c.Flags().BoolVar(&useUI, "ui", false, "Show a full screen dashboard")
	return c
}

// runMonitorUI drives the full screen dashboard until q, Ctrl+C or ctx
// cancellation.
func runMonitorUI(ctx context.Context, cl *client.Client, interval time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	dashboard := ui.NewMonitorUI()
	dashboard.SetInterruptHandler(cancel)
	if err := dashboard.Start(); err != nil {
		return err
	}
	defer dashboard.Stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if st, err := cl.GetStatus(ctx); err != nil {
			dashboard.ShowError(err)
		} else {
			dashboard.Update(st)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// displaySnapshot formats a query statistics snapshot.
func displaySnapshot(w io.Writer, s stats.Snapshot) {
	fmt.Fprintf(w, "Queries: %d  Failed: %d  Item errors: %d  Emitted: %d\n",
		s.Queries, s.Failed, s.ItemErrors, s.Emitted)
	fmt.Fprintf(w, "Elapsed: %s  Busy: %s  Avg latency: %s\n",
		stats.FormatDuration(s.Elapsed), stats.FormatDuration(s.Busy), stats.AverageLatency(s).Round(time.Microsecond))

	ops := s.Ops()
	if len(ops) > 0 {
		parts := make([]string, len(ops))
		for i, op := range ops {
			parts[i] = fmt.Sprintf("%s=%d", op, s.ByOp[op])
		}
		fmt.Fprintf(w, "By operation: %s\n", strings.Join(parts, " "))
	}
	fmt.Fprintln(w)
}
