package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"go-pkresolve/api"
	"go-pkresolve/log"
	"go-pkresolve/service"
	"go-pkresolve/stats"
)

// metricsFlushInterval is how often the textfile export is refreshed.
const metricsFlushInterval = 15 * time.Second

func (a *app) serveCmd() *cobra.Command {
	var listen string

	c := &cobra.Command{
		Use:   "serve",
		Short: "Serve the query operations over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			if listen == "" {
				listen = a.cfg.ListenAddress
			}
			ctx, stop := signal.NotifyContext(commandContext(c), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return a.withWriter(func(svc *service.Service) error {
				logger := log.Tee{svc.Logger(), &log.WriterLogger{W: c.ErrOrStderr(), Verbose: a.cfg.Debug}}

				metrics := svc.Metrics()
				if a.cfg.MetricsTextfile != "" {
					metrics.AddConsumer(stats.NewTextfileWriter(a.cfg.MetricsTextfile, metrics.Registry(), logger))
					logger.Info("Exporting metrics to %s", a.cfg.MetricsTextfile)
				}
				metrics.Start(ctx, metricsFlushInterval)
				defer metrics.Close()

				return api.New(svc, logger).Serve(ctx, listen)
			})
		},
	}
	c.Flags().StringVarP(&listen, "listen", "l", "", "Listen address (default Listen_address from the config)")
	return c
}
