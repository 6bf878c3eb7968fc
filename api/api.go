// Package api serves the pkresolve query operations over HTTP.
//
// Every query route answers with the collected service.Result as JSON.
// Per-item problems are part of that body; errors that abort a query are
// answered with an error body and a status derived from the backend code.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go-pkresolve/log"
	"go-pkresolve/service"
)

// HeaderRequestID carries the request id in requests and responses.
const HeaderRequestID = "X-Request-ID"

// shutdownTimeout bounds the graceful shutdown of Serve.
const shutdownTimeout = 10 * time.Second

func init() {
	gin.SetMode(gin.ReleaseMode)
}

// Api wires the service into a gin engine.
type Api struct {
	svc       *service.Service
	logger    log.LibraryLogger
	ginEngine *gin.Engine
}

// New builds the engine with its middleware and routes.
func New(svc *service.Service, logger log.LibraryLogger) *Api {
	if logger == nil {
		logger = log.NoOpLogger{}
	}
	ginEngine := gin.New()
	ginEngine.Use(
		requestid.New(requestid.WithCustomHeaderStrKey(HeaderRequestID)),
		accessLogHandler(logger),
		errorHandler(),
		gin.Recovery(),
	)
	ginEngine.UseRawPath = true

	a := &Api{svc: svc, logger: logger, ginEngine: ginEngine}
	a.setRoutes()
	for _, route := range Routes(ginEngine) {
		logger.Debug("http route %s %s", route[0], route[1])
	}
	return a
}

// Handler returns the gin engine.
func (a *Api) Handler() *gin.Engine {
	return a.ginEngine
}

// metricsHandler exposes the service collector's private registry.
func (a *Api) metricsHandler() gin.HandlerFunc {
	h := promhttp.HandlerFor(a.svc.Metrics().Registry(), promhttp.HandlerOpts{})
	return gin.WrapH(h)
}

// Serve listens on addr until ctx is cancelled, then shuts down
// gracefully.
func (a *Api) Serve(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return a.ServeListener(ctx, listener)
}

// ServeListener serves on an existing listener until ctx is cancelled.
func (a *Api) ServeListener(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           a.ginEngine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()
	a.logger.Info("Listening on %s", listener.Addr())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	a.logger.Info("Server stopped")
	return nil
}
