// Package service provides the query operations of pkresolve.
//
// The service layer sits between the transports (cobra CLI in cmd/, gin API
// in api/) and the library packages (pkg, pkgdb), providing a clean
// separation of concerns:
//
//   - Transport layer: argument parsing, output formatting, HTTP handling
//   - Service layer (service/): one method per backend operation, owning
//     the database, logging, metrics and per-query bookkeeping
//   - Library layer (pkg, pkgdb): resolution and storage with no I/O coupling
//
// Every operation streams its output into a Sink. Per-item problems (an
// unknown identifier, a package whose metadata cannot be read) go to
// Sink.Error and the operation continues; anything that makes the answer
// unreliable is returned as an error instead.
package service

import (
	"context"
	"fmt"
	"time"

	"go-pkresolve/config"
	"go-pkresolve/log"
	"go-pkresolve/pkg"
	"go-pkresolve/pkgdb"
	"go-pkresolve/stats"
)

// Options configures NewService.
type Options struct {
	// ReadOnly opens the package database with a shared lock. Every query
	// operation works read-only; Import, RepoEnable and Initialize need a
	// writable database.
	ReadOnly bool

	// Collector receives query metrics. A private collector is created
	// when nil.
	Collector *stats.Collector
}

// Service owns the package database and runs queries against it.
//
// Usage:
//
//	cfg, _ := config.LoadConfig("", "default")
//	svc, err := service.NewService(cfg, service.Options{ReadOnly: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer svc.Close()
//
//	res := service.NewResult()
//	err = svc.GetPackages(ctx, "installed;newest", res)
type Service struct {
	cfg     *config.Config
	logger  *log.Logger
	db      *pkgdb.DB
	store   pkg.MetadataStore
	graph   pkg.GraphBuilder
	metrics *stats.Collector
}

// NewService creates a new Service instance with the given configuration.
//
// It initializes the logger and opens the package database. The caller is
// responsible for calling Close() to release resources (typically via defer).
func NewService(cfg *config.Config, opts Options) (*Service, error) {
	logger, err := log.NewLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := pkgdb.Open(cfg.DatabasePath, pkgdb.Options{
		ReadOnly:       opts.ReadOnly,
		AcceptKeywords: cfg.AcceptKeywords,
		Timeout:        cfg.StoreTimeout,
		Logger:         logger,
	})
	if err != nil {
		logger.Close()
		return nil, fmt.Errorf("failed to open package database: %w", err)
	}

	if opts.Collector == nil {
		opts.Collector = stats.NewCollector()
	}

	store := pkg.WithTimeout(db, cfg.StoreTimeout)
	return &Service{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		store:   store,
		graph:   pkgdb.NewGraphBuilder(db, store, logger),
		metrics: opts.Collector,
	}, nil
}

// Close releases resources held by the service (logger, database).
func (s *Service) Close() error {
	var errs []error

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database close: %w", err))
		}
	}

	if s.logger != nil {
		s.logger.Close()
	}

	if len(errs) > 0 {
		return fmt.Errorf("service close errors: %v", errs)
	}

	return nil
}

// Config returns the service's configuration.
func (s *Service) Config() *config.Config {
	return s.cfg
}

// Logger returns the service's logger.
func (s *Service) Logger() *log.Logger {
	return s.logger
}

// Database returns the service's package database.
func (s *Service) Database() *pkgdb.DB {
	return s.db
}

// Metrics returns the service's stats collector.
func (s *Service) Metrics() *stats.Collector {
	return s.metrics
}

// query is the per-call state of one operation.
type query struct {
	svc  *Service
	op   string
	log  *log.ContextLogger
	sink *countingSink
}

// run wraps an operation with a transaction id, the query log line and
// metrics. Fatal errors are logged and returned unchanged.
func (s *Service) run(ctx context.Context, op, args string, sink Sink, fn func(ctx context.Context, q *query) error) error {
	cl := s.logger.WithContext(log.LogContext{TxID: log.NewTxID(), Op: op})
	q := &query{
		svc:  s,
		op:   op,
		log:  cl,
		sink: &countingSink{Sink: sink, metrics: s.metrics, log: cl},
	}

	start := time.Now()
	err := fn(ctx, q)
	took := time.Since(start)

	code := ""
	if err != nil {
		code = pkg.ErrorCode(err)
		cl.Error("%s: %v", code, err)
	}
	s.metrics.RecordQuery(op, took, err, code)
	cl.Query(args, q.sink.emitted, took)
	return err
}

// countingSink forwards to the caller's sink while feeding logs and metrics.
type countingSink struct {
	Sink
	metrics *stats.Collector
	log     *log.ContextLogger
	emitted int
}

func (c *countingSink) Package(p Package) {
	c.emitted++
	c.metrics.RecordEmitted(string(p.Info))
	c.Sink.Package(p)
}

func (c *countingSink) Error(code string, err error) {
	c.metrics.RecordItemError(code)
	c.log.ItemError(code, err)
	c.Sink.Error(code, err)
}

// itemError reports err per item with its backend code.
func (q *query) itemError(err error) {
	q.sink.Error(pkg.ErrorCode(err), err)
}

// pipeline builds the request-scoped filter pipeline.
func (q *query) pipeline(ctx context.Context, filters pkg.FilterSpec) (*pkg.Pipeline, error) {
	return pkg.NewPipeline(ctx, q.svc.store, filters, q.svc.cfg.FreeLicenseGroup, q.log)
}

// enumerator returns a candidate enumerator bounded by Number_of_workers.
func (q *query) enumerator() *pkg.Enumerator {
	return pkg.NewEnumerator(q.svc.store, q.svc.cfg.Workers, q.log)
}

// emit sends id with its description. A description that cannot be read
// is logged and left empty; a store failure aborts the query.
func (q *query) emit(ctx context.Context, id pkg.Identity, info pkg.Info) error {
	summary := ""
	md, err := q.svc.store.Metadata(ctx, id)
	switch {
	case err == nil:
		summary = md.Description
	case isFatal(err):
		return err
	default:
		q.log.Warn("%s: no description: %v", id.CPV(), err)
	}
	q.sink.Package(Package{Info: info, ID: pkg.EncodeID(id), Summary: summary, Ident: id})
	return nil
}

// emitAll emits ids with their listing classification.
func (q *query) emitAll(ctx context.Context, ids []pkg.Identity) error {
	for _, id := range ids {
		if err := q.emit(ctx, id, pkg.InfoFor(id)); err != nil {
			return err
		}
	}
	return nil
}
