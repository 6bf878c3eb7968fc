package stats

import (
	"github.com/prometheus/client_golang/prometheus"

	"go-pkresolve/log"
)

// TextfileWriter implements Consumer by writing the collector's registry in
// the Prometheus text format, for the node exporter textfile collector.
//
// Write failures are logged but do not interrupt queries; the export is
// best-effort.
type TextfileWriter struct {
	path     string
	gatherer prometheus.Gatherer
	logger   log.LibraryLogger
}

// NewTextfileWriter creates a consumer exporting gatherer to path.
func NewTextfileWriter(path string, gatherer prometheus.Gatherer, logger log.LibraryLogger) *TextfileWriter {
	if logger == nil {
		logger = log.NoOpLogger{}
	}
	return &TextfileWriter{path: path, gatherer: gatherer, logger: logger}
}

// OnStatsUpdate rewrites the textfile. The snapshot itself is not needed;
// the registry already carries the same figures.
func (w *TextfileWriter) OnStatsUpdate(Snapshot) {
	if err := w.Write(); err != nil {
		w.logger.Warn("Failed to write metrics textfile %s: %v", w.path, err)
	}
}

// Write exports the metrics once. The file is replaced atomically.
func (w *TextfileWriter) Write() error {
	return prometheus.WriteToTextfile(w.path, w.gatherer)
}
