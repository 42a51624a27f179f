package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingestion metrics
var (
	ImportRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edgeboard",
		Name:      "import_runs_total",
		Help:      "Total number of dataset imports by source and status",
	}, []string{"source", "status"})
	ImportRowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edgeboard",
		Name:      "import_rows_total",
		Help:      "Total number of imported rows by kind",
	}, []string{"kind"})
	ImportDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "edgeboard",
		Name:      "import_duration_seconds",
		Help:      "Duration of dataset imports in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
	}, []string{"source"})
)

// RecordImport records a dataset import run. Status is "success", "invalid"
// or "error".
func RecordImport(source, status string, durationSeconds float64) {
	ImportRunsTotal.WithLabelValues(source, status).Inc()
	ImportDuration.WithLabelValues(source).Observe(durationSeconds)
}

// RecordImportRows records the number of rows written for a kind
// ("games", "odds" or "models").
func RecordImportRows(kind string, count int) {
	ImportRowsTotal.WithLabelValues(kind).Add(float64(count))
}
