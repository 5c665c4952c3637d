package albreport

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for alb-log-reporter, grouped
// by pipeline stage.
// NOTE: No key or file labels are used to avoid high cardinality issues
type Metrics struct {
	Retrieval     RetrievalMetrics
	Decompression DecompressionMetrics
	Parsing       ParsingMetrics
	Report        ReportMetrics
}

// RetrievalMetrics tracks object selection and download
type RetrievalMetrics struct {
	// ObjectsSelected tracks objects whose last-modified fell in the window
	ObjectsSelected prometheus.Counter

	// ObjectsDownloaded tracks successfully staged objects
	ObjectsDownloaded prometheus.Counter

	// ObjectsFailed tracks per-object download failures
	ObjectsFailed prometheus.Counter
}

// DecompressionMetrics tracks gzip expansion
type DecompressionMetrics struct {
	FilesDecompressed prometheus.Counter
	FilesFailed       prometheus.Counter
}

// ParsingMetrics tracks line parsing
type ParsingMetrics struct {
	LinesParsed   prometheus.Counter
	LinesRejected prometheus.Counter
}

// ReportMetrics tracks report emission
type ReportMetrics struct {
	// SheetsWritten tracks sheets written to the workbook, chunked sheets included
	SheetsWritten prometheus.Counter

	// RunDuration tracks end-to-end pipeline time
	RunDuration prometheus.Histogram
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry creates metrics with a custom registry
// This is useful for testing to avoid conflicts with the default registry
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Retrieval: RetrievalMetrics{
			ObjectsSelected: factory.NewCounter(prometheus.CounterOpts{
				Name: "alb_reporter_objects_selected_total",
				Help: "Total number of log objects selected in the time window",
			}),
			ObjectsDownloaded: factory.NewCounter(prometheus.CounterOpts{
				Name: "alb_reporter_objects_downloaded_total",
				Help: "Total number of log objects downloaded to staging",
			}),
			ObjectsFailed: factory.NewCounter(prometheus.CounterOpts{
				Name: "alb_reporter_objects_failed_total",
				Help: "Total number of log object downloads that failed",
			}),
		},

		Decompression: DecompressionMetrics{
			FilesDecompressed: factory.NewCounter(prometheus.CounterOpts{
				Name: "alb_reporter_files_decompressed_total",
				Help: "Total number of log files decompressed",
			}),
			FilesFailed: factory.NewCounter(prometheus.CounterOpts{
				Name: "alb_reporter_files_decompress_failed_total",
				Help: "Total number of log files that failed to decompress",
			}),
		},

		Parsing: ParsingMetrics{
			LinesParsed: factory.NewCounter(prometheus.CounterOpts{
				Name: "alb_reporter_lines_parsed_total",
				Help: "Total number of log lines parsed into records",
			}),
			LinesRejected: factory.NewCounter(prometheus.CounterOpts{
				Name: "alb_reporter_lines_rejected_total",
				Help: "Total number of log lines rejected by the parser",
			}),
		},

		Report: ReportMetrics{
			SheetsWritten: factory.NewCounter(prometheus.CounterOpts{
				Name: "alb_reporter_sheets_written_total",
				Help: "Total number of sheets written to the report workbook",
			}),
			RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
				Name:    "alb_reporter_run_duration_seconds",
				Help:    "End-to-end pipeline run time",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800}, // 1s to 30min
			}),
		},
	}
}
