package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medialib_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "medialib_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "medialib_http_requests_in_flight",
			Help: "HTTP requests currently being served",
		},
	)
)

// Thumbnail pipeline metrics
var (
	ThumbnailCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medialib_thumbnail_cache_hits_total",
			Help: "Thumbnail requests served from the disk cache",
		},
	)

	ThumbnailCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medialib_thumbnail_cache_misses_total",
			Help: "Thumbnail requests that required generation",
		},
	)

	ThumbnailGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "medialib_thumbnail_generation_duration_seconds",
			Help:    "Time spent generating a thumbnail",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"kind"}, // "image" or "video"
	)

	ThumbnailFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medialib_thumbnail_failures_total",
			Help: "Thumbnail generation failures by kind",
		},
		[]string{"kind"},
	)

	DecodesInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "medialib_decodes_in_flight",
			Help: "Decode operations currently holding a limiter permit",
		},
	)
)

// Metadata pipeline metrics
var (
	MetadataCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medialib_metadata_cache_hits_total",
			Help: "Metadata lookups served from the persistent cache",
		},
	)

	MetadataCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medialib_metadata_cache_misses_total",
			Help: "Metadata lookups that required extraction",
		},
	)

	MetadataCacheStale = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medialib_metadata_cache_stale_total",
			Help: "Cached metadata records rejected as stale or incomplete",
		},
	)

	MetadataExtractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "medialib_metadata_extraction_duration_seconds",
			Help:    "Time spent extracting metadata from a file",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"kind"}, // "image" or "container"
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medialib_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "medialib_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)
)

// Scanner metrics
var (
	ScannerFilesDiscovered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medialib_scanner_files_discovered_total",
			Help: "Media files discovered by directory scans",
		},
	)

	ScannerRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medialib_scanner_runs_total",
			Help: "Total number of directory scans",
		},
	)
)
