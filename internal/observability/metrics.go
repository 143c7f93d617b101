package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// view-state controller and its adapters.
type Metrics struct {
	// Seismic feed metrics.
	FeedFetches      *prometheus.CounterVec // labels: outcome={success,error}
	FeedFetchSeconds prometheus.Histogram
	EventsLoaded     prometheus.Gauge

	// Geocoding search metrics.
	SuggestionRequests   *prometheus.CounterVec // labels: outcome={success,error}
	SuggestionStaleDrops prometheus.Counter
	SuggestionCache      *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeSeconds       prometheus.Histogram

	// View metrics.
	CameraCommands *prometheus.CounterVec // labels: kind={fly_to,fit_bounds}
	ThemeToggles   prometheus.Counter

	// Mirror stream metrics.
	StreamPublished prometheus.Counter
	StreamErrors    prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FeedFetches,
		m.FeedFetchSeconds,
		m.EventsLoaded,
		m.SuggestionRequests,
		m.SuggestionStaleDrops,
		m.SuggestionCache,
		m.GeocodeSeconds,
		m.CameraCommands,
		m.ThemeToggles,
		m.StreamPublished,
		m.StreamErrors,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FeedFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quakeview",
			Name:      "feed_fetches_total",
			Help:      "Seismic feed requests by outcome.",
		}, []string{"outcome"}),
		FeedFetchSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quakeview",
			Name:      "feed_fetch_duration_seconds",
			Help:      "Duration of seismic feed requests.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		EventsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quakeview",
			Name:      "events_loaded",
			Help:      "Number of seismic events in the current view state.",
		}),
		SuggestionRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quakeview",
			Name:      "suggestion_requests_total",
			Help:      "Debounced geocoding search requests by outcome.",
		}, []string{"outcome"}),
		SuggestionStaleDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quakeview",
			Name:      "suggestion_stale_drops_total",
			Help:      "Suggestion responses discarded because a newer request superseded them.",
		}),
		SuggestionCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quakeview",
			Name:      "suggestion_cache_total",
			Help:      "Suggestion cache lookups by result.",
		}, []string{"result"}),
		GeocodeSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quakeview",
			Name:      "geocode_duration_seconds",
			Help:      "Geocoding search request duration.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		CameraCommands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quakeview",
			Name:      "camera_commands_total",
			Help:      "Camera transitions issued by kind.",
		}, []string{"kind"}),
		ThemeToggles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quakeview",
			Name:      "theme_toggles_total",
			Help:      "Theme toggle commands processed.",
		}),
		StreamPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quakeview",
			Name:      "stream_events_published_total",
			Help:      "Seismic events mirrored to the stream topic.",
		}),
		StreamErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quakeview",
			Name:      "stream_publish_errors_total",
			Help:      "Failed mirror publishes.",
		}),
	}
}
