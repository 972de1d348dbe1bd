package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Friend request actions.
const (
	ActionSend    = "send"
	ActionAccept  = "accept"
	ActionDecline = "decline"
)

// Directory lookup sources.
const (
	SourceCache = "cache"
	SourceStore = "store"
)

var (
	registerOnce sync.Once
	registry     = prometheus.NewRegistry()

	friendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "socialapp_friend_requests_total",
			Help: "Total number of friend request operations by action and outcome.",
		},
		[]string{"action", "status"},
	)

	postsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "socialapp_posts_published_total",
			Help: "Total number of publish attempts.",
		},
		[]string{"status"},
	)

	feedLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "socialapp_feed_loads_total",
			Help: "Total number of feed loads.",
		},
		[]string{"status"},
	)

	directoryLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "socialapp_directory_lookups_total",
			Help: "Profiles resolved by the user directory, by source.",
		},
		[]string{"source"},
	)

	eventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "socialapp_events_published_total",
			Help: "Total number of domain events published.",
		},
		[]string{"event"},
	)

	eventsDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "socialapp_events_dropped_total",
			Help: "Domain events dropped because the dispatch queue was full or closed.",
		},
	)

	eventPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "socialapp_event_publish_errors_total",
			Help: "Total number of event publish errors.",
		},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "socialapp_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "socialapp_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

func register() {
	registerOnce.Do(func() {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			friendRequestsTotal,
			postsPublishedTotal,
			feedLoadsTotal,
			directoryLookupsTotal,
			eventsPublishedTotal,
			eventsDroppedTotal,
			eventPublishErrorsTotal,
			httpRequestsTotal,
			httpRequestDuration,
		)
	})
}

// Handler exposes the service collectors in the Prometheus text format.
func Handler() http.Handler {
	register()
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

func IncFriendRequest(action, status string) {
	register()
	friendRequestsTotal.WithLabelValues(action, status).Inc()
}

func IncPostPublished(status string) {
	register()
	postsPublishedTotal.WithLabelValues(status).Inc()
}

func IncFeedLoad(status string) {
	register()
	feedLoadsTotal.WithLabelValues(status).Inc()
}

// AddDirectoryLookups records n profiles resolved from source.
func AddDirectoryLookups(source string, n int) {
	if n <= 0 {
		return
	}
	register()
	directoryLookupsTotal.WithLabelValues(source).Add(float64(n))
}

func IncEventPublished(event string) {
	if event == "" {
		event = "unknown"
	}
	register()
	eventsPublishedTotal.WithLabelValues(event).Inc()
}

func IncEventDropped() {
	register()
	eventsDroppedTotal.Inc()
}

func IncEventPublishError() {
	register()
	eventPublishErrorsTotal.Inc()
}

// RecordHTTPRequest observes a served request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unknown"
	}
	register()
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}
