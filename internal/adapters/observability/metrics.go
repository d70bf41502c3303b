package observability

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "migrator", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "migrator", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	MigrationRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "migrator", Name: "runs_total", Help: "Finished migration runs by outcome."},
		[]string{"status"}, // completed|failed|partial
	)
	HotelsMigrated = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "migrator", Name: "hotels_total", Help: "Hotels processed by outcome."},
		[]string{"status"}, // completed|partial|failed
	)
	PhotosDownloaded = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "migrator", Name: "photos_total", Help: "Photo downloads by result."},
		[]string{"result"}, // ok|failed
	)
	ProgressEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "migrator", Name: "progress_events_total", Help: "Progress events published."},
		[]string{"type"},
	)
	HotelDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "migrator", Name: "hotel_duration_seconds",
			Help:    "Per-hotel pipeline duration seconds.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)
)

func Serve() {
	addr := os.Getenv("METRICS_ADDR")
	if addr == "" {
		return // disabled
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, MigrationRuns, HotelsMigrated,
		PhotosDownloaded, ProgressEvents, HotelDuration)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveRun(status string) { MigrationRuns.WithLabelValues(status).Inc() }

func ObserveHotel(status string, dur time.Duration) {
	HotelsMigrated.WithLabelValues(status).Inc()
	HotelDuration.Observe(dur.Seconds())
}

func ObservePhoto(result string) { PhotosDownloaded.WithLabelValues(result).Inc() }

func ObserveProgress(eventType string) { ProgressEvents.WithLabelValues(eventType).Inc() }
