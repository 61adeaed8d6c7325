package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trezcool/academia/services/notify"
)

// Collectors holds the application metrics. Each instance registers against its own registerer.
type Collectors struct {
	gatherer prometheus.Gatherer

	notifications        *prometheus.CounterVec
	notificationDuration *prometheus.HistogramVec

	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var _ notify.Recorder = (*Collectors)(nil)

// New creates the collectors and registers them in `reg`.
// A nil `reg` uses a fresh registry, which keeps tests isolated.
func New(reg *prometheus.Registry) (*Collectors, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	c := &Collectors{
		gatherer: reg,
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "academia_notifications_total",
				Help: "Notifications by kind and outcome (delivered, failed, dropped).",
			},
			[]string{"kind", "outcome"},
		),
		notificationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "academia_notification_duration_seconds",
				Help:    "Time spent delivering a notification.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latencies in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
	}

	for _, col := range []prometheus.Collector{
		c.notifications, c.notificationDuration,
		c.httpInFlight, c.httpRequestsTotal, c.httpRequestDuration,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Record implements notify.Recorder.
func (c *Collectors) Record(res notify.Result) {
	c.notifications.WithLabelValues(res.Kind, res.Outcome).Inc()
	if res.Outcome != notify.OutcomeDropped {
		c.notificationDuration.WithLabelValues(res.Kind).Observe(res.Duration.Seconds())
	}
}

// Handler exposes the collectors in the Prometheus text format.
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// EchoMiddleware measures every request handled by echo. Paths are route templates, not raw URLs.
func (c *Collectors) EchoMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			c.httpInFlight.Inc()
			defer c.httpInFlight.Dec()
			start := time.Now()

			err := next(ctx)
			if err != nil {
				ctx.Error(err) // commits the response so the status is known
			}

			path := ctx.Path()
			if path == "" {
				path = "unmatched"
			}
			status := strconv.Itoa(ctx.Response().Status)
			method := ctx.Request().Method
			c.httpRequestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
			c.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
			return nil
		}
	}
}
