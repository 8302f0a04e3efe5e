package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type Prom struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec

	// DB
	DbQueryDuration *prometheus.HistogramVec
	DbErrorsTotal   *prometheus.CounterVec

	// external collaborators (image store, payment gateway)
	CollaboratorDuration *prometheus.HistogramVec
	CollaboratorErrors   *prometheus.CounterVec

	// image cleanup jobs (worker)
	CleanupResults  *prometheus.CounterVec
	CleanupInFlight prometheus.Gauge
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "brocante",
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "brocante",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "brocante",
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		DbQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "brocante",
				Subsystem: "db",
				Name:      "query_duration_seconds",
				Help:      "DB operation latency (logical op, not raw SQL)",
				Buckets:   []float64{0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.35, 0.5, 1, 2, 5},
			},
			[]string{"op", "status"},
		),
		DbErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "brocante",
				Subsystem: "db",
				Name:      "errors_total",
				Help:      "DB errors by logical op and class.",
			},
			[]string{"op", "class"},
		),
		CollaboratorDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "brocante",
				Subsystem: "collaborator",
				Name:      "call_duration_seconds",
				Help:      "Outbound collaborator call latency.",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"target", "op", "status"},
		),
		CollaboratorErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "brocante",
				Subsystem: "collaborator",
				Name:      "errors_total",
				Help:      "Outbound collaborator call failures.",
			},
			[]string{"target", "op"},
		),
		CleanupResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "brocante",
				Subsystem: "cleanup",
				Name:      "results_total",
				Help:      "Image cleanup job outcomes.",
			},
			[]string{"result"}, // result=done|failed|invalid
		),
		CleanupInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "brocante",
				Subsystem: "cleanup",
				Name:      "in_flight",
				Help:      "Image cleanup jobs currently executing (per process).",
			},
		),
	}

	reg.MustRegister(
		p.RequestsTotal,
		p.RequestsDuration,
		p.InFlight,
		p.DbQueryDuration,
		p.DbErrorsTotal,
		p.CollaboratorDuration,
		p.CollaboratorErrors,
		p.CleanupResults,
		p.CleanupInFlight,
	)

	return p
}

func (p *Prom) GinHandleMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		// route template is only available after routing; best effort:
		route := ctx.FullPath()

		if route == "" {
			route = "unmatched"
		}

		method := ctx.Request.Method
		p.InFlight.WithLabelValues(method, route).Inc()
		defer p.InFlight.WithLabelValues(method, route).Dec()
		ctx.Next()

		status := strconv.Itoa(ctx.Writer.Status())
		secs := time.Since(start).Seconds()

		p.RequestsTotal.WithLabelValues(method, route, status).Inc()
		p.RequestsDuration.WithLabelValues(method, route, status).Observe(secs)
	}
}

// ObserveCollaborator wraps a single outbound call to the image store or
// payment gateway.
func (p *Prom) ObserveCollaborator(target, op string, fn func() error) error {
	start := time.Now()
	err := fn()

	status := "ok"

	if err != nil {
		status = "error"
		p.CollaboratorErrors.WithLabelValues(target, op).Inc()
	}

	p.CollaboratorDuration.WithLabelValues(target, op, status).Observe(time.Since(start).Seconds())

	return err
}
