package metrics

import (
	"strconv"
	"time"

	"feedsync/core/entity"
	"feedsync/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "feedsync"

// Collector holds the engine and HTTP collectors of one process.
type Collector struct {
	fetches     *prometheus.CounterVec
	transitions *prometheus.CounterVec
	states      *prometheus.GaugeVec
	gaps        *prometheus.CounterVec
	reconciled  *prometheus.CounterVec
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		fetches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Applied page fetches by feed and outcome.",
		}, []string{"feed", "outcome"}),
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_transitions_total",
			Help:      "Pagination state transitions.",
		}, []string{"feed", "from", "to"}),
		states: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_state",
			Help:      "1 for the current pagination state of each feed.",
		}, []string{"feed", "state"}),
		gaps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gap_fills_total",
			Help:      "Finished gap fills by outcome and fallback use.",
		}, []string{"feed", "outcome", "fallback"}),
		reconciled: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciled_records_total",
			Help:      "Records touched by the reconciler by kind and outcome.",
		}, []string{"kind", "outcome"}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// FetchCompleted counts one applied fetch. An empty kind is a success.
func (c *Collector) FetchCompleted(feed, kind string) {
	if kind == "" {
		kind = "ok"
	}
	c.fetches.WithLabelValues(feed, kind).Inc()
}

// Transition counts a state change and moves the state gauge.
func (c *Collector) Transition(feed, from, to string) {
	c.transitions.WithLabelValues(feed, from, to).Inc()
	c.states.WithLabelValues(feed, from).Set(0)
	c.states.WithLabelValues(feed, to).Set(1)
}

// GapCompleted counts a finished gap fill.
func (c *Collector) GapCompleted(feed, outcome string, fallback bool) {
	c.gaps.WithLabelValues(feed, outcome, strconv.FormatBool(fallback)).Inc()
}

// Reconciled implements reconcile.Recorder.
func (c *Collector) Reconciled(kind entity.Kind, outcome reconcile.Outcome) {
	c.reconciled.WithLabelValues(string(kind), string(outcome)).Inc()
}

// Middleware records request counts and latency by route.
func (c *Collector) Middleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()
		err := ctx.Next()

		route := ctx.Route().Path
		status := ctx.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		c.requests.WithLabelValues(ctx.Method(), route, strconv.Itoa(status)).Inc()
		c.duration.WithLabelValues(ctx.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}
