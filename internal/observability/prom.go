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

	// Payments
	CheckoutSessions   *prometheus.CounterVec
	Webhooks           *prometheus.CounterVec
	ConfirmationEmails *prometheus.CounterVec
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bashproshop",
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "bashproshop",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				// Sane initial defaults
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "bashproshop",
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		DbQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "bashproshop",
				Subsystem: "db",
				Name:      "query_duration_seconds",
				Help:      "DB operation latency (logical op, not raw SQL)",
				Buckets:   []float64{0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.35, 0.5, 1, 2, 5},
			},
			[]string{"op", "status"},
		),
		DbErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bashproshop",
				Subsystem: "db",
				Name:      "errors_total",
				Help:      "DB errors by logical op and class.",
			},
			[]string{"op", "class"},
		),

		CheckoutSessions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bashproshop",
				Subsystem: "payments",
				Name:      "checkout_sessions_total",
				Help:      "Checkout session creation attempts by result.",
			},
			[]string{"result"}, // result=created|processor_error
		),
		Webhooks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bashproshop",
				Subsystem: "payments",
				Name:      "webhooks_total",
				Help:      "Inbound processor webhooks by event type and result.",
			},
			[]string{"event_type", "result"}, // result=handled|ignored|error|no_recipient|invalid_payload|invalid_signature|too_large
		),
		ConfirmationEmails: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bashproshop",
				Subsystem: "payments",
				Name:      "confirmation_emails_total",
				Help:      "Payment confirmation emails by result.",
			},
			[]string{"result"}, // result=sent|not_complete|duplicate|mail_disabled|failed
		),
	}
	reg.MustRegister(p.RequestsTotal, p.RequestsDuration, p.InFlight, p.DbQueryDuration, p.DbErrorsTotal, p.CheckoutSessions, p.Webhooks, p.ConfirmationEmails)

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

// the payment bridge and handlers take a nil *Prom in tests

func (p *Prom) IncCheckoutSession(result string) {
	if p == nil {
		return
	}
	p.CheckoutSessions.WithLabelValues(result).Inc()
}

func (p *Prom) IncWebhook(eventType, result string) {
	if p == nil {
		return
	}
	if eventType == "" {
		eventType = "unknown"
	}
	p.Webhooks.WithLabelValues(eventType, result).Inc()
}

func (p *Prom) IncConfirmationEmail(result string) {
	if p == nil {
		return
	}
	p.ConfirmationEmails.WithLabelValues(result).Inc()
}
