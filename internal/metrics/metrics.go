package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for registrations and check-in
var (
	Registrations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "qrevent_registrations_total",
			Help: "Total number of successful event registrations",
		},
	)

	TicketsIssued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "qrevent_tickets_issued_total",
			Help: "Total number of QR tickets issued",
		},
	)

	TicketingFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "qrevent_ticketing_failures_total",
			Help: "Registrations that were saved but could not be ticketed",
		},
	)

	TicketsValidated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "qrevent_tickets_validated_total",
			Help: "Total number of tickets validated at check-in",
		},
	)

	ValidationRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qrevent_validation_rejections_total",
			Help: "Ticket validations rejected, by reason",
		},
		[]string{"reason"},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
)

// Register registers all metrics with reg.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		Registrations,
		TicketsIssued,
		TicketingFailures,
		TicketsValidated,
		ValidationRejections,
		HTTPRequestsTotal,
		HTTPRequestDuration,
	)
}
