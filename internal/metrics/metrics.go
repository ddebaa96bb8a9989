package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "marketplace"

var (
	once sync.Once

	bookingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_transitions_total",
			Help:      "Booking status transitions by from and to status.",
		},
		[]string{"from", "to"},
	)

	offersAccepted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "offers_accepted_total",
			Help:      "Offers accepted into bookings.",
		},
	)

	paymentsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_created_total",
			Help:      "Payments created by payment type.",
		},
		[]string{"type"},
	)

	paymentsSettled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_settled_total",
			Help:      "Payments marked paid by payment type.",
		},
		[]string{"type"},
	)

	reopenAnomalies = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reopen_anomalies_total",
			Help:      "Cancelled offer bookings whose request could not be reopened.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		},
		[]string{"route", "status"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			bookingTransitions,
			offersAccepted,
			paymentsCreated,
			paymentsSettled,
			reopenAnomalies,
			httpRequests,
		)
	})
}

// BookingTransition counts one booking status change.
func BookingTransition(from, to string) {
	bookingTransitions.WithLabelValues(from, to).Inc()
}

// OfferAccepted counts one accepted offer.
func OfferAccepted() {
	offersAccepted.Inc()
}

// PaymentCreated counts a new payment of paymentType.
func PaymentCreated(paymentType string) {
	paymentsCreated.WithLabelValues(paymentType).Inc()
}

// PaymentSettled counts a payment marked paid.
func PaymentSettled(paymentType string) {
	paymentsSettled.WithLabelValues(paymentType).Inc()
}

// ReopenAnomaly counts a request reopen that could not be applied.
func ReopenAnomaly() {
	reopenAnomalies.Inc()
}

// IncHTTP counts a served request.
func IncHTTP(route string, status int) {
	httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}
