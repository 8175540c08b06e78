package obs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the process-wide Prometheus collectors.
type Metrics struct {
	requestDuration *prometheus.HistogramVec
	bookingsCreated prometheus.Counter
	bookingsPaid    prometheus.Counter
	feedSyncErrors  prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method, route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		bookingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookings_created_total",
			Help: "Pending booking holds created.",
		}),
		bookingsPaid: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookings_paid_total",
			Help: "Bookings confirmed by payment.",
		}),
		feedSyncErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "feed_sync_errors_total",
			Help: "External calendar feed syncs that failed.",
		}),
	}
	reg.MustRegister(m.requestDuration, m.bookingsCreated, m.bookingsPaid, m.feedSyncErrors)
	return m
}

func (m *Metrics) ObserveRequest(method, route, status string, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requestDuration.WithLabelValues(method, route, status).Observe(elapsed.Seconds())
}

func (m *Metrics) BookingCreated() { m.bookingsCreated.Inc() }
func (m *Metrics) BookingPaid()    { m.bookingsPaid.Inc() }
func (m *Metrics) FeedSyncError()  { m.feedSyncErrors.Inc() }
