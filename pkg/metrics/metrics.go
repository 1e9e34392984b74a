package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	bookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketpoint_bookings_total",
			Help: "Booking workflow outcomes",
		},
		[]string{"result"},
	)

	paymentNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketpoint_payment_notifications_total",
			Help: "Payment webhook outcomes",
		},
		[]string{"outcome"},
	)

	credentialsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ticketpoint_credentials_issued_total",
			Help: "Credentials stored on bookings",
		},
	)

	checkinsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketpoint_checkins_total",
			Help: "Check-in attempts by outcome",
		},
		[]string{"result"},
	)

	deliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ticketpoint_delivery_duration_seconds",
			Help:    "Time to render and mail a ticket",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"result"},
	)

	deliveryQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ticketpoint_delivery_queue_depth",
			Help: "Deliveries waiting for an in-process worker",
		},
	)

	httpRequests = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ticketpoint_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

func RecordBooking(result string) {
	bookingsTotal.WithLabelValues(result).Inc()
}

func RecordPayment(outcome string) {
	paymentNotifications.WithLabelValues(outcome).Inc()
}

func RecordCredentialIssued() {
	credentialsIssued.Inc()
}

func RecordCheckin(result string) {
	checkinsTotal.WithLabelValues(result).Inc()
}

func RecordDelivery(result string, took time.Duration) {
	deliveryDuration.WithLabelValues(result).Observe(took.Seconds())
}

func SetDeliveryQueueDepth(n int) {
	deliveryQueueDepth.Set(float64(n))
}

// Middleware observes request latency per matched route
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
