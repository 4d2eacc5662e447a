// Package metrics exposes the application Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "autoschool"

// results
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultFailed   = "failed"
)

var (
	HTTPRequests = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Name: "http_request_duration_seconds", Help: "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	LoginAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "login_attempts_total", Help: "Login attempts by result",
	}, []string{"result"})
	Bookings = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "bookings_total", Help: "Booking requests by result",
	}, []string{"result"})
	BookingCancellations = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "booking_cancellations_total", Help: "Cancelled bookings",
	})
	Payments = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "payments_total", Help: "Recorded payments",
	})
	PaymentsAmount = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "payments_amount_total", Help: "Sum of recorded payments",
	})
)

func init() {
	prometheus.MustRegister(HTTPRequests, LoginAttempts, Bookings, BookingCancellations, Payments, PaymentsAmount)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveLogin(result string) { LoginAttempts.WithLabelValues(result).Inc() }

func ObserveBooking(result string) { Bookings.WithLabelValues(result).Inc() }

func ObserveCancellation() { BookingCancellations.Inc() }

func ObservePayment(amount int64) {
	Payments.Inc()
	PaymentsAmount.Add(float64(amount))
}

// Middleware records the latency of every request by route pattern and status.
// Errors are handed to the echo error handler here so that the final status is known.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			if err := next(ctx); err != nil {
				ctx.Error(err)
			}
			route := ctx.Path()
			if route == "" {
				route = "unmatched"
			}
			HTTPRequests.
				WithLabelValues(ctx.Request().Method, route, strconv.Itoa(ctx.Response().Status)).
				Observe(time.Since(start).Seconds())
			return nil
		}
	}
}
