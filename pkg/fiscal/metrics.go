package fiscal

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taxifiscal_device_requests_total",
		Help: "Requests to the local fiscal service by endpoint and resulting status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "taxifiscal_device_request_duration_seconds",
		Help:    "Round trip time of successful requests to the local fiscal service",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"endpoint"})

	shiftTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taxifiscal_shift_transitions_total",
		Help: "Shift transitions requested by the lifecycle controller",
	}, []string{
		"transition", // open|reopen
		"result",     // success|failure
	})

	receiptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taxifiscal_receipts_total",
		Help: "Taxi receipt creation attempts by outcome",
	}, []string{"result"}) // success|print_error|expired_retry|failure
)

func observeRequest(endpoint string, status Status) {
	requestsTotal.WithLabelValues(endpoint, status.String()).Inc()
}

func observeDuration(endpoint string, d time.Duration) {
	requestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

func observeShiftTransition(transition string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	shiftTransitionsTotal.WithLabelValues(transition, result).Inc()
}

func observeReceipt(result string) {
	receiptsTotal.WithLabelValues(result).Inc()
}
