package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	storeRequestCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dayledger",
		Subsystem: "store",
		Name:      "requests_total",
		Help:      "Ledger store round trips by operation and outcome.",
	}, []string{"operation", "outcome"})
	storeRequestSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "dayledger",
		Subsystem: "store",
		Name:      "request_seconds",
		Help:      "Ledger store round-trip latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
	dayTotalGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "dayledger",
		Subsystem: "budget",
		Name:      "day_total_minutes",
		Help:      "Minute total of the currently loaded day.",
	})
	dayCompleteGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "dayledger",
		Subsystem: "budget",
		Name:      "day_complete",
		Help:      "1 when the loaded day sums to the full 1440-minute budget.",
	})
)

func init() {
	prometheus.MustRegister(storeRequestCounter, storeRequestSeconds, dayTotalGauge, dayCompleteGauge)
}

// ObserveStoreRequest records one ledger store round trip.
func ObserveStoreRequest(operation string, err error, elapsed time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	storeRequestCounter.WithLabelValues(operation, outcome).Inc()
	storeRequestSeconds.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// RecordDayTotals updates the budget watermark gauges after a day reload.
func RecordDayTotals(totalMinutes int, complete bool) {
	dayTotalGauge.Set(float64(totalMinutes))
	if complete {
		dayCompleteGauge.Set(1)
	} else {
		dayCompleteGauge.Set(0)
	}
}
