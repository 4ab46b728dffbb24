package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	holdsPlaced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "holds_placed_total",
			Help:      "Count of hold attempts by outcome.",
		},
		[]string{"outcome"},
	)

	bookingsConfirmed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "confirms_total",
			Help:      "Count of confirm attempts by outcome.",
		},
		[]string{"outcome"},
	)

	holdsSwept = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "holds_swept_total",
			Help:      "Count of expired holds reclaimed by the sweep.",
		},
	)

	availabilityCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "availability_cache_total",
			Help:      "Availability reads by cache result.",
		},
		[]string{"result"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(holdsPlaced, bookingsConfirmed, holdsSwept, availabilityCache)
	})
}

func IncHoldPlaced(outcome string) {
	holdsPlaced.WithLabelValues(outcome).Inc()
}

func IncConfirm(outcome string) {
	bookingsConfirmed.WithLabelValues(outcome).Inc()
}

func AddHoldsSwept(n int) {
	holdsSwept.Add(float64(n))
}

func IncAvailabilityCache(result string) {
	availabilityCache.WithLabelValues(result).Inc()
}
