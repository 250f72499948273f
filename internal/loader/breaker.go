package loader

import (
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"resephub/internal/metrics"
	"resephub/pkg/logging"
)

// payload is what one paired fetch yields.
type payload struct {
	categories []map[string]any
	recipes    []map[string]any
}

// newBreaker guards the upstream pair. Five consecutive failed cycles open
// the circuit; while open, loads go straight to the cached snapshot.
func newBreaker(name string) *gobreaker.CircuitBreaker[payload] {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[payload](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    5 * time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("component", "loader").
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
