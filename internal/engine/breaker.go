package engine

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/theLastOfCats/series-browser/internal/logging"
	"github.com/theLastOfCats/series-browser/internal/metrics"
)

const breakerName = "engine"

// BreakerSettings tune the circuit breaker around the engine.
type BreakerSettings struct {
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// MinRequests and FailureRatio decide when the circuit opens.
	MinRequests  uint32
	FailureRatio float64
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  5,
		FailureRatio: 0.6,
	}
}

// Breaker wraps an Engine with a circuit breaker so a failing engine is not
// hammered by every search.
type Breaker struct {
	next Engine
	cb   *gobreaker.CircuitBreaker[[]Hit]
}

func NewBreaker(next Engine, s BreakerSettings) *Breaker {
	log := logging.WithComponent("engine")
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]Hit](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= s.FailureRatio {
				log.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_ratio", ratio).Msg("opening circuit")
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info().Str("from", from.String()).Str("to", to.String()).Msg("circuit state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
		// a canceled caller says nothing about the engine's health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &Breaker{next: next, cb: cb}
}

func (b *Breaker) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	return b.execute(func() ([]Hit, error) { return b.next.Search(ctx, query, limit) })
}

func (b *Breaker) Similar(ctx context.Context, slug string, limit int) ([]Hit, error) {
	return b.execute(func() ([]Hit, error) { return b.next.Similar(ctx, slug, limit) })
}

func (b *Breaker) Profile(ctx context.Context, liked []string, limit int) ([]Hit, error) {
	return b.execute(func() ([]Hit, error) { return b.next.Profile(ctx, liked, limit) })
}

// State reports the breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

func (b *Breaker) execute(fn func() ([]Hit, error)) ([]Hit, error) {
	hits, err := b.cb.Execute(fn)
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "rejected").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "failure").Inc()
	}
	return hits, err
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	}
	return 0
}
