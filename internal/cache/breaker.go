package cache

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/Domenick1991/farequote/internal/domain"
)

// FacetStore is the cache surface guarded by BreakerCache.
type FacetStore interface {
	GetFacets(ctx context.Context) (*domain.Facets, error)
	SetFacets(ctx context.Context, facets *domain.Facets) error
	InvalidateFacets(ctx context.Context) error
}

const breakerTripFailures = 5

// BreakerCache stops calling an unhealthy cache for a while so searches go
// straight to the store instead of waiting on redis timeouts. While open,
// every call fails with gobreaker.ErrOpenState.
type BreakerCache struct {
	next    FacetStore
	breaker *gobreaker.CircuitBreaker[*domain.Facets]
}

// NewBreakerCache wraps next. state, when non-nil, tracks the breaker as
// 0 closed, 1 half-open, 2 open.
func NewBreakerCache(next FacetStore, logger *zap.SugaredLogger, state prometheus.Gauge) *BreakerCache {
	settings := gobreaker.Settings{
		Name:        "facet-cache",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTripFailures
		},
		IsSuccessful: isCacheHealthy,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warnw("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			if state != nil {
				state.Set(stateToFloat(to))
			}
		},
	}
	if state != nil {
		state.Set(0)
	}
	return &BreakerCache{next: next, breaker: gobreaker.NewCircuitBreaker[*domain.Facets](settings)}
}

func (c *BreakerCache) GetFacets(ctx context.Context) (*domain.Facets, error) {
	return c.breaker.Execute(func() (*domain.Facets, error) {
		return c.next.GetFacets(ctx)
	})
}

func (c *BreakerCache) SetFacets(ctx context.Context, facets *domain.Facets) error {
	_, err := c.breaker.Execute(func() (*domain.Facets, error) {
		return nil, c.next.SetFacets(ctx, facets)
	})
	return err
}

func (c *BreakerCache) InvalidateFacets(ctx context.Context) error {
	_, err := c.breaker.Execute(func() (*domain.Facets, error) {
		return nil, c.next.InvalidateFacets(ctx)
	})
	return err
}

// isCacheHealthy does not hold the caller's cancellation against redis.
func isCacheHealthy(err error) bool {
	return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (c *BreakerCache) State() gobreaker.State {
	return c.breaker.State()
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
