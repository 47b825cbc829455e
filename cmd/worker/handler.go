package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/Domenick1991/farequote/internal/kafka"
)

type facetInvalidator interface {
	InvalidateFacets(ctx context.Context) error
}

// fareChangedHandler drops the cached facets for every fare event. Cache
// failures are logged and never returned, so the consumer keeps running
// through a redis outage.
func fareChangedHandler(facets facetInvalidator, logger *zap.SugaredLogger) func(context.Context, kafka.FareChangedEvent) error {
	return func(ctx context.Context, event kafka.FareChangedEvent) error {
		logger.Debugw("fare event", "type", event.Type, "flight_code", event.FlightCode, "fare_id", event.FareID)
		if err := facets.InvalidateFacets(ctx); err != nil {
			logger.Warnw("invalidate facets", "error", err, "fare_id", event.FareID)
		}
		return nil
	}
}
