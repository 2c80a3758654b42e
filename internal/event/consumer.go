package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	pkgkafka "github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/kafka"
)

// Invalidator drops cached results derived from a business's reviews.
type Invalidator interface {
	InvalidateBusiness(ctx context.Context, businessID string) error
}

// NewReviewIngestedHandler returns a handler that invalidates every cache for
// the business named in a review.ingested event. All invalidators run even
// when one fails; the joined error makes the consumer retry.
func NewReviewIngestedHandler(logger *slog.Logger, invalidators ...Invalidator) pkgkafka.Handler {
	return func(ctx context.Context, event *pkgkafka.Event) error {
		var data ReviewIngestedData
		if err := event.UnmarshalData(&data); err != nil {
			return fmt.Errorf("decode %s payload: %w", event.EventType, err)
		}

		var errs []error
		for _, inv := range invalidators {
			if err := inv.InvalidateBusiness(ctx, data.BusinessID); err != nil {
				errs = append(errs, err)
			}
		}
		if err := errors.Join(errs...); err != nil {
			return fmt.Errorf("invalidate caches for %s: %w", aggregateID(data.BusinessID), err)
		}

		logger.InfoContext(ctx, "caches invalidated",
			slog.String("business_id", data.BusinessID),
			slog.String("event_id", event.EventID),
			slog.Int("inserted", data.Inserted),
		)
		return nil
	}
}
