package application

import (
	"context"
	"fmt"

	"github.com/sngm3741/store-catalog/api/internal/catalog/domain"
)

// ReviewAggregator joins reviews onto store records. Every read path of the
// catalog goes through it, so callers never see a store without reviews.
type ReviewAggregator struct {
	reviews ReviewRepository
}

func NewReviewAggregator(reviews ReviewRepository) *ReviewAggregator {
	return &ReviewAggregator{reviews: reviews}
}

// Attach fetches the reviews of all records in one round trip and returns the
// stores in the same order as records.
func (a *ReviewAggregator) Attach(ctx context.Context, records []domain.StoreRecord) ([]domain.Store, error) {
	stores := make([]domain.Store, 0, len(records))
	if len(records) == 0 {
		return stores, nil
	}

	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	reviews, err := a.reviews.FindByStoreIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load reviews: %w", err)
	}

	byStore := make(map[string][]domain.Review, len(records))
	for _, review := range reviews {
		byStore[review.StoreID] = append(byStore[review.StoreID], review)
	}
	for _, r := range records {
		stores = append(stores, domain.NewStore(r, byStore[r.ID]))
	}
	return stores, nil
}

// AttachOne is Attach for a single record.
func (a *ReviewAggregator) AttachOne(ctx context.Context, record domain.StoreRecord) (*domain.Store, error) {
	stores, err := a.Attach(ctx, []domain.StoreRecord{record})
	if err != nil {
		return nil, err
	}
	return &stores[0], nil
}
