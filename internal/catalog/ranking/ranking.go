// Package ranking holds the catalog-wide aggregation pipelines as ordered
// sequences of named stages over in-memory values. The Mongo adapter pushes
// the same stages down as an aggregation pipeline.
package ranking

import (
	"sort"

	"github.com/sngm3741/store-catalog/api/internal/catalog/domain"
)

const (
	// DefaultTopLimit caps the top-stores view.
	DefaultTopLimit = 10
	// MaxTopLimit bounds caller-supplied limits.
	MaxTopLimit = 100
	// MinReviewCount is the popularity threshold for ranking.
	MinReviewCount = 2
)

// Stage transforms a ranked candidate set. Stages run in the order given.
type Stage func([]domain.RankedStore) []domain.RankedStore

// TopStoresStages is the fixed top-stores sequence after the join:
// filter, compute, sort, limit.
func TopStoresStages(limit int) []Stage {
	return []Stage{
		MinReviews(MinReviewCount),
		AverageRating,
		SortByAverage,
		Limit(limit),
	}
}

// TopStores runs the full top-stores pipeline: join, then TopStoresStages.
func TopStores(records []domain.StoreRecord, reviews []domain.Review, limit int) []domain.RankedStore {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	candidates := JoinReviews(records, reviews)
	for _, stage := range TopStoresStages(limit) {
		candidates = stage(candidates)
	}
	return candidates
}

// JoinReviews attaches each store's reviews (matched on store id) and records
// the review count.
func JoinReviews(records []domain.StoreRecord, reviews []domain.Review) []domain.RankedStore {
	byStore := make(map[string][]domain.Review, len(records))
	for _, review := range reviews {
		byStore[review.StoreID] = append(byStore[review.StoreID], review)
	}
	result := make([]domain.RankedStore, 0, len(records))
	for _, record := range records {
		joined := byStore[record.ID]
		result = append(result, domain.RankedStore{
			Store:       domain.NewStore(record, joined),
			ReviewCount: len(joined),
		})
	}
	return result
}

// MinReviews keeps stores with at least n reviews.
func MinReviews(n int) Stage {
	return func(in []domain.RankedStore) []domain.RankedStore {
		out := in[:0:0]
		for _, s := range in {
			if len(s.Reviews) >= n {
				out = append(out, s)
			}
		}
		return out
	}
}

// AverageRating sets the arithmetic mean of review ratings, leaving every other
// field as it was.
func AverageRating(in []domain.RankedStore) []domain.RankedStore {
	for i := range in {
		in[i].ReviewCount = len(in[i].Reviews)
		if len(in[i].Reviews) == 0 {
			in[i].AverageRating = 0
			continue
		}
		sum := 0
		for _, r := range in[i].Reviews {
			sum += r.Rating
		}
		in[i].AverageRating = float64(sum) / float64(len(in[i].Reviews))
	}
	return in
}

// SortByAverage orders by average rating descending, then store id ascending.
func SortByAverage(in []domain.RankedStore) []domain.RankedStore {
	sort.SliceStable(in, func(i, j int) bool {
		if in[i].AverageRating != in[j].AverageRating {
			return in[i].AverageRating > in[j].AverageRating
		}
		return in[i].ID < in[j].ID
	})
	return in
}

// Limit truncates to at most n entries.
func Limit(n int) Stage {
	return func(in []domain.RankedStore) []domain.RankedStore {
		if n >= 0 && len(in) > n {
			return in[:n]
		}
		return in
	}
}
