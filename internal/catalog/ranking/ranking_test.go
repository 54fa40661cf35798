package ranking

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/store-catalog/api/internal/catalog/domain"
)

func record(id string, tags ...string) domain.StoreRecord {
	return domain.StoreRecord{ID: id, Name: "store " + id, Slug: "store-" + id, Tags: domain.NewTagList(tags)}
}

func reviewsFor(storeID string, ratings ...int) []domain.Review {
	out := make([]domain.Review, 0, len(ratings))
	for i, r := range ratings {
		out = append(out, domain.Review{ID: fmt.Sprintf("%s-r%d", storeID, i), StoreID: storeID, Rating: r})
	}
	return out
}

func TestTopStores_HigherAverageFirst(t *testing.T) {
	records := []domain.StoreRecord{record("a"), record("b")}
	var reviews []domain.Review
	reviews = append(reviews, reviewsFor("a", 3, 4)...)
	reviews = append(reviews, reviewsFor("b", 5, 5)...)

	top := TopStores(records, reviews, 10)
	require.Len(t, top, 2)
	assert.Equal(t, "b", top[0].ID)
	assert.Equal(t, 5.0, top[0].AverageRating)
	assert.Equal(t, 2, top[0].ReviewCount)
	assert.Equal(t, "a", top[1].ID)
	assert.Equal(t, 3.5, top[1].AverageRating)
}

func TestTopStores_ExcludesStoresBelowThreshold(t *testing.T) {
	records := []domain.StoreRecord{record("none"), record("single"), record("pair")}
	var reviews []domain.Review
	reviews = append(reviews, reviewsFor("single", 5)...)
	reviews = append(reviews, reviewsFor("pair", 1, 2)...)

	top := TopStores(records, reviews, 10)
	require.Len(t, top, 1)
	assert.Equal(t, "pair", top[0].ID)
	assert.Len(t, top[0].Reviews, 2)
}

func TestTopStores_TieBreakOnID(t *testing.T) {
	records := []domain.StoreRecord{record("c"), record("a"), record("b")}
	var reviews []domain.Review
	for _, id := range []string{"c", "a", "b"} {
		reviews = append(reviews, reviewsFor(id, 4, 4)...)
	}

	top := TopStores(records, reviews, 10)
	require.Len(t, top, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{top[0].ID, top[1].ID, top[2].ID})
}

func TestTopStores_Limit(t *testing.T) {
	var records []domain.StoreRecord
	var reviews []domain.Review
	for i := 0; i < 15; i++ {
		id := fmt.Sprintf("s%02d", i)
		records = append(records, record(id))
		reviews = append(reviews, reviewsFor(id, 3, 4, 5)...)
	}

	assert.Len(t, TopStores(records, reviews, 10), 10)
	assert.Len(t, TopStores(records, reviews, 3), 3)
	assert.Len(t, TopStores(records, reviews, 0), DefaultTopLimit)
}

func TestTopStores_RandomisedInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		var records []domain.StoreRecord
		var reviews []domain.Review
		for i := 0; i < 20; i++ {
			id := fmt.Sprintf("s%02d", i)
			records = append(records, record(id))
			n := rng.Intn(5)
			ratings := make([]int, n)
			for j := range ratings {
				ratings[j] = 1 + rng.Intn(5)
			}
			reviews = append(reviews, reviewsFor(id, ratings...)...)
		}

		top := TopStores(records, reviews, 10)
		assert.LessOrEqual(t, len(top), 10)
		for i, s := range top {
			assert.GreaterOrEqual(t, s.ReviewCount, MinReviewCount)
			assert.Equal(t, len(s.Reviews), s.ReviewCount)
			if i > 0 {
				assert.GreaterOrEqual(t, top[i-1].AverageRating, s.AverageRating)
			}
		}
	}
}

func TestTopStoresStages_Order(t *testing.T) {
	// Averaging before filtering would still drop single-review stores; the
	// check here is that the filter sees raw review lists.
	joined := JoinReviews([]domain.StoreRecord{record("a"), record("b")}, append(reviewsFor("a", 5), reviewsFor("b", 2, 2)...))
	filtered := MinReviews(2)(joined)
	require.Len(t, filtered, 1)
	assert.Zero(t, filtered[0].AverageRating)

	computed := AverageRating(filtered)
	assert.Equal(t, 2.0, computed[0].AverageRating)
}

func TestTagCounts(t *testing.T) {
	records := []domain.StoreRecord{
		record("1", "wifi", "vegan"),
		record("2", "wifi"),
		record("3", "wifi", "family", "vegan"),
		record("4"),
	}

	counts := TagCounts(records)
	assert.Equal(t, []domain.TagCount{
		{Tag: "wifi", Count: 3},
		{Tag: "vegan", Count: 2},
		{Tag: "family", Count: 1},
	}, counts)

	total := 0
	for _, c := range counts {
		assert.GreaterOrEqual(t, c.Count, 1)
		total += c.Count
	}
	assert.Equal(t, len(UnwindTags(records)), total)
}

func TestTagCounts_TieBreakOnTag(t *testing.T) {
	counts := TagCounts([]domain.StoreRecord{record("1", "zeta", "alpha", "mid")})
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, []string{counts[0].Tag, counts[1].Tag, counts[2].Tag})
}

func TestTagCounts_Empty(t *testing.T) {
	assert.Empty(t, TagCounts(nil))
}
