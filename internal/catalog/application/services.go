package application

import (
	"context"
	"math"

	"github.com/sngm3741/store-catalog/api/internal/catalog/domain"
)

// StoreRepository abstracts storage of store records.
// 戻り値は常に StoreRecord で、レビューの結合は ReviewAggregator が行う。
type StoreRepository interface {
	// Create assigns an id and persists the record. A duplicate slug is domain.ErrConflict.
	Create(ctx context.Context, record *domain.StoreRecord) error
	// Update replaces the mutable fields of the record with the same id.
	Update(ctx context.Context, record domain.StoreRecord) error
	FindByID(ctx context.Context, id string) (*domain.StoreRecord, error)
	FindBySlug(ctx context.Context, slug string) (*domain.StoreRecord, error)
	Find(ctx context.Context, filter StoreFilter, paging Paging) ([]domain.StoreRecord, error)
	Count(ctx context.Context, filter StoreFilter) (int64, error)
	// CountSlugMatches counts slugs matching the base or a numbered variant of it,
	// case-insensitively, skipping excludeID.
	CountSlugMatches(ctx context.Context, base, excludeID string) (int64, error)
	// SearchText returns stores ordered by text relevance, best first.
	SearchText(ctx context.Context, query string, limit int) ([]domain.StoreRecord, error)
	// SearchNear returns stores within maxDistance meters, closest first.
	SearchNear(ctx context.Context, point domain.Point, maxDistance float64, limit int) ([]domain.StoreRecord, error)
}

// ReviewRepository reads reviews owned by the review storage.
type ReviewRepository interface {
	FindByStoreIDs(ctx context.Context, storeIDs []string) ([]domain.Review, error)
}

// RankingRepository evaluates the catalog-wide aggregation pipelines.
type RankingRepository interface {
	TopStores(ctx context.Context, limit int) ([]domain.RankedStore, error)
	TagCounts(ctx context.Context) ([]domain.TagCount, error)
}

// SlugLocker は同じベーススラッグへの書き込みを直列化するポート。
type SlugLocker interface {
	Lock(ctx context.Context, base string) (unlock func(), err error)
}

// Counter is satisfied by prometheus.Counter.
type Counter interface {
	Inc()
}

// StoreFilter expresses list criteria for stores.
type StoreFilter struct {
	// Tag keeps stores carrying exactly this tag.
	Tag string
	// AnyTag keeps stores that have at least one tag. Ignored when Tag is set.
	AnyTag bool
}

// Paging controls pagination. Page starts at 1.
type Paging struct {
	Page  int
	Limit int
	Sort  string
}

// Skip returns the number of records before the page. It saturates at
// math.MaxInt instead of overflowing for huge pages.
func (p Paging) Skip() int {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

const (
	// SortCreatedDesc lists newest stores first.
	SortCreatedDesc = "createdAt"
	// SortName lists stores alphabetically.
	SortName = "name"
)

// CreateStoreCommand captures a new store submitted by an authenticated user.
type CreateStoreCommand struct {
	Input domain.StoreInput
}

// UpdateStoreCommand captures an edit. EditorID must match the store's author.
type UpdateStoreCommand struct {
	ID       string
	EditorID string
	Input    domain.StoreInput
}

// TagView is the tag page: the vocabulary plus the stores carrying the tag.
type TagView struct {
	Tag    string
	Tags   []domain.TagCount
	Stores []domain.Store
}
