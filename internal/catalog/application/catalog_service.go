package application

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sngm3741/store-catalog/api/internal/catalog/domain"
	"github.com/sngm3741/store-catalog/api/internal/catalog/ranking"
	"github.com/sngm3741/store-catalog/api/internal/catalog/slug"
)

const (
	// DefaultPageSize is the number of stores on one listing page.
	DefaultPageSize = 4
	// SearchTextLimit caps text search results.
	SearchTextLimit = 5
	// SearchNearLimit caps proximity search results.
	SearchNearLimit = 10
	// maxSlugAttempts bounds retries after losing a slug race.
	maxSlugAttempts = 5
)

// Options tunes a CatalogService. Zero values fall back to defaults.
type Options struct {
	PageSize      int
	Locker        SlugLocker
	SlugConflicts Counter
	Logger        *zap.Logger
	Now           func() time.Time
}

// CatalogService is the entry point for every catalog use case. It owns slug
// assignment on write and review aggregation on read.
type CatalogService struct {
	stores    StoreRepository
	reviews   *ReviewAggregator
	ranking   RankingRepository
	slugs     *slug.Assigner
	locker    SlugLocker
	conflicts Counter
	logger    *zap.Logger
	pageSize  int
	now       func() time.Time
}

// NewCatalogService wires the service from its ports.
func NewCatalogService(stores StoreRepository, reviews ReviewRepository, rankings RankingRepository, opts Options) *CatalogService {
	s := &CatalogService{
		stores:    stores,
		reviews:   NewReviewAggregator(reviews),
		ranking:   rankings,
		slugs:     slug.NewAssigner(stores),
		locker:    opts.Locker,
		conflicts: opts.SlugConflicts,
		logger:    opts.Logger,
		pageSize:  opts.PageSize,
		now:       opts.Now,
	}
	if s.locker == nil {
		s.locker = noopLocker{}
	}
	if s.conflicts == nil {
		s.conflicts = noopCounter{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.pageSize <= 0 {
		s.pageSize = DefaultPageSize
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// Create validates the input, assigns a unique slug and persists the store.
func (s *CatalogService) Create(ctx context.Context, cmd CreateStoreCommand) (*domain.Store, error) {
	record, err := domain.NewStoreRecord(cmd.Input)
	if err != nil {
		return nil, err
	}
	record.CreatedAt = s.now()

	err = s.withSlug(ctx, record.Name, "", func(candidate string) error {
		record.Slug = candidate
		return s.stores.Create(ctx, &record)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("store created", zap.String("id", record.ID), zap.String("slug", record.Slug))
	store := domain.NewStore(record, nil)
	return &store, nil
}

// Update applies an edit by the store's author. The slug is only recomputed
// when the name changes; author and creation time are never touched.
func (s *CatalogService) Update(ctx context.Context, cmd UpdateStoreCommand) (*domain.Store, error) {
	existing, err := s.stores.FindByID(ctx, strings.TrimSpace(cmd.ID))
	if err != nil {
		return nil, err
	}
	if existing.AuthorID != strings.TrimSpace(cmd.EditorID) {
		return nil, domain.ErrForbidden
	}

	input := cmd.Input
	input.AuthorID = existing.AuthorID
	record, err := domain.NewStoreRecord(input)
	if err != nil {
		return nil, err
	}
	record.ID = existing.ID
	record.CreatedAt = existing.CreatedAt
	record.Slug = existing.Slug

	if record.Name == existing.Name {
		if err := s.stores.Update(ctx, record); err != nil {
			return nil, err
		}
	} else {
		err = s.withSlug(ctx, record.Name, existing.ID, func(candidate string) error {
			record.Slug = candidate
			return s.stores.Update(ctx, record)
		})
		if err != nil {
			return nil, err
		}
	}

	s.logger.Info("store updated", zap.String("id", record.ID), zap.String("slug", record.Slug))
	return s.reviews.AttachOne(ctx, record)
}

// withSlug runs write with successive slug candidates until it stops failing
// with a conflict.
func (s *CatalogService) withSlug(ctx context.Context, name, excludeID string, write func(candidate string) error) error {
	base := slug.From(name)
	unlock, err := s.locker.Lock(ctx, base)
	if err != nil {
		return fmt.Errorf("lock slug %q: %w", base, err)
	}
	defer unlock()

	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		candidate, err := s.slugs.Assign(ctx, name, excludeID, attempt)
		if err != nil {
			return err
		}
		err = write(candidate)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return err
		}
		s.conflicts.Inc()
		s.logger.Warn("slug taken, retrying",
			zap.String("slug", candidate),
			zap.Int("attempt", attempt+1),
		)
	}
	return fmt.Errorf("%w: no free slug for %q after %d attempts", domain.ErrConflict, base, maxSlugAttempts)
}

// FindBySlug returns the store addressed by slug with its reviews.
func (s *CatalogService) FindBySlug(ctx context.Context, slugValue string) (*domain.Store, error) {
	record, err := s.stores.FindBySlug(ctx, strings.TrimSpace(slugValue))
	if err != nil {
		return nil, err
	}
	return s.reviews.AttachOne(ctx, *record)
}

// FindByID returns the store with the given id with its reviews.
func (s *CatalogService) FindByID(ctx context.Context, id string) (*domain.Store, error) {
	record, err := s.stores.FindByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	return s.reviews.AttachOne(ctx, *record)
}

// List returns one page of stores, newest first. A page past the end comes
// back empty with LastPage set.
func (s *CatalogService) List(ctx context.Context, page int) (*domain.StorePage, error) {
	if page < 1 {
		page = 1
	}
	// skip が int に収まらないページは件数だけ数えて最終ページへ誘導する
	if page > math.MaxInt/s.pageSize {
		count, err := s.stores.Count(ctx, StoreFilter{})
		if err != nil {
			return nil, err
		}
		return s.overflowPage(page, count), nil
	}
	paging := Paging{Page: page, Limit: s.pageSize, Sort: SortCreatedDesc}

	var (
		records []domain.StoreRecord
		count   int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = s.stores.Find(gctx, StoreFilter{}, paging)
		return err
	})
	g.Go(func() error {
		var err error
		count, err = s.stores.Count(gctx, StoreFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(records) == 0 && paging.Skip() > 0 {
		return s.overflowPage(page, count), nil
	}

	stores, err := s.reviews.Attach(ctx, records)
	if err != nil {
		return nil, err
	}
	return &domain.StorePage{Page: page, Pages: s.pageCount(count), Count: count, Stores: stores}, nil
}

func (s *CatalogService) pageCount(count int64) int {
	return int((count + int64(s.pageSize) - 1) / int64(s.pageSize))
}

func (s *CatalogService) overflowPage(page int, count int64) *domain.StorePage {
	pages := s.pageCount(count)
	return &domain.StorePage{
		Page:     page,
		Pages:    pages,
		Count:    count,
		Stores:   []domain.Store{},
		LastPage: max(pages, 1),
	}
}

// SearchByText runs a relevance search over name and description. A blank
// query matches nothing and touches no storage.
func (s *CatalogService) SearchByText(ctx context.Context, query string) ([]domain.Store, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.Store{}, nil
	}
	records, err := s.stores.SearchText(ctx, query, SearchTextLimit)
	if err != nil {
		return nil, err
	}
	return s.reviews.Attach(ctx, records)
}

// SearchNear returns the closest stores within the default radius.
func (s *CatalogService) SearchNear(ctx context.Context, lng, lat float64) ([]domain.Store, error) {
	point, err := domain.NewPoint(lng, lat)
	if err != nil {
		return nil, err
	}
	records, err := s.stores.SearchNear(ctx, point, domain.DefaultMaxDistanceMeters, SearchNearLimit)
	if err != nil {
		return nil, err
	}
	return s.reviews.Attach(ctx, records)
}

// TopStores returns the highest-rated stores with at least two reviews. limit
// is capped at ranking.MaxTopLimit.
func (s *CatalogService) TopStores(ctx context.Context, limit int) ([]domain.RankedStore, error) {
	if limit <= 0 {
		limit = ranking.DefaultTopLimit
	}
	return s.ranking.TopStores(ctx, min(limit, ranking.MaxTopLimit))
}

// TagCounts returns every tag in use with its store count.
func (s *CatalogService) TagCounts(ctx context.Context) ([]domain.TagCount, error) {
	return s.ranking.TagCounts(ctx)
}

// StoresByTag returns the tag vocabulary together with the stores carrying
// tag. An empty tag selects every store that has a tag at all.
func (s *CatalogService) StoresByTag(ctx context.Context, tag string) (*TagView, error) {
	tag = strings.TrimSpace(tag)
	filter := StoreFilter{Tag: tag, AnyTag: tag == ""}

	var (
		tags    []domain.TagCount
		records []domain.StoreRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tags, err = s.ranking.TagCounts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = s.stores.Find(gctx, filter, Paging{Sort: SortName})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stores, err := s.reviews.Attach(ctx, records)
	if err != nil {
		return nil, err
	}
	return &TagView{Tag: tag, Tags: tags, Stores: stores}, nil
}

type noopCounter struct{}

func (noopCounter) Inc() {}

type noopLocker struct{}

func (noopLocker) Lock(context.Context, string) (func(), error) { return func() {}, nil }
