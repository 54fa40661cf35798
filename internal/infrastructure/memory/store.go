// Package memory is an in-process implementation of the catalog ports. It
// backs STORAGE_DRIVER=memory and serves as the storage double in tests.
package memory

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/google/uuid"

	"github.com/sngm3741/store-catalog/api/internal/catalog/application"
	"github.com/sngm3741/store-catalog/api/internal/catalog/domain"
	"github.com/sngm3741/store-catalog/api/internal/catalog/ranking"
	"github.com/sngm3741/store-catalog/api/internal/catalog/slug"
)

const (
	nameWeight        = 5
	descriptionWeight = 1
)

// Catalog holds stores and reviews in memory. It implements
// application.StoreRepository, application.ReviewRepository and
// application.RankingRepository.
type Catalog struct {
	mu      sync.RWMutex
	stores  map[string]domain.StoreRecord
	reviews []domain.Review
	newID   func() string
}

func NewCatalog() *Catalog {
	return &Catalog{
		stores: make(map[string]domain.StoreRecord),
		newID:  newTimeOrderedID,
	}
}

// newTimeOrderedID returns a UUIDv7, whose string order follows creation order
// like a Mongo ObjectID.
func newTimeOrderedID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

var (
	_ application.StoreRepository   = (*Catalog)(nil)
	_ application.ReviewRepository  = (*Catalog)(nil)
	_ application.RankingRepository = (*Catalog)(nil)
)

func (c *Catalog) Create(_ context.Context, record *domain.StoreRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.slugTakenLocked(record.Slug, "") {
		return fmt.Errorf("%w: slug %q already exists", domain.ErrConflict, record.Slug)
	}
	record.ID = c.newID()
	c.stores[record.ID] = cloneRecord(*record)
	return nil
}

func (c *Catalog) Update(_ context.Context, record domain.StoreRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.stores[record.ID]; !ok {
		return domain.ErrNotFound
	}
	if c.slugTakenLocked(record.Slug, record.ID) {
		return fmt.Errorf("%w: slug %q already exists", domain.ErrConflict, record.Slug)
	}
	c.stores[record.ID] = cloneRecord(record)
	return nil
}

func (c *Catalog) slugTakenLocked(value, excludeID string) bool {
	for id, s := range c.stores {
		if id != excludeID && s.Slug == value {
			return true
		}
	}
	return false
}

func (c *Catalog) FindByID(_ context.Context, id string) (*domain.StoreRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	record, ok := c.stores[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := cloneRecord(record)
	return &out, nil
}

func (c *Catalog) FindBySlug(_ context.Context, value string) (*domain.StoreRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, record := range c.stores {
		if record.Slug == value {
			out := cloneRecord(record)
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (c *Catalog) Find(_ context.Context, filter application.StoreFilter, paging application.Paging) ([]domain.StoreRecord, error) {
	c.mu.RLock()
	matched := c.filterLocked(filter)
	c.mu.RUnlock()

	switch paging.Sort {
	case application.SortName:
		sort.SliceStable(matched, func(i, j int) bool {
			if matched[i].Name != matched[j].Name {
				return matched[i].Name < matched[j].Name
			}
			return matched[i].ID < matched[j].ID
		})
	default:
		sort.SliceStable(matched, func(i, j int) bool {
			if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
				return matched[i].CreatedAt.After(matched[j].CreatedAt)
			}
			return matched[i].ID > matched[j].ID
		})
	}

	skip := paging.Skip()
	if skip < 0 || skip >= len(matched) {
		return []domain.StoreRecord{}, nil
	}
	matched = matched[skip:]
	if paging.Limit > 0 && len(matched) > paging.Limit {
		matched = matched[:paging.Limit]
	}
	return matched, nil
}

func (c *Catalog) Count(_ context.Context, filter application.StoreFilter) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return int64(len(c.filterLocked(filter))), nil
}

func (c *Catalog) filterLocked(filter application.StoreFilter) []domain.StoreRecord {
	out := make([]domain.StoreRecord, 0, len(c.stores))
	for _, record := range c.stores {
		switch {
		case filter.Tag != "":
			if !record.Tags.Contains(filter.Tag) {
				continue
			}
		case filter.AnyTag:
			if len(record.Tags) == 0 {
				continue
			}
		}
		out = append(out, cloneRecord(record))
	}
	return out
}

func (c *Catalog) CountSlugMatches(_ context.Context, base, excludeID string) (int64, error) {
	re, err := regexp.Compile("(?i)" + slug.Pattern(base))
	if err != nil {
		return 0, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var n int64
	for id, record := range c.stores {
		if id == excludeID {
			continue
		}
		if re.MatchString(record.Slug) {
			n++
		}
	}
	return n, nil
}

// SearchText scores stores by weighted term frequency over name and
// description. Stores without any matching term are left out.
func (c *Catalog) SearchText(_ context.Context, query string, limit int) ([]domain.StoreRecord, error) {
	terms := tokenize(query)
	if len(terms) == 0 {
		return []domain.StoreRecord{}, nil
	}

	type scored struct {
		record domain.StoreRecord
		score  int
	}

	c.mu.RLock()
	hits := make([]scored, 0)
	for _, record := range c.stores {
		score := nameWeight*termHits(terms, record.Name) + descriptionWeight*termHits(terms, record.Description)
		if score > 0 {
			hits = append(hits, scored{record: cloneRecord(record), score: score})
		}
	}
	c.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].record.ID < hits[j].record.ID
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	out := make([]domain.StoreRecord, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.record)
	}
	return out, nil
}

// SearchNear returns the projected records within maxDistance meters, closest
// first. Stores without a usable point never match.
func (c *Catalog) SearchNear(_ context.Context, point domain.Point, maxDistance float64, limit int) ([]domain.StoreRecord, error) {
	type near struct {
		record   domain.StoreRecord
		distance float64
	}

	c.mu.RLock()
	hits := make([]near, 0)
	for _, record := range c.stores {
		if !record.Location.HasPoint() {
			continue
		}
		d := point.DistanceTo(*record.Location.Coordinates)
		if d <= maxDistance {
			hits = append(hits, near{record: projectNear(record), distance: d})
		}
	}
	c.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].distance != hits[j].distance {
			return hits[i].distance < hits[j].distance
		}
		return hits[i].record.ID < hits[j].record.ID
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	out := make([]domain.StoreRecord, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.record)
	}
	return out, nil
}

// AddReview stores a review. Reviews are written by another service in
// production; the in-memory catalog accepts them for seeding and tests.
func (c *Catalog) AddReview(_ context.Context, review domain.Review) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.stores[review.StoreID]; !ok {
		return domain.ErrNotFound
	}
	if review.ID == "" {
		review.ID = c.newID()
	}
	c.reviews = append(c.reviews, review)
	return nil
}

func (c *Catalog) FindByStoreIDs(_ context.Context, storeIDs []string) ([]domain.Review, error) {
	want := make(map[string]struct{}, len(storeIDs))
	for _, id := range storeIDs {
		want[id] = struct{}{}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Review, 0)
	for _, review := range c.reviews {
		if _, ok := want[review.StoreID]; ok {
			out = append(out, review)
		}
	}
	return out, nil
}

func (c *Catalog) TopStores(_ context.Context, limit int) ([]domain.RankedStore, error) {
	records, reviews := c.snapshot()
	return ranking.TopStores(records, reviews, limit), nil
}

func (c *Catalog) TagCounts(_ context.Context) ([]domain.TagCount, error) {
	records, _ := c.snapshot()
	return ranking.TagCounts(records), nil
}

// snapshot copies the catalog so pipelines run without holding the lock.
func (c *Catalog) snapshot() ([]domain.StoreRecord, []domain.Review) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	records := make([]domain.StoreRecord, 0, len(c.stores))
	for _, record := range c.stores {
		records = append(records, cloneRecord(record))
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	reviews := append([]domain.Review{}, c.reviews...)
	return records, reviews
}

func cloneRecord(r domain.StoreRecord) domain.StoreRecord {
	r.Tags = domain.TagList(r.Tags.Strings())
	if r.Location.Coordinates != nil {
		p := *r.Location.Coordinates
		r.Location.Coordinates = &p
	}
	return r
}

// projectNear keeps only the fields a map marker needs.
func projectNear(r domain.StoreRecord) domain.StoreRecord {
	r = cloneRecord(r)
	return domain.StoreRecord{
		ID:          r.ID,
		Slug:        r.Slug,
		Name:        r.Name,
		Description: r.Description,
		Location:    r.Location,
		Photo:       r.Photo,
		Tags:        domain.TagList{},
	}
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func termHits(terms []string, text string) int {
	words := tokenize(text)
	hits := 0
	for _, term := range terms {
		for _, w := range words {
			if w == term {
				hits++
			}
		}
	}
	return hits
}
