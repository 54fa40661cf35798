package application_test

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/store-catalog/api/internal/catalog/application"
	"github.com/sngm3741/store-catalog/api/internal/catalog/domain"
	"github.com/sngm3741/store-catalog/api/internal/catalog/ranking"
	"github.com/sngm3741/store-catalog/api/internal/infrastructure/memory"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

func newService(t *testing.T, opts application.Options) (*application.CatalogService, *memory.Catalog) {
	t.Helper()
	catalog := memory.NewCatalog()
	if opts.Now == nil {
		opts.Now = (&clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}).Now
	}
	return application.NewCatalogService(catalog, catalog, catalog, opts), catalog
}

func input(name string, mods ...func(*domain.StoreInput)) domain.StoreInput {
	in := domain.StoreInput{
		Name:        name,
		Description: "A place called " + name,
		Address:     "1 Main St",
		Coordinates: []float64{-79.3832, 43.6532},
		AuthorID:    "author-1",
	}
	for _, m := range mods {
		m(&in)
	}
	return in
}

func create(t *testing.T, svc *application.CatalogService, in domain.StoreInput) *domain.Store {
	t.Helper()
	store, err := svc.Create(context.Background(), application.CreateStoreCommand{Input: in})
	require.NoError(t, err)
	return store
}

func TestCreate_AssignsSequentialSlugs(t *testing.T) {
	svc, _ := newService(t, application.Options{})

	want := []string{"cafe", "cafe-2", "cafe-3"}
	for _, w := range want {
		store := create(t, svc, input("Cafe"))
		assert.Equal(t, w, store.Slug)
		assert.NotEmpty(t, store.ID)
		assert.NotNil(t, store.Reviews)
	}
}

func TestCreate_UnrelatedSlugsDoNotCount(t *testing.T) {
	svc, _ := newService(t, application.Options{})
	create(t, svc, input("Cafe Luna"))
	create(t, svc, input("My Cafe"))

	store := create(t, svc, input("Cafe"))
	assert.Equal(t, "cafe", store.Slug)
}

func TestCreate_ValidationErrorWritesNothing(t *testing.T) {
	svc, catalog := newService(t, application.Options{})

	_, err := svc.Create(context.Background(), application.CreateStoreCommand{Input: input("   ")})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)

	n, err := catalog.Count(context.Background(), application.StoreFilter{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUpdate_RenameRecomputesSlugExcludingSelf(t *testing.T) {
	svc, _ := newService(t, application.Options{})
	store := create(t, svc, input("Cafe"))

	renamed, err := svc.Update(context.Background(), application.UpdateStoreCommand{
		ID: store.ID, EditorID: "author-1", Input: input("CAFE"),
	})
	require.NoError(t, err)
	assert.Equal(t, "cafe", renamed.Slug)

	renamed, err = svc.Update(context.Background(), application.UpdateStoreCommand{
		ID: store.ID, EditorID: "author-1", Input: input("Tea House"),
	})
	require.NoError(t, err)
	assert.Equal(t, "tea-house", renamed.Slug)
	assert.Equal(t, store.CreatedAt, renamed.CreatedAt)
	assert.Equal(t, "author-1", renamed.AuthorID)
}

func TestUpdate_SameNameKeepsSlug(t *testing.T) {
	svc, _ := newService(t, application.Options{})
	create(t, svc, input("Cafe"))
	second := create(t, svc, input("Cafe"))
	require.Equal(t, "cafe-2", second.Slug)

	updated, err := svc.Update(context.Background(), application.UpdateStoreCommand{
		ID: second.ID, EditorID: "author-1",
		Input: input("Cafe", func(in *domain.StoreInput) { in.Description = "new" }),
	})
	require.NoError(t, err)
	assert.Equal(t, "cafe-2", updated.Slug)
	assert.Equal(t, "new", updated.Description)
}

func TestUpdate_Errors(t *testing.T) {
	svc, _ := newService(t, application.Options{})
	store := create(t, svc, input("Cafe"))
	ctx := context.Background()

	_, err := svc.Update(ctx, application.UpdateStoreCommand{ID: store.ID, EditorID: "someone-else", Input: input("Cafe")})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.Update(ctx, application.UpdateStoreCommand{ID: "missing", EditorID: "author-1", Input: input("Cafe")})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Update(ctx, application.UpdateStoreCommand{ID: store.ID, EditorID: "author-1", Input: input("")})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// racingCatalog reports a conflict on the first n writes, as if another writer
// claimed the slug between the count and the insert.
type racingCatalog struct {
	*memory.Catalog
	mu        sync.Mutex
	conflicts int
	attempted []string
}

func (r *racingCatalog) Create(ctx context.Context, record *domain.StoreRecord) error {
	r.mu.Lock()
	r.attempted = append(r.attempted, record.Slug)
	lose := r.conflicts > 0
	if lose {
		r.conflicts--
	}
	r.mu.Unlock()
	if lose {
		return fmt.Errorf("%w: slug %q already exists", domain.ErrConflict, record.Slug)
	}
	return r.Catalog.Create(ctx, record)
}

func TestCreate_RetriesAfterLostRace(t *testing.T) {
	catalog := &racingCatalog{Catalog: memory.NewCatalog(), conflicts: 2}
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_slug_conflicts_total"})
	svc := application.NewCatalogService(catalog, catalog, catalog, application.Options{SlugConflicts: counter})

	store, err := svc.Create(context.Background(), application.CreateStoreCommand{Input: input("Cafe")})
	require.NoError(t, err)
	assert.Equal(t, "cafe-3", store.Slug)
	assert.Equal(t, []string{"cafe", "cafe-2", "cafe-3"}, catalog.attempted)
	assert.Equal(t, 2.0, testutil.ToFloat64(counter))
}

func TestCreate_GivesUpAfterBoundedRetries(t *testing.T) {
	catalog := &racingCatalog{Catalog: memory.NewCatalog(), conflicts: 100}
	svc := application.NewCatalogService(catalog, catalog, catalog, application.Options{})

	_, err := svc.Create(context.Background(), application.CreateStoreCommand{Input: input("Cafe")})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Len(t, catalog.attempted, 5)
}

func TestCreate_ConcurrentWritersGetDistinctSlugs(t *testing.T) {
	svc, _ := newService(t, application.Options{Locker: memory.NewKeyedMutex()})

	const writers = 20
	slugs := make(chan string, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store, err := svc.Create(context.Background(), application.CreateStoreCommand{Input: input("Cafe")})
			if assert.NoError(t, err) {
				slugs <- store.Slug
			}
		}()
	}
	wg.Wait()
	close(slugs)

	seen := make(map[string]bool)
	for s := range slugs {
		assert.False(t, seen[s], "duplicate slug %s", s)
		seen[s] = true
	}
	assert.Len(t, seen, writers)
	assert.True(t, seen["cafe"])
	assert.True(t, seen[fmt.Sprintf("cafe-%d", writers)])
}

func TestFindBySlug_PopulatesReviews(t *testing.T) {
	svc, catalog := newService(t, application.Options{})
	ctx := context.Background()
	store := create(t, svc, input("Cafe"))

	found, err := svc.FindBySlug(ctx, "cafe")
	require.NoError(t, err)
	assert.NotNil(t, found.Reviews)
	assert.Empty(t, found.Reviews)

	require.NoError(t, catalog.AddReview(ctx, domain.Review{StoreID: store.ID, Rating: 4, Text: "nice"}))
	found, err = svc.FindBySlug(ctx, "cafe")
	require.NoError(t, err)
	require.Len(t, found.Reviews, 1)
	assert.Equal(t, 4, found.Reviews[0].Rating)

	byID, err := svc.FindByID(ctx, store.ID)
	require.NoError(t, err)
	assert.Len(t, byID.Reviews, 1)

	_, err = svc.FindBySlug(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestList_Pagination(t *testing.T) {
	svc, _ := newService(t, application.Options{})
	ctx := context.Background()
	for i := 1; i <= 9; i++ {
		create(t, svc, input(fmt.Sprintf("Store %d", i)))
	}

	first, err := svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(9), first.Count)
	assert.Equal(t, 3, first.Pages)
	require.Len(t, first.Stores, 4)
	assert.Equal(t, "Store 9", first.Stores[0].Name)
	assert.False(t, first.Overflow())

	last, err := svc.List(ctx, 3)
	require.NoError(t, err)
	require.Len(t, last.Stores, 1)
	assert.Equal(t, "Store 1", last.Stores[0].Name)

	past, err := svc.List(ctx, 7)
	require.NoError(t, err)
	assert.True(t, past.Overflow())
	assert.Equal(t, 3, past.LastPage)
	assert.Empty(t, past.Stores)
}

func TestList_EmptyCatalog(t *testing.T) {
	svc, _ := newService(t, application.Options{})

	page, err := svc.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Zero(t, page.Pages)
	assert.False(t, page.Overflow())
	assert.NotNil(t, page.Stores)
}

// spyCatalog fails the test if a text search reaches storage.
type spyCatalog struct {
	*memory.Catalog
	t *testing.T
}

func (s *spyCatalog) SearchText(ctx context.Context, query string, limit int) ([]domain.StoreRecord, error) {
	s.t.Errorf("unexpected storage call for query %q", query)
	return s.Catalog.SearchText(ctx, query, limit)
}

func TestSearchByText_BlankQueryMakesNoStorageCall(t *testing.T) {
	catalog := &spyCatalog{Catalog: memory.NewCatalog(), t: t}
	svc := application.NewCatalogService(catalog, catalog, catalog, application.Options{})

	for _, q := range []string{"", "   ", "\t\n"} {
		stores, err := svc.SearchByText(context.Background(), q)
		require.NoError(t, err)
		assert.NotNil(t, stores)
		assert.Empty(t, stores)
	}
}

func TestSearchByText_NameOutweighsDescription(t *testing.T) {
	svc, _ := newService(t, application.Options{})
	create(t, svc, input("Bakery", func(in *domain.StoreInput) { in.Description = "Fresh coffee and bread" }))
	create(t, svc, input("Coffee Corner", func(in *domain.StoreInput) { in.Description = "Pastries" }))
	create(t, svc, input("Hardware", func(in *domain.StoreInput) { in.Description = "Tools" }))

	stores, err := svc.SearchByText(context.Background(), "coffee")
	require.NoError(t, err)
	require.Len(t, stores, 2)
	assert.Equal(t, "Coffee Corner", stores[0].Name)
	assert.Equal(t, "Bakery", stores[1].Name)
	for _, s := range stores {
		assert.NotNil(t, s.Reviews)
	}
}

func TestSearchByText_CappedAtFive(t *testing.T) {
	svc, _ := newService(t, application.Options{})
	for i := 0; i < 8; i++ {
		create(t, svc, input(fmt.Sprintf("Coffee %d", i)))
	}

	stores, err := svc.SearchByText(context.Background(), "coffee")
	require.NoError(t, err)
	assert.Len(t, stores, application.SearchTextLimit)
}

func TestSearchNear(t *testing.T) {
	svc, _ := newService(t, application.Options{})
	at := func(lng, lat float64) func(*domain.StoreInput) {
		return func(in *domain.StoreInput) { in.Coordinates = []float64{lng, lat} }
	}
	create(t, svc, input("Far", at(-79.30, 43.65)))    // ~6.7km
	create(t, svc, input("Close", at(-79.384, 43.654))) // ~100m
	create(t, svc, input("Montreal", at(-73.5673, 45.5017)))

	stores, err := svc.SearchNear(context.Background(), -79.3832, 43.6532)
	require.NoError(t, err)
	require.Len(t, stores, 2)
	assert.Equal(t, "Close", stores[0].Name)
	assert.Equal(t, "Far", stores[1].Name)
	assert.NotEmpty(t, stores[0].Slug)
	assert.Empty(t, stores[0].AuthorID)
	assert.NotNil(t, stores[0].Reviews)

	_, err = svc.SearchNear(context.Background(), 200, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)
}

func TestTopStoresAndTags(t *testing.T) {
	svc, catalog := newService(t, application.Options{})
	ctx := context.Background()
	withTags := func(tags ...string) func(*domain.StoreInput) {
		return func(in *domain.StoreInput) { in.Tags = tags }
	}
	a := create(t, svc, input("Alpha", withTags("wifi", "vegan")))
	b := create(t, svc, input("Beta", withTags("wifi")))
	create(t, svc, input("Gamma"))

	for _, r := range []domain.Review{
		{StoreID: a.ID, Rating: 3}, {StoreID: a.ID, Rating: 4},
		{StoreID: b.ID, Rating: 5}, {StoreID: b.ID, Rating: 5},
	} {
		require.NoError(t, catalog.AddReview(ctx, r))
	}

	top, err := svc.TopStores(ctx, 0)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Beta", top[0].Name)
	assert.Equal(t, 5.0, top[0].AverageRating)
	assert.Equal(t, 3.5, top[1].AverageRating)

	tags, err := svc.TagCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.TagCount{{Tag: "wifi", Count: 2}, {Tag: "vegan", Count: 1}}, tags)

	view, err := svc.StoresByTag(ctx, "vegan")
	require.NoError(t, err)
	assert.Equal(t, tags, view.Tags)
	require.Len(t, view.Stores, 1)
	assert.Equal(t, "Alpha", view.Stores[0].Name)
	assert.Len(t, view.Stores[0].Reviews, 2)

	all, err := svc.StoresByTag(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all.Stores, 2)
}

func TestPaging_SkipSaturates(t *testing.T) {
	assert.Equal(t, 0, application.Paging{Page: 1, Limit: 4}.Skip())
	assert.Equal(t, 8, application.Paging{Page: 3, Limit: 4}.Skip())
	assert.Equal(t, math.MaxInt, application.Paging{Page: 1 << 62, Limit: 4}.Skip())
	assert.Equal(t, math.MaxInt, application.Paging{Page: 1<<62 + 1, Limit: 4}.Skip())
	assert.Equal(t, math.MaxInt, application.Paging{Page: math.MaxInt, Limit: 4}.Skip())
}

func TestList_HugePageOverflowsToLastPage(t *testing.T) {
	svc, _ := newService(t, application.Options{})
	for i := 0; i < 5; i++ {
		create(t, svc, input(fmt.Sprintf("Store %d", i)))
	}

	for _, page := range []int{1 << 62, 1<<62 + 1, math.MaxInt/application.DefaultPageSize + 1, math.MaxInt} {
		result, err := svc.List(context.Background(), page)
		require.NoError(t, err, page)
		assert.True(t, result.Overflow(), page)
		assert.Equal(t, 2, result.LastPage, page)
		assert.Empty(t, result.Stores, page)
		assert.Equal(t, int64(5), result.Count, page)
	}
}

type limitRecorder struct {
	*memory.Catalog
	limits []int
}

func (r *limitRecorder) TopStores(ctx context.Context, limit int) ([]domain.RankedStore, error) {
	r.limits = append(r.limits, limit)
	return r.Catalog.TopStores(ctx, limit)
}

func TestTopStores_LimitIsCapped(t *testing.T) {
	catalog := memory.NewCatalog()
	rec := &limitRecorder{Catalog: catalog}
	svc := application.NewCatalogService(catalog, catalog, rec, application.Options{})

	for _, limit := range []int{0, 3, ranking.MaxTopLimit, 1_000_000_000, math.MaxInt} {
		_, err := svc.TopStores(context.Background(), limit)
		require.NoError(t, err)
	}
	assert.Equal(t, []int{ranking.DefaultTopLimit, 3, ranking.MaxTopLimit, ranking.MaxTopLimit, ranking.MaxTopLimit}, rec.limits)
}

func TestSearchNear_ReturnsTenClosestInOrder(t *testing.T) {
	svc, _ := newService(t, application.Options{})
	origin := domain.Point{Lng: -79.3832, Lat: 43.6532}
	// 12 店舗を原点から北へ約 500m 間隔で並べる。作成順は遠い順にして並び替えを確かめる
	for i := 11; i >= 0; i-- {
		lat := origin.Lat + float64(i)*0.0045
		create(t, svc, input(fmt.Sprintf("Stop %02d", i), func(in *domain.StoreInput) {
			in.Coordinates = []float64{origin.Lng, lat}
		}))
	}

	stores, err := svc.SearchNear(context.Background(), origin.Lng, origin.Lat)
	require.NoError(t, err)
	require.Len(t, stores, application.SearchNearLimit)

	prev := -1.0
	for i, s := range stores {
		require.True(t, s.Location.HasPoint())
		d := origin.DistanceTo(*s.Location.Coordinates)
		assert.GreaterOrEqual(t, d, prev, "result %d out of order", i)
		assert.LessOrEqual(t, d, float64(domain.DefaultMaxDistanceMeters))
		prev = d
	}
	assert.Equal(t, "Stop 00", stores[0].Name)
	assert.Equal(t, "Stop 09", stores[len(stores)-1].Name)
}
