package public

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sngm3741/store-catalog/api/internal/catalog/application"
	"github.com/sngm3741/store-catalog/api/internal/catalog/domain"
	"github.com/sngm3741/store-catalog/api/internal/logger"
)

// CatalogService is the subset of application.CatalogService the handlers use.
type CatalogService interface {
	Create(ctx context.Context, cmd application.CreateStoreCommand) (*domain.Store, error)
	Update(ctx context.Context, cmd application.UpdateStoreCommand) (*domain.Store, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Store, error)
	FindByID(ctx context.Context, id string) (*domain.Store, error)
	List(ctx context.Context, page int) (*domain.StorePage, error)
	SearchByText(ctx context.Context, query string) ([]domain.Store, error)
	SearchNear(ctx context.Context, lng, lat float64) ([]domain.Store, error)
	TopStores(ctx context.Context, limit int) ([]domain.RankedStore, error)
	StoresByTag(ctx context.Context, tag string) (*application.TagView, error)
}

// Handler wires public HTTP endpoints to application services.
type Handler struct {
	logger        *zap.Logger
	catalog       CatalogService
	searchLimiter func(http.Handler) http.Handler
}

// Config defines dependencies required by Handler.
type Config struct {
	Logger  *zap.Logger
	Catalog CatalogService
	// SearchLimiter guards the JSON search endpoints. Nil disables limiting.
	SearchLimiter func(http.Handler) http.Handler
}

// NewHandler constructs a public HTTP handler set.
func NewHandler(cfg Config) *Handler {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	limiter := cfg.SearchLimiter
	if limiter == nil {
		limiter = func(next http.Handler) http.Handler { return next }
	}
	return &Handler{
		logger:        log,
		catalog:       cfg.Catalog,
		searchLimiter: limiter,
	}
}

// requestLogger はミドルウェアが載せたリクエスト単位のロガーを優先する。
func (h *Handler) requestLogger(r *http.Request) *zap.Logger {
	if l, ok := logger.Lookup(r.Context()); ok {
		return l
	}
	return h.logger
}

// Register mounts all public routes onto the router.
func (h *Handler) Register(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/stores", h.storeListHandler())
	r.Get("/stores/page/{page}", h.storeListHandler())
	r.Get("/stores/{id}", h.storeByIDHandler())
	r.Get("/store/{slug}", h.storeBySlugHandler())
	r.Get("/tags", h.tagHandler())
	r.Get("/tags/{tag}", h.tagHandler())
	r.Get("/top", h.topStoresHandler())

	r.Route("/api", func(r chi.Router) {
		r.Use(h.searchLimiter)
		r.Get("/search", h.searchHandler())
		r.Get("/stores/near", h.nearHandler())
	})

	r.With(authMiddleware).Post("/stores", h.storeCreateHandler())
	r.With(authMiddleware).Post("/stores/{id}", h.storeUpdateHandler())
	r.With(authMiddleware).Get("/auth/verify", h.authVerifyHandler())
}
