package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/sngm3741/store-catalog/api/internal/catalog/application"
	"github.com/sngm3741/store-catalog/api/internal/config"
	"github.com/sngm3741/store-catalog/api/internal/infrastructure/memory"
	mongodoc "github.com/sngm3741/store-catalog/api/internal/infrastructure/mongo"
	redisinfra "github.com/sngm3741/store-catalog/api/internal/infrastructure/redis"
	commonhttp "github.com/sngm3741/store-catalog/api/internal/interfaces/http/common"
	publichttp "github.com/sngm3741/store-catalog/api/internal/interfaces/http/public"
	"github.com/sngm3741/store-catalog/api/internal/logger"
	"github.com/sngm3741/store-catalog/api/internal/metrics"
)

// Server は HTTP サーバーのライフサイクルを管理し、カタログサービスをルータへ接続するコンポジションルート。
type Server struct {
	logger         *zap.Logger
	client         *mongo.Client
	redis          *goredis.Client
	catalog        *application.CatalogService
	limiter        *commonhttp.RateLimiter
	stopLimiter    context.CancelFunc
	jwtConfigs     []config.JWTConfig
	jwtAudience    string
	addr           string
	allowedOrigins []string
	driver         string
}

// Run はHTTPサーバーを起動し、シグナルを受けるまでブロックする。
func (s *Server) Run() error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP サーバー起動", zap.String("addr", s.addr), zap.String("storage", s.driver))
		errChan <- httpServer.ListenAndServe()
	}()

	return waitForShutdown(httpServer, errChan, s)
}

// Handler はミドルウェアとルーティングを組み立てたハンドラを返す。
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(logger.Middleware(s.logger))
	router.Use(metrics.Middleware())
	router.Use(middleware.Recoverer)
	router.Use(withCORS(s.allowedOrigins))

	router.Get("/healthz", s.healthHandler())
	router.Handle("/metrics", metrics.Handler())

	publicHandler := publichttp.NewHandler(publichttp.Config{
		Logger:        s.logger,
		Catalog:       s.catalog,
		SearchLimiter: s.limiter.Middleware,
	})
	publicHandler.Register(router, s.authMiddleware)

	return router
}

// withCORS は許可されたオリジン情報をもとに CORS ヘッダーを付与するミドルウェアを返す。
func withCORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{})
	allowAll := false
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			allowAll = true
			continue
		}
		allowed[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" || (!allowAll && len(allowed) > 0 && !originAllowed(origin, allowed)) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
			w.Header().Set("Access-Control-Max-Age", "300")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// originAllowed は指定された Origin が許可リストに含まれるか判定する。
func originAllowed(origin string, allowed map[string]struct{}) bool {
	if len(allowed) == 0 {
		return true
	}
	_, ok := allowed[origin]
	return ok
}

// healthHandler は MongoDB と Redis への疎通確認を行う。メモリドライバでは常に ok。
func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := s.ping(ctx); err != nil {
			commonhttp.WriteJSON(s.logger, w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"error":  err.Error(),
			})
			return
		}

		commonhttp.WriteJSON(s.logger, w, http.StatusOK, map[string]string{
			"status":  "ok",
			"storage": s.driver,
			"time":    time.Now().Format(time.RFC3339),
		})
	}
}

func (s *Server) ping(ctx context.Context) error {
	if s.client != nil {
		if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
			return fmt.Errorf("mongo: %w", err)
		}
	}
	if s.redis != nil {
		if err := redisinfra.Ping(ctx, s.redis); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// shutdown は外部接続をタイムアウト付きで閉じる。
func (s *Server) shutdown(ctx context.Context) {
	s.stopLimiter()

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if s.client != nil {
		if err := s.client.Disconnect(shutdownCtx); err != nil {
			s.logger.Warn("MongoDB 切断時にエラー", zap.Error(err))
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Warn("Redis 切断時にエラー", zap.Error(err))
		}
	}
}

// waitForShutdown は ListenAndServe の終了と OS シグナルを監視し、graceful shutdown を実現する。
func waitForShutdown(httpServer *http.Server, errChan <-chan error, srv *Server) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("サーバーが異常終了: %w", err)
		}
	case sig := <-sigChan:
		srv.logger.Info("シグナルを受信。サーバー停止処理を開始します", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			srv.logger.Warn("サーバー停止時にエラー", zap.Error(err))
		}
	}

	srv.shutdown(context.Background())
	return runErr
}

// New は Config からストレージ・ロック・サービスを組み立てた Server を返す。
// client は STORAGE_DRIVER=mongo のときだけ必要で、memory では nil でよい。
func New(ctx context.Context, cfg config.Config, log *zap.Logger, client *mongo.Client) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}

	srv := &Server{
		logger:         log,
		jwtConfigs:     cfg.JWTConfigs(),
		jwtAudience:    strings.TrimSpace(cfg.JWTAudience),
		addr:           cfg.Addr,
		allowedOrigins: append([]string(nil), cfg.AllowedOrigins...),
		driver:         cfg.StorageDriver,
	}

	var (
		stores   application.StoreRepository
		reviews  application.ReviewRepository
		rankings application.RankingRepository
	)
	switch cfg.StorageDriver {
	case config.StorageMemory:
		catalog := memory.NewCatalog()
		stores, reviews, rankings = catalog, catalog, catalog
	case config.StorageMongo:
		if client == nil {
			return nil, errors.New("mongo storage requires a connected client")
		}
		srv.client = client
		db := client.Database(cfg.MongoDatabase)
		if err := mongodoc.EnsureIndexes(ctx, db, cfg.StoreCollection, cfg.ReviewCollection); err != nil {
			return nil, fmt.Errorf("ensure indexes: %w", err)
		}
		stores = mongodoc.NewStoreRepository(db, cfg.StoreCollection)
		reviews = mongodoc.NewReviewRepository(db, cfg.ReviewCollection)
		rankings = mongodoc.NewRankingRepository(db, cfg.StoreCollection, cfg.ReviewCollection)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	var locker application.SlugLocker = memory.NewKeyedMutex()
	if strings.TrimSpace(cfg.RedisURL) != "" {
		rdb, err := redisinfra.NewClient(ctx, cfg.RedisURL, log)
		if err != nil {
			return nil, err
		}
		srv.redis = rdb
		locker = redisinfra.NewSlugLocker(rdb, cfg.SlugLockTTL, log)
	}

	srv.catalog = application.NewCatalogService(stores, reviews, rankings, application.Options{
		PageSize:      cfg.PageSize,
		Locker:        locker,
		SlugConflicts: metrics.SlugConflicts,
		Logger:        log.Named("catalog"),
	})

	limiterCtx, stop := context.WithCancel(context.Background())
	srv.stopLimiter = stop
	srv.limiter = commonhttp.NewRateLimiter(limiterCtx, cfg.SearchRateLimit, cfg.SearchRateBurst, log)

	return srv, nil
}
