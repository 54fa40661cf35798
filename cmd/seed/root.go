package main

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/sngm3741/store-catalog/api/internal/catalog/application"
	"github.com/sngm3741/store-catalog/api/internal/config"
	"github.com/sngm3741/store-catalog/api/internal/infrastructure/memory"
	mongodoc "github.com/sngm3741/store-catalog/api/internal/infrastructure/mongo"
	"github.com/sngm3741/store-catalog/api/internal/logger"
)

type seedOptions struct {
	envName     string
	storeCount  int
	reviewCount int
	drop        bool
	randomSeed  int64
	authorID    string
}

var opts seedOptions

var rootCmd = &cobra.Command{
	Use:          "seed",
	Short:        "Load sample stores and reviews",
	Long:         "Creates sample stores through the catalog service so slugs are assigned as in production, then inserts reviews for them.",
	SilenceUsage: true,
	RunE:         runSeed,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&opts.envName, "env", "", "Load ../env/<env>.env before reading configuration")
	flags.IntVar(&opts.storeCount, "stores", 24, "Number of stores to create")
	flags.IntVar(&opts.reviewCount, "reviews", 80, "Number of reviews to insert")
	flags.BoolVar(&opts.drop, "drop", false, "Drop the store and review collections first")
	flags.Int64Var(&opts.randomSeed, "random-seed", 42, "Seed for the sample generator")
	flags.StringVar(&opts.authorID, "author", "seed-author", "Author id recorded on created stores")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func runSeed(cmd *cobra.Command, _ []string) error {
	if err := loadEnv(opts.envName); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return fmt.Errorf("MongoDB 接続に失敗しました: %w", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	db := client.Database(cfg.MongoDatabase)
	if opts.drop {
		if err := mongodoc.DropCollections(ctx, db, cfg.StoreCollection, cfg.ReviewCollection); err != nil {
			return fmt.Errorf("コレクション削除に失敗しました: %w", err)
		}
		log.Info("既存コレクションを削除しました")
	}
	if err := mongodoc.EnsureIndexes(ctx, db, cfg.StoreCollection, cfg.ReviewCollection); err != nil {
		return fmt.Errorf("インデックス作成に失敗しました: %w", err)
	}

	stores := mongodoc.NewStoreRepository(db, cfg.StoreCollection)
	reviews := mongodoc.NewReviewRepository(db, cfg.ReviewCollection)
	catalog := application.NewCatalogService(stores, reviews,
		mongodoc.NewRankingRepository(db, cfg.StoreCollection, cfg.ReviewCollection),
		application.Options{Locker: memory.NewKeyedMutex(), Logger: log.Named("catalog")},
	)

	rng := rand.New(rand.NewSource(opts.randomSeed))

	storeIDs := make([]string, 0, opts.storeCount)
	for _, input := range generateStoreInputs(rng, opts.storeCount, opts.authorID) {
		store, err := catalog.Create(ctx, application.CreateStoreCommand{Input: input})
		if err != nil {
			return fmt.Errorf("店舗 %q の作成に失敗しました: %w", input.Name, err)
		}
		storeIDs = append(storeIDs, store.ID)
	}

	sample := generateReviews(rng, storeIDs, opts.reviewCount, time.Now().UTC())
	if err := reviews.InsertMany(ctx, sample); err != nil {
		return fmt.Errorf("レビューの挿入に失敗しました: %w", err)
	}

	log.Info("Seed 完了",
		zap.Int("stores", len(storeIDs)),
		zap.Int("reviews", len(sample)),
		zap.String("database", cfg.MongoDatabase),
		zap.String("env", opts.envName),
	)
	return nil
}

// loadEnv は .env.local と ../env/<name>.env を読み込む。既存の環境変数は上書きしない。
func loadEnv(envName string) error {
	_ = godotenv.Load(".env.local")
	if envName == "" {
		return nil
	}
	path := filepath.Join("..", "env", envName+".env")
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("%s の読み込みに失敗しました: %w", path, err)
	}
	return nil
}
