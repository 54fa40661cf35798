package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/sngm3741/store-catalog/api/internal/config"
	"github.com/sngm3741/store-catalog/api/internal/logger"
	"github.com/sngm3741/store-catalog/api/internal/server"
)

func main() {
	_ = godotenv.Load(".env.local")

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// run は defer を確実に実行させるため、終了コードの決定を main に任せる。
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("設定の読み込みに失敗しました: %w", err)
	}

	log, err := logger.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("ロガーの初期化に失敗しました: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	var client *mongo.Client
	if cfg.StorageDriver == config.StorageMongo {
		clientOptions := options.Client().ApplyURI(cfg.MongoURI).SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
		client, err = mongo.Connect(ctx, clientOptions)
		if err != nil {
			log.Error("MongoDB 接続に失敗しました", zap.Error(err))
			return fmt.Errorf("mongo connect: %w", err)
		}
	}

	app, err := server.New(ctx, cfg, log, client)
	if err != nil {
		log.Error("サーバーの初期化に失敗しました", zap.Error(err))
		if client != nil {
			_ = client.Disconnect(context.Background())
		}
		return fmt.Errorf("server init: %w", err)
	}
	if err := app.Run(); err != nil {
		log.Error("サーバー起動に失敗", zap.Error(err))
		return fmt.Errorf("server run: %w", err)
	}
	return nil
}
