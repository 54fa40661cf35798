package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// テキスト検索の重み。店名の一致を説明文の一致より優先する。
const (
	nameTextWeight        = 5
	descriptionTextWeight = 1
)

func storeIndexModels() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "name", Value: "text"}, {Key: "description", Value: "text"}},
			Options: options.Index().
				SetName("store_text").
				SetWeights(bson.D{
					{Key: "name", Value: nameTextWeight},
					{Key: "description", Value: descriptionTextWeight},
				}),
		},
		{
			Keys:    bson.D{{Key: "location", Value: "2dsphere"}},
			Options: options.Index().SetName("store_location"),
		},
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetName("store_slug").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "created", Value: -1}},
			Options: options.Index().SetName("store_created"),
		},
		{
			Keys:    bson.D{{Key: "tags", Value: 1}},
			Options: options.Index().SetName("store_tags"),
		},
	}
}

func reviewIndexModels() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "store", Value: 1}, {Key: "created", Value: -1}},
			Options: options.Index().SetName("review_store"),
		},
	}
}

// EnsureIndexes は起動時にインデックスを作成する。既存の同一定義は何もしない。
func EnsureIndexes(ctx context.Context, db *mongo.Database, storeCollection, reviewCollection string) error {
	if _, err := db.Collection(storeCollection).Indexes().CreateMany(ctx, storeIndexModels()); err != nil {
		return fmt.Errorf("create %s indexes: %w", storeCollection, err)
	}
	if _, err := db.Collection(reviewCollection).Indexes().CreateMany(ctx, reviewIndexModels()); err != nil {
		return fmt.Errorf("create %s indexes: %w", reviewCollection, err)
	}
	return nil
}

// DropCollections は店舗・レビューコレクションを削除する。存在しないコレクションはエラーにならない。
func DropCollections(ctx context.Context, db *mongo.Database, collections ...string) error {
	for _, name := range collections {
		if err := db.Collection(name).Drop(ctx); err != nil {
			return fmt.Errorf("drop %s: %w", name, err)
		}
	}
	return nil
}
