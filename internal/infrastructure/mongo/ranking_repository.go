package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sngm3741/store-catalog/api/internal/catalog/application"
	"github.com/sngm3741/store-catalog/api/internal/catalog/domain"
	"github.com/sngm3741/store-catalog/api/internal/catalog/ranking"
)

// RankingRepository は集計パイプラインをデータベース側で実行する。呼び出しごとに再計算する。
type RankingRepository struct {
	stores           *mongo.Collection
	reviewCollection string
}

var _ application.RankingRepository = (*RankingRepository)(nil)

func NewRankingRepository(db *mongo.Database, storeCollection, reviewCollection string) *RankingRepository {
	return &RankingRepository{
		stores:           db.Collection(storeCollection),
		reviewCollection: reviewCollection,
	}
}

// TopStores returns at most limit stores with two or more reviews, best average first.
func (r *RankingRepository) TopStores(ctx context.Context, limit int) ([]domain.RankedStore, error) {
	if limit <= 0 {
		limit = ranking.DefaultTopLimit
	}
	cursor, err := r.stores.Aggregate(ctx, topStoresPipeline(r.reviewCollection, limit))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	result := make([]domain.RankedStore, 0)
	for cursor.Next(ctx) {
		var doc rankedStoreDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		result = append(result, mapRankedStoreDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// TagCounts returns every tag in use with the number of stores carrying it.
func (r *RankingRepository) TagCounts(ctx context.Context) ([]domain.TagCount, error) {
	cursor, err := r.stores.Aggregate(ctx, tagCountsPipeline())
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	result := make([]domain.TagCount, 0)
	for cursor.Next(ctx) {
		var doc tagCountDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		result = append(result, domain.TagCount{Tag: doc.Tag, Count: doc.Count})
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
