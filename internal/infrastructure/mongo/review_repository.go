package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sngm3741/store-catalog/api/internal/catalog/application"
	"github.com/sngm3741/store-catalog/api/internal/catalog/domain"
)

// ReviewRepository はレビューコレクションを読み取る。書き込みは seed 用の InsertMany のみ。
type ReviewRepository struct {
	collection *mongo.Collection
}

var _ application.ReviewRepository = (*ReviewRepository)(nil)

func NewReviewRepository(db *mongo.Database, collectionName string) *ReviewRepository {
	return &ReviewRepository{collection: db.Collection(collectionName)}
}

// FindByStoreIDs は複数店舗分のレビューを 1 回のクエリで取得する。不正な ID は無視する。
func (r *ReviewRepository) FindByStoreIDs(ctx context.Context, storeIDs []string) ([]domain.Review, error) {
	ids := make([]primitive.ObjectID, 0, len(storeIDs))
	for _, raw := range storeIDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return []domain.Review{}, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "created", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"store": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	reviews := make([]domain.Review, 0)
	for cursor.Next(ctx) {
		var doc ReviewDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		reviews = append(reviews, mapReviewDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return reviews, nil
}

// InsertMany はレビューをまとめて登録する。ID が空のレビューには新しい ObjectID を振る。
func (r *ReviewRepository) InsertMany(ctx context.Context, reviews []domain.Review) error {
	if len(reviews) == 0 {
		return nil
	}
	docs := make([]any, 0, len(reviews))
	for _, review := range reviews {
		doc, err := buildReviewDocument(review)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return translateError(err)
}
