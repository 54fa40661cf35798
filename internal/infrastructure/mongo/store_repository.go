package mongo

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sngm3741/store-catalog/api/internal/catalog/application"
	"github.com/sngm3741/store-catalog/api/internal/catalog/domain"
	"github.com/sngm3741/store-catalog/api/internal/catalog/slug"
)

// StoreRepository implements application.StoreRepository using MongoDB.
type StoreRepository struct {
	collection *mongo.Collection
}

var _ application.StoreRepository = (*StoreRepository)(nil)

// NewStoreRepository creates a new Mongo-backed store repository.
func NewStoreRepository(db *mongo.Database, collectionName string) *StoreRepository {
	return &StoreRepository{collection: db.Collection(collectionName)}
}

// Create は新しい ObjectID を採番して店舗を保存する。slug の一意制約違反は ErrConflict。
func (r *StoreRepository) Create(ctx context.Context, record *domain.StoreRecord) error {
	doc, err := buildStoreDocument(*record)
	if err != nil {
		return err
	}
	doc.ID = primitive.NewObjectID()
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return translateError(err)
	}
	record.ID = doc.ID.Hex()
	return nil
}

// Update は作成者と作成日時を除くフィールドを $set で差し替える。
func (r *StoreRepository) Update(ctx context.Context, record domain.StoreRecord) error {
	doc, err := buildStoreDocument(record)
	if err != nil {
		return err
	}
	update := bson.M{"$set": bson.M{
		"name":        doc.Name,
		"slug":        doc.Slug,
		"description": doc.Description,
		"tags":        doc.Tags,
		"location":    doc.Location,
		"photo":       doc.Photo,
	}}
	result, err := r.collection.UpdateByID(ctx, doc.ID, update)
	if err != nil {
		return translateError(err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// FindByID returns a single store by its hex identifier.
func (r *StoreRepository) FindByID(ctx context.Context, id string) (*domain.StoreRecord, error) {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": objectID})
}

// FindBySlug returns a single store by its slug.
func (r *StoreRepository) FindBySlug(ctx context.Context, value string) (*domain.StoreRecord, error) {
	return r.findOne(ctx, bson.M{"slug": value})
}

func (r *StoreRepository) findOne(ctx context.Context, filter bson.M) (*domain.StoreRecord, error) {
	var doc StoreDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translateError(err)
	}
	record := mapStoreDocument(doc)
	return &record, nil
}

// Find returns stores filtered and paginated according to the provided criteria.
func (r *StoreRepository) Find(ctx context.Context, filter application.StoreFilter, paging application.Paging) ([]domain.StoreRecord, error) {
	opts := options.Find().SetSort(sortFor(paging.Sort))
	if skip := paging.Skip(); skip > 0 {
		opts.SetSkip(int64(skip))
	}
	if paging.Limit > 0 {
		opts.SetLimit(int64(paging.Limit))
	}

	cursor, err := r.collection.Find(ctx, storeFilter(filter), opts)
	if err != nil {
		return nil, err
	}
	return decodeStores(ctx, cursor)
}

// Count returns the number of stores matching filter.
func (r *StoreRepository) Count(ctx context.Context, filter application.StoreFilter) (int64, error) {
	return r.collection.CountDocuments(ctx, storeFilter(filter))
}

// CountSlugMatches counts base and its numbered variants, ignoring excludeID.
func (r *StoreRepository) CountSlugMatches(ctx context.Context, base, excludeID string) (int64, error) {
	return r.collection.CountDocuments(ctx, slugFilter(base, excludeID))
}

// SearchText はテキストインデックスを使い、スコアの高い順に返す。
func (r *StoreRepository) SearchText(ctx context.Context, query string, limit int) ([]domain.StoreRecord, error) {
	score := bson.M{"$meta": "textScore"}
	opts := options.Find().
		SetProjection(bson.M{"score": score}).
		SetSort(bson.D{{Key: "score", Value: score}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, textFilter(query), opts)
	if err != nil {
		return nil, err
	}
	return decodeStores(ctx, cursor)
}

// SearchNear は 2dsphere インデックスで近い順に返す。地図表示に必要なフィールドだけを射影する。
func (r *StoreRepository) SearchNear(ctx context.Context, point domain.Point, maxDistance float64, limit int) ([]domain.StoreRecord, error) {
	opts := options.Find().
		SetProjection(nearProjection).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, nearFilter(point, maxDistance), opts)
	if err != nil {
		return nil, err
	}
	return decodeStores(ctx, cursor)
}

var nearProjection = bson.M{
	"slug":        1,
	"name":        1,
	"description": 1,
	"location":    1,
	"photo":       1,
}

func storeFilter(filter application.StoreFilter) bson.M {
	switch {
	case filter.Tag != "":
		return bson.M{"tags": filter.Tag}
	case filter.AnyTag:
		return bson.M{"tags.0": bson.M{"$exists": true}}
	default:
		return bson.M{}
	}
}

func sortFor(key string) bson.D {
	switch key {
	case application.SortName:
		return bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}
	default:
		return bson.D{{Key: "created", Value: -1}, {Key: "_id", Value: -1}}
	}
}

func slugFilter(base, excludeID string) bson.M {
	filter := bson.M{"slug": primitive.Regex{Pattern: slug.Pattern(base), Options: "i"}}
	if excludeID != "" {
		if id, err := primitive.ObjectIDFromHex(excludeID); err == nil {
			filter["_id"] = bson.M{"$ne": id}
		}
	}
	return filter
}

func textFilter(query string) bson.M {
	return bson.M{"$text": bson.M{"$search": query}}
}

func nearFilter(point domain.Point, maxDistance float64) bson.M {
	return bson.M{"location": bson.M{"$near": bson.M{
		"$geometry": bson.M{
			"type":        geoJSONPoint,
			"coordinates": point.Coordinates(),
		},
		"$maxDistance": maxDistance,
	}}}
}

func decodeStores(ctx context.Context, cursor *mongo.Cursor) ([]domain.StoreRecord, error) {
	defer cursor.Close(ctx)

	records := make([]domain.StoreRecord, 0)
	for cursor.Next(ctx) {
		var doc StoreDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		records = append(records, mapStoreDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
