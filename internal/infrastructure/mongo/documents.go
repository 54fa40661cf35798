package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sngm3741/store-catalog/api/internal/catalog/domain"
)

const geoJSONPoint = "Point"

// LocationDocument は GeoJSON Point に住所を添えた埋め込みドキュメント。
// 2dsphere インデックスはこのフィールドに張る。
type LocationDocument struct {
	Type        string    `bson:"type,omitempty"`
	Coordinates []float64 `bson:"coordinates,omitempty"`
	Address     string    `bson:"address"`
}

// StoreDocument は MongoDB 上での店舗スキーマを Go 構造体として表現したもの。
type StoreDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Slug        string             `bson:"slug"`
	Description string             `bson:"description,omitempty"`
	Tags        []string           `bson:"tags"`
	Created     time.Time          `bson:"created"`
	Location    LocationDocument   `bson:"location"`
	Photo       string             `bson:"photo,omitempty"`
	Author      string             `bson:"author,omitempty"`
}

// ReviewDocument はレビューコレクションのスキーマ。店舗とは store フィールドで結合する。
type ReviewDocument struct {
	ID      primitive.ObjectID `bson:"_id,omitempty"`
	Store   primitive.ObjectID `bson:"store"`
	Author  string             `bson:"author,omitempty"`
	Rating  int                `bson:"rating"`
	Text    string             `bson:"text,omitempty"`
	Created time.Time          `bson:"created"`
}

// rankedStoreDocument は上位店舗パイプラインの出力 1 件分。
type rankedStoreDocument struct {
	StoreDocument `bson:",inline"`
	Reviews       []ReviewDocument `bson:"reviews"`
	AverageRating float64          `bson:"averageRating"`
	ReviewCount   int              `bson:"reviewCount"`
}

// tagCountDocument はタグ集計パイプラインの出力 1 件分。
type tagCountDocument struct {
	Tag   string `bson:"_id"`
	Count int    `bson:"count"`
}

func mapStoreDocument(doc StoreDocument) domain.StoreRecord {
	record := domain.StoreRecord{
		ID:          doc.ID.Hex(),
		Name:        doc.Name,
		Slug:        doc.Slug,
		Description: doc.Description,
		Tags:        domain.NewTagList(doc.Tags),
		CreatedAt:   doc.Created,
		Location:    domain.Location{Address: doc.Location.Address},
		Photo:       doc.Photo,
		AuthorID:    doc.Author,
	}
	if doc.Location.Type == geoJSONPoint && len(doc.Location.Coordinates) == 2 {
		p := domain.Point{Lng: doc.Location.Coordinates[0], Lat: doc.Location.Coordinates[1]}
		if p.Valid() {
			record.Location.Coordinates = &p
		}
	}
	return record
}

func buildStoreDocument(record domain.StoreRecord) (StoreDocument, error) {
	doc := StoreDocument{
		Name:        record.Name,
		Slug:        record.Slug,
		Description: record.Description,
		Tags:        record.Tags.Strings(),
		Created:     record.CreatedAt,
		Location:    buildLocationDocument(record.Location),
		Photo:       record.Photo,
		Author:      record.AuthorID,
	}
	if record.ID != "" {
		id, err := primitive.ObjectIDFromHex(record.ID)
		if err != nil {
			return StoreDocument{}, domain.ErrNotFound
		}
		doc.ID = id
	}
	return doc, nil
}

func buildLocationDocument(loc domain.Location) LocationDocument {
	doc := LocationDocument{Address: loc.Address}
	if loc.HasPoint() {
		doc.Type = geoJSONPoint
		doc.Coordinates = loc.Coordinates.Coordinates()
	}
	return doc
}

func mapReviewDocument(doc ReviewDocument) domain.Review {
	return domain.Review{
		ID:        doc.ID.Hex(),
		StoreID:   doc.Store.Hex(),
		AuthorID:  doc.Author,
		Rating:    doc.Rating,
		Text:      doc.Text,
		CreatedAt: doc.Created,
	}
}

func buildReviewDocument(review domain.Review) (ReviewDocument, error) {
	storeID, err := primitive.ObjectIDFromHex(review.StoreID)
	if err != nil {
		return ReviewDocument{}, domain.ErrNotFound
	}
	doc := ReviewDocument{
		ID:      primitive.NewObjectID(),
		Store:   storeID,
		Author:  review.AuthorID,
		Rating:  review.Rating,
		Text:    review.Text,
		Created: review.CreatedAt,
	}
	if review.ID != "" {
		id, err := primitive.ObjectIDFromHex(review.ID)
		if err != nil {
			return ReviewDocument{}, domain.ErrNotFound
		}
		doc.ID = id
	}
	return doc, nil
}

func mapRankedStoreDocument(doc rankedStoreDocument) domain.RankedStore {
	reviews := make([]domain.Review, 0, len(doc.Reviews))
	for _, r := range doc.Reviews {
		reviews = append(reviews, mapReviewDocument(r))
	}
	return domain.RankedStore{
		Store:         domain.NewStore(mapStoreDocument(doc.StoreDocument), reviews),
		AverageRating: doc.AverageRating,
		ReviewCount:   doc.ReviewCount,
	}
}
