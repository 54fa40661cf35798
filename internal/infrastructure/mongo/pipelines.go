package mongo

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sngm3741/store-catalog/api/internal/catalog/ranking"
)

// 以下のステージは ranking パッケージのインメモリ実装と同じ順序・同じ意味を持つ。

func lookupReviewsStage(reviewCollection string) bson.D {
	return bson.D{{Key: "$lookup", Value: bson.D{
		{Key: "from", Value: reviewCollection},
		{Key: "localField", Value: "_id"},
		{Key: "foreignField", Value: "store"},
		{Key: "as", Value: "reviews"},
	}}}
}

// minReviewsStage は reviews 配列の (n-1) 番目の要素の存在で件数を判定する。
func minReviewsStage(n int) bson.D {
	return bson.D{{Key: "$match", Value: bson.D{
		{Key: fmt.Sprintf("reviews.%d", n-1), Value: bson.D{{Key: "$exists", Value: true}}},
	}}}
}

func averageRatingStage() bson.D {
	return bson.D{{Key: "$addFields", Value: bson.D{
		{Key: "averageRating", Value: bson.D{{Key: "$avg", Value: "$reviews.rating"}}},
		{Key: "reviewCount", Value: bson.D{{Key: "$size", Value: "$reviews"}}},
	}}}
}

func sortByAverageStage() bson.D {
	return bson.D{{Key: "$sort", Value: bson.D{
		{Key: "averageRating", Value: -1},
		{Key: "_id", Value: 1},
	}}}
}

func limitStage(n int) bson.D {
	return bson.D{{Key: "$limit", Value: n}}
}

func topStoresPipeline(reviewCollection string, limit int) mongo.Pipeline {
	return mongo.Pipeline{
		lookupReviewsStage(reviewCollection),
		minReviewsStage(ranking.MinReviewCount),
		averageRatingStage(),
		sortByAverageStage(),
		limitStage(limit),
	}
}

func unwindTagsStage() bson.D {
	return bson.D{{Key: "$unwind", Value: "$tags"}}
}

func groupTagsStage() bson.D {
	return bson.D{{Key: "$group", Value: bson.D{
		{Key: "_id", Value: "$tags"},
		{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
	}}}
}

func sortTagCountsStage() bson.D {
	return bson.D{{Key: "$sort", Value: bson.D{
		{Key: "count", Value: -1},
		{Key: "_id", Value: 1},
	}}}
}

func tagCountsPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		unwindTagsStage(),
		groupTagsStage(),
		sortTagCountsStage(),
	}
}
