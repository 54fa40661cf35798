package public

import (
	"time"

	"github.com/sngm3741/store-catalog/api/internal/catalog/application"
	"github.com/sngm3741/store-catalog/api/internal/catalog/domain"
)

type locationPayload struct {
	Type        string    `json:"type,omitempty"`
	Coordinates []float64 `json:"coordinates,omitempty"`
	Address     string    `json:"address"`
}

type reviewResponse struct {
	ID      string    `json:"id"`
	Author  string    `json:"author,omitempty"`
	Rating  int       `json:"rating"`
	Text    string    `json:"text,omitempty"`
	Created time.Time `json:"created"`
}

type storeResponse struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Slug        string           `json:"slug"`
	Description string           `json:"description,omitempty"`
	Tags        []string         `json:"tags,omitempty"`
	Created     *time.Time       `json:"created,omitempty"`
	Location    locationPayload  `json:"location"`
	Photo       string           `json:"photo,omitempty"`
	Author      string           `json:"author,omitempty"`
	Reviews     []reviewResponse `json:"reviews"`
}

type rankedStoreResponse struct {
	storeResponse
	AverageRating float64 `json:"averageRating"`
	ReviewCount   int     `json:"reviewCount"`
}

type storePageResponse struct {
	Stores []storeResponse `json:"stores"`
	Page   int             `json:"page"`
	Pages  int             `json:"pages"`
	Count  int64           `json:"count"`
}

type tagCountResponse struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

type tagViewResponse struct {
	Tag    string             `json:"tag,omitempty"`
	Tags   []tagCountResponse `json:"tags"`
	Stores []storeResponse    `json:"stores"`
}

// storeRequest は店舗の作成・更新で受け付ける JSON ボディ。作成者はトークンから決まる。
type storeRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Location    struct {
		Address     string    `json:"address"`
		Coordinates []float64 `json:"coordinates"`
	} `json:"location"`
	Photo string `json:"photo"`
}

func (req storeRequest) toInput(authorID string) domain.StoreInput {
	return domain.StoreInput{
		Name:        req.Name,
		Description: req.Description,
		Tags:        req.Tags,
		Address:     req.Location.Address,
		Coordinates: req.Location.Coordinates,
		Photo:       req.Photo,
		AuthorID:    authorID,
	}
}

func buildStoreResponse(store domain.Store) storeResponse {
	resp := storeResponse{
		ID:          store.ID,
		Name:        store.Name,
		Slug:        store.Slug,
		Description: store.Description,
		Tags:        store.Tags.Strings(),
		Location:    locationPayload{Address: store.Location.Address},
		Photo:       store.Photo,
		Author:      store.AuthorID,
		Reviews:     make([]reviewResponse, 0, len(store.Reviews)),
	}
	if !store.CreatedAt.IsZero() {
		created := store.CreatedAt
		resp.Created = &created
	}
	if store.Location.HasPoint() {
		resp.Location.Type = "Point"
		resp.Location.Coordinates = store.Location.Coordinates.Coordinates()
	}
	for _, r := range store.Reviews {
		resp.Reviews = append(resp.Reviews, reviewResponse{
			ID:      r.ID,
			Author:  r.AuthorID,
			Rating:  r.Rating,
			Text:    r.Text,
			Created: r.CreatedAt,
		})
	}
	return resp
}

func buildStoreResponses(stores []domain.Store) []storeResponse {
	out := make([]storeResponse, 0, len(stores))
	for _, s := range stores {
		out = append(out, buildStoreResponse(s))
	}
	return out
}

func buildRankedStoreResponses(stores []domain.RankedStore) []rankedStoreResponse {
	out := make([]rankedStoreResponse, 0, len(stores))
	for _, s := range stores {
		out = append(out, rankedStoreResponse{
			storeResponse: buildStoreResponse(s.Store),
			AverageRating: s.AverageRating,
			ReviewCount:   s.ReviewCount,
		})
	}
	return out
}

func buildTagCountResponses(tags []domain.TagCount) []tagCountResponse {
	out := make([]tagCountResponse, 0, len(tags))
	for _, t := range tags {
		out = append(out, tagCountResponse{Tag: t.Tag, Count: t.Count})
	}
	return out
}

func buildTagViewResponse(view *application.TagView) tagViewResponse {
	return tagViewResponse{
		Tag:    view.Tag,
		Tags:   buildTagCountResponses(view.Tags),
		Stores: buildStoreResponses(view.Stores),
	}
}
