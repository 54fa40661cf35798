package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/sngm3741/store-catalog/api/internal/catalog/domain"
)

var sampleNames = []string{
	"Cafe Luna",
	"Blue Door Coffee",
	"Green Leaf Tea House",
	"Noodle Corner",
	"Sakura Bakery",
	"Harbor Books & Espresso",
	"Midnight Ramen",
	"The Wifi Lounge",
}

var sampleTags = []string{"Wifi", "Open Late", "Family Friendly", "Vegetarian", "Licensed"}

var sampleDescriptions = []string{
	"Single origin espresso and fresh pastries every morning.",
	"Quiet corner seats, plenty of outlets, friendly staff.",
	"Hand-pulled noodles and a rotating seasonal menu.",
	"Loose leaf teas from small farms, served by the pot.",
	"Family run since the nineties with a small patio out back.",
}

var sampleReviewTexts = []string{
	"Great coffee, will be back.",
	"A bit crowded at lunch but worth the wait.",
	"Service was slow today.",
	"Best pastries in the neighbourhood.",
	"Nice place to work for an afternoon.",
}

type sampleCity struct {
	Name string
	Lng  float64
	Lat  float64
}

var sampleCities = []sampleCity{
	{Name: "Toronto", Lng: -79.3832, Lat: 43.6532},
	{Name: "Tokyo", Lng: 139.6917, Lat: 35.6895},
	{Name: "Osaka", Lng: 135.5023, Lat: 34.6937},
	{Name: "Hamilton", Lng: -79.8711, Lat: 43.2557},
}

// generateStoreInputs は店舗入力を count 件作る。店名は一巡すると重複するのでスラッグの連番も確認できる。
func generateStoreInputs(rng *rand.Rand, count int, authorID string) []domain.StoreInput {
	inputs := make([]domain.StoreInput, 0, max(count, 0))
	for i := 0; i < count; i++ {
		city := sampleCities[rng.Intn(len(sampleCities))]
		// 市内に散らばるよう ±0.02 度ずらす
		lng := city.Lng + (rng.Float64()-0.5)*0.04
		lat := city.Lat + (rng.Float64()-0.5)*0.04
		inputs = append(inputs, domain.StoreInput{
			Name:        sampleNames[i%len(sampleNames)],
			Description: sampleDescriptions[rng.Intn(len(sampleDescriptions))],
			Tags:        pickUnique(rng, sampleTags, rng.Intn(3)),
			Address:     fmt.Sprintf("%d Main St, %s", 1+rng.Intn(900), city.Name),
			Coordinates: []float64{lng, lat},
			AuthorID:    authorID,
		})
	}
	return inputs
}

// generateReviews は total 件のレビューを店舗へランダムに割り当てる。
func generateReviews(rng *rand.Rand, storeIDs []string, total int, now time.Time) []domain.Review {
	if len(storeIDs) == 0 || total <= 0 {
		return []domain.Review{}
	}
	reviews := make([]domain.Review, 0, total)
	for i := 0; i < total; i++ {
		reviews = append(reviews, domain.Review{
			StoreID:   storeIDs[rng.Intn(len(storeIDs))],
			AuthorID:  fmt.Sprintf("seed-user-%d", 1+rng.Intn(20)),
			Rating:    1 + rng.Intn(5),
			Text:      sampleReviewTexts[rng.Intn(len(sampleReviewTexts))],
			CreatedAt: now.Add(-time.Duration(rng.Intn(24*90)) * time.Hour),
		})
	}
	return reviews
}

func pickUnique(rng *rand.Rand, source []string, count int) []string {
	if count <= 0 {
		return nil
	}
	if count > len(source) {
		count = len(source)
	}
	out := make([]string, 0, count)
	for _, idx := range rng.Perm(len(source))[:count] {
		out = append(out, source[idx])
	}
	return out
}
