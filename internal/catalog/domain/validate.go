package domain

import "strings"

// StoreInput is the caller-supplied part of a store.
type StoreInput struct {
	Name        string
	Description string
	Tags        []string
	Address     string
	Coordinates []float64
	Photo       string
	AuthorID    string
}

// NewStoreRecord trims and validates input. Identity, slug and creation time are
// left for the service to assign.
func NewStoreRecord(input StoreInput) (StoreRecord, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return StoreRecord{}, NewValidationError("name", "please enter a store name")
	}
	author := strings.TrimSpace(input.AuthorID)
	if author == "" {
		return StoreRecord{}, NewValidationError("authorId", "you must supply an author")
	}
	location, err := NewLocation(input.Address, input.Coordinates)
	if err != nil {
		return StoreRecord{}, err
	}
	return StoreRecord{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Tags:        NewTagList(input.Tags),
		Location:    location,
		Photo:       strings.TrimSpace(input.Photo),
		AuthorID:    author,
	}, nil
}
