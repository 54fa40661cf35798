package domain

import (
	"strings"
	"time"
)

// StoreRecord is the persisted shape of a store. Repositories hand out records;
// callers only ever see a Store, which carries its reviews.
type StoreRecord struct {
	ID          string
	Name        string
	Slug        string
	Description string
	Tags        TagList
	CreatedAt   time.Time
	Location    Location
	Photo       string
	AuthorID    string
}

// Store is a store with its reviews joined in.
type Store struct {
	StoreRecord
	Reviews []Review
}

// NewStore wraps a record with its reviews. A nil slice becomes an empty one so
// the reviews field is never absent.
func NewStore(record StoreRecord, reviews []Review) Store {
	if reviews == nil {
		reviews = []Review{}
	}
	return Store{StoreRecord: record, Reviews: reviews}
}

// Review is owned by the review storage; the catalog only reads it.
type Review struct {
	ID        string
	StoreID   string
	AuthorID  string
	Rating    int
	Text      string
	CreatedAt time.Time
}

// RankedStore is produced by the ranking pipeline only.
type RankedStore struct {
	Store
	AverageRating float64
	ReviewCount   int
}

// TagCount is one entry of the catalog-wide tag vocabulary.
type TagCount struct {
	Tag   string
	Count int
}

// StorePage is one page of the store listing.
type StorePage struct {
	Stores []Store
	Page   int
	Pages  int
	Count  int64
	// LastPage is set when the requested page lies past the end of the listing.
	LastPage int
}

// Overflow reports whether the requested page does not exist.
func (p StorePage) Overflow() bool {
	return p.LastPage > 0
}

// TagList is a set of free-text labels; order carries no meaning.
type TagList []string

// NewTagList trims labels, drops empty ones and removes duplicates.
func NewTagList(values []string) TagList {
	if len(values) == 0 {
		return TagList{}
	}
	result := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, raw := range values {
		tag := strings.TrimSpace(raw)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		result = append(result, tag)
	}
	return TagList(result)
}

// Contains reports whether tag is in the list.
func (l TagList) Contains(tag string) bool {
	for _, v := range l {
		if v == tag {
			return true
		}
	}
	return false
}

func (l TagList) Strings() []string {
	return append([]string{}, l...)
}
