package ranking

import (
	"sort"

	"github.com/sngm3741/store-catalog/api/internal/catalog/domain"
)

// TagPair is one (store, tag) row produced by unwinding a store's tag set.
type TagPair struct {
	StoreID string
	Tag     string
}

// TagCounts runs unwind, group, sort. No limit is applied.
func TagCounts(records []domain.StoreRecord) []domain.TagCount {
	return SortTagCounts(GroupTags(UnwindTags(records)))
}

// UnwindTags flattens every store's tags into pairs. Stores without tags
// contribute nothing.
func UnwindTags(records []domain.StoreRecord) []TagPair {
	pairs := make([]TagPair, 0)
	for _, record := range records {
		for _, tag := range record.Tags {
			pairs = append(pairs, TagPair{StoreID: record.ID, Tag: tag})
		}
	}
	return pairs
}

// GroupTags counts pairs per tag value.
func GroupTags(pairs []TagPair) []domain.TagCount {
	index := make(map[string]int)
	counts := make([]domain.TagCount, 0)
	for _, p := range pairs {
		i, ok := index[p.Tag]
		if !ok {
			index[p.Tag] = len(counts)
			counts = append(counts, domain.TagCount{Tag: p.Tag, Count: 1})
			continue
		}
		counts[i].Count++
	}
	return counts
}

// SortTagCounts orders by count descending, then tag ascending.
func SortTagCounts(counts []domain.TagCount) []domain.TagCount {
	sort.SliceStable(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Tag < counts[j].Tag
	})
	return counts
}
