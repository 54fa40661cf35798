package slug

import (
	"context"
	"fmt"
)

// Lookup counts existing slugs matching Pattern(base), ignoring excludeID.
type Lookup interface {
	CountSlugMatches(ctx context.Context, base, excludeID string) (int64, error)
}

// Assigner turns a display name into a slug that does not collide with the
// slugs seen at read time. Uniqueness under concurrent writers is left to the
// storage constraint and the caller's retry.
type Assigner struct {
	lookup Lookup
}

func NewAssigner(lookup Lookup) *Assigner {
	return &Assigner{lookup: lookup}
}

// Assign returns the slug for name. excludeID keeps a renamed store from
// counting itself; bump is the number of lost insert races so far.
func (a *Assigner) Assign(ctx context.Context, name, excludeID string, bump int) (string, error) {
	base := From(name)
	matches, err := a.lookup.CountSlugMatches(ctx, base, excludeID)
	if err != nil {
		return "", fmt.Errorf("count slugs for %q: %w", base, err)
	}
	return Candidate(base, int(matches), bump), nil
}
