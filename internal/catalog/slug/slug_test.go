package slug

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrom(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Cafe", "cafe"},
		{"spaces", "Wes's  Coffee Shop", "wes-s-coffee-shop"},
		{"accents", "Café Crème", "cafe-creme"},
		{"punctuation_edges", "  --Bar & Grill!-- ", "bar-grill"},
		{"digits", "Route 66 Diner", "route-66-diner"},
		{"non_latin_only", "喫茶店", Fallback},
		{"empty", "", Fallback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, From(tt.in))
		})
	}
}

func TestPattern(t *testing.T) {
	re := regexp.MustCompile("(?i)" + Pattern("cafe"))

	for _, s := range []string{"cafe", "cafe-2", "CAFE-10", "Cafe-3"} {
		assert.True(t, re.MatchString(s), s)
	}
	for _, s := range []string{"cafe-luna", "my-cafe", "cafe-", "cafe-2a", "cafes"} {
		assert.False(t, re.MatchString(s), s)
	}
}

func TestCandidate(t *testing.T) {
	assert.Equal(t, "cafe", Candidate("cafe", 0, 0))
	assert.Equal(t, "cafe-2", Candidate("cafe", 1, 0))
	assert.Equal(t, "cafe-3", Candidate("cafe", 2, 0))
	assert.Equal(t, "cafe-2", Candidate("cafe", 0, 1))
	assert.Equal(t, "cafe-4", Candidate("cafe", 2, 1))
}

type fakeLookup struct {
	slugs     map[string]string
	err       error
	lastBase  string
	lastExclu string
}

func (f *fakeLookup) CountSlugMatches(_ context.Context, base, excludeID string) (int64, error) {
	f.lastBase = base
	f.lastExclu = excludeID
	if f.err != nil {
		return 0, f.err
	}
	re := regexp.MustCompile("(?i)" + Pattern(base))
	var n int64
	for id, s := range f.slugs {
		if id == excludeID {
			continue
		}
		if re.MatchString(s) {
			n++
		}
	}
	return n, nil
}

func TestAssigner_SequentialCollisions(t *testing.T) {
	lookup := &fakeLookup{slugs: map[string]string{}}
	a := NewAssigner(lookup)
	ctx := context.Background()

	want := []string{"cafe", "cafe-2", "cafe-3"}
	for i, w := range want {
		got, err := a.Assign(ctx, "Cafe", "", 0)
		require.NoError(t, err)
		assert.Equal(t, w, got)
		lookup.slugs[string(rune('a'+i))] = got
	}
}

func TestAssigner_ExcludesSelf(t *testing.T) {
	lookup := &fakeLookup{slugs: map[string]string{"1": "cafe", "2": "tea-house"}}
	a := NewAssigner(lookup)

	got, err := a.Assign(context.Background(), "Cafe", "1", 0)
	require.NoError(t, err)
	assert.Equal(t, "cafe", got)
	assert.Equal(t, "1", lookup.lastExclu)
}

func TestAssigner_LookupError(t *testing.T) {
	boom := errors.New("boom")
	a := NewAssigner(&fakeLookup{err: boom})

	_, err := a.Assign(context.Background(), "Cafe", "", 0)
	assert.ErrorIs(t, err, boom)
}
