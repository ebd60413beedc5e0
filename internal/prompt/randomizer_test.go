package prompt

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrawReturnsOneFragmentPerCategory(t *testing.T) {
	t.Parallel()

	r := NewRandomizerWithSource(rand.NewSource(1))
	categories := []Category{CategoryAngle, CategoryPose}

	draw := r.Draw(categories)
	require.Len(t, draw, 2)
	assert.Contains(t, Fragments(CategoryAngle), draw[0])
	assert.Contains(t, Fragments(CategoryPose), draw[1])
}

func TestDrawSeriesIsWithoutReplacement(t *testing.T) {
	t.Parallel()

	r := NewRandomizerWithSource(rand.NewSource(42))
	pool := Fragments(CategoryAngle)
	require.NotEmpty(t, pool)

	n := len(pool)
	series := r.DrawSeries([]Category{CategoryAngle}, n)
	require.Len(t, series, n)

	seen := make(map[string]struct{}, n)
	for _, set := range series {
		require.Len(t, set, 1)
		_, dup := seen[set[0]]
		assert.False(t, dup, "fragment %q drawn twice before pool exhaustion", set[0])
		seen[set[0]] = struct{}{}
	}
}

func TestDrawSeriesCyclesAfterExhaustion(t *testing.T) {
	t.Parallel()

	r := NewRandomizerWithSource(rand.NewSource(7))
	pool := Fragments(CategoryAngle)
	n := len(pool)*2 + 1

	series := r.DrawSeries([]Category{CategoryAngle}, n)
	require.Len(t, series, n)
	for _, set := range series {
		require.Len(t, set, 1)
		assert.Contains(t, pool, set[0])
	}
}

func TestDrawSeriesClampsToOne(t *testing.T) {
	t.Parallel()

	r := NewRandomizerWithSource(rand.NewSource(3))
	series := r.DrawSeries([]Category{CategoryPose}, 0)
	assert.Len(t, series, 1)
}

func TestParseCategory(t *testing.T) {
	t.Parallel()

	for _, c := range Categories() {
		parsed, err := ParseCategory(string(c))
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}

	_, err := ParseCategory("no-such-category")
	assert.Error(t, err)
}
