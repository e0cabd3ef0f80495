package selector

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ZacxDev/reel-composer/internal/seed"
	"github.com/ZacxDev/reel-composer/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pool(n int) []types.MediaItem {
	items := make([]types.MediaItem, n)
	for i := range items {
		items[i] = types.MediaItem{
			ID:   fmt.Sprintf("m%d", i),
			Ref:  fmt.Sprintf("media/%d.jpg", i),
			Kind: types.MediaImage,
		}
	}
	return items
}

func countByID(items []types.MediaItem) map[string]int {
	counts := map[string]int{}
	for _, it := range items {
		counts[it.ID]++
	}
	return counts
}

func TestSelect_ThreeImagesSevenClips(t *testing.T) {
	p := pool(3)
	out, err := Select(p, 42, 7, 20, nil)
	require.NoError(t, err)
	require.Len(t, out, 7)

	counts := countByID(out)
	require.Len(t, counts, 3)
	for id, c := range counts {
		assert.True(t, c == 2 || c == 3, "%s appears %d times", id, c)
	}
}

func TestSelect_Deterministic(t *testing.T) {
	p := pool(12)
	a, err := Select(p, 99, 30, 20, nil)
	require.NoError(t, err)
	b, err := Select(p, 99, 30, 20, nil)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSelect_CoverageFromPool(t *testing.T) {
	p := pool(25)
	valid := map[string]bool{}
	for _, it := range p {
		valid[it.ID] = true
	}

	for n := 1; n <= 20; n++ {
		out, err := Select(p, int64(n), n, 20, nil)
		require.NoError(t, err)
		require.Len(t, out, n)
		for _, it := range out {
			assert.True(t, valid[it.ID])
		}
		// n <= base, so no repeats
		assert.Len(t, countByID(out), n)
	}
}

func TestSelect_FairCycling(t *testing.T) {
	tests := []struct {
		poolSize, n, maxUnique int
	}{
		{3, 7, 20},
		{4, 17, 20},
		{5, 5, 20},
		{30, 55, 20}, // base capped at 20
		{10, 23, 6},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_%d_%d", tt.poolSize, tt.n, tt.maxUnique), func(t *testing.T) {
			out, err := Select(pool(tt.poolSize), 5, tt.n, tt.maxUnique, nil)
			require.NoError(t, err)
			require.Len(t, out, tt.n)

			base := min(tt.poolSize, tt.maxUnique)
			counts := countByID(out)
			assert.Len(t, counts, min(base, tt.n))

			lo, hi := tt.n/base, (tt.n+base-1)/base
			for id, c := range counts {
				assert.GreaterOrEqual(t, c, lo, id)
				assert.LessOrEqual(t, c, hi, id)
			}
		})
	}
}

func TestSelect_DoesNotMutatePool(t *testing.T) {
	p := pool(6)
	orig := append([]types.MediaItem(nil), p...)
	_, err := Select(p, 1, 10, 20, nil)
	require.NoError(t, err)
	assert.Equal(t, orig, p)
}

func TestSelect_Errors(t *testing.T) {
	_, err := Select(nil, 1, 3, 20, nil)
	assert.True(t, errors.Is(err, types.ErrEmptyPool))
	assert.True(t, errors.Is(err, types.ErrInvalidArgument))

	_, err = Select(pool(2), 1, 0, 20, nil)
	assert.True(t, errors.Is(err, types.ErrInvalidArgument))
	assert.False(t, errors.Is(err, types.ErrEmptyPool))
}

func TestSelect_HistoryVariesOrder(t *testing.T) {
	p := pool(8)
	h := seed.NewHistory(5)
	a, err := Select(p, 3, 8, 20, h)
	require.NoError(t, err)
	b, err := Select(p, 3, 8, 20, h)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCycleAndPlan(t *testing.T) {
	unique := pool(4)
	out, err := Cycle(unique, 10)
	require.NoError(t, err)
	assert.Equal(t, unique[0], out[4])
	assert.Equal(t, unique[1], out[9])

	plan := Plan(out, 4)
	assert.Equal(t, 3, plan.LoopCount)
	assert.Equal(t, 4, plan.UniqueCount)
	assert.Len(t, plan.OrderedMedia, 10)
}

func TestReorder_PatternsArePermutations(t *testing.T) {
	items := pool(7)
	for call := 0; call < 8; call++ {
		out := Reorder(items, call)
		require.Len(t, out, len(items))
		assert.Equal(t, countByID(items), countByID(out), "call %d", call)
	}

	assert.Equal(t, items, Reorder(items, 0))
	assert.Equal(t, items[6], Reorder(items, 1)[0])
	assert.Equal(t, items[2], Reorder(items, 2)[1])
	assert.Equal(t, items[2], Reorder(items, 3)[0])
	assert.Equal(t, Reorder(items, 1), Reorder(items, 5))
	assert.Equal(t, PatternReverse, PatternFor(-3))
	assert.Empty(t, Reorder(nil, 3))
}
