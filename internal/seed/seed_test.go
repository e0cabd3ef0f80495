package seed

import (
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/ZacxDev/reel-composer/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextIndex_InRangeAndDeterministic(t *testing.T) {
	for _, s := range []int64{0, 1, -1, 42, math.MaxInt64, math.MinInt64} {
		for _, m := range []int{1, 2, 3, 7, 1000} {
			a, err := NextIndex(s, m)
			require.NoError(t, err)
			b, err := NextIndex(s, m)
			require.NoError(t, err)
			assert.Equal(t, a, b)
			assert.GreaterOrEqual(t, a, 0)
			assert.Less(t, a, m)
		}
	}
}

func TestNextIndex_RejectsZeroModulus(t *testing.T) {
	_, err := NextIndex(1, 0)
	assert.True(t, errors.Is(err, types.ErrInvalidArgument))

	_, err = NextIndex(1, -3)
	assert.True(t, errors.Is(err, types.ErrInvalidArgument))
}

func TestNextIndex_CoversAllBuckets(t *testing.T) {
	counts := make([]int, 5)
	for s := int64(0); s < 5000; s++ {
		i, err := NextIndex(s, 5)
		require.NoError(t, err)
		counts[i]++
	}
	for i, c := range counts {
		// expected 1000 each; allow generous slack
		assert.InDelta(t, 1000, c, 150, "bucket %d", i)
	}
}

func TestRange(t *testing.T) {
	v, err := Range(7, 0.1, 0.5)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, v, 0.1)
	assert.LessOrEqual(t, v, 0.5)

	v2, _ := Range(7, 0.1, 0.5)
	assert.Equal(t, v, v2)

	fixed, err := Range(99, 10, 10)
	require.NoError(t, err)
	assert.Equal(t, 10.0, fixed)

	_, err = Range(1, 5, 1)
	assert.True(t, errors.Is(err, types.ErrInvalidArgument))

	_, err = Range(1, math.NaN(), 1)
	assert.True(t, errors.Is(err, types.ErrInvalidArgument))
}

func TestDerive_Decorrelates(t *testing.T) {
	a := Derive(42, 1)
	b := Derive(42, 2)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Derive(42, 1))
}

func TestCompose(t *testing.T) {
	a := Compose(1700000000000, 12, 0)
	b := Compose(1700000000000, 12, 1)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Compose(1700000000000, 12, 0))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 5, Clamp(9, 1, 5))
	assert.Equal(t, 1, Clamp(-2, 1, 5))
	assert.Equal(t, 0.3, Clamp(0.3, 0.0, 1.0))
}

func TestShuffle_IsPermutationAndDeterministic(t *testing.T) {
	in := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	orig := append([]int(nil), in...)

	a, err := Shuffle(in, 42, nil)
	require.NoError(t, err)
	b, err := Shuffle(in, 42, nil)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, orig, in, "input must not be mutated")

	sorted := append([]int(nil), a...)
	sort.Ints(sorted)
	assert.Equal(t, orig, sorted)
}

func TestShuffle_DifferentSeedsUsuallyDiffer(t *testing.T) {
	in := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	seen := map[[10]int]bool{}
	for s := int64(0); s < 50; s++ {
		out, err := Shuffle(in, s, nil)
		require.NoError(t, err)
		var key [10]int
		copy(key[:], out)
		seen[key] = true
	}
	assert.Greater(t, len(seen), 45)
}

func TestShuffle_Empty(t *testing.T) {
	_, err := Shuffle([]string{}, 1, nil)
	assert.True(t, errors.Is(err, types.ErrInvalidArgument))
}

func TestShuffle_HistoryAvoidsRepeat(t *testing.T) {
	in := []string{"a", "b", "c", "d", "e", "f"}
	h := NewHistory(5)

	first, err := Shuffle(in, 7, h)
	require.NoError(t, err)
	second, err := Shuffle(in, 7, h)
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "same seed with history should be perturbed")
	assert.Equal(t, 2, h.Len())
}

func TestShuffle_HistoryBoundedRetries(t *testing.T) {
	// two items only have two orders; the third call must still return
	in := []int{1, 2}
	h := NewHistory(5)
	for i := 0; i < 4; i++ {
		out, err := Shuffle(in, 3, h)
		require.NoError(t, err)
		assert.Len(t, out, 2)
	}
	assert.LessOrEqual(t, h.Len(), 2)

	single, err := Shuffle([]int{9}, 3, h)
	require.NoError(t, err)
	assert.Equal(t, []int{9}, single)
}

func TestShuffle_FirstPositionRoughlyUniform(t *testing.T) {
	in := []int{0, 1, 2, 3}
	counts := make([]int, 4)
	for s := int64(0); s < 4000; s++ {
		out, err := Shuffle(in, s, nil)
		require.NoError(t, err)
		counts[out[0]]++
	}
	for i, c := range counts {
		assert.InDelta(t, 1000, c, 150, "value %d", i)
	}
}
