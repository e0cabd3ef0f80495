package selector

import (
	"github.com/ZacxDev/reel-composer/internal/seed"
	"github.com/ZacxDev/reel-composer/pkg/types"
	"github.com/pkg/errors"
)

// Select returns n clips drawn from pool in a seeded order. At most
// min(len(pool), maxUnique) distinct items are used; when n exceeds that the
// shuffled set is repeated in rotation.
func Select(pool []types.MediaItem, s int64, n, maxUnique int, history *seed.History) ([]types.MediaItem, error) {
	if len(pool) == 0 {
		return nil, types.ErrEmptyPool
	}
	if n < 1 {
		return nil, types.InvalidArgument("clip count must be >= 1, got %d", n)
	}
	if maxUnique < 1 {
		return nil, types.InvalidArgument("max unique must be >= 1, got %d", maxUnique)
	}

	shuffled, err := seed.Shuffle(pool, s, history)
	if err != nil {
		return nil, errors.Wrap(err, "failed to shuffle media pool")
	}

	base := min(len(shuffled), maxUnique)
	return Cycle(shuffled[:base], n)
}

// Cycle repeats unique in order until n entries are produced
func Cycle(unique []types.MediaItem, n int) ([]types.MediaItem, error) {
	if len(unique) == 0 {
		return nil, types.ErrEmptyPool
	}
	if n < 1 {
		return nil, types.InvalidArgument("clip count must be >= 1, got %d", n)
	}

	out := make([]types.MediaItem, n)
	for i := range out {
		out[i] = unique[i%len(unique)]
	}
	return out, nil
}

// Plan bundles a cycled selection with its loop bookkeeping
func Plan(ordered []types.MediaItem, uniqueCount int) types.SelectionPlan {
	loops := 0
	if uniqueCount > 0 {
		loops = (len(ordered) + uniqueCount - 1) / uniqueCount
	}
	return types.SelectionPlan{
		OrderedMedia: ordered,
		UniqueCount:  uniqueCount,
		LoopCount:    loops,
	}
}
