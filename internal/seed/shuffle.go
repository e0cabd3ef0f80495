package seed

import (
	"fmt"
	"sync"

	"github.com/ZacxDev/reel-composer/pkg/types"
	"github.com/cespare/xxhash/v2"
)

// History remembers permutation hashes so repeated shuffles can avoid repeating an order.
// The zero value is not usable; call NewHistory.
type History struct {
	MaxRetries int

	mu   sync.Mutex
	seen map[uint64]struct{}
}

func NewHistory(maxRetries int) *History {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &History{
		MaxRetries: maxRetries,
		seen:       make(map[uint64]struct{}),
	}
}

// Len returns the number of distinct orders recorded
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.seen)
}

func (h *History) has(sum uint64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.seen[sum]
	return ok
}

func (h *History) add(sum uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen[sum] = struct{}{}
}

// Shuffle returns a permutation of items determined by seed. The input is not modified.
// With a History, a permutation already seen is retried with a perturbed seed up to
// MaxRetries times; after that the last permutation is accepted.
func Shuffle[T any](items []T, seed int64, history *History) ([]T, error) {
	if len(items) == 0 {
		return nil, types.InvalidArgument("cannot shuffle an empty list")
	}

	out := permute(items, seed)
	if history == nil {
		return out, nil
	}

	sum := orderHash(out)
	for attempt := 1; attempt <= history.MaxRetries && history.has(sum); attempt++ {
		out = permute(items, Derive(seed, uint64(attempt)))
		sum = orderHash(out)
	}
	history.add(sum)

	return out, nil
}

func permute[T any](items []T, seed int64) []T {
	out := make([]T, len(items))
	copy(out, items)

	r := New(seed)
	for i := len(out) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func orderHash[T any](items []T) uint64 {
	d := xxhash.New()
	for _, it := range items {
		fmt.Fprintf(d, "%v\x00", it)
	}
	return d.Sum64()
}
