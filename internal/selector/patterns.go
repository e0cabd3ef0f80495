package selector

import "github.com/ZacxDev/reel-composer/pkg/types"

// Pattern is a fixed reordering applied on top of a seeded selection
type Pattern int

const (
	PatternIdentity Pattern = iota
	PatternReverse
	PatternInterleave
	PatternRotateThird
	patternCount
)

func (p Pattern) String() string {
	switch p {
	case PatternIdentity:
		return "identity"
	case PatternReverse:
		return "reverse"
	case PatternInterleave:
		return "interleave"
	case PatternRotateThird:
		return "rotate_third"
	default:
		return "unknown"
	}
}

// PatternFor picks the pattern for a caller-supplied call index
func PatternFor(callIndex int) Pattern {
	i := callIndex % int(patternCount)
	if i < 0 {
		i += int(patternCount)
	}
	return Pattern(i)
}

// Reorder applies the pattern for callIndex and returns a new slice
func Reorder(items []types.MediaItem, callIndex int) []types.MediaItem {
	n := len(items)
	out := make([]types.MediaItem, 0, n)

	switch PatternFor(callIndex) {
	case PatternReverse:
		for i := n - 1; i >= 0; i-- {
			out = append(out, items[i])
		}
	case PatternInterleave:
		// even positions first, then odd
		for i := 0; i < n; i += 2 {
			out = append(out, items[i])
		}
		for i := 1; i < n; i += 2 {
			out = append(out, items[i])
		}
	case PatternRotateThird:
		shift := 0
		if n > 0 {
			shift = n / 3
		}
		for i := 0; i < n; i++ {
			out = append(out, items[(i+shift)%n])
		}
	default:
		out = append(out, items...)
	}

	return out
}
