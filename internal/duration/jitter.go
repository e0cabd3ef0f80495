package duration

import (
	"math"

	"github.com/ZacxDev/reel-composer/internal/seed"
	"github.com/ZacxDev/reel-composer/pkg/types"
)

// ApplyJitter varies video clip durations by a factor of 1 ± U(jitterMin, jitterMax).
// Images keep base. The sign and magnitude are drawn per clip from seed.
func ApplyJitter(items []types.MediaItem, base float64, sd int64, jitterMin, jitterMax float64) ([]float64, error) {
	if base <= 0 || math.IsNaN(base) || math.IsInf(base, 0) {
		return nil, types.InvalidArgument("base clip duration must be positive, got %v", base)
	}
	if jitterMin < 0 || jitterMax < jitterMin || jitterMax >= 1 {
		return nil, types.InvalidArgument("jitter range [%v, %v] is invalid", jitterMin, jitterMax)
	}

	r := seed.New(seed.Derive(sd, saltJitter))
	out := make([]float64, len(items))
	for i, it := range items {
		// draw for every clip so image/video mixes do not shift later draws
		mag := r.Between(jitterMin, jitterMax)
		sign := 1.0
		if r.Intn(2) == 0 {
			sign = -1
		}

		out[i] = base
		if it.Kind == types.MediaVideo {
			out[i] = base * (1 + sign*mag)
		}
	}
	return out, nil
}

// Sum adds up durations
func Sum(durations []float64) float64 {
	var total float64
	for _, d := range durations {
		total += d
	}
	return total
}
