package duration

import (
	"math"

	"github.com/ZacxDev/reel-composer/internal/config"
	"github.com/ZacxDev/reel-composer/internal/seed"
	"github.com/ZacxDev/reel-composer/pkg/types"
	"github.com/pkg/errors"
)

// salts keep each draw on its own sub-seed
const (
	saltSpeed uint64 = iota + 1
	saltTarget
	saltTiming
	saltBand
	saltJitter
)

// epsilon absorbs float noise in divisions such as 10/0.1
const epsilon = 1e-9

// Plan is the solved timing for one generation run
type Plan struct {
	Mode           types.TimingMode
	ClipDuration   float64
	TargetDuration float64
	UniqueCount    int
	ClipCount      int
	LoopCount      int
	FinalDuration  float64
}

// Durations returns ClipCount copies of ClipDuration
func (p Plan) Durations() []float64 {
	out := make([]float64, p.ClipCount)
	for i := range out {
		out[i] = p.ClipDuration
	}
	return out
}

// Solver computes clip counts and durations from the timing config
type Solver struct {
	timing    config.TimingConfig
	maxUnique int
}

func NewSolver(cfg *config.Config) *Solver {
	return &Solver{
		timing:    cfg.Timing,
		maxUnique: cfg.Selection.MaxUnique,
	}
}

// Solve dispatches on req.Mode
func (s *Solver) Solve(req types.TimingConfig, pool []types.MediaItem, sd int64) (Plan, error) {
	switch req.Mode {
	case types.TimingUniform, "":
		return s.SolveUniform(req, len(pool), sd)
	case types.TimingPerClip:
		return s.SolvePerClip(req, pool, sd)
	default:
		return Plan{}, types.InvalidArgument("unknown timing mode %q", req.Mode)
	}
}

// SolveUniform draws one clip speed and one target duration, then sizes the
// sequence so every clip plays for the same time.
func (s *Solver) SolveUniform(req types.TimingConfig, poolSize int, sd int64) (Plan, error) {
	if poolSize < 1 {
		return Plan{}, types.ErrEmptyPool
	}

	req = s.defaultTarget(req)
	speedMin, speedMax := req.SpeedMin, req.SpeedMax
	if speedMin == 0 && speedMax == 0 {
		speedMin, speedMax = s.timing.SpeedMin, s.timing.SpeedMax
	}
	if err := checkWindow("speed", speedMin, speedMax); err != nil {
		return Plan{}, err
	}
	if err := checkWindow("target", req.TargetMin, req.TargetMax); err != nil {
		return Plan{}, err
	}

	clipSpeed, err := seed.Range(seed.Derive(sd, saltSpeed), speedMin, speedMax)
	if err != nil {
		return Plan{}, errors.Wrap(err, "failed to draw clip speed")
	}
	target, err := seed.Range(seed.Derive(sd, saltTarget), req.TargetMin, req.TargetMax)
	if err != nil {
		return Plan{}, errors.Wrap(err, "failed to draw target duration")
	}

	failure := &types.DurationSolverError{
		Mode:           types.TimingUniform,
		ClipDuration:   clipSpeed,
		TargetMin:      req.TargetMin,
		TargetMax:      req.TargetMax,
		TargetDuration: target,
		LoopCap:        s.timing.UniformLoopCap,
	}

	if clipSpeed <= 0 {
		failure.Reason = "clip speed must be positive"
		return Plan{}, failure
	}

	clips := ceilCount(target / clipSpeed)
	unique := min(clips, s.maxUnique, poolSize)
	loops := (clips + unique - 1) / unique
	failure.ClipCount, failure.UniqueCount, failure.LoopCount = clips, unique, loops

	if loops > s.timing.UniformLoopCap {
		failure.Reason = "loop cap exceeded before reaching target duration"
		return Plan{}, failure
	}

	final := float64(clips) * clipSpeed
	if final <= 0 || math.IsInf(final, 0) {
		failure.Reason = "final duration must be positive"
		return Plan{}, failure
	}

	return Plan{
		Mode:           types.TimingUniform,
		ClipDuration:   clipSpeed,
		TargetDuration: target,
		UniqueCount:    unique,
		ClipCount:      clips,
		LoopCount:      loops,
		FinalDuration:  final,
	}, nil
}

// SolvePerClip picks a per-clip timing from the collection type, sizes the
// unique set from the timing band and loops it to fill the target window.
func (s *Solver) SolvePerClip(req types.TimingConfig, pool []types.MediaItem, sd int64) (Plan, error) {
	if len(pool) == 0 {
		return Plan{}, types.ErrEmptyPool
	}
	req = s.defaultTarget(req)
	if err := checkWindow("target", req.TargetMin, req.TargetMax); err != nil {
		return Plan{}, err
	}

	lo, hi := s.timing.ImageTimingMinMs, s.timing.ImageTimingMaxMs
	if VideoHeavy(pool) {
		lo, hi = s.timing.VideoTimingMinMs, s.timing.VideoTimingMaxMs
	}
	timingMs, err := seed.Range(seed.Derive(sd, saltTiming), lo, hi)
	if err != nil {
		return Plan{}, errors.Wrap(err, "failed to draw clip timing")
	}
	perClip := timingMs / 1000

	target, err := seed.Range(seed.Derive(sd, saltTarget), req.TargetMin, req.TargetMax)
	if err != nil {
		return Plan{}, errors.Wrap(err, "failed to draw target duration")
	}

	failure := &types.DurationSolverError{
		Mode:           types.TimingPerClip,
		ClipDuration:   perClip,
		TargetMin:      req.TargetMin,
		TargetMax:      req.TargetMax,
		TargetDuration: target,
		LoopCap:        s.timing.LoopCap,
	}
	if perClip <= 0 {
		failure.Reason = "per-clip duration must be positive"
		return Plan{}, failure
	}

	band := BandFor(s.timing.Bands, timingMs)
	unique := seed.New(seed.Derive(sd, saltBand)).IntBetween(band.MinClips, band.MaxClips)
	unique = min(unique, len(pool), s.maxUnique)
	// one pass must fit inside the window
	if fit := int(math.Floor(req.TargetMax/perClip + epsilon)); unique > fit {
		unique = max(fit, 1)
	}
	failure.UniqueCount = unique

	if reachable := float64(unique*s.timing.LoopCap) * perClip; reachable+epsilon < req.TargetMin {
		failure.LoopCount = s.timing.LoopCap
		failure.ClipCount = unique * s.timing.LoopCap
		failure.Reason = "loop cap reached below the minimum target duration"
		return Plan{}, failure
	}

	clips := max(unique, ceilCount(target/perClip))
	loops := (clips + unique - 1) / unique
	if loops > s.timing.LoopCap {
		// the minimum is reachable, so stop at the cap instead of the drawn target
		clips = unique * s.timing.LoopCap
		loops = s.timing.LoopCap
	}

	return Plan{
		Mode:           types.TimingPerClip,
		ClipDuration:   perClip,
		TargetDuration: target,
		UniqueCount:    unique,
		ClipCount:      clips,
		LoopCount:      loops,
		FinalDuration:  float64(clips) * perClip,
	}, nil
}

// defaultTarget fills the target window from config when the request leaves
// both bounds unset
func (s *Solver) defaultTarget(req types.TimingConfig) types.TimingConfig {
	if req.TargetMin == 0 && req.TargetMax == 0 {
		req.TargetMin, req.TargetMax = s.timing.TargetMin, s.timing.TargetMax
	}
	return req
}

// VideoHeavy reports whether more than half of the pool is video
func VideoHeavy(pool []types.MediaItem) bool {
	videos := 0
	for _, it := range pool {
		if it.Kind == types.MediaVideo {
			videos++
		}
	}
	return videos*2 > len(pool)
}

// BandFor returns the first band whose ceiling covers timingMs. A band with a
// zero ceiling matches anything; the last band is the fallback.
func BandFor(bands []config.ClipBand, timingMs float64) config.ClipBand {
	for _, b := range bands {
		if b.MaxTimingMs == 0 || timingMs <= b.MaxTimingMs {
			return b
		}
	}
	return bands[len(bands)-1]
}

func ceilCount(x float64) int {
	n := int(math.Ceil(x - epsilon*math.Max(1, x)))
	if n < 1 {
		return 1
	}
	return n
}

func checkWindow(name string, min, max float64) error {
	if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) {
		return types.InvalidArgument("%s window must be finite, got [%v, %v]", name, min, max)
	}
	if min <= 0 {
		return types.InvalidArgument("%s minimum must be positive, got %v", name, min)
	}
	if max < min {
		return types.InvalidArgument("%s window [%v, %v] is inverted", name, min, max)
	}
	return nil
}
