// Package reelgen is the public entry point: it turns a GenerationRequest into a
// CompositionRequest ready for rendering.
package reelgen

import (
	"time"

	"github.com/ZacxDev/reel-composer/internal/config"
	"github.com/ZacxDev/reel-composer/internal/duration"
	"github.com/ZacxDev/reel-composer/internal/hook"
	"github.com/ZacxDev/reel-composer/internal/platform"
	"github.com/ZacxDev/reel-composer/internal/profile"
	"github.com/ZacxDev/reel-composer/internal/seed"
	"github.com/ZacxDev/reel-composer/internal/selector"
	"github.com/ZacxDev/reel-composer/internal/timeline"
	"github.com/ZacxDev/reel-composer/pkg/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Result bundles the composition with the intermediate plans that produced it
type Result struct {
	Composition *types.CompositionRequest
	Selection   types.SelectionPlan
	Timing      duration.Plan
	Durations   []float64
	Profile     profile.Profile
	Platform    string
}

type Generator struct {
	cfg      *config.Config
	logger   zerolog.Logger
	solver   *duration.Solver
	hooks    *hook.Engine
	measurer hook.Measurer
	history  *seed.History
	now      func() time.Time
}

type Option func(*Generator)

// WithMeasurer replaces the font measurer used for hook layout
func WithMeasurer(m hook.Measurer) Option {
	return func(g *Generator) { g.measurer = m }
}

// WithClock sets the time used for output filenames
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithHistory makes repeated calls avoid orders already produced by this
// Generator. Outputs then depend on call order, not only on the seed.
func WithHistory() Option {
	return func(g *Generator) { g.history = seed.NewHistory(g.cfg.Selection.ShuffleRetries) }
}

func New(cfg *config.Config, logger zerolog.Logger, opts ...Option) (*Generator, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	g := &Generator{
		cfg:    cfg,
		logger: logger,
		solver: duration.NewSolver(cfg),
		now:    time.Now,
	}
	if cfg.Selection.AvoidRepeats {
		WithHistory()(g)
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.measurer == nil {
		m, err := hook.NewFaceMeasurer(cfg.Render.FontFile)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load hook font")
		}
		g.measurer = m
	}
	g.hooks = hook.NewEngine(cfg.Hook, g.measurer)

	return g, nil
}

// Hooks exposes the layout engine for callers that only need hook geometry
func (g *Generator) Hooks() *hook.Engine {
	return g.hooks
}

// Generate runs solver, selector, profile and composer for one request
func (g *Generator) Generate(req types.GenerationRequest) (*Result, error) {
	pool, err := normalizePool(req.MediaPool)
	if err != nil {
		return nil, err
	}

	platName := string(req.Platform)
	if platName == "" {
		platName = g.cfg.Render.Platform
	}
	plat, err := platform.Get(platName)
	if err != nil {
		return nil, errors.Wrap(types.ErrInvalidArgument, err.Error())
	}

	plan, err := g.solver.Solve(req.Timing, pool, req.Seed)
	if err != nil {
		return nil, errors.Wrap(err, "failed to solve durations")
	}

	unique, err := selector.Select(pool, req.Seed, plan.UniqueCount, g.cfg.Selection.MaxUnique, g.history)
	if err != nil {
		return nil, errors.Wrap(err, "failed to select media")
	}
	unique = selector.Reorder(unique, req.CallIndex)

	ordered, err := selector.Cycle(unique, plan.ClipCount)
	if err != nil {
		return nil, errors.Wrap(err, "failed to loop selection")
	}
	selection := selector.Plan(ordered, len(unique))

	durations := plan.Durations()
	if plan.Mode == types.TimingPerClip {
		durations, err = duration.ApplyJitter(ordered, plan.ClipDuration, req.Seed,
			g.cfg.Timing.VideoJitterMin, g.cfg.Timing.VideoJitterMax)
		if err != nil {
			return nil, errors.Wrap(err, "failed to jitter durations")
		}
	}

	total := duration.Sum(durations)
	if limit := float64(plat.GetMaxDuration()); total > limit {
		return nil, types.InvalidArgument("composed duration %.2fs exceeds %s limit of %.0fs", total, platName, limit)
	}

	prof := profile.Synthesize(req.Seed, g.cfg, g.now())
	if ceiling := plat.GetMaxVideoBitrate(); ceiling > 0 {
		prof.VideoBitrate = min(prof.VideoBitrate, ceiling)
	}

	width, height := platform.Canvas(plat)
	comp, err := timeline.Compose(selection, durations, prof, hookSpec(req.Hook), req.AudioRef, timeline.Options{
		Width:     width,
		Height:    height,
		Container: plat.GetOutputFormat(),
		HookMode:  req.HookMode,
		Hooks:     g.hooks,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to compose timeline")
	}

	g.logger.Debug().
		Int64("seed", req.Seed).
		Str("platform", platName).
		Str("mode", string(plan.Mode)).
		Int("unique", selection.UniqueCount).
		Int("clips", len(ordered)).
		Int("loops", selection.LoopCount).
		Float64("duration", comp.Output.Duration).
		Str("profile", prof.Archetype).
		Msg("composition generated")

	return &Result{
		Composition: comp,
		Selection:   selection,
		Timing:      plan,
		Durations:   durations,
		Profile:     prof,
		Platform:    platName,
	}, nil
}

// normalizePool copies the pool, filling a missing kind from the ref extension
func normalizePool(pool []types.MediaItem) ([]types.MediaItem, error) {
	if len(pool) == 0 {
		return nil, types.ErrEmptyPool
	}
	out := make([]types.MediaItem, len(pool))
	for i, it := range pool {
		if it.Ref == "" {
			return nil, types.InvalidArgument("media item %d has no ref", i)
		}
		switch it.Kind {
		case "":
			it.Kind = types.KindFromRef(it.Ref)
		case types.MediaImage, types.MediaVideo:
		default:
			return nil, types.InvalidArgument("media item %d has unknown kind %q", i, it.Kind)
		}
		if it.ID == "" {
			it.ID = it.Ref
		}
		out[i] = it
	}
	return out, nil
}

// hookSpec drops a hook with no text so callers can pass an empty spec
func hookSpec(h *types.HookSpec) *types.HookSpec {
	if h == nil || len(h.Text) == 0 {
		return nil
	}
	spec := *h
	if spec.Style == 0 {
		spec.Style = types.HookStyleOutlined
	}
	if spec.Position == "" {
		spec.Position = types.HookTop
	}
	return &spec
}
