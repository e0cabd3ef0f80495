// Package batch fans a request template out over many seeds, rendering and
// recording each unit independently.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ZacxDev/reel-composer/internal/config"
	"github.com/ZacxDev/reel-composer/internal/ffmpeg"
	"github.com/ZacxDev/reel-composer/internal/metrics"
	"github.com/ZacxDev/reel-composer/internal/seed"
	"github.com/ZacxDev/reel-composer/pkg/reelgen"
	"github.com/ZacxDev/reel-composer/pkg/types"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type Generator interface {
	Generate(req types.GenerationRequest) (*reelgen.Result, error)
}

type Renderer interface {
	Render(ctx context.Context, req *types.CompositionRequest, dest string) error
}

type Store interface {
	Save(ctx context.Context, ref, owner, kind string, metadata map[string]string) (string, error)
	Expire(ctx context.Context, ref string, ttl time.Duration) error
}

// Request describes one batch. Seeds are derived from StartMillis unless
// FixedSeed is set, in which case unit i uses Template.Seed + i.
type Request struct {
	Template    types.GenerationRequest
	Count       int
	FixedSeed   bool
	StartMillis int64
}

type UnitResult struct {
	Index    int
	Seed     int64
	Output   string
	ResultID string
	Duration float64
	Outcome  string
	Err      error
}

type Summary struct {
	RunID     string
	Succeeded int
	Failed    int
	Results   []UnitResult
}

type Runner struct {
	gen      Generator
	renderer Renderer
	store    Store
	cfg      *config.Config
	logger   zerolog.Logger
	now      func() time.Time
}

// NewRunner wires a batch runner. store may be nil to skip persistence.
func NewRunner(gen Generator, renderer Renderer, store Store, cfg *config.Config, logger zerolog.Logger) *Runner {
	return &Runner{
		gen:      gen,
		renderer: renderer,
		store:    store,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Run executes every unit with at most cfg.Batch.Concurrency in flight. A
// failing unit never cancels its siblings; only ctx does.
func (r *Runner) Run(ctx context.Context, req Request) (*Summary, error) {
	if req.Count < 1 {
		return nil, types.InvalidArgument("batch count must be >= 1, got %d", req.Count)
	}
	if err := os.MkdirAll(r.cfg.Batch.OutputDir, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create output directory")
	}

	start := req.StartMillis
	if start == 0 {
		start = r.now().UnixMilli()
	}

	summary := &Summary{
		RunID:   uuid.NewString(),
		Results: make([]UnitResult, req.Count),
	}
	logger := r.logger.With().Str("run_id", summary.RunID).Logger()
	logger.Info().Int("count", req.Count).Int("concurrency", r.cfg.Batch.Concurrency).Msg("batch started")

	var g errgroup.Group
	g.SetLimit(r.cfg.Batch.Concurrency)

	for i := 0; i < req.Count; i++ {
		sd := seed.Compose(start, len(req.Template.MediaPool), i)
		if req.FixedSeed {
			sd = req.Template.Seed + int64(i)
		}

		if err := ctx.Err(); err != nil {
			summary.Results[i] = UnitResult{Index: i, Seed: sd, Outcome: metrics.OutcomeCanceled, Err: err}
			metrics.RecordUnit(metrics.OutcomeCanceled)
			continue
		}

		g.Go(func() error {
			summary.Results[i] = r.runUnit(ctx, logger, summary.RunID, req.Template, i, sd)
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range summary.Results {
		if res.Err == nil {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}

	logger.Info().Int("succeeded", summary.Succeeded).Int("failed", summary.Failed).Msg("batch finished")
	return summary, ctx.Err()
}

func (r *Runner) runUnit(ctx context.Context, logger zerolog.Logger, runID string, tmpl types.GenerationRequest, i int, sd int64) UnitResult {
	out := UnitResult{Index: i, Seed: sd}
	fail := func(outcome string, err error) UnitResult {
		if ctx.Err() != nil {
			outcome = metrics.OutcomeCanceled
		}
		out.Outcome, out.Err = outcome, err
		metrics.RecordUnit(outcome)
		logger.Warn().Err(err).Int("unit", i).Int64("seed", sd).Str("outcome", outcome).Msg("unit failed")
		return out
	}

	req := tmpl
	req.Seed = sd
	req.CallIndex = tmpl.CallIndex + i

	res, err := r.gen.Generate(req)
	if err != nil {
		var dse *types.DurationSolverError
		if errors.As(err, &dse) {
			metrics.RecordSolverFailure(string(dse.Mode))
		}
		return fail(metrics.OutcomeGenerateFailed, err)
	}
	comp := res.Composition
	out.Duration = comp.Output.Duration
	metrics.ObserveComposed(comp.Output.Duration)

	out.Output = filepath.Join(r.cfg.Batch.OutputDir, ffmpeg.EnsureExtension(comp.Output.Filename, "."+comp.Output.Container))

	unitCtx, cancel := context.WithTimeout(ctx, r.cfg.Render.Timeout)
	defer cancel()

	began := time.Now()
	err = r.renderer.Render(unitCtx, comp, out.Output)
	metrics.ObserveRender(time.Since(began))
	if err != nil {
		return fail(metrics.OutcomeRenderFailed, err)
	}

	if r.store != nil {
		meta := map[string]string{
			"run_id":   runID,
			"seed":     strconv.FormatInt(sd, 10),
			"profile":  comp.Profile,
			"platform": res.Platform,
			"duration": fmt.Sprintf("%.3f", comp.Output.Duration),
		}
		id, err := r.store.Save(ctx, out.Output, r.cfg.Batch.Owner, "video", meta)
		if err != nil {
			return fail(metrics.OutcomeStoreFailed, err)
		}
		out.ResultID = id
		if ttl := r.cfg.Store.TTL; ttl > 0 {
			if err := r.store.Expire(ctx, out.Output, ttl); err != nil {
				return fail(metrics.OutcomeStoreFailed, err)
			}
		}
	}

	out.Outcome = metrics.OutcomeSuccess
	metrics.RecordUnit(metrics.OutcomeSuccess)
	logger.Debug().Int("unit", i).Int64("seed", sd).Str("output", out.Output).Msg("unit complete")
	return out
}
