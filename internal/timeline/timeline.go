// Package timeline turns a selection, its durations and a profile into the
// CompositionRequest handed to a renderer.
package timeline

import (
	"math"

	"github.com/ZacxDev/reel-composer/internal/hook"
	"github.com/ZacxDev/reel-composer/internal/profile"
	"github.com/ZacxDev/reel-composer/pkg/types"
	"github.com/pkg/errors"
)

// Options carries the canvas and overlay settings for one composition
type Options struct {
	Width     int
	Height    int
	Container string
	HookMode  types.HookMode
	Hooks     *hook.Engine
}

// Compose builds the ordered timeline. durations must pair 1:1 with
// plan.OrderedMedia; nothing is truncated to make them fit.
func Compose(plan types.SelectionPlan, durations []float64, prof profile.Profile, spec *types.HookSpec, audioRef string, opts Options) (*types.CompositionRequest, error) {
	if len(plan.OrderedMedia) != len(durations) {
		return nil, errors.Wrapf(types.ErrMismatchedLengths, "%d clips but %d durations",
			len(plan.OrderedMedia), len(durations))
	}
	if len(durations) == 0 {
		return nil, types.ErrEmptyPool
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, types.InvalidArgument("canvas %dx%d is invalid", opts.Width, opts.Height)
	}

	req := &types.CompositionRequest{
		Seed:     prof.Seed,
		Profile:  prof.Archetype,
		Timeline: make([]types.TimelineEntry, len(durations)),
	}

	var start float64
	for i, item := range plan.OrderedMedia {
		d := durations[i]
		if d <= 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			return nil, types.InvalidArgument("clip %d duration must be positive and finite, got %v", i, d)
		}

		tr := types.Transform{Width: opts.Width, Height: opts.Height}
		if item.Kind == types.MediaImage {
			m := prof.Variation.MotionFor(i)
			tr.Motion = &m
		}
		if prof.Color.Grade != "" && prof.Color.Grade != profile.GradeNone {
			c := prof.Color
			tr.Color = &c
		}

		req.Timeline[i] = types.TimelineEntry{
			Index:     i,
			Media:     item,
			Start:     start,
			Duration:  d,
			Transform: tr,
		}
		start += d
	}
	total := start

	if spec != nil {
		overlay, err := hookOverlay(spec, durations[0], total, opts)
		if err != nil {
			return nil, err
		}
		req.Hook = overlay
	}

	if audioRef != "" {
		v := prof.Variation
		req.Audio = &types.AudioTrack{
			Ref:     audioRef,
			Offset:  v.AudioOffset,
			FadeIn:  math.Min(v.FadeIn, total/2),
			FadeOut: math.Min(v.FadeOut, total/2),
			GainDB:  v.GainDB,
		}
	}

	container := opts.Container
	if container == "" {
		container = "mp4"
	}
	req.Output = types.OutputContract{
		Duration:        total,
		Width:           opts.Width,
		Height:          opts.Height,
		Container:       container,
		VideoCodec:      prof.VideoCodec,
		CodecProfile:    prof.CodecProfile,
		CodecLevel:      prof.CodecLevel,
		FPS:             prof.FPS,
		VideoBitrate:    prof.VideoBitrate,
		AudioCodec:      prof.AudioCodec,
		AudioBitrate:    prof.AudioBitrate,
		AudioRate:       prof.AudioRate,
		AudioChannels:   prof.AudioChannels,
		Metadata:        copyMetadata(prof.Metadata),
		FilenamePattern: prof.FilenamePattern,
		Filename:        prof.Filename,
	}

	return req, nil
}

func hookOverlay(spec *types.HookSpec, first, total float64, opts Options) (*types.HookOverlay, error) {
	if opts.Hooks == nil {
		return nil, types.InvalidArgument("hook requested without a layout engine")
	}
	layout, err := opts.Hooks.Layout(*spec, opts.Width, opts.Height)
	if err != nil {
		return nil, errors.Wrap(err, "failed to lay out hook")
	}

	mode := opts.HookMode
	end := first
	switch mode {
	case "", types.HookFirstClip:
		mode = types.HookFirstClip
	case types.HookAllClips:
		end = total
	default:
		return nil, types.InvalidArgument("unknown hook mode %q", mode)
	}

	return &types.HookOverlay{
		Layout: layout,
		Mode:   mode,
		Start:  0,
		End:    end,
	}, nil
}

func copyMetadata(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
