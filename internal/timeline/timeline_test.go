package timeline

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ZacxDev/reel-composer/internal/config"
	"github.com/ZacxDev/reel-composer/internal/hook"
	"github.com/ZacxDev/reel-composer/internal/profile"
	"github.com/ZacxDev/reel-composer/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runeMeasurer struct{}

func (runeMeasurer) Measure(text string, size float64) (float64, error) {
	return float64(len([]rune(text))) * size * 0.6, nil
}

func fixture(n int, kind types.MediaKind) (types.SelectionPlan, []float64) {
	items := make([]types.MediaItem, n)
	durations := make([]float64, n)
	for i := range items {
		items[i] = types.MediaItem{ID: fmt.Sprintf("c%d", i), Ref: fmt.Sprintf("%d", i), Kind: kind}
		durations[i] = 0.5
	}
	return types.SelectionPlan{OrderedMedia: items, UniqueCount: n, LoopCount: 1}, durations
}

func testOptions(mode types.HookMode) Options {
	return Options{
		Width:    1080,
		Height:   1920,
		HookMode: mode,
		Hooks:    hook.NewEngine(config.Default().Hook, runeMeasurer{}),
	}
}

func testProfile(sd int64) profile.Profile {
	return profile.Synthesize(sd, config.Default(), time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
}

func TestCompose_TimelineAndOutput(t *testing.T) {
	plan, durations := fixture(7, types.MediaImage)
	prof := testProfile(42)

	req, err := Compose(plan, durations, prof, nil, "", testOptions(""))
	require.NoError(t, err)

	require.Len(t, req.Timeline, 7)
	for i, e := range req.Timeline {
		assert.Equal(t, i, e.Index)
		assert.InDelta(t, 0.5*float64(i), e.Start, 1e-9)
		require.NotNil(t, e.Transform.Motion)
		assert.Equal(t, 1080, e.Transform.Width)
	}
	assert.InDelta(t, 3.5, req.Output.Duration, 1e-9)
	assert.InDelta(t, req.TotalDuration(), req.Output.Duration, 1e-9)
	assert.Equal(t, prof.VideoBitrate, req.Output.VideoBitrate)
	assert.Equal(t, prof.Filename, req.Output.Filename)
	assert.Equal(t, "mp4", req.Output.Container)
	assert.Equal(t, prof.Metadata, req.Output.Metadata)
	assert.Nil(t, req.Hook)
	assert.Nil(t, req.Audio)
}

func TestCompose_VideosHaveNoMotion(t *testing.T) {
	plan, durations := fixture(3, types.MediaVideo)
	req, err := Compose(plan, durations, testProfile(1), nil, "", testOptions(""))
	require.NoError(t, err)
	for _, e := range req.Timeline {
		assert.Nil(t, e.Transform.Motion)
	}
}

func TestCompose_MismatchedLengths(t *testing.T) {
	plan, durations := fixture(5, types.MediaImage)
	_, err := Compose(plan, durations[:4], testProfile(1), nil, "", testOptions(""))
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrMismatchedLengths))
}

func TestCompose_InvalidDuration(t *testing.T) {
	plan, durations := fixture(3, types.MediaImage)
	durations[1] = 0
	_, err := Compose(plan, durations, testProfile(1), nil, "", testOptions(""))
	assert.True(t, errors.Is(err, types.ErrInvalidArgument))
}

func TestCompose_HookModes(t *testing.T) {
	plan, durations := fixture(4, types.MediaImage)
	spec := &types.HookSpec{Text: "watch till the end", Style: types.HookStylePillBlack, Position: types.HookTop}

	req, err := Compose(plan, durations, testProfile(3), spec, "", testOptions(""))
	require.NoError(t, err)
	require.NotNil(t, req.Hook)
	assert.Equal(t, types.HookFirstClip, req.Hook.Mode)
	assert.Equal(t, 0.5, req.Hook.End)
	assert.NotEmpty(t, req.Hook.Layout.Boxes)

	req, err = Compose(plan, durations, testProfile(3), spec, "", testOptions(types.HookAllClips))
	require.NoError(t, err)
	assert.Equal(t, types.HookAllClips, req.Hook.Mode)
	assert.InDelta(t, 2.0, req.Hook.End, 1e-9)

	_, err = Compose(plan, durations, testProfile(3), spec, "", testOptions("sometimes"))
	assert.True(t, errors.Is(err, types.ErrInvalidArgument))

	_, err = Compose(plan, durations, testProfile(3), &types.HookSpec{Text: "  "}, "", testOptions(""))
	assert.True(t, errors.Is(err, types.ErrInvalidArgument))
}

func TestCompose_AudioFadesClamped(t *testing.T) {
	plan, durations := fixture(2, types.MediaImage)
	prof := testProfile(8)

	req, err := Compose(plan, durations, prof, nil, "music/track.mp3", testOptions(""))
	require.NoError(t, err)
	require.NotNil(t, req.Audio)
	assert.Equal(t, "music/track.mp3", req.Audio.Ref)
	assert.LessOrEqual(t, req.Audio.FadeIn, 0.5)
	assert.LessOrEqual(t, req.Audio.FadeOut, 0.5)
	assert.Equal(t, prof.Variation.AudioOffset, req.Audio.Offset)
}

func TestCompose_GradeApplied(t *testing.T) {
	plan, durations := fixture(2, types.MediaImage)
	prof := testProfile(5)
	prof.Color, _ = profile.Grade(profile.GradeWarm)

	req, err := Compose(plan, durations, prof, nil, "", testOptions(""))
	require.NoError(t, err)
	require.NotNil(t, req.Timeline[0].Transform.Color)
	assert.Equal(t, profile.GradeWarm, req.Timeline[0].Transform.Color.Grade)

	prof.Color, _ = profile.Grade(profile.GradeNone)
	req, err = Compose(plan, durations, prof, nil, "", testOptions(""))
	require.NoError(t, err)
	assert.Nil(t, req.Timeline[0].Transform.Color)
}

func TestCompose_Deterministic(t *testing.T) {
	plan, durations := fixture(6, types.MediaImage)
	spec := &types.HookSpec{Text: "same", Style: 1, Position: types.HookMiddle}
	a, err := Compose(plan, durations, testProfile(11), spec, "a.mp3", testOptions(""))
	require.NoError(t, err)
	b, err := Compose(plan, durations, testProfile(11), spec, "a.mp3", testOptions(""))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
