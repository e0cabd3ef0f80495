package hook

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ZacxDev/reel-composer/internal/config"
	"github.com/ZacxDev/reel-composer/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedMeasurer gives every rune the same advance
type fixedMeasurer struct{ advance float64 }

func (m fixedMeasurer) Measure(text string, size float64) (float64, error) {
	return float64(len([]rune(text))) * size * m.advance, nil
}

type brokenMeasurer struct{}

func (brokenMeasurer) Measure(string, float64) (float64, error) {
	return 0, fmt.Errorf("no face")
}

func newTestEngine() *Engine {
	return NewEngine(config.Default().Hook, fixedMeasurer{advance: 0.6})
}

func TestLayout_HardSplitsLongWord(t *testing.T) {
	text := strings.Repeat("abcdefghij", 20)
	out, err := newTestEngine().Layout(types.HookSpec{Text: text, Style: types.HookStyleOutlined, Position: types.HookTop}, 1080, 1920)
	require.NoError(t, err)

	require.Len(t, out.Lines, 17)
	for i, l := range out.Lines {
		end := min(12*(i+1), len(text))
		assert.Equal(t, text[12*i:end], l.Text)
	}
	assert.Equal(t, 63.0, out.FontSize)
	assert.Equal(t, 5.0, out.Visual.OutlineWidth)
}

func TestLayout_GreedyWrapAndNewlines(t *testing.T) {
	e := newTestEngine()

	out, err := e.Layout(types.HookSpec{Text: "wait for it", Style: types.HookStylePlain, Position: types.HookMiddle}, 1080, 1920)
	require.NoError(t, err)
	assert.Equal(t, []string{"wait for it"}, out.Texts())

	out, err = e.Layout(types.HookSpec{Text: "first\nsecond line", Style: types.HookStylePlain, Position: types.HookMiddle}, 1080, 1920)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second line"}, out.Texts())

	// narrow canvas forces greedy breaks
	out, err = e.Layout(types.HookSpec{Text: "one two three four five six", Style: types.HookStylePlain, Position: types.HookMiddle}, 300, 600)
	require.NoError(t, err)
	assert.Greater(t, len(out.Lines), 1)
	assert.Equal(t, "one two three four five six", strings.Join(out.Texts(), " "))
	for _, l := range out.Lines {
		assert.LessOrEqual(t, l.Width, 300*0.90)
	}
}

func TestLayout_LinesStayInsideCanvas(t *testing.T) {
	e := newTestEngine()
	text := "POV you finally found the perfect routine for your morning coffee"

	for _, style := range []types.HookStyle{1, 2, 3, 4} {
		for _, pos := range []types.HookPosition{types.HookTop, types.HookMiddle, types.HookBottom} {
			out, err := e.Layout(types.HookSpec{Text: text, Style: style, Position: pos}, 1080, 1920)
			require.NoError(t, err)

			ratio := 0.90
			if style.IsPill() {
				ratio = 0.85
			}
			for _, l := range out.Lines {
				assert.LessOrEqual(t, l.Width, 1080*ratio)
				assert.GreaterOrEqual(t, l.X, 0.0)
			}
			for _, b := range out.Boxes {
				assert.LessOrEqual(t, b.Width, 1080*0.95)
				assert.GreaterOrEqual(t, b.Y, 1920*0.02-1e-9)
			}
			assert.Equal(t, 540.0, out.AnchorX)
		}
	}
}

func TestLayout_AnchorAndOffset(t *testing.T) {
	e := newTestEngine()

	out, err := e.Layout(types.HookSpec{Text: "hi", Style: types.HookStylePlain, Position: types.HookMiddle}, 1080, 1920)
	require.NoError(t, err)
	assert.InDelta(t, 1920*0.47, out.AnchorY, 1e-9)
	assert.InDelta(t, 63*1.2, out.LineHeight, 1e-9)

	out, err = e.Layout(types.HookSpec{Text: "hi", Style: types.HookStylePlain, Position: types.HookTop, Offset: 10}, 1080, 1920)
	require.NoError(t, err)
	assert.InDelta(t, 1920*0.22, out.AnchorY, 1e-9)

	// pushed past the bottom edge, clamped to the safe margin
	out, err = e.Layout(types.HookSpec{Text: "hi", Style: types.HookStylePlain, Position: types.HookBottom, Offset: 100}, 1080, 1920)
	require.NoError(t, err)
	assert.InDelta(t, 1920-1920*0.02-out.LineHeight/2, out.AnchorY, 1e-9)
}

func TestLayout_PillMerge(t *testing.T) {
	e := newTestEngine()

	out, err := e.Layout(types.HookSpec{Text: "abcd\nabce\na", Style: types.HookStylePillWhite, Position: types.HookTop}, 1080, 1920)
	require.NoError(t, err)
	require.Len(t, out.Boxes, 3)
	assert.Equal(t, "white", out.Visual.BackgroundColor)
	assert.Equal(t, "black", out.Visual.TextColor)

	r := out.Visual.CornerRadius
	assert.Equal(t, 20.0, r)
	assert.Equal(t, out.Boxes[0].Width, out.Boxes[1].Width)
	assert.Zero(t, out.Boxes[0].Radii.BottomLeft)
	assert.Zero(t, out.Boxes[1].Radii.TopRight)
	assert.Equal(t, r, out.Boxes[1].Radii.BottomLeft)
	assert.Equal(t, r, out.Boxes[2].Radii.TopLeft)
	assert.Less(t, out.Boxes[2].Width, out.Boxes[1].Width)
	assert.InDelta(t, out.Boxes[0].Y+out.LineHeight, out.Boxes[1].Y, 1e-9)
}

func TestLayout_StyleVisuals(t *testing.T) {
	e := newTestEngine()
	out, err := e.Layout(types.HookSpec{Text: "x", Style: types.HookStylePillBlack, Position: types.HookTop}, 1080, 1920)
	require.NoError(t, err)
	assert.Equal(t, "black", out.Visual.BackgroundColor)
	assert.Equal(t, "white", out.Visual.TextColor)
	assert.Equal(t, 56.0, out.FontSize)
	assert.Equal(t, 27.0, out.Visual.PaddingX)

	out, err = e.Layout(types.HookSpec{Text: "x", Style: types.HookStylePlain, Position: types.HookTop}, 1080, 1920)
	require.NoError(t, err)
	assert.Zero(t, out.Visual.OutlineWidth)
	assert.Empty(t, out.Boxes)
}

func TestLayout_Idempotent(t *testing.T) {
	e := newTestEngine()
	spec := types.HookSpec{Text: "same input\nsame output", Style: types.HookStylePillWhite, Position: types.HookBottom, Offset: -5}
	a, err := e.Layout(spec, 1080, 1920)
	require.NoError(t, err)
	b, err := e.Layout(spec, 1080, 1920)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestLayout_Errors(t *testing.T) {
	e := newTestEngine()
	tests := []struct {
		name string
		spec types.HookSpec
		w, h int
	}{
		{"empty", types.HookSpec{Text: "", Style: 1, Position: types.HookTop}, 1080, 1920},
		{"whitespace", types.HookSpec{Text: " \n\t", Style: 1, Position: types.HookTop}, 1080, 1920},
		{"style", types.HookSpec{Text: "x", Style: 7, Position: types.HookTop}, 1080, 1920},
		{"position", types.HookSpec{Text: "x", Style: 1, Position: "left"}, 1080, 1920},
		{"canvas", types.HookSpec{Text: "x", Style: 1, Position: types.HookTop}, 0, 1920},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Layout(tt.spec, tt.w, tt.h)
			assert.True(t, errors.Is(err, types.ErrInvalidArgument), "got %v", err)
		})
	}
}

func TestLayout_MeasureErrorIsReturned(t *testing.T) {
	e := NewEngine(config.Default().Hook, brokenMeasurer{})
	for _, text := range []string{"short", "averyveryverylongword", "two\nlines"} {
		_, err := e.Layout(types.HookSpec{Text: text, Style: types.HookStylePillWhite, Position: types.HookTop}, 1080, 1920)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no face")
	}
}

func TestFaceMeasurer(t *testing.T) {
	m, err := NewFaceMeasurer("")
	require.NoError(t, err)
	defer m.Close()

	measure := func(text string, size float64) float64 {
		w, err := m.Measure(text, size)
		require.NoError(t, err)
		return w
	}
	short := measure("Hello", 48)
	long := measure("Hello World", 48)
	assert.Positive(t, short)
	assert.Greater(t, long, short)
	assert.Greater(t, measure("Hello", 96), short)
	assert.Equal(t, short, measure("Hello", 48))

	_, err = NewFaceMeasurer("/does/not/exist.ttf")
	assert.Error(t, err)
}
