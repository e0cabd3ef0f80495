// Package hook wraps and positions overlay text on a portrait canvas.
package hook

import (
	"math"
	"strings"

	"github.com/ZacxDev/reel-composer/internal/config"
	"github.com/ZacxDev/reel-composer/internal/seed"
	"github.com/ZacxDev/reel-composer/pkg/types"
	"github.com/pkg/errors"
)

const (
	lineHeightRatio   = 1.2
	outlineRatio      = 0.08
	minOutline        = 2
	cornerRadiusRatio = 0.35
)

// Engine lays out hook text. It holds no per-call state.
type Engine struct {
	cfg      config.HookConfig
	measurer Measurer
}

func NewEngine(cfg config.HookConfig, m Measurer) *Engine {
	return &Engine{cfg: cfg, measurer: m}
}

// Visual resolves the look of a style at a font size
func Visual(style types.HookStyle, fontSize, width float64, cfg config.HookConfig) types.HookVisual {
	v := types.HookVisual{Style: style, FontSize: fontSize}
	switch style {
	case types.HookStyleOutlined:
		v.TextColor = "white"
		v.OutlineColor = "black"
		v.OutlineWidth = math.Max(minOutline, math.Round(fontSize*outlineRatio))
	case types.HookStylePillWhite:
		v.TextColor = "black"
		v.BackgroundColor = "white"
	case types.HookStylePillBlack:
		v.TextColor = "white"
		v.BackgroundColor = "black"
	case types.HookStylePlain:
		v.TextColor = "white"
	}
	if style.IsPill() {
		v.PaddingX = math.Round(width * cfg.PillPaddingRatio)
		v.CornerRadius = math.Round(fontSize * cornerRadiusRatio)
	}
	return v
}

// Layout wraps spec.Text to the canvas and computes line and box geometry.
// Offset moves the anchor by a percentage of the canvas height.
func (e *Engine) Layout(spec types.HookSpec, width, height int) (types.LaidOutHook, error) {
	if strings.TrimSpace(spec.Text) == "" {
		return types.LaidOutHook{}, types.InvalidArgument("hook text is empty")
	}
	if !spec.Style.Valid() {
		return types.LaidOutHook{}, types.InvalidArgument("unknown hook style %d", spec.Style)
	}
	frac, ok := e.anchorFraction(spec.Position)
	if !ok {
		return types.LaidOutHook{}, types.InvalidArgument("unknown hook position %q", spec.Position)
	}
	if width <= 0 || height <= 0 {
		return types.LaidOutHook{}, types.InvalidArgument("canvas %dx%d is invalid", width, height)
	}
	if math.IsNaN(spec.Offset) || math.IsInf(spec.Offset, 0) {
		return types.LaidOutHook{}, types.InvalidArgument("hook offset must be finite")
	}

	W, H := float64(width), float64(height)
	scale, ratio := e.cfg.PlainFontScale, e.cfg.PlainWidthRatio
	if spec.Style.IsPill() {
		scale, ratio = e.cfg.PillFontScale, e.cfg.PillWidthRatio
	}
	fontSize := math.Round(W * scale)
	visual := Visual(spec.Style, fontSize, W, e.cfg)

	maxWidth := W*ratio - 2*visual.OutlineWidth
	texts, err := e.wrap(spec.Text, fontSize, maxWidth)
	if err != nil {
		return types.LaidOutHook{}, errors.Wrap(err, "failed to measure hook text")
	}

	lineHeight := fontSize * lineHeightRatio
	blockHeight := float64(len(texts)) * lineHeight

	margin := H * e.cfg.SafeMarginRatio
	top := H*frac + spec.Offset/100*H - blockHeight/2
	if blockHeight > H-2*margin {
		top = margin
	} else {
		top = seed.Clamp(top, margin, H-margin-blockHeight)
	}

	out := types.LaidOutHook{
		Lines:        make([]types.HookLine, len(texts)),
		FontSize:     fontSize,
		LineHeight:   lineHeight,
		AnchorX:      W / 2,
		AnchorY:      top + blockHeight/2,
		Visual:       visual,
		CanvasWidth:  width,
		CanvasHeight: height,
	}
	for i, text := range texts {
		w, err := e.measurer.Measure(text, fontSize)
		if err != nil {
			return types.LaidOutHook{}, errors.Wrap(err, "failed to measure hook text")
		}
		out.Lines[i] = types.HookLine{
			Text:  text,
			Width: w,
			X:     (W - w) / 2,
			Y:     top + float64(i)*lineHeight + (lineHeight-fontSize)/2,
		}
	}

	if spec.Style.IsPill() {
		out.Boxes = pillBoxes(out.Lines, top, W, lineHeight, visual)
	}
	return out, nil
}

func (e *Engine) anchorFraction(pos types.HookPosition) (float64, bool) {
	switch pos {
	case types.HookTop:
		return e.cfg.TopFraction, true
	case types.HookMiddle:
		return e.cfg.MiddleFraction, true
	case types.HookBottom:
		return e.cfg.BottomFraction, true
	}
	return 0, false
}

// wrap breaks on explicit newlines, fills words greedily and hard-splits long words
func (e *Engine) wrap(text string, size, maxWidth float64) ([]string, error) {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		cur := ""
		flush := func() {
			if cur != "" {
				lines = append(lines, cur)
				cur = ""
			}
		}

		for _, word := range strings.Fields(para) {
			if len([]rune(word)) > e.cfg.HardSplitChars {
				flush()
				for _, chunk := range chunkRunes(word, e.cfg.HardSplitChars) {
					parts, err := e.fit(chunk, size, maxWidth)
					if err != nil {
						return nil, err
					}
					lines = append(lines, parts...)
				}
				continue
			}

			candidate := word
			if cur != "" {
				candidate = cur + " " + word
			}
			w, err := e.measurer.Measure(candidate, size)
			if err != nil {
				return nil, err
			}
			if w <= maxWidth {
				cur = candidate
				continue
			}

			flush()
			parts, err := e.fit(word, size, maxWidth)
			if err != nil {
				return nil, err
			}
			lines = append(lines, parts[:len(parts)-1]...)
			cur = parts[len(parts)-1]
		}
		flush()
	}
	return lines, nil
}

// fit splits s rune by rune so every piece measures within maxWidth. A
// single rune is always kept even when it alone is too wide.
func (e *Engine) fit(s string, size, maxWidth float64) ([]string, error) {
	w, err := e.measurer.Measure(s, size)
	if err != nil {
		return nil, err
	}
	if w <= maxWidth {
		return []string{s}, nil
	}
	var out []string
	var cur []rune
	for _, r := range s {
		next := append(cur, r)
		if len(cur) > 0 {
			nw, err := e.measurer.Measure(string(next), size)
			if err != nil {
				return nil, err
			}
			if nw > maxWidth {
				out = append(out, string(cur))
				next = []rune{r}
			}
		}
		cur = next
	}
	if len(cur) > 0 {
		out = append(out, string(cur))
	}
	return out, nil
}

func chunkRunes(s string, n int) []string {
	runes := []rune(s)
	chunks := make([]string, 0, (len(runes)+n-1)/n)
	for i := 0; i < len(runes); i += n {
		chunks = append(chunks, string(runes[i:min(i+n, len(runes))]))
	}
	return chunks
}

// pillBoxes builds one box per line. Adjacent lines whose box widths differ by
// less than two corner radii share a width and lose their touching corners.
func pillBoxes(lines []types.HookLine, top, W, lineHeight float64, v types.HookVisual) []types.HookBox {
	n := len(lines)
	widths := make([]float64, n)
	for i, l := range lines {
		widths[i] = l.Width + 2*v.PaddingX
	}

	group := make([]int, n)
	start, groupMax := 0, widths[0]
	for i := 1; i <= n; i++ {
		if i < n && math.Abs(widths[i]-groupMax) < 2*v.CornerRadius {
			groupMax = math.Max(groupMax, widths[i])
			group[i] = group[i-1]
			continue
		}
		for j := start; j < i; j++ {
			widths[j] = groupMax
		}
		if i < n {
			start, groupMax = i, widths[i]
			group[i] = group[i-1] + 1
		}
	}

	r := v.CornerRadius
	boxes := make([]types.HookBox, n)
	for i := range boxes {
		radii := types.CornerRadii{TopLeft: r, TopRight: r, BottomLeft: r, BottomRight: r}
		if i > 0 && group[i-1] == group[i] {
			radii.TopLeft, radii.TopRight = 0, 0
		}
		if i < n-1 && group[i+1] == group[i] {
			radii.BottomLeft, radii.BottomRight = 0, 0
		}
		boxes[i] = types.HookBox{
			X:      (W - widths[i]) / 2,
			Y:      top + float64(i)*lineHeight,
			Width:  widths[i],
			Height: lineHeight,
			Radii:  radii,
		}
	}
	return boxes
}
