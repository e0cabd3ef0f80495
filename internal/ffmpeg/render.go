package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/ZacxDev/reel-composer/internal/config"
	"github.com/ZacxDev/reel-composer/pkg/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// diagnosticsLimit caps the stderr tail kept on a RenderError
const diagnosticsLimit = 4096

// Renderer turns a CompositionRequest into a file by running ffmpeg
type Renderer struct {
	cfg    config.RenderConfig
	logger zerolog.Logger
	probe  func(path string) (*VideoMetadata, error)
}

func NewRenderer(cfg config.RenderConfig, logger zerolog.Logger) *Renderer {
	return &Renderer{
		cfg:    cfg,
		logger: logger,
		probe:  GetVideoMetadata,
	}
}

// Render writes req to dest. The caller's context and the configured timeout
// both bound the ffmpeg process.
func (r *Renderer) Render(ctx context.Context, req *types.CompositionRequest, dest string) error {
	args, err := r.Args(req, dest)
	if err != nil {
		return err
	}

	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	r.logger.Debug().
		Str("output", dest).
		Int("clips", len(req.Timeline)).
		Float64("duration", req.Output.Duration).
		Strs("args", args).
		Msg("running ffmpeg")

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.cfg.FFmpegPath, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return &types.RenderError{
			Output:      dest,
			Diagnostics: tail(stderr.String(), diagnosticsLimit),
			Err:         err,
		}
	}

	if err := r.verify(dest); err != nil {
		return &types.RenderError{
			Output:      dest,
			Diagnostics: tail(stderr.String(), diagnosticsLimit),
			Err:         err,
		}
	}

	r.logger.Info().Str("output", dest).Float64("duration", req.Output.Duration).Msg("render complete")
	return nil
}

func (r *Renderer) verify(dest string) error {
	info, err := os.Stat(dest)
	if err != nil {
		return errors.Wrap(err, "output missing")
	}
	if info.Size() == 0 {
		return fmt.Errorf("output is empty")
	}
	meta, err := r.probe(dest)
	if err != nil {
		return errors.Wrap(err, "output is unreadable")
	}
	if meta.Duration <= 0 {
		return fmt.Errorf("output has no duration")
	}
	return nil
}

// Args compiles the ffmpeg command line for req without running it
func (r *Renderer) Args(req *types.CompositionRequest, dest string) ([]string, error) {
	if req == nil || len(req.Timeline) == 0 {
		return nil, types.ErrEmptyPool
	}
	out := req.Output
	if out.Width <= 0 || out.Height <= 0 {
		return nil, types.InvalidArgument("output canvas %dx%d is invalid", out.Width, out.Height)
	}
	if out.Duration <= 0 {
		return nil, types.InvalidArgument("output duration must be positive, got %v", out.Duration)
	}
	if dest == "" {
		return nil, types.InvalidArgument("output path is empty")
	}

	fps := out.FPS
	if fps <= 0 {
		fps = 30
	}

	clips := make([]*ffmpeg.Stream, len(req.Timeline))
	for i, entry := range req.Timeline {
		clips[i] = clipStream(entry, out.Width, out.Height, fps)
	}

	video := clips[0]
	if len(clips) > 1 {
		video = ffmpeg.Filter(clips, "concat", nil, ffmpeg.KwArgs{
			"n": len(clips),
			"v": 1,
			"a": 0,
		})
	}
	if req.Hook != nil {
		video = r.drawHook(video, req.Hook)
	}
	video = video.Filter("format", nil, ffmpeg.KwArgs{"pix_fmts": "yuv420p"})

	streams := []*ffmpeg.Stream{video}
	if req.Audio != nil {
		streams = append(streams, audioStream(req.Audio, out.Duration))
	}

	return ffmpeg.Output(streams, dest, r.outputArgs(req)).
		OverWriteOutput().
		GetArgs(), nil
}

func clipStream(entry types.TimelineEntry, width, height int, fps float64) *ffmpeg.Stream {
	dur := seconds(entry.Duration)

	var in *ffmpeg.Stream
	if entry.Media.Kind == types.MediaImage {
		in = ffmpeg.Input(entry.Media.Ref, ffmpeg.KwArgs{
			"loop":      1,
			"framerate": seconds(fps),
			"t":         dur,
		})
	} else {
		in = ffmpeg.Input(entry.Media.Ref, ffmpeg.KwArgs{
			"stream_loop": -1,
			"t":           dur,
		})
	}

	s := in.Video().
		Filter("scale", nil, ffmpeg.KwArgs{
			"w":                           width,
			"h":                           height,
			"force_original_aspect_ratio": "increase",
		}).
		Filter("crop", nil, ffmpeg.KwArgs{"w": width, "h": height}).
		Filter("setsar", ffmpeg.Args{"1"})

	if m := entry.Transform.Motion; m != nil {
		frames := int(math.Ceil(entry.Duration * fps))
		span := max(frames-1, 1)
		s = s.Filter("zoompan", nil, ffmpeg.KwArgs{
			"z":   fmt.Sprintf("%s+(%s)*on/%d", seconds(m.ZoomFrom), seconds(m.ZoomTo-m.ZoomFrom), span),
			"x":   fmt.Sprintf("(iw-iw/zoom)*(1+(%s))/2", seconds(m.PanX)),
			"y":   fmt.Sprintf("(ih-ih/zoom)*(1+(%s))/2", seconds(m.PanY)),
			"d":   1,
			"s":   fmt.Sprintf("%dx%d", width, height),
			"fps": seconds(fps),
		})
	}

	s = s.Filter("fps", nil, ffmpeg.KwArgs{"fps": seconds(fps)}).
		Filter("trim", nil, ffmpeg.KwArgs{"duration": dur}).
		Filter("setpts", ffmpeg.Args{"PTS-STARTPTS"})

	if c := entry.Transform.Color; c != nil {
		s = s.Filter("eq", nil, ffmpeg.KwArgs{
			"brightness": seconds(c.Brightness),
			"contrast":   seconds(c.Contrast),
			"saturation": seconds(c.Saturation),
		})
	}
	return s
}

func (r *Renderer) drawHook(s *ffmpeg.Stream, h *types.HookOverlay) *ffmpeg.Stream {
	enable := fmt.Sprintf("between(t,%s,%s)", seconds(h.Start), seconds(h.End))
	v := h.Layout.Visual

	for _, b := range h.Layout.Boxes {
		s = s.Filter("drawbox", nil, ffmpeg.KwArgs{
			"x":      int(math.Round(b.X)),
			"y":      int(math.Round(b.Y)),
			"w":      int(math.Round(b.Width)),
			"h":      int(math.Round(b.Height)),
			"color":  v.BackgroundColor,
			"t":      "fill",
			"enable": enable,
		})
	}

	for _, line := range h.Layout.Lines {
		kw := ffmpeg.KwArgs{
			"text":      line.Text,
			"expansion": "none",
			"fontsize":  int(math.Round(v.FontSize)),
			"fontcolor": v.TextColor,
			"x":         int(math.Round(line.X)),
			"y":         int(math.Round(line.Y)),
			"enable":    enable,
		}
		if r.cfg.FontFile != "" {
			kw["fontfile"] = r.cfg.FontFile
		}
		if v.OutlineWidth > 0 {
			kw["borderw"] = int(v.OutlineWidth)
			kw["bordercolor"] = v.OutlineColor
		}
		s = s.Filter("drawtext", nil, kw)
	}
	return s
}

func audioStream(a *types.AudioTrack, total float64) *ffmpeg.Stream {
	kw := ffmpeg.KwArgs{}
	if a.Offset > 0 {
		kw["ss"] = seconds(a.Offset)
	}
	s := ffmpeg.Input(a.Ref, kw).Audio().
		Filter("atrim", nil, ffmpeg.KwArgs{"duration": seconds(total)}).
		Filter("asetpts", ffmpeg.Args{"PTS-STARTPTS"})

	if a.FadeIn > 0 {
		s = s.Filter("afade", nil, ffmpeg.KwArgs{"t": "in", "st": 0, "d": seconds(a.FadeIn)})
	}
	if a.FadeOut > 0 {
		s = s.Filter("afade", nil, ffmpeg.KwArgs{
			"t":  "out",
			"st": seconds(math.Max(0, total-a.FadeOut)),
			"d":  seconds(a.FadeOut),
		})
	}
	if a.GainDB != 0 {
		s = s.Filter("volume", nil, ffmpeg.KwArgs{"volume": seconds(a.GainDB) + "dB"})
	}
	return s
}

func (r *Renderer) outputArgs(req *types.CompositionRequest) ffmpeg.KwArgs {
	out := req.Output

	threads := r.cfg.Threads
	if threads <= 0 {
		threads = GetOptimalThreadCount()
	}

	kw := ffmpeg.KwArgs{
		// duration is always explicit so the container never runs long
		"t":        seconds(out.Duration),
		"c:v":      out.VideoCodec,
		"r":        seconds(out.FPS),
		"pix_fmt":  "yuv420p",
		"threads":  threads,
		"movflags": "+faststart",
	}
	if out.CodecProfile != "" {
		kw["profile:v"] = out.CodecProfile
	}
	if out.CodecLevel != "" {
		kw["level"] = out.CodecLevel
	}
	if r.cfg.Preset != "" && out.VideoCodec == "libx264" {
		kw["preset"] = r.cfg.Preset
	}
	if out.VideoBitrate > 0 {
		kw["b:v"] = fmt.Sprintf("%dk", out.VideoBitrate)
		kw["maxrate"] = fmt.Sprintf("%dk", out.VideoBitrate)
		kw["bufsize"] = fmt.Sprintf("%dk", 2*out.VideoBitrate)
	}
	for k, v := range encoderTuning[out.VideoCodec] {
		kw[k] = v
	}

	if req.Audio != nil {
		kw["c:a"] = out.AudioCodec
		if out.AudioBitrate > 0 {
			kw["b:a"] = fmt.Sprintf("%dk", out.AudioBitrate)
		}
		if out.AudioRate > 0 {
			kw["ar"] = out.AudioRate
		}
		if out.AudioChannels > 0 {
			kw["ac"] = out.AudioChannels
		}
	}

	if len(out.Metadata) > 0 {
		kw["metadata"] = metadataArgs(out.Metadata)
	}
	return kw
}

func metadataArgs(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k + "=" + m[k]
	}
	return out
}

// seconds formats a float without exponent noise
func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
