package types

// Motion is a slow zoom/pan applied to a still image over its clip duration
type Motion struct {
	ZoomFrom float64 `json:"zoom_from"`
	ZoomTo   float64 `json:"zoom_to"`
	PanX     float64 `json:"pan_x"` // -1 left .. 1 right
	PanY     float64 `json:"pan_y"` // -1 up .. 1 down
}

// ColorAdjustment maps onto an eq filter
type ColorAdjustment struct {
	Grade      string  `json:"grade"`
	Brightness float64 `json:"brightness"`
	Contrast   float64 `json:"contrast"`
	Saturation float64 `json:"saturation"`
}

// Transform is the per-clip instruction set handed to the renderer
type Transform struct {
	Width  int              `json:"width"`
	Height int              `json:"height"`
	Motion *Motion          `json:"motion,omitempty"`
	Color  *ColorAdjustment `json:"color,omitempty"`
}

type TimelineEntry struct {
	Index     int       `json:"index"`
	Media     MediaItem `json:"media"`
	Start     float64   `json:"start"`
	Duration  float64   `json:"duration"`
	Transform Transform `json:"transform"`
}

// HookVisual is the resolved look of a hook style
type HookVisual struct {
	Style           HookStyle `json:"style"`
	FontSize        float64   `json:"font_size"`
	TextColor       string    `json:"text_color"`
	OutlineColor    string    `json:"outline_color,omitempty"`
	OutlineWidth    float64   `json:"outline_width"`
	BackgroundColor string    `json:"background_color,omitempty"`
	PaddingX        float64   `json:"padding_x"`
	CornerRadius    float64   `json:"corner_radius"`
}

// CornerRadii of one pill box, zero where adjacent lines merge
type CornerRadii struct {
	TopLeft     float64 `json:"top_left"`
	TopRight    float64 `json:"top_right"`
	BottomLeft  float64 `json:"bottom_left"`
	BottomRight float64 `json:"bottom_right"`
}

// HookLine is one wrapped line with its top-left text position
type HookLine struct {
	Text  string  `json:"text"`
	Width float64 `json:"width"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// HookBox is the background rectangle behind a pill-style line
type HookBox struct {
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
	Width  float64     `json:"width"`
	Height float64     `json:"height"`
	Radii  CornerRadii `json:"radii"`
}

type LaidOutHook struct {
	Lines        []HookLine `json:"lines"`
	Boxes        []HookBox  `json:"boxes,omitempty"`
	FontSize     float64    `json:"font_size"`
	LineHeight   float64    `json:"line_height"`
	AnchorX      float64    `json:"anchor_x"`
	AnchorY      float64    `json:"anchor_y"`
	Visual       HookVisual `json:"visual"`
	CanvasWidth  int        `json:"canvas_width"`
	CanvasHeight int        `json:"canvas_height"`
}

// Texts returns the line strings in order
func (h LaidOutHook) Texts() []string {
	out := make([]string, len(h.Lines))
	for i, l := range h.Lines {
		out[i] = l.Text
	}
	return out
}

type HookOverlay struct {
	Layout LaidOutHook `json:"layout"`
	Mode   HookMode    `json:"mode"`
	Start  float64     `json:"start"`
	End    float64     `json:"end"`
}

type AudioTrack struct {
	Ref     string  `json:"ref"`
	Offset  float64 `json:"offset"`
	FadeIn  float64 `json:"fade_in"`
	FadeOut float64 `json:"fade_out"`
	GainDB  float64 `json:"gain_db"`
}

// OutputContract is what the renderer must produce. Duration is always explicit.
type OutputContract struct {
	Duration        float64           `json:"duration"`
	Width           int               `json:"width"`
	Height          int               `json:"height"`
	Container       string            `json:"container"`
	VideoCodec      string            `json:"video_codec"`
	CodecProfile    string            `json:"codec_profile"`
	CodecLevel      string            `json:"codec_level"`
	FPS             float64           `json:"fps"`
	VideoBitrate    int               `json:"video_bitrate"` // kbps
	AudioCodec      string            `json:"audio_codec"`
	AudioBitrate    int               `json:"audio_bitrate"` // kbps
	AudioRate       int               `json:"audio_sample_rate"`
	AudioChannels   int               `json:"audio_channels"`
	Metadata        map[string]string `json:"metadata"`
	FilenamePattern string            `json:"filename_pattern"`
	Filename        string            `json:"filename"`
}

// CompositionRequest is the full description handed to a renderer
type CompositionRequest struct {
	Seed     int64           `json:"seed"`
	Profile  string          `json:"profile"`
	Timeline []TimelineEntry `json:"timeline"`
	Hook     *HookOverlay    `json:"hook,omitempty"`
	Audio    *AudioTrack     `json:"audio,omitempty"`
	Output   OutputContract  `json:"output"`
}

// TotalDuration sums the clip durations
func (r *CompositionRequest) TotalDuration() float64 {
	var total float64
	for _, e := range r.Timeline {
		total += e.Duration
	}
	return total
}
