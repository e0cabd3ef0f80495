package types

import "strings"

type ProcessingPlatform string

const (
	ProcessingPlatformTikTok        ProcessingPlatform = "tiktok"
	ProcessingPlatformInstagramReel ProcessingPlatform = "instagram_reel"
	ProcessingPlatformYouTubeShorts ProcessingPlatform = "youtube_shorts"
	ProcessingPlatformXTwitter      ProcessingPlatform = "x_twitter"
	ProcessingPlatformReddit        ProcessingPlatform = "reddit"
)

// MediaKind distinguishes stills from moving clips
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// MediaItem is one entry of a caller-owned media pool
type MediaItem struct {
	ID   string    `json:"id" yaml:"id"`
	Ref  string    `json:"ref" yaml:"ref"`
	Kind MediaKind `json:"kind" yaml:"kind"`
}

var videoExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".webm": true, ".mkv": true, ".avi": true, ".m4v": true,
}

// KindFromRef guesses the media kind from a file extension, defaulting to image
func KindFromRef(ref string) MediaKind {
	if i := strings.LastIndex(ref, "."); i >= 0 && videoExtensions[strings.ToLower(ref[i:])] {
		return MediaVideo
	}
	return MediaImage
}

// HookStyle selects one of the four overlay looks
type HookStyle int

const (
	HookStyleOutlined  HookStyle = 1
	HookStylePillWhite HookStyle = 2
	HookStylePillBlack HookStyle = 3
	HookStylePlain     HookStyle = 4
)

// IsPill reports whether the style draws a background behind each line
func (s HookStyle) IsPill() bool {
	return s == HookStylePillWhite || s == HookStylePillBlack
}

func (s HookStyle) Valid() bool {
	return s >= HookStyleOutlined && s <= HookStylePlain
}

type HookPosition string

const (
	HookTop    HookPosition = "top"
	HookMiddle HookPosition = "middle"
	HookBottom HookPosition = "bottom"
)

// HookSpec is the caller's overlay request. Offset is in percent of canvas height.
type HookSpec struct {
	Text     string       `json:"text" yaml:"text"`
	Style    HookStyle    `json:"style" yaml:"style"`
	Position HookPosition `json:"position" yaml:"position"`
	Offset   float64      `json:"offset" yaml:"offset"`
}

// HookMode controls whether the overlay spans the first clip or the whole timeline
type HookMode string

const (
	HookFirstClip HookMode = "first_clip"
	HookAllClips  HookMode = "all_clips"
)

type TimingMode string

const (
	TimingUniform TimingMode = "uniform"
	TimingPerClip TimingMode = "per_clip"
)

// TimingConfig holds the per-request duration window. Speeds are seconds per clip
// and only apply to uniform mode.
type TimingConfig struct {
	Mode      TimingMode `json:"mode" yaml:"mode"`
	TargetMin float64    `json:"target_min" yaml:"target_min"`
	TargetMax float64    `json:"target_max" yaml:"target_max"`
	SpeedMin  float64    `json:"speed_min,omitempty" yaml:"speed_min"`
	SpeedMax  float64    `json:"speed_max,omitempty" yaml:"speed_max"`
}

// GenerationRequest is everything needed to compose one video
type GenerationRequest struct {
	MediaPool []MediaItem        `json:"media_pool" yaml:"media_pool"`
	Hook      *HookSpec          `json:"hook,omitempty" yaml:"hook"`
	HookMode  HookMode           `json:"hook_mode,omitempty" yaml:"hook_mode"`
	AudioRef  string             `json:"audio_ref,omitempty" yaml:"audio_ref"`
	Timing    TimingConfig       `json:"timing" yaml:"timing"`
	Seed      int64              `json:"seed" yaml:"seed"`
	Platform  ProcessingPlatform `json:"platform,omitempty" yaml:"platform"`
	CallIndex int                `json:"call_index,omitempty" yaml:"call_index"`
}

// SelectionPlan is the ordered clip list with its loop bookkeeping
type SelectionPlan struct {
	OrderedMedia []MediaItem `json:"ordered_media"`
	UniqueCount  int         `json:"unique_count"`
	LoopCount    int         `json:"loop_count"`
}
