package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	// Loop and selection ceilings
	DefaultMaxUnique      = 20
	DefaultShuffleRetries = 5
	DefaultLoopCap        = 20
	DefaultUniformLoopCap = 200

	// Hook wrapping
	DefaultHardSplitChars = 12

	// Temporary directory prefix
	TempDirPrefix = "reel_render_"

	// Default output metadata encoder tag
	EncoderTag = "reel-composer"
)

// Config holds all application configuration
type Config struct {
	Selection SelectionConfig `yaml:"selection"`
	Timing    TimingConfig    `yaml:"timing"`
	Hook      HookConfig      `yaml:"hook"`
	Grade     GradeConfig     `yaml:"grade"`
	Audio     AudioConfig     `yaml:"audio"`
	Render    RenderConfig    `yaml:"render"`
	Batch     BatchConfig     `yaml:"batch"`
	Store     StoreConfig     `yaml:"store"`
	LogLevel  string          `yaml:"log_level"`
}

type SelectionConfig struct {
	MaxUnique      int `yaml:"max_unique"`
	ShuffleRetries int `yaml:"shuffle_retries"`

	// AvoidRepeats keeps a shuffle history per generator so repeated calls
	// skip orders already produced. Output then depends on call order.
	AvoidRepeats bool `yaml:"avoid_repeats"`
}

// ClipBand maps a per-clip timing ceiling (ms) to a unique clip count range
type ClipBand struct {
	MaxTimingMs float64 `yaml:"max_timing_ms"`
	MinClips    int     `yaml:"min_clips"`
	MaxClips    int     `yaml:"max_clips"`
}

type TimingConfig struct {
	LoopCap        int `yaml:"loop_cap"`
	UniformLoopCap int `yaml:"uniform_loop_cap"`

	// Uniform mode defaults, used when a request leaves speeds unset
	SpeedMin float64 `yaml:"speed_min"`
	SpeedMax float64 `yaml:"speed_max"`

	// Target window in seconds, used when a request leaves both bounds unset
	TargetMin float64 `yaml:"target_min"`
	TargetMax float64 `yaml:"target_max"`

	// Per-clip mode
	VideoTimingMinMs float64    `yaml:"video_timing_min_ms"`
	VideoTimingMaxMs float64    `yaml:"video_timing_max_ms"`
	ImageTimingMinMs float64    `yaml:"image_timing_min_ms"`
	ImageTimingMaxMs float64    `yaml:"image_timing_max_ms"`
	Bands            []ClipBand `yaml:"bands"`
	VideoJitterMin   float64    `yaml:"video_jitter_min"`
	VideoJitterMax   float64    `yaml:"video_jitter_max"`
}

type HookConfig struct {
	HardSplitChars   int     `yaml:"hard_split_chars"`
	TopFraction      float64 `yaml:"top_fraction"`
	MiddleFraction   float64 `yaml:"middle_fraction"`
	BottomFraction   float64 `yaml:"bottom_fraction"`
	PlainFontScale   float64 `yaml:"plain_font_scale"`
	PillFontScale    float64 `yaml:"pill_font_scale"`
	PlainWidthRatio  float64 `yaml:"plain_width_ratio"`
	PillWidthRatio   float64 `yaml:"pill_width_ratio"`
	PillPaddingRatio float64 `yaml:"pill_padding_ratio"`
	SafeMarginRatio  float64 `yaml:"safe_margin_ratio"`
}

type GradeConfig struct {
	Enabled bool `yaml:"enabled"`
}

type AudioConfig struct {
	MaxOffset float64 `yaml:"max_offset"`
}

type RenderConfig struct {
	FFmpegPath string        `yaml:"ffmpeg_path"`
	Timeout    time.Duration `yaml:"timeout"`
	Threads    int           `yaml:"threads"`
	FontFile   string        `yaml:"font_file"`
	Preset     string        `yaml:"preset"`
	Platform   string        `yaml:"platform"`
}

type BatchConfig struct {
	Concurrency int    `yaml:"concurrency"`
	OutputDir   string `yaml:"output_dir"`
	Owner       string `yaml:"owner"`
	Prefix      string `yaml:"prefix"`
}

type StoreConfig struct {
	Path string        `yaml:"path"`
	TTL  time.Duration `yaml:"ttl"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "failed to read config %s", path)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.WithStack(err)
	}

	return os.WriteFile(path, data, 0644)
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Selection: SelectionConfig{
			MaxUnique:      DefaultMaxUnique,
			ShuffleRetries: DefaultShuffleRetries,
		},
		Timing: TimingConfig{
			LoopCap:          DefaultLoopCap,
			UniformLoopCap:   DefaultUniformLoopCap,
			SpeedMin:         0.1,
			SpeedMax:         0.5,
			TargetMin:        8,
			TargetMax:        15,
			VideoTimingMinMs: 1000,
			VideoTimingMaxMs: 2000,
			ImageTimingMinMs: 300,
			ImageTimingMaxMs: 900,
			Bands: []ClipBand{
				{MaxTimingMs: 200, MinClips: 25, MaxClips: 30},
				{MaxTimingMs: 400, MinClips: 18, MaxClips: 25},
				{MaxTimingMs: 600, MinClips: 12, MaxClips: 18},
				{MaxTimingMs: 0, MinClips: 10, MaxClips: 15}, // catch-all
			},
			VideoJitterMin: 0.03,
			VideoJitterMax: 0.10,
		},
		Hook: HookConfig{
			HardSplitChars:   DefaultHardSplitChars,
			TopFraction:      0.12,
			MiddleFraction:   0.47,
			BottomFraction:   0.72,
			PlainFontScale:   0.058,
			PillFontScale:    0.052,
			PlainWidthRatio:  0.90,
			PillWidthRatio:   0.85,
			PillPaddingRatio: 0.025,
			SafeMarginRatio:  0.02,
		},
		Grade: GradeConfig{
			Enabled: true,
		},
		Audio: AudioConfig{
			MaxOffset: 20,
		},
		Render: RenderConfig{
			FFmpegPath: "ffmpeg",
			Timeout:    2 * time.Minute,
			Threads:    0,
			Preset:     "medium",
			Platform:   "tiktok",
		},
		Batch: BatchConfig{
			Concurrency: 4,
			OutputDir:   "./output",
			Owner:       "local",
			Prefix:      "reel",
		},
		Store: StoreConfig{
			Path: "./reels.db",
			TTL:  72 * time.Hour,
		},
		LogLevel: "info",
	}
}

// Validate checks the configured bounds
func (c *Config) Validate() error {
	if c.Selection.MaxUnique < 1 {
		return fmt.Errorf("selection.max_unique must be >= 1, got %d", c.Selection.MaxUnique)
	}
	if c.Selection.ShuffleRetries < 0 {
		return fmt.Errorf("selection.shuffle_retries must be >= 0, got %d", c.Selection.ShuffleRetries)
	}
	if c.Timing.LoopCap < 1 {
		return fmt.Errorf("timing.loop_cap must be >= 1, got %d", c.Timing.LoopCap)
	}
	if c.Timing.UniformLoopCap < 1 {
		return fmt.Errorf("timing.uniform_loop_cap must be >= 1, got %d", c.Timing.UniformLoopCap)
	}
	if err := checkRange("timing.speed", c.Timing.SpeedMin, c.Timing.SpeedMax); err != nil {
		return err
	}
	if err := checkRange("timing.target", c.Timing.TargetMin, c.Timing.TargetMax); err != nil {
		return err
	}
	if err := checkRange("timing.video_timing_ms", c.Timing.VideoTimingMinMs, c.Timing.VideoTimingMaxMs); err != nil {
		return err
	}
	if err := checkRange("timing.image_timing_ms", c.Timing.ImageTimingMinMs, c.Timing.ImageTimingMaxMs); err != nil {
		return err
	}
	if c.Timing.VideoJitterMin < 0 || c.Timing.VideoJitterMax < c.Timing.VideoJitterMin || c.Timing.VideoJitterMax >= 1 {
		return fmt.Errorf("timing.video_jitter range [%v, %v] is invalid", c.Timing.VideoJitterMin, c.Timing.VideoJitterMax)
	}
	if len(c.Timing.Bands) == 0 {
		return fmt.Errorf("timing.bands must not be empty")
	}
	for i, b := range c.Timing.Bands {
		if b.MinClips < 1 || b.MaxClips < b.MinClips {
			return fmt.Errorf("timing.bands[%d] clip range [%d, %d] is invalid", i, b.MinClips, b.MaxClips)
		}
	}
	if c.Hook.HardSplitChars < 1 {
		return fmt.Errorf("hook.hard_split_chars must be >= 1, got %d", c.Hook.HardSplitChars)
	}
	if c.Hook.PlainWidthRatio <= 0 || c.Hook.PlainWidthRatio > 0.95 || c.Hook.PillWidthRatio <= 0 ||
		c.Hook.PillWidthRatio+2*c.Hook.PillPaddingRatio > 0.95 {
		return fmt.Errorf("hook width ratios must keep lines within 95%% of the canvas")
	}
	if c.Audio.MaxOffset < 0 {
		return fmt.Errorf("audio.max_offset must be >= 0, got %v", c.Audio.MaxOffset)
	}
	if c.Render.Timeout <= 0 {
		return fmt.Errorf("render.timeout must be positive, got %s", c.Render.Timeout)
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("batch.concurrency must be >= 1, got %d", c.Batch.Concurrency)
	}
	return nil
}

func checkRange(name string, min, max float64) error {
	if min <= 0 || max < min {
		return fmt.Errorf("%s range [%v, %v] is invalid", name, min, max)
	}
	return nil
}

func findConfigFile() string {
	candidates := []string{
		"./reelgen.yaml",
		"./reelgen.yml",
		filepath.Join(os.Getenv("HOME"), ".reelgen", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}
