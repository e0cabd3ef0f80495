// Package profile derives a seeded encoding preset, colour grade and per-run
// creative variation for one composition.
package profile

import (
	"fmt"
	"strings"
	"time"

	"github.com/ZacxDev/reel-composer/internal/config"
	"github.com/ZacxDev/reel-composer/internal/seed"
	"github.com/ZacxDev/reel-composer/pkg/types"
)

const (
	saltArchetype uint64 = iota + 101
	saltBitrate
	saltGrade
	saltFadeIn
	saltFadeOut
	saltAudioOffset
	saltMotion
)

const (
	ArchetypeBalanced = "balanced"
	ArchetypeHigh     = "high"
	ArchetypeCompact  = "compact"
)

// Archetype is a fixed encoding preset. Bitrates are kbps.
type Archetype struct {
	Name          string
	VideoCodec    string
	CodecProfile  string
	CodecLevel    string
	FPS           float64
	BitrateMin    int
	BitrateMax    int
	AudioCodec    string
	AudioBitrate  int
	AudioRate     int
	AudioChannels int
}

var archetypes = []Archetype{
	{
		Name:          ArchetypeBalanced,
		VideoCodec:    "libx264",
		CodecProfile:  "high",
		CodecLevel:    "4.1",
		FPS:           30,
		BitrateMin:    4000,
		BitrateMax:    6000,
		AudioCodec:    "aac",
		AudioBitrate:  128,
		AudioRate:     44100,
		AudioChannels: 2,
	},
	{
		Name:          ArchetypeHigh,
		VideoCodec:    "libx264",
		CodecProfile:  "high",
		CodecLevel:    "4.2",
		FPS:           30,
		BitrateMin:    8000,
		BitrateMax:    12000,
		AudioCodec:    "aac",
		AudioBitrate:  192,
		AudioRate:     48000,
		AudioChannels: 2,
	},
	{
		Name:          ArchetypeCompact,
		VideoCodec:    "libx264",
		CodecProfile:  "main",
		CodecLevel:    "4.0",
		FPS:           30,
		BitrateMin:    2000,
		BitrateMax:    3000,
		AudioCodec:    "aac",
		AudioBitrate:  96,
		AudioRate:     44100,
		AudioChannels: 2,
	},
}

// Archetypes returns a copy of the preset table
func Archetypes() []Archetype {
	return append([]Archetype(nil), archetypes...)
}

const (
	GradeNone      = "none"
	GradeWarm      = "warm"
	GradeCool      = "cool"
	GradeVintage   = "vintage"
	GradeCinematic = "cinematic"
)

var grades = []types.ColorAdjustment{
	{Grade: GradeNone, Brightness: 0, Contrast: 1, Saturation: 1},
	{Grade: GradeWarm, Brightness: 0.02, Contrast: 1.05, Saturation: 1.10},
	{Grade: GradeCool, Brightness: -0.01, Contrast: 1.04, Saturation: 0.92},
	{Grade: GradeVintage, Brightness: 0.03, Contrast: 0.92, Saturation: 0.80},
	{Grade: GradeCinematic, Brightness: -0.03, Contrast: 1.12, Saturation: 0.90},
}

// Grade looks up a named colour grade
func Grade(name string) (types.ColorAdjustment, bool) {
	for _, g := range grades {
		if g.Grade == name {
			return g, true
		}
	}
	return types.ColorAdjustment{}, false
}

// Variation is the per-run creative bundle
type Variation struct {
	FadeIn      float64 `json:"fade_in"`
	FadeOut     float64 `json:"fade_out"`
	AudioOffset float64 `json:"audio_offset"`
	GainDB      float64 `json:"gain_db"`

	motionSeed int64
}

// Motion bounds for still images
const (
	ZoomMin = 1.00
	ZoomMax = 1.12
)

// MotionFor returns the Ken Burns move for the clip at index
func (v Variation) MotionFor(index int) types.Motion {
	r := seed.New(seed.Derive(v.motionSeed, uint64(index)))
	zoom := r.Between(ZoomMin, ZoomMax)
	m := types.Motion{
		ZoomFrom: ZoomMin,
		ZoomTo:   zoom,
		PanX:     float64(r.Intn(3) - 1),
		PanY:     float64(r.Intn(3) - 1),
	}
	// half of the clips zoom out instead of in
	if r.Intn(2) == 1 {
		m.ZoomFrom, m.ZoomTo = m.ZoomTo, m.ZoomFrom
	}
	return m
}

// Profile is the synthesized encoding and variation set for one seed
type Profile struct {
	Seed            int64
	Archetype       string
	VideoCodec      string
	CodecProfile    string
	CodecLevel      string
	FPS             float64
	VideoBitrate    int
	AudioCodec      string
	AudioBitrate    int
	AudioRate       int
	AudioChannels   int
	Color           types.ColorAdjustment
	FilenamePattern string
	Filename        string
	Metadata        map[string]string
	Variation       Variation
}

// FilenamePattern is filled with prefix, yyyymmdd date and the seed in hex
const FilenamePattern = "{prefix}_{date}_{seed}.mp4"

// Synthesize derives a profile from sd. It is total: every seed maps to a valid profile.
func Synthesize(sd int64, cfg *config.Config, generatedAt time.Time) Profile {
	arch := archetypes[pick(sd, saltArchetype, len(archetypes))]

	bitrate := seed.New(seed.Derive(sd, saltBitrate)).IntBetween(arch.BitrateMin, arch.BitrateMax)

	color := grades[0]
	if cfg.Grade.Enabled {
		color = grades[pick(sd, saltGrade, len(grades))]
	}

	prefix := cfg.Batch.Prefix
	if prefix == "" {
		prefix = "reel"
	}
	filename := strings.NewReplacer(
		"{prefix}", prefix,
		"{date}", generatedAt.UTC().Format("20060102"),
		"{seed}", fmt.Sprintf("%016x", uint64(sd)),
	).Replace(FilenamePattern)

	return Profile{
		Seed:            sd,
		Archetype:       arch.Name,
		VideoCodec:      arch.VideoCodec,
		CodecProfile:    arch.CodecProfile,
		CodecLevel:      arch.CodecLevel,
		FPS:             arch.FPS,
		VideoBitrate:    bitrate,
		AudioCodec:      arch.AudioCodec,
		AudioBitrate:    arch.AudioBitrate,
		AudioRate:       arch.AudioRate,
		AudioChannels:   arch.AudioChannels,
		Color:           color,
		FilenamePattern: FilenamePattern,
		Filename:        filename,
		Metadata: map[string]string{
			"title":   strings.TrimSuffix(filename, ".mp4"),
			"comment": fmt.Sprintf("seed=%d profile=%s", sd, arch.Name),
			"encoder": config.EncoderTag,
		},
		Variation: Variation{
			FadeIn:      draw(sd, saltFadeIn, 0.1, 0.5),
			FadeOut:     draw(sd, saltFadeOut, 0.5, 1.5),
			AudioOffset: draw(sd, saltAudioOffset, 0, cfg.Audio.MaxOffset),
			GainDB:      0,
			motionSeed:  seed.Derive(sd, saltMotion),
		},
	}
}

func pick(sd int64, salt uint64, n int) int {
	// n is a positive table length
	i, _ := seed.NextIndex(seed.Derive(sd, salt), n)
	return i
}

func draw(sd int64, salt uint64, lo, hi float64) float64 {
	return seed.New(seed.Derive(sd, salt)).Between(lo, hi)
}
