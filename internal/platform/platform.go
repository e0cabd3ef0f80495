package platform

import (
	"fmt"
	"sort"
	"sync"
)

// Platform describes the output limits of a publishing target
type Platform interface {
	// GetName returns the platform name
	GetName() string

	// GetMaxDimensions returns the canvas the composition is rendered at
	GetMaxDimensions() (width, height int)

	// GetMaxDuration returns the maximum allowed video duration in seconds
	GetMaxDuration() int

	// GetMaxFileSize returns the maximum allowed file size in bytes
	GetMaxFileSize() int64

	// GetVideoCodec returns the preferred video codec
	GetVideoCodec() string

	// GetAudioCodec returns the preferred audio codec
	GetAudioCodec() string

	// GetMaxVideoBitrate returns the video bitrate ceiling in kbps
	GetMaxVideoBitrate() int

	// GetOutputFormat returns the container (e.g., "mp4")
	GetOutputFormat() string

	// ForcePortrait reports whether landscape canvases are rotated to portrait
	ForcePortrait() bool
}

var (
	mu        sync.RWMutex
	platforms = make(map[string]Platform)
)

// Register adds a platform to the registry
func Register(p Platform) {
	mu.Lock()
	defer mu.Unlock()
	platforms[p.GetName()] = p
}

// Get returns a platform by name
func Get(name string) (Platform, error) {
	mu.RLock()
	defer mu.RUnlock()
	p, ok := platforms[name]
	if !ok {
		return nil, fmt.Errorf("unsupported platform: %s", name)
	}
	return p, nil
}

// GetSupportedPlatforms returns the registered platform names in order
func GetSupportedPlatforms() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(platforms))
	for name := range platforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Canvas returns the render size for p, portrait when the platform forces it
func Canvas(p Platform) (width, height int) {
	w, h := p.GetMaxDimensions()
	if p.ForcePortrait() && w > h {
		w, h = h, w
	}
	return w, h
}

// preset is a fixed-value Platform
type preset struct {
	name          string
	width         int
	height        int
	maxDuration   int
	maxFileSize   int64
	videoCodec    string
	audioCodec    string
	maxBitrate    int
	format        string
	forcePortrait bool
}

func (p *preset) GetName() string                       { return p.name }
func (p *preset) GetMaxDimensions() (width, height int) { return p.width, p.height }
func (p *preset) GetMaxDuration() int                   { return p.maxDuration }
func (p *preset) GetMaxFileSize() int64                 { return p.maxFileSize }
func (p *preset) GetVideoCodec() string                 { return p.videoCodec }
func (p *preset) GetAudioCodec() string                 { return p.audioCodec }
func (p *preset) GetMaxVideoBitrate() int               { return p.maxBitrate }
func (p *preset) GetOutputFormat() string               { return p.format }
func (p *preset) ForcePortrait() bool                   { return p.forcePortrait }
