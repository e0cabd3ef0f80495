package platform

import "github.com/ZacxDev/reel-composer/pkg/types"

func init() {
	Register(&preset{
		name:          string(types.ProcessingPlatformInstagramReel),
		width:         1080,
		height:        1920,
		maxDuration:   90,
		maxFileSize:   250 * 1024 * 1024, // 250MB
		videoCodec:    "libx264",
		audioCodec:    "aac",
		maxBitrate:    8000,
		format:        "mp4",
		forcePortrait: true,
	})
}
