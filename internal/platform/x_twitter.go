package platform

import "github.com/ZacxDev/reel-composer/pkg/types"

func init() {
	Register(&preset{
		name:          string(types.ProcessingPlatformXTwitter),
		width:         1920,
		height:        1200,
		maxDuration:   140,
		maxFileSize:   512 * 1024 * 1024, // 512MB
		videoCodec:    "libx264",
		audioCodec:    "aac",
		maxBitrate:    6000,
		format:        "mp4",
		forcePortrait: true,
	})
}
