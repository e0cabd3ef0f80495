package platform

import "github.com/ZacxDev/reel-composer/pkg/types"

func init() {
	Register(&preset{
		name:          string(types.ProcessingPlatformYouTubeShorts),
		width:         1080,
		height:        1920,
		maxDuration:   60,
		maxFileSize:   256 * 1024 * 1024, // 256MB
		videoCodec:    "libx264",
		audioCodec:    "aac",
		maxBitrate:    12000,
		format:        "mp4",
		forcePortrait: true,
	})
}
