package platform

import "github.com/ZacxDev/reel-composer/pkg/types"

func init() {
	Register(&preset{
		name:          string(types.ProcessingPlatformTikTok),
		width:         1080,
		height:        1920,
		maxDuration:   180,
		maxFileSize:   287 * 1024 * 1024, // 287MB
		videoCodec:    "libx264",
		audioCodec:    "aac",
		maxBitrate:    12000,
		format:        "mp4",
		forcePortrait: true,
	})
}
