package platform

import "github.com/ZacxDev/reel-composer/pkg/types"

func init() {
	Register(&preset{
		name:        string(types.ProcessingPlatformReddit),
		width:       1920,
		height:      1080,
		maxDuration: 300,
		maxFileSize: 1024 * 1024 * 1024, // 1GB
		videoCodec:  "libx264",
		audioCodec:  "aac",
		maxBitrate:  8000,
		format:      "mp4",
	})
}
