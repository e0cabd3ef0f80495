package ffmpeg

import (
	"encoding/json"
	"fmt"
	"math"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// encoderTuning holds codec-specific output flags layered on top of the profile
var encoderTuning = map[string]ffmpeg.KwArgs{
	"libx264": {
		"x264opts":   "no-scenecut",
		"g":          60,
		"keyint_min": 30,
	},
	"libvpx-vp9": {
		"deadline":     "good",
		"cpu-used":     2,
		"row-mt":       1,
		"tile-columns": 2,
	},
}

// VideoMetadata contains metadata about a media file
type VideoMetadata struct {
	Duration float64
	Width    int
	Height   int
	Codec    string
	HasAudio bool
}

// GetVideoMetadata probes a file with ffprobe
func GetVideoMetadata(path string) (*VideoMetadata, error) {
	probe, err := ffmpeg.Probe(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error probing %s", path)
	}
	return parseProbe(probe)
}

type probeStream struct {
	CodecType  string `json:"codec_type"`
	CodecName  string `json:"codec_name"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Duration   string `json:"duration"`
	NbFrames   string `json:"nb_frames"`
	RFrameRate string `json:"r_frame_rate"`
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func parseProbe(probe string) (*VideoMetadata, error) {
	var data probeOutput
	if err := json.Unmarshal([]byte(probe), &data); err != nil {
		return nil, errors.WithStack(err)
	}
	if len(data.Streams) == 0 {
		return nil, fmt.Errorf("no streams found")
	}

	var video *probeStream
	meta := &VideoMetadata{}
	for i := range data.Streams {
		switch data.Streams[i].CodecType {
		case "video":
			if video == nil {
				video = &data.Streams[i]
			}
		case "audio":
			meta.HasAudio = true
		}
	}
	if video == nil {
		return nil, fmt.Errorf("no video stream found")
	}

	// stream duration, then container duration, then frames / rate
	duration := parseSeconds(video.Duration)
	if duration == 0 {
		duration = parseSeconds(data.Format.Duration)
	}
	if duration == 0 {
		frames := parseSeconds(video.NbFrames)
		if rate := parseRate(video.RFrameRate); frames > 0 && rate > 0 {
			duration = frames / rate
		}
	}
	if duration == 0 {
		return nil, fmt.Errorf("could not determine video duration")
	}

	meta.Duration = duration
	meta.Width = video.Width
	meta.Height = video.Height
	meta.Codec = video.CodecName
	return meta, nil
}

func parseSeconds(s string) float64 {
	d, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(d) || math.IsInf(d, 0) {
		return 0
	}
	return d
}

func parseRate(s string) float64 {
	nums := strings.Split(s, "/")
	if len(nums) != 2 {
		return 0
	}
	num, err1 := strconv.ParseFloat(nums[0], 64)
	den, err2 := strconv.ParseFloat(nums[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}

func GetOptimalThreadCount() int {
	cpuCount := runtime.NumCPU()
	// Use 75% of available cores to prevent overload
	return int(math.Max(1, float64(cpuCount)*0.75))
}

// EnsureExtension replaces any known media extension on filename
func EnsureExtension(filename, extension string) string {
	extensions := []string{".mp4", ".webm", ".mkv", ".avi", ".mov"}
	for _, ext := range extensions {
		filename = strings.TrimSuffix(filename, ext)
	}
	return filename + extension
}
