package mediainfo

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"medialib/internal/logging"
)

type probeOutput struct {
	Format  probeFormat   `json:"format"`
	Streams []probeStream `json:"streams"`
}

type probeFormat struct {
	FormatName     string            `json:"format_name"`
	FormatLongName string            `json:"format_long_name"`
	Duration       string            `json:"duration"`
	BitRate        string            `json:"bit_rate"`
	Tags           map[string]string `json:"tags"`
}

type probeStream struct {
	Index         int    `json:"index"`
	CodecName     string `json:"codec_name"`
	CodecLongName string `json:"codec_long_name"`
	CodecType     string `json:"codec_type"`
	Width         int64  `json:"width"`
	Height        int64  `json:"height"`
	PixFmt        string `json:"pix_fmt"`
	AvgFrameRate  string `json:"avg_frame_rate"`
	SampleFmt     string `json:"sample_fmt"`
	SampleRate    string `json:"sample_rate"`
	Channels      int64  `json:"channels"`
	BitRate       string `json:"bit_rate"`
}

// probe demuxes a container with ffprobe and returns its parsed stream
// information.
func probe(ctx context.Context, path string) (*probeOutput, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileOpen, err)
	}

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("%w: ffprobe exit %d: %s",
				ErrStreamInfo, exitErr.ExitCode(), strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("%w: %v", ErrStreamInfo, err)
	}

	var out probeOutput
	if err := json.Unmarshal(output, &out); err != nil {
		return nil, fmt.Errorf("%w: failed to parse ffprobe output: %v", ErrStreamInfo, err)
	}

	return &out, nil
}

// extractContainerInfo opens path as a demuxed container and populates
// container-level fields plus the first video and audio streams.
// Absence of a matching stream yields a nil field, not an error.
func extractContainerInfo(ctx context.Context, path string) (*MediaInfo, error) {
	logging.Debug("Extracting container info: %s", path)

	out, err := probe(ctx, path)
	if err != nil {
		return nil, err
	}

	format := out.Format.FormatName
	if format == "" {
		format = "unknown"
	}
	formatLong := out.Format.FormatLongName
	if formatLong == "" {
		formatLong = format
	}

	info := &MediaInfo{
		General: GeneralInfo{
			Format:     format,
			FormatLong: formatLong,
			Duration:   parseFloatPtr(out.Format.Duration),
			Bitrate:    parsePositiveInt(out.Format.BitRate),
			Size:       fileSize(path),
		},
		Metadata: map[string]string{},
	}

	for k, v := range out.Format.Tags {
		info.Metadata[k] = v
	}

	if vs := firstStream(out.Streams, "video"); vs != nil {
		info.Video = &VideoInfo{
			Codec:       orUnknown(vs.CodecName),
			CodecLong:   longName(vs.CodecLongName, vs.CodecName),
			Width:       vs.Width,
			Height:      vs.Height,
			FPS:         parseFrameRate(vs.AvgFrameRate),
			Bitrate:     parsePositiveInt(vs.BitRate),
			PixelFormat: orUnknown(vs.PixFmt),
			AspectRatio: aspectRatio(vs.Width, vs.Height),
		}
	}

	if as := firstStream(out.Streams, "audio"); as != nil {
		sampleRate, _ := strconv.ParseInt(as.SampleRate, 10, 64)
		info.Audio = &AudioInfo{
			Codec:        orUnknown(as.CodecName),
			CodecLong:    longName(as.CodecLongName, as.CodecName),
			SampleRate:   sampleRate,
			Channels:     as.Channels,
			Bitrate:      parsePositiveInt(as.BitRate),
			SampleFormat: orUnknown(as.SampleFmt),
		}
	}

	return info, nil
}

// firstStream returns the first stream of the given codec type, or nil.
func firstStream(streams []probeStream, codecType string) *probeStream {
	for i := range streams {
		if streams[i].CodecType == codecType {
			return &streams[i]
		}
	}
	return nil
}

// parseFrameRate parses an "num/den" rational into frames per second.
// Returns 0 when the denominator is zero or the value is malformed.
func parseFrameRate(r string) float64 {
	num, den, ok := strings.Cut(r, "/")
	if !ok {
		if f, err := strconv.ParseFloat(r, 64); err == nil {
			return f
		}
		return 0
	}
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

// parseFloatPtr parses a decimal seconds string, nil when absent or
// malformed.
func parseFloatPtr(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// parsePositiveInt parses a bitrate string, nil unless strictly positive.
func parsePositiveInt(s string) *int64 {
	if s == "" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func longName(long, short string) string {
	if long != "" {
		return long
	}
	return orUnknown(short)
}
