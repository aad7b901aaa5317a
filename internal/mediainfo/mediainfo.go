package mediainfo

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"time"

	"medialib/internal/logging"
	"medialib/internal/mediatypes"
	"medialib/internal/metrics"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp" // WebP format support
)

// Extraction failure classes. All are recoverable at the caller;
// extraction is never retried automatically.
var (
	// ErrFileOpen indicates the file could not be opened as a container.
	ErrFileOpen = errors.New("failed to open media file")
	// ErrStreamInfo indicates stream information could not be read.
	ErrStreamInfo = errors.New("failed to read stream info")
	// ErrInvalidPath indicates the path contains embedded NUL bytes.
	ErrInvalidPath = errors.New("invalid file path")
	// ErrImageDecode indicates the underlying image decode failed.
	ErrImageDecode = errors.New("failed to decode image")
)

// MediaInfo is the structured metadata extracted from one media file.
type MediaInfo struct {
	Video    *VideoInfo        `json:"video,omitempty"`
	Audio    *AudioInfo        `json:"audio,omitempty"`
	General  GeneralInfo       `json:"general"`
	Metadata map[string]string `json:"metadata"`
}

// VideoInfo describes the first video stream of a container, or the
// pixel data of a still image.
type VideoInfo struct {
	Codec       string  `json:"codec"`
	CodecLong   string  `json:"codecLong"`
	Width       int64   `json:"width"`
	Height      int64   `json:"height"`
	FPS         float64 `json:"fps"`
	Bitrate     *int64  `json:"bitrate,omitempty"`
	PixelFormat string  `json:"pixFmt"`
	AspectRatio string  `json:"aspectRatio"`
}

// AudioInfo describes the first audio stream of a container.
type AudioInfo struct {
	Codec        string `json:"codec"`
	CodecLong    string `json:"codecLong"`
	SampleRate   int64  `json:"sampleRate"`
	Channels     int64  `json:"channels"`
	Bitrate      *int64 `json:"bitrate,omitempty"`
	SampleFormat string `json:"sampleFmt"`
}

// GeneralInfo describes container-level fields.
type GeneralInfo struct {
	Format     string   `json:"format"`
	FormatLong string   `json:"formatLong"`
	Duration   *float64 `json:"duration,omitempty"`
	Bitrate    *int64   `json:"bitrate,omitempty"`
	Size       int64    `json:"size"`
}

// Extract produces structured metadata for a media file. Files with an
// image extension are decoded directly; everything else goes through
// container introspection.
func Extract(ctx context.Context, path string) (*MediaInfo, error) {
	logging.Debug("Starting media info extraction: %s", path)

	if strings.ContainsRune(path, 0) {
		return nil, fmt.Errorf("%w: path contains NUL bytes", ErrInvalidPath)
	}

	if mediatypes.IsImagePath(path) {
		start := time.Now()
		info, err := extractImageInfo(path)
		metrics.MetadataExtractionDuration.WithLabelValues("image").Observe(time.Since(start).Seconds())
		return info, err
	}

	start := time.Now()
	info, err := extractContainerInfo(ctx, path)
	metrics.MetadataExtractionDuration.WithLabelValues("container").Observe(time.Since(start).Seconds())
	return info, err
}

// extractImageInfo reads pixel dimensions and color model from a still
// image. Duration and bitrate are absent; the format name is derived
// from the extension.
func extractImageInfo(path string) (*MediaInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileOpen, err)
	}
	defer file.Close()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrImageDecode, path, err)
	}

	width := int64(config.Width)
	height := int64(config.Height)

	format := strings.ToUpper(strings.TrimPrefix(filepath.Ext(path), "."))
	if format == "" {
		format = "UNKNOWN"
	}

	aspectRatio := "N/A"
	if height > 0 {
		// Image aspect ratios are reported unreduced.
		aspectRatio = fmt.Sprintf("%d:%d", width, height)
	}

	return &MediaInfo{
		Video: &VideoInfo{
			Codec:       "image",
			CodecLong:   format + " Image",
			Width:       width,
			Height:      height,
			FPS:         0,
			PixelFormat: colorModelName(config.ColorModel),
			AspectRatio: aspectRatio,
		},
		General: GeneralInfo{
			Format:     format,
			FormatLong: format + " Image File",
			Size:       fileSize(path),
		},
		Metadata: map[string]string{},
	}, nil
}

// fileSize returns the size of a file in bytes, or 0 when the stat
// fails. Stat failures are non-fatal for metadata extraction.
func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		logging.Debug("Could not stat %s: %v", path, err)
		return 0
	}
	return info.Size()
}

// colorModelName maps a decoded color model to a pixel format name.
func colorModelName(m color.Model) string {
	switch m {
	case color.RGBAModel:
		return "rgba"
	case color.RGBA64Model:
		return "rgba64"
	case color.NRGBAModel:
		return "nrgba"
	case color.NRGBA64Model:
		return "nrgba64"
	case color.GrayModel:
		return "gray"
	case color.Gray16Model:
		return "gray16"
	case color.AlphaModel:
		return "alpha"
	case color.CMYKModel:
		return "cmyk"
	case color.YCbCrModel:
		return "ycbcr"
	case color.NYCbCrAModel:
		return "nycbcra"
	}
	if _, ok := m.(color.Palette); ok {
		return "palette"
	}
	return "unknown"
}

// aspectRatio reduces width:height by their greatest common divisor,
// e.g. 1920x1080 -> "16:9". Returns "N/A" when height is zero.
func aspectRatio(width, height int64) string {
	if height <= 0 {
		return "N/A"
	}
	d := gcd(width, height)
	if d == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%d:%d", width/d, height/d)
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
