package thumbnail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"os/exec"
	"strconv"

	"medialib/internal/logging"
)

// seekFraction is how far into the video the preview frame is taken
// from, when the container reports a duration.
const seekFraction = 0.1

// decodeVideoFrame extracts one decoded frame from a video container.
// When the container reports a positive duration, decoding starts from
// a best-effort seek to 10% of it; if that yields nothing the file is
// retried from the beginning. Decoder, scaler and pipe resources live
// in a child process bounded by decodeTimeout and are released on every
// exit path.
func (g *Generator) decodeVideoFrame(ctx context.Context, filePath string) (image.Image, error) {
	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("file not accessible: %w", err)
	}

	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}

	duration, err := probeVideoDuration(ctx, filePath)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, decodeTimeout)
	defer cancel()

	var frame []byte
	if duration > 0 {
		// Seek failure is best-effort: fall through to a plain decode
		// from the start of the file.
		frame, err = extractFrame(ctx, filePath, duration*seekFraction)
		if err != nil {
			logging.Debug("Seeked frame extraction failed for %s: %v, retrying without seek", filePath, err)
		}
	}
	if len(frame) == 0 {
		frame, err = extractFrame(ctx, filePath, -1)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoDecodableFrame, err)
		}
	}
	if len(frame) == 0 {
		return nil, ErrNoDecodableFrame
	}

	img, _, err := image.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode extracted frame: %v", ErrNoDecodableFrame, err)
	}
	return img, nil
}

// extractFrame runs ffmpeg to decode a single frame, converted to RGB
// and encoded as PNG on stdout. seekSeconds < 0 disables seeking.
func extractFrame(ctx context.Context, filePath string, seekSeconds float64) ([]byte, error) {
	args := []string{}
	if seekSeconds >= 0 {
		args = append(args, "-ss", strconv.FormatFloat(seekSeconds, 'f', 3, 64))
	}
	args = append(args,
		"-i", filePath,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-pix_fmt", "rgb24",
		"-",
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %v, stderr: %s", err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no frame output")
	}
	return stdout.Bytes(), nil
}

// probeVideoDuration confirms the file has a video stream and returns
// the container duration in seconds (0 when unknown). A container with
// no video stream fails with ErrNoVideoStream.
func probeVideoDuration(ctx context.Context, filePath string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		"-select_streams", "v",
		filePath,
	)

	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return 0, fmt.Errorf("failed to open video: ffprobe exit %d: %s",
				exitErr.ExitCode(), bytes.TrimSpace(exitErr.Stderr))
		}
		return 0, fmt.Errorf("failed to open video: %w", err)
	}

	var probe struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
		Streams []struct {
			Index int `json:"index"`
		} `json:"streams"`
	}
	if err := json.Unmarshal(output, &probe); err != nil {
		return 0, fmt.Errorf("failed to read stream info: %w", err)
	}

	if len(probe.Streams) == 0 {
		return 0, ErrNoVideoStream
	}

	duration, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil || duration < 0 {
		return 0, nil
	}
	return duration, nil
}
