// Package transcode converts recorded audio into the MP3 objects stored for
// each slide by shelling out to ffmpeg.
package transcode

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrBinaryMissing reports that the configured ffmpeg executable cannot be found.
var ErrBinaryMissing = errors.New("ffmpeg binary not found")

const (
	defaultBinary  = "ffmpeg"
	defaultQuality = 2
	defaultTimeout = 2 * time.Minute
	maxStderrTail  = 2 << 10
)

// Options configures the ffmpeg transcoder.
type Options struct {
	Binary string
	// Quality is the libmp3lame VBR setting, 1 best to 9 smallest. Zero
	// selects 2.
	Quality int
	Timeout time.Duration
	// TempDir holds scratch files; empty uses os.TempDir.
	TempDir string
}

// FFmpeg transcodes arbitrary container audio to MP3.
type FFmpeg struct {
	binary  string
	quality int
	timeout time.Duration
	tempDir string
}

// New builds an ffmpeg transcoder with defaults for unset options.
func New(opts Options) *FFmpeg {
	binary := strings.TrimSpace(opts.Binary)
	if binary == "" {
		binary = defaultBinary
	}
	quality := opts.Quality
	if quality <= 0 || quality > 9 {
		quality = defaultQuality
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &FFmpeg{binary: binary, quality: quality, timeout: timeout, tempDir: opts.TempDir}
}

// Binary returns the configured executable name or path.
func (f *FFmpeg) Binary() string {
	return f.binary
}

// Check resolves the executable without running it.
func (f *FFmpeg) Check() (string, error) {
	resolved, err := exec.LookPath(f.binary)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrBinaryMissing, f.binary)
	}
	return resolved, nil
}

// Args returns the ffmpeg argument list for one conversion.
func (f *FFmpeg) Args(input, output string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", input,
		"-codec:a", "libmp3lame",
		"-qscale:a", strconv.Itoa(f.quality),
		output,
	}
}

// Transcode converts input to MP3 and returns the encoded bytes.
func (f *FFmpeg) Transcode(ctx context.Context, input []byte) ([]byte, error) {
	if len(input) == 0 {
		return nil, errors.New("transcode: empty input")
	}
	binary, err := f.Check()
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp(f.tempDir, "narrate-transcode-")
	if err != nil {
		return nil, fmt.Errorf("transcode: scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	source := filepath.Join(dir, "input")
	dest := filepath.Join(dir, "output.mp3")
	if err := os.WriteFile(source, input, 0o600); err != nil {
		return nil, fmt.Errorf("transcode: write input: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, binary, f.Args(source, dest)...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("ffmpeg transcode: %w", ctx.Err())
		}
		return nil, fmt.Errorf("ffmpeg transcode: %w: %s", err, tail(output))
	}

	encoded, err := os.ReadFile(dest)
	if err != nil {
		return nil, fmt.Errorf("transcode: read output: %w", err)
	}
	if len(encoded) == 0 {
		return nil, errors.New("transcode: ffmpeg produced no output")
	}
	return encoded, nil
}

func tail(output []byte) string {
	text := strings.TrimSpace(string(output))
	if len(text) > maxStderrTail {
		text = "..." + text[len(text)-maxStderrTail:]
	}
	return text
}
