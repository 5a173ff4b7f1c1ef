package transcode

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// VideoConfig controls frame extraction
type VideoConfig struct {
	FPS       int // frames per second to extract, default 1
	Width     int // default 336
	Height    int // default 336
	MaxFrames int // 0 means no cap
}

// DefaultVideoConfig matches common vision-model input sizes
func DefaultVideoConfig() VideoConfig {
	return VideoConfig{FPS: 1, Width: 336, Height: 336, MaxFrames: 10}
}

// VideoPreprocessor extracts frames from video files
type VideoPreprocessor struct {
	binary string
	config VideoConfig
}

// NewVideoPreprocessor creates a preprocessor; empty binary means "ffmpeg"
func NewVideoPreprocessor(binary string, config VideoConfig) *VideoPreprocessor {
	if config.FPS <= 0 {
		config.FPS = 1
	}
	if config.Width <= 0 {
		config.Width = 336
	}
	if config.Height <= 0 {
		config.Height = 336
	}
	return &VideoPreprocessor{binary: binary, config: config}
}

// ExtractFrames writes frame_NNNN.jpg files into outputDir and returns the
// paths of the frames actually produced.
func (p *VideoPreprocessor) ExtractFrames(ctx context.Context, video, outputDir string) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	cmd := NewCommand(p.binary).
		Input(video).
		Args(
			"-vf", fmt.Sprintf("fps=%d,scale=%d:%d", p.config.FPS, p.config.Width, p.config.Height),
			"-f", "image2",
		)
	if p.config.MaxFrames > 0 {
		cmd.Args("-frames:v", fmt.Sprintf("%d", p.config.MaxFrames))
	}

	pattern := filepath.Join(outputDir, "frame_%04d.jpg")
	if err := cmd.Output(pattern).Run(ctx); err != nil {
		return nil, err
	}

	// Inventory what ffmpeg actually wrote
	var frames []string
	limit := p.config.MaxFrames
	if limit <= 0 {
		limit = 10000
	}
	for i := 1; i <= limit; i++ {
		framePath := filepath.Join(outputDir, fmt.Sprintf("frame_%04d.jpg", i))
		if _, err := os.Stat(framePath); err != nil {
			break
		}
		frames = append(frames, framePath)
	}
	return frames, nil
}
