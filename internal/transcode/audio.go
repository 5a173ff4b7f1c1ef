package transcode

import (
	"context"
	"fmt"
)

// AudioConfig controls audio preprocessing
type AudioConfig struct {
	SampleRate int    // default 48000
	Channels   int    // default 1 (mono)
	Format     string // default "wav"
}

// DefaultAudioConfig matches common embedding-model input requirements
func DefaultAudioConfig() AudioConfig {
	return AudioConfig{SampleRate: 48000, Channels: 1, Format: "wav"}
}

// AudioPreprocessor converts audio to a target format and sample rate
type AudioPreprocessor struct {
	binary string
	config AudioConfig
}

// NewAudioPreprocessor creates a preprocessor; empty binary means "ffmpeg"
func NewAudioPreprocessor(binary string, config AudioConfig) *AudioPreprocessor {
	if config.SampleRate <= 0 {
		config.SampleRate = 48000
	}
	if config.Channels <= 0 {
		config.Channels = 1
	}
	if config.Format == "" {
		config.Format = "wav"
	}
	return &AudioPreprocessor{binary: binary, config: config}
}

// Preprocess resamples input into the configured format at output
func (p *AudioPreprocessor) Preprocess(ctx context.Context, input, output string) error {
	return NewCommand(p.binary).
		Input(input).
		Args(
			"-ar", fmt.Sprintf("%d", p.config.SampleRate),
			"-ac", fmt.Sprintf("%d", p.config.Channels),
			"-f", p.config.Format,
		).
		Output(output).
		Run(ctx)
}

// ExtractFromVideo pulls the audio track out of a video file
func (p *AudioPreprocessor) ExtractFromVideo(ctx context.Context, video, output string) error {
	return NewCommand(p.binary).
		Input(video).
		Args(
			"-vn",
			"-ar", fmt.Sprintf("%d", p.config.SampleRate),
			"-ac", fmt.Sprintf("%d", p.config.Channels),
			"-f", p.config.Format,
		).
		Output(output).
		Run(ctx)
}
