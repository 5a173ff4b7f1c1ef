package transcode

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandArgOrder(t *testing.T) {
	cmd := NewCommand("").
		Input("/in/a.mp3").
		Args("-ar", "48000", "-ac", "1", "-f", "wav").
		Output("/out/a.wav")

	assert.Equal(t, "ffmpeg", cmd.binary)
	assert.Equal(t, []string{
		"-i", "/in/a.mp3",
		"-ar", "48000", "-ac", "1", "-f", "wav",
		"-y", "/out/a.wav",
	}, cmd.args)
}

func TestRunMissingBinary(t *testing.T) {
	err := NewCommand("definitely-not-ffmpeg-xyz").Input("/in/a.mp3").Output("/out/a.wav").Run(context.Background())
	require.ErrorIs(t, err, ErrNotInstalled)
}

func TestAudioPreprocessorDefaults(t *testing.T) {
	p := NewAudioPreprocessor("", AudioConfig{})
	assert.Equal(t, 48000, p.config.SampleRate)
	assert.Equal(t, 1, p.config.Channels)
	assert.Equal(t, "wav", p.config.Format)

	p = NewAudioPreprocessor("", AudioConfig{SampleRate: 16000, Channels: 2, Format: "flac"})
	assert.Equal(t, 16000, p.config.SampleRate)
	assert.Equal(t, 2, p.config.Channels)
	assert.Equal(t, "flac", p.config.Format)
}

func TestVideoPreprocessorDefaults(t *testing.T) {
	p := NewVideoPreprocessor("", VideoConfig{})
	assert.Equal(t, 1, p.config.FPS)
	assert.Equal(t, 336, p.config.Width)
	assert.Equal(t, 336, p.config.Height)
	assert.Zero(t, p.config.MaxFrames, "zero means uncapped")

	def := DefaultVideoConfig()
	assert.Equal(t, 10, def.MaxFrames)
}

func TestLastLine(t *testing.T) {
	stderr := "ffmpeg version 6.0\nStream mapping:\n/out/a.wav: Permission denied\n"
	assert.Equal(t, "/out/a.wav: Permission denied", lastLine(stderr))
	assert.Equal(t, "", lastLine("\n\n  \n"))
}
