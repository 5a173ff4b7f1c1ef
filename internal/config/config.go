// Package config reads service configuration from environment variables,
// with defaults suitable for local development.
package config

import (
	"os"
	"strconv"

	"github.com/tendant/simple-media-preproc/internal/backend"
)

// Config holds everything the daemons need at startup
type Config struct {
	SocketPath  string
	HTTPAddr    string
	MaxWorkers  int
	FfmpegBin   string
	DcrawBin    string
	Disabled    map[backend.Backend]bool
	BatchWorker int
}

// Load reads configuration from the environment
func Load() Config {
	return Config{
		SocketPath:  envString("MEDIA_SOCKET_PATH", "/tmp/media-preproc.sock"),
		HTTPAddr:    envString("MEDIA_HTTP_ADDR", ":8080"),
		MaxWorkers:  envInt("MEDIA_MAX_WORKERS", 8),
		FfmpegBin:   envString("MEDIA_FFMPEG_BIN", "ffmpeg"),
		DcrawBin:    envString("MEDIA_DCRAW_BIN", "dcraw"),
		BatchWorker: envInt("MEDIA_BATCH_WORKERS", 4),
		Disabled: map[backend.Backend]bool{
			backend.CUDA:   envBool("MEDIA_DISABLE_CUDA", false),
			backend.ROCm:   envBool("MEDIA_DISABLE_ROCM", false),
			backend.Vulkan: envBool("MEDIA_DISABLE_VULKAN", false),
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
