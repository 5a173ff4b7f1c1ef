package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tendant/simple-media-preproc/internal/backend"
	"github.com/tendant/simple-media-preproc/internal/card"
	"github.com/tendant/simple-media-preproc/internal/config"
	"github.com/tendant/simple-media-preproc/internal/handlers"
	"github.com/tendant/simple-media-preproc/internal/mediameta"
	"github.com/tendant/simple-media-preproc/internal/metrics"
	"github.com/tendant/simple-media-preproc/internal/preview"
	"github.com/tendant/simple-media-preproc/internal/rawdecode"
	"github.com/tendant/simple-media-preproc/internal/router"
	"github.com/tendant/simple-media-preproc/internal/server"
)

const version = "0.3.0"

// Media preprocessing daemon serving length-prefixed JSON requests over a
// Unix domain socket.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()

	socketPath := flag.String("socket-path", cfg.SocketPath, "Unix socket path for the daemon")
	disableCUDA := flag.Bool("disable-cuda", cfg.Disabled[backend.CUDA], "Skip the CUDA backend candidate")
	disableROCm := flag.Bool("disable-rocm", cfg.Disabled[backend.ROCm], "Skip the ROCm backend candidate")
	disableVulkan := flag.Bool("disable-vulkan", cfg.Disabled[backend.Vulkan], "Skip the Vulkan backend candidate")
	maxWorkers := flag.Int("max-workers", cfg.MaxWorkers, "Maximum concurrent handler executions")
	flag.Parse()

	log.Printf("Media Preprocessing Daemon v%s", version)
	log.Printf("  Socket: %s", *socketPath)
	log.Printf("  Workers: %d", *maxWorkers)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	disabled := map[backend.Backend]bool{
		backend.CUDA:   *disableCUDA,
		backend.ROCm:   *disableROCm,
		backend.Vulkan: *disableVulkan,
	}
	selector := backend.NewSelector(backend.DefaultCandidates(disabled))
	resizer := backend.NewResizer(selector)
	log.Printf("✓ Acceleration backend: %s", selector.Select())

	decoder := rawdecode.NewDcrawDecoder(cfg.DcrawBin)
	if !decoder.Available() {
		log.Printf("⚠ RAW decoder binary %q not found; raw.* operations will report tool failures", cfg.DcrawBin)
	}

	collector := metrics.New(prometheus.DefaultRegisterer)
	r := router.New(collector)

	deps := handlers.Deps{
		Pipeline:     preview.New(decoder, resizer),
		Decoder:      decoder,
		Meta:         mediameta.New(),
		Resizer:      resizer,
		Ffmpeg:       cfg.FfmpegBin,
		BatchWorkers: cfg.BatchWorker,
	}
	if err := handlers.RegisterAll(r, deps); err != nil {
		log.Fatalf("Operation registration failed: %v", err)
	}

	builder := card.NewBuilder(
		"simple-media-preproc",
		version,
		"Media preprocessing service: RAW previews, metadata extraction, and audio/video/image transforms",
		[]string{"media", "preprocessing", "raw", "audio", "video", "image"},
		r,
		selector,
	)
	if err := handlers.RegisterIntrospection(r, builder, collector); err != nil {
		log.Fatalf("Operation registration failed: %v", err)
	}

	for _, op := range r.Operations() {
		log.Printf("✓ Registered operation: %s", op)
	}

	srv := server.NewUDSServer(*socketPath, r, version, *maxWorkers)
	if err := srv.Serve(ctx); err != nil {
		log.Fatalf("Server failed: %v", err)
	}

	log.Println("Daemon shut down gracefully.")
}
