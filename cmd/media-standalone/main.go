package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
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

// Standalone HTTP server for quick local testing. Same operation surface as
// the daemon, plus Prometheus metrics on /metrics.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()

	log.Printf("Media Preprocessing Standalone v%s", version)
	log.Printf("  HTTP address: %s", cfg.HTTPAddr)

	selector := backend.NewSelector(backend.DefaultCandidates(cfg.Disabled))
	resizer := backend.NewResizer(selector)
	decoder := rawdecode.NewDcrawDecoder(cfg.DcrawBin)

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

	handler := server.NewHTTPHandler(r, version)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", handler.HandleHealth)
	mux.HandleFunc("/v1/invoke", handler.HandleInvoke)
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	go func() {
		log.Printf("✓ Standalone server ready on %s", cfg.HTTPAddr)
		log.Printf("")
		log.Printf("Available endpoints:")
		log.Printf("  GET  /health     - Health check")
		log.Printf("  POST /v1/invoke  - Invoke an operation")
		log.Printf("  GET  /metrics    - Prometheus metrics")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
