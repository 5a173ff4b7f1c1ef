// Package handlers registers the media operations with the router, binding
// payload schemas to the preview pipeline, decoder, metadata extractor, and
// transcoder collaborators.
package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/tendant/simple-media-preproc/internal/backend"
	"github.com/tendant/simple-media-preproc/internal/mediameta"
	"github.com/tendant/simple-media-preproc/internal/preview"
	"github.com/tendant/simple-media-preproc/internal/rawdecode"
	"github.com/tendant/simple-media-preproc/internal/router"
	"github.com/tendant/simple-media-preproc/internal/transcode"
	"github.com/tendant/simple-media-preproc/pkg/mediaproc"
)

// Deps carries the collaborators the handlers dispatch into
type Deps struct {
	Pipeline     *preview.Pipeline
	Decoder      rawdecode.Decoder
	Meta         *mediameta.Extractor
	Resizer      *backend.Resizer
	Ffmpeg       string // ffmpeg binary name, empty for default
	BatchWorkers int    // parallelism for batch preview extraction
}

// RegisterAll registers every media operation. Duplicate names surface as
// errors here, at startup.
func RegisterAll(r *router.Router, deps Deps) error {
	regs := []router.Registration{
		rawPreviewRegistration(deps),
		rawPreviewBatchRegistration(deps),
		rawMetadataRegistration(deps),
		mediaMetadataRegistration(deps),
		imagePreprocessRegistration(deps),
		audioPreprocessRegistration(deps),
		videoExtractFramesRegistration(deps),
	}
	for _, reg := range regs {
		if err := r.Register(reg); err != nil {
			return err
		}
	}
	return nil
}

type rawPreviewInput struct {
	InputPath       string `json:"input_path"`
	Quality         int    `json:"quality"`
	MaxDimension    int    `json:"max_dimension"`
	Format          string `json:"format"`
	ForceFullDecode bool   `json:"force_full_decode"`
}

func rawPreviewRegistration(deps Deps) router.Registration {
	return router.Registration{
		Name:            mediaproc.OpRawPreview,
		Description:     "Extract a compressed preview from a RAW photo, preferring the camera-embedded preview over demosaicing",
		Tags:            []string{"raw", "preview", "image"},
		Examples:        []string{"Generate a 2048px JPEG preview from photo.CR2 for culling or ML input"},
		Idempotent:      true,
		SideEffects:     []string{"reads source file", "invokes raw decoder"},
		LatencyTargetMs: 300,
		InputSchema:     rawPreviewSchema(),
		Handler: func(ctx context.Context, input json.RawMessage, _ map[string]string) (any, error) {
			var in rawPreviewInput
			if err := json.Unmarshal(input, &in); err != nil {
				return nil, router.NewError(mediaproc.KindValidationError, err.Error())
			}

			opts := preview.DefaultOptions()
			if in.Quality > 0 {
				opts.Quality = in.Quality
			}
			if in.MaxDimension > 0 {
				opts.MaxDimension = in.MaxDimension
			}
			if in.Format != "" {
				opts.Format = in.Format
			}
			opts.ForceFullDecode = in.ForceFullDecode

			res, err := deps.Pipeline.Extract(ctx, in.InputPath, opts)
			if err != nil {
				var exhausted *preview.NoUsablePreviewError
				if errors.As(err, &exhausted) {
					herr := router.NewError(mediaproc.KindNoUsablePreview, exhausted.Error())
					for _, a := range exhausted.Attempts {
						switch {
						case a.Declined:
							herr = herr.WithDetail(a.Name, "declined")
						case a.Error != "":
							herr = herr.WithDetail(a.Name, a.Error)
						}
					}
					return nil, herr
				}
				return nil, router.ExternalToolError("raw-decoder", err)
			}

			return router.CostedOutput{
				Output: map[string]any{
					"preview_base64": base64.StdEncoding.EncodeToString(res.Data),
					"format":         res.Format,
					"width":          res.Width,
					"height":         res.Height,
					"source_tier":    string(res.SourceTier),
					"resize_backend": string(res.ResizeBackend),
					"size_bytes":     len(res.Data),
				},
				Cost: tierCost(res.SourceTier),
			}, nil
		},
	}
}

type rawPreviewBatchInput struct {
	InputPaths      []string `json:"input_paths"`
	Quality         int      `json:"quality"`
	MaxDimension    int      `json:"max_dimension"`
	Format          string   `json:"format"`
	ForceFullDecode bool     `json:"force_full_decode"`
}

func rawPreviewBatchRegistration(deps Deps) router.Registration {
	return router.Registration{
		Name:        mediaproc.OpRawPreviewBatch,
		Description: "Extract previews from many RAW photos with bounded parallelism; a failing file does not abort the batch",
		Tags:        []string{"raw", "preview", "image", "batch"},
		Examples:    []string{"Generate previews for a memory card import of 500 RAW files"},
		Idempotent:  true,
		SideEffects: []string{"reads source files", "invokes raw decoder"},
		InputSchema: rawPreviewBatchSchema(),
		Handler: func(ctx context.Context, input json.RawMessage, _ map[string]string) (any, error) {
			var in rawPreviewBatchInput
			if err := json.Unmarshal(input, &in); err != nil {
				return nil, router.NewError(mediaproc.KindValidationError, err.Error())
			}
			if len(in.InputPaths) == 0 {
				return nil, router.NewError(mediaproc.KindValidationError, "input_paths is empty").WithDetail("field", "input_paths")
			}

			opts := preview.DefaultOptions()
			if in.Quality > 0 {
				opts.Quality = in.Quality
			}
			if in.MaxDimension > 0 {
				opts.MaxDimension = in.MaxDimension
			}
			if in.Format != "" {
				opts.Format = in.Format
			}
			opts.ForceFullDecode = in.ForceFullDecode

			results := deps.Pipeline.ExtractBatch(ctx, in.InputPaths, opts, deps.BatchWorkers)

			entries := make([]map[string]any, 0, len(results))
			succeeded := 0
			for _, br := range results {
				entry := map[string]any{"input_path": br.Path}
				if br.Err != nil {
					entry["ok"] = false
					entry["error"] = br.Err.Error()
				} else {
					succeeded++
					entry["ok"] = true
					entry["preview_base64"] = base64.StdEncoding.EncodeToString(br.Result.Data)
					entry["format"] = br.Result.Format
					entry["width"] = br.Result.Width
					entry["height"] = br.Result.Height
					entry["source_tier"] = string(br.Result.SourceTier)
					entry["size_bytes"] = len(br.Result.Data)
				}
				entries = append(entries, entry)
			}

			return map[string]any{
				"total":     len(results),
				"succeeded": succeeded,
				"failed":    len(results) - succeeded,
				"results":   entries,
			}, nil
		},
	}
}

// tierCost reflects the relative expense of the tier that produced the result
func tierCost(tier preview.Tier) float64 {
	switch tier {
	case preview.TierEmbeddedPreview:
		return 1
	case preview.TierFastDecode:
		return 2
	default:
		return 3
	}
}

type pathInput struct {
	InputPath string `json:"input_path"`
}

func rawMetadataRegistration(deps Deps) router.Registration {
	return router.Registration{
		Name:        mediaproc.OpRawMetadata,
		Description: "Extract camera metadata from a RAW file",
		Tags:        []string{"raw", "metadata", "exif"},
		Idempotent:  true,
		SideEffects: []string{"reads source file", "invokes raw decoder"},
		InputSchema: pathSchema(),
		Handler: func(ctx context.Context, input json.RawMessage, _ map[string]string) (any, error) {
			var in pathInput
			if err := json.Unmarshal(input, &in); err != nil {
				return nil, router.NewError(mediaproc.KindValidationError, err.Error())
			}
			meta, err := deps.Decoder.ReadMetadata(ctx, in.InputPath)
			if err != nil {
				return nil, router.ExternalToolError("raw-decoder", err)
			}
			return meta, nil
		},
	}
}

func mediaMetadataRegistration(deps Deps) router.Registration {
	return router.Registration{
		Name:        mediaproc.OpMediaMetadata,
		Description: "Extract metadata from any media file via exiftool, ffprobe, or type sniffing",
		Tags:        []string{"metadata", "exif", "probe"},
		Idempotent:  true,
		SideEffects: []string{"reads source file", "may invoke exiftool or ffprobe"},
		InputSchema: pathSchema(),
		Handler: func(ctx context.Context, input json.RawMessage, _ map[string]string) (any, error) {
			var in pathInput
			if err := json.Unmarshal(input, &in); err != nil {
				return nil, router.NewError(mediaproc.KindValidationError, err.Error())
			}
			info, err := deps.Meta.Extract(ctx, in.InputPath)
			if err != nil {
				return nil, router.ExternalToolError("metadata", err)
			}
			return info, nil
		},
	}
}

type imagePreprocessInput struct {
	InputPath  string `json:"input_path"`
	OutputPath string `json:"output_path"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Quality    int    `json:"quality"`
	Format     string `json:"format"`
}

func imagePreprocessRegistration(deps Deps) router.Registration {
	return router.Registration{
		Name:        mediaproc.OpImagePreprocess,
		Description: "Resize and convert an image for vision-model input",
		Tags:        []string{"image", "resize", "conversion"},
		Examples:    []string{"Resize image to 336x336 for a CLIP vision encoder"},
		Idempotent:  true,
		SideEffects: []string{"reads source file", "writes image file"},
		InputSchema: imagePreprocessSchema(),
		Handler: func(ctx context.Context, input json.RawMessage, _ map[string]string) (any, error) {
			var in imagePreprocessInput
			if err := json.Unmarshal(input, &in); err != nil {
				return nil, router.NewError(mediaproc.KindValidationError, err.Error())
			}
			if in.Width <= 0 {
				in.Width = 336
			}
			if in.Height <= 0 {
				in.Height = 336
			}
			if in.Quality <= 0 {
				in.Quality = 90
			}
			if in.Format == "" {
				in.Format = "jpg"
			}

			img, err := imaging.Open(in.InputPath)
			if err != nil {
				return nil, router.ExternalToolError("image-codec", err)
			}

			resized, usedBackend := deps.Resizer.Resize(img, in.Width, in.Height)

			if err := os.MkdirAll(filepath.Dir(in.OutputPath), 0o755); err != nil {
				return nil, router.NewError(mediaproc.KindInternalError, err.Error())
			}
			if err := saveImage(resized, in.OutputPath, in.Format, in.Quality); err != nil {
				return nil, router.ExternalToolError("image-codec", err)
			}

			return map[string]any{
				"processed":      true,
				"output_path":    in.OutputPath,
				"width":          in.Width,
				"height":         in.Height,
				"format":         in.Format,
				"quality":        in.Quality,
				"resize_backend": string(usedBackend),
			}, nil
		},
	}
}

// saveImage encodes by the requested format, not the path extension
func saveImage(img image.Image, path, format string, quality int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	switch format {
	case "jpg", "jpeg":
		return imaging.Encode(f, img, imaging.JPEG, imaging.JPEGQuality(quality))
	case "png":
		return imaging.Encode(f, img, imaging.PNG)
	case "gif":
		return imaging.Encode(f, img, imaging.GIF)
	case "tif", "tiff":
		return imaging.Encode(f, img, imaging.TIFF)
	case "bmp":
		return imaging.Encode(f, img, imaging.BMP)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

type audioPreprocessInput struct {
	InputPath  string `json:"input_path"`
	OutputPath string `json:"output_path"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

func audioPreprocessRegistration(deps Deps) router.Registration {
	return router.Registration{
		Name:        mediaproc.OpAudioPreprocess,
		Description: "Convert audio to a target format, sample rate, and channel layout via ffmpeg",
		Tags:        []string{"audio", "preprocessing", "conversion"},
		Examples:    []string{"Convert MP3 to 48kHz mono WAV for audio embedding"},
		Idempotent:  true,
		SideEffects: []string{"writes audio file", "invokes ffmpeg"},
		InputSchema: audioPreprocessSchema(),
		Handler: func(ctx context.Context, input json.RawMessage, _ map[string]string) (any, error) {
			var in audioPreprocessInput
			if err := json.Unmarshal(input, &in); err != nil {
				return nil, router.NewError(mediaproc.KindValidationError, err.Error())
			}

			cfg := transcode.DefaultAudioConfig()
			if in.SampleRate > 0 {
				cfg.SampleRate = in.SampleRate
			}
			if in.Channels > 0 {
				cfg.Channels = in.Channels
			}

			proc := transcode.NewAudioPreprocessor(deps.Ffmpeg, cfg)
			if err := proc.Preprocess(ctx, in.InputPath, in.OutputPath); err != nil {
				return nil, router.ExternalToolError("ffmpeg", err)
			}

			return map[string]any{
				"processed":   true,
				"output_path": in.OutputPath,
				"sample_rate": cfg.SampleRate,
				"channels":    cfg.Channels,
			}, nil
		},
	}
}

type videoExtractFramesInput struct {
	VideoPath string `json:"video_path"`
	OutputDir string `json:"output_dir"`
	FPS       int    `json:"fps"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	MaxFrames int    `json:"max_frames"`
}

func videoExtractFramesRegistration(deps Deps) router.Registration {
	return router.Registration{
		Name:        mediaproc.OpVideoExtractFrames,
		Description: "Extract frames from a video at a fixed rate and resolution via ffmpeg",
		Tags:        []string{"video", "frames", "extraction"},
		Examples:    []string{"Extract 1 FPS frames at 336x336 for a vision model"},
		Idempotent:  true,
		SideEffects: []string{"writes image files", "invokes ffmpeg"},
		InputSchema: videoExtractFramesSchema(),
		Handler: func(ctx context.Context, input json.RawMessage, _ map[string]string) (any, error) {
			var in videoExtractFramesInput
			if err := json.Unmarshal(input, &in); err != nil {
				return nil, router.NewError(mediaproc.KindValidationError, err.Error())
			}

			cfg := transcode.DefaultVideoConfig()
			if in.FPS > 0 {
				cfg.FPS = in.FPS
			}
			if in.Width > 0 {
				cfg.Width = in.Width
			}
			if in.Height > 0 {
				cfg.Height = in.Height
			}
			if in.MaxFrames > 0 {
				cfg.MaxFrames = in.MaxFrames
			}

			proc := transcode.NewVideoPreprocessor(deps.Ffmpeg, cfg)
			frames, err := proc.ExtractFrames(ctx, in.VideoPath, in.OutputDir)
			if err != nil {
				return nil, router.ExternalToolError("ffmpeg", err)
			}

			return map[string]any{
				"extracted":   true,
				"frame_count": len(frames),
				"frames":      frames,
			}, nil
		},
	}
}
