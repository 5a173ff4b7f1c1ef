// Package preview composes the extraction tiers, the resize stage, and the
// encode stage into preview generation for RAW photos. Tiers are tried in
// ascending-cost order and the first usable image wins.
package preview

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log"

	"github.com/disintegration/imaging"
	"github.com/tendant/simple-media-preproc/internal/backend"
	"github.com/tendant/simple-media-preproc/internal/cascade"
	"github.com/tendant/simple-media-preproc/internal/rawdecode"
)

// Tier names one extraction strategy, ordered by relative cost
type Tier string

const (
	TierEmbeddedPreview Tier = "EmbeddedPreview" // camera JPEG, ~15-85ms
	TierFastDecode      Tier = "FastDecode"      // half-size demosaic, ~255ms
	TierFullDecode      Tier = "FullDecode"      // maximum quality, ~2.8s
)

// Options controls preview extraction
type Options struct {
	Quality         int    // encode quality 1-100, default 92
	MaxDimension    int    // longer-side bound, default 2048; 0 disables
	Format          string // "jpg" or "png", default "jpg"
	ForceFullDecode bool   // skip cheaper tiers entirely
}

// DefaultOptions mirrors the camera-preview sweet spot
func DefaultOptions() Options {
	return Options{Quality: 92, MaxDimension: 2048, Format: "jpg"}
}

func (o *Options) normalize() {
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = 92
	}
	if o.MaxDimension < 0 {
		o.MaxDimension = 2048
	}
	if o.Format == "" {
		o.Format = "jpg"
	}
}

// Result is one generated preview
type Result struct {
	Data          []byte
	Format        string
	Width         int
	Height        int
	SourceTier    Tier
	ResizeBackend backend.Backend
	Attempts      []cascade.Attempt
}

// NoUsablePreviewError reports that every tier declined or failed
type NoUsablePreviewError struct {
	Attempts []cascade.Attempt
}

func (e *NoUsablePreviewError) Error() string {
	return fmt.Sprintf("no usable preview: all %d extraction tiers declined or failed", len(e.Attempts))
}

// Pipeline owns the tier fallback policy
type Pipeline struct {
	decoder rawdecode.Decoder
	resizer *backend.Resizer
}

// New creates a preview pipeline over a decoder and a resize stage
func New(decoder rawdecode.Decoder, resizer *backend.Resizer) *Pipeline {
	return &Pipeline{decoder: decoder, resizer: resizer}
}

type tierImage struct {
	img  image.Image
	tier Tier
}

// Extract produces a compressed preview for the RAW file at path. It fails
// only when every tier fails, in which case the error records which tiers
// were attempted and why.
func (p *Pipeline) Extract(ctx context.Context, path string, opts Options) (*Result, error) {
	opts.normalize()

	tiers := p.tiers(ctx, path, opts)
	hit, winner, attempts, err := cascade.Run(tiers)
	if err != nil {
		log.Printf("preview: exhausted all tiers for %s", path)
		return nil, &NoUsablePreviewError{Attempts: attempts}
	}
	log.Printf("preview: %s extracted via %s", path, winner)

	img, resizeBackend := p.resizer.FitWithin(hit.img, opts.MaxDimension)
	bounds := img.Bounds()

	data, err := encode(img, opts.Format, opts.Quality)
	if err != nil {
		return nil, fmt.Errorf("preview encode failed: %w", err)
	}

	return &Result{
		Data:          data,
		Format:        opts.Format,
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		SourceTier:    hit.tier,
		ResizeBackend: resizeBackend,
		Attempts:      attempts,
	}, nil
}

// tiers builds the candidate chain in ascending-cost order. ForceFullDecode
// skips straight to the terminal tier.
func (p *Pipeline) tiers(ctx context.Context, path string, opts Options) []cascade.Candidate[tierImage] {
	full := cascade.Candidate[tierImage]{
		Name: string(TierFullDecode),
		Attempt: func() cascade.Result[tierImage] {
			img, err := p.decoder.DecodeFull(ctx, path)
			if err != nil {
				return cascade.Fail[tierImage](err)
			}
			return cascade.Ok(tierImage{img: img, tier: TierFullDecode})
		},
	}

	if opts.ForceFullDecode {
		return []cascade.Candidate[tierImage]{full}
	}

	embedded := cascade.Candidate[tierImage]{
		Name: string(TierEmbeddedPreview),
		Attempt: func() cascade.Result[tierImage] {
			img, ok, err := p.decoder.TryEmbeddedPreview(ctx, path)
			if err != nil {
				return cascade.Fail[tierImage](err)
			}
			if !ok {
				return cascade.Decline[tierImage]()
			}
			return cascade.Ok(tierImage{img: p.orient(ctx, path, img), tier: TierEmbeddedPreview})
		},
	}

	fast := cascade.Candidate[tierImage]{
		Name: string(TierFastDecode),
		Attempt: func() cascade.Result[tierImage] {
			img, err := p.decoder.DecodeReduced(ctx, path)
			if err != nil {
				return cascade.Fail[tierImage](err)
			}
			return cascade.Ok(tierImage{img: img, tier: TierFastDecode})
		},
	}

	return []cascade.Candidate[tierImage]{embedded, fast, full}
}

// orient applies the camera orientation to an embedded preview. Demosaiced
// output is already oriented by the decoder, so only this tier needs it.
func (p *Pipeline) orient(ctx context.Context, path string, img image.Image) image.Image {
	meta, err := p.decoder.ReadMetadata(ctx, path)
	if err != nil || meta == nil {
		return img
	}
	switch meta.Orientation {
	case 3:
		return imaging.Rotate180(img)
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

func encode(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case "jpg", "jpeg":
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return nil, err
		}
	case "png":
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported preview format: %s", format)
	}
	return buf.Bytes(), nil
}
