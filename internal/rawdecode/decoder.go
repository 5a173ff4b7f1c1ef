// Package rawdecode wraps the external RAW decoder binary behind a narrow
// interface. The decoder owns demosaicing and pixel-level work; this package
// only shells out and turns the output into image.Image values.
package rawdecode

import (
	"context"
	"image"
)

// Decoder is the contract the preview pipeline depends on
type Decoder interface {
	// TryEmbeddedPreview returns the camera-embedded preview if the file has
	// one. ok=false with a nil error means the file simply carries no
	// embedded preview, which is a normal outcome, not a failure.
	TryEmbeddedPreview(ctx context.Context, path string) (img image.Image, ok bool, err error)

	// DecodeReduced produces a reduced-resolution decode (half-size demosaic)
	DecodeReduced(ctx context.Context, path string) (image.Image, error)

	// DecodeFull produces a maximum-quality full decode
	DecodeFull(ctx context.Context, path string) (image.Image, error)

	// ReadMetadata extracts camera metadata from the RAW file
	ReadMetadata(ctx context.Context, path string) (*Metadata, error)
}

// Metadata holds camera settings extracted from a RAW file
type Metadata struct {
	Make         string            `json:"make"`
	Model        string            `json:"model"`
	ISO          float64           `json:"iso,omitempty"`
	Aperture     float64           `json:"aperture,omitempty"`
	ShutterSpeed string            `json:"shutter_speed,omitempty"`
	FocalLength  float64           `json:"focal_length,omitempty"`
	Width        int               `json:"width"`
	Height       int               `json:"height"`
	Timestamp    string            `json:"timestamp,omitempty"`
	Orientation  int               `json:"orientation,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
}
