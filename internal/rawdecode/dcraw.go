package rawdecode

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"

	_ "image/jpeg" // embedded previews are camera JPEGs
)

// DcrawDecoder shells out to the dcraw binary. It satisfies Decoder with a
// file-path-in, bytes-out contract; no stream access is assumed.
type DcrawDecoder struct {
	binary string
}

// NewDcrawDecoder creates a decoder using the given binary name, or "dcraw"
// when empty.
func NewDcrawDecoder(binary string) *DcrawDecoder {
	if binary == "" {
		binary = "dcraw"
	}
	return &DcrawDecoder{binary: binary}
}

// Available reports whether the decoder binary is on PATH
func (d *DcrawDecoder) Available() bool {
	_, err := exec.LookPath(d.binary)
	return err == nil
}

// TryEmbeddedPreview asks dcraw for the camera-embedded thumbnail. A file
// without one is a decline, not an error; an unreadable or corrupt file is an
// error.
func (d *DcrawDecoder) TryEmbeddedPreview(ctx context.Context, path string) (image.Image, bool, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, false, fmt.Errorf("source not readable: %w", err)
	}

	stdout, stderr, err := d.run(ctx, "-c", "-e", path)
	if err != nil {
		if isNoThumbnail(stderr) {
			log.Printf("rawdecode: %s has no embedded preview", path)
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("dcraw thumbnail extraction failed: %s", firstLine(stderr))
	}
	if len(stdout) == 0 {
		return nil, false, nil
	}

	img, _, err := image.Decode(bytes.NewReader(stdout))
	if err != nil {
		// Some cameras embed PPM rather than JPEG previews
		if ppm, perr := decodePPM(stdout); perr == nil {
			return ppm, true, nil
		}
		return nil, false, fmt.Errorf("embedded preview decode failed: %w", err)
	}
	return img, true, nil
}

// DecodeReduced runs a half-size demosaic, roughly 10x faster than a full
// decode and plenty for preview generation.
func (d *DcrawDecoder) DecodeReduced(ctx context.Context, path string) (image.Image, error) {
	stdout, stderr, err := d.run(ctx, "-c", "-h", "-w", path)
	if err != nil {
		return nil, fmt.Errorf("dcraw half-size decode failed: %s", firstLine(stderr))
	}
	return decodePPM(stdout)
}

// DecodeFull runs a maximum-quality decode (AHD interpolation)
func (d *DcrawDecoder) DecodeFull(ctx context.Context, path string) (image.Image, error) {
	stdout, stderr, err := d.run(ctx, "-c", "-w", "-q", "3", path)
	if err != nil {
		return nil, fmt.Errorf("dcraw full decode failed: %s", firstLine(stderr))
	}
	return decodePPM(stdout)
}

// ReadMetadata parses dcraw's identify output into structured metadata
func (d *DcrawDecoder) ReadMetadata(ctx context.Context, path string) (*Metadata, error) {
	stdout, stderr, err := d.run(ctx, "-i", "-v", path)
	if err != nil {
		return nil, fmt.Errorf("dcraw identify failed: %s", firstLine(stderr))
	}
	return parseIdentify(string(stdout)), nil
}

func (d *DcrawDecoder) run(ctx context.Context, args ...string) (stdout, stderr []byte, err error) {
	var outBuf, errBuf bytes.Buffer
	cmd := exec.CommandContext(ctx, d.binary, args...)
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err = cmd.Run()
	return outBuf.Bytes(), errBuf.Bytes(), err
}

func isNoThumbnail(stderr []byte) bool {
	s := strings.ToLower(string(stderr))
	return strings.Contains(s, "no thumbnail") || strings.Contains(s, "has no thumbnail")
}

func firstLine(b []byte) string {
	s := strings.TrimSpace(string(b))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		s = "(no diagnostic output)"
	}
	return s
}

// parseIdentify reads "Key: value" lines from dcraw -i -v output
func parseIdentify(out string) *Metadata {
	meta := &Metadata{Extra: make(map[string]string)}
	for _, line := range strings.Split(out, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		switch key {
		case "Camera":
			make_, model, _ := strings.Cut(value, " ")
			meta.Make = make_
			meta.Model = model
		case "ISO speed":
			meta.ISO, _ = strconv.ParseFloat(value, 64)
		case "Aperture":
			meta.Aperture, _ = strconv.ParseFloat(strings.TrimPrefix(value, "f/"), 64)
		case "Shutter":
			meta.ShutterSpeed = strings.TrimSuffix(value, " sec")
		case "Focal length":
			meta.FocalLength, _ = strconv.ParseFloat(strings.TrimSuffix(value, " mm"), 64)
		case "Image size":
			if w, h, ok := parseDimensions(value); ok {
				meta.Width, meta.Height = w, h
			}
		case "Timestamp":
			meta.Timestamp = value
		case "Orientation":
			meta.Orientation, _ = strconv.Atoi(value)
		default:
			if key != "" && value != "" {
				meta.Extra[key] = value
			}
		}
	}
	return meta
}

func parseDimensions(value string) (int, int, bool) {
	parts := strings.Split(value, "x")
	if len(parts) != 2 {
		return 0, 0, false
	}
	w, errW := strconv.Atoi(strings.TrimSpace(parts[0]))
	h, errH := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errW != nil || errH != nil {
		return 0, 0, false
	}
	return w, h, true
}
