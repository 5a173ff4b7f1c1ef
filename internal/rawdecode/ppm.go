package rawdecode

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
)

// decodePPM reads the binary P6 netpbm output dcraw writes to stdout. Only
// 8-bit maxval is handled; dcraw emits that by default.
func decodePPM(data []byte) (image.Image, error) {
	r := bufio.NewReader(bytes.NewReader(data))

	magic, err := readToken(r)
	if err != nil || magic != "P6" {
		return nil, fmt.Errorf("not a P6 ppm stream")
	}

	var width, height, maxval int
	for _, dst := range []*int{&width, &height, &maxval} {
		tok, err := readToken(r)
		if err != nil {
			return nil, fmt.Errorf("truncated ppm header")
		}
		if _, err := fmt.Sscanf(tok, "%d", dst); err != nil {
			return nil, fmt.Errorf("bad ppm header token %q", tok)
		}
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("bad ppm dimensions %dx%d", width, height)
	}
	if maxval != 255 {
		return nil, fmt.Errorf("unsupported ppm maxval %d", maxval)
	}

	pixels := make([]byte, width*height*3)
	if _, err := io.ReadFull(r, pixels); err != nil {
		return nil, fmt.Errorf("truncated ppm pixel data: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < width*height; i++ {
		img.SetRGBA(i%width, i/width, color.RGBA{
			R: pixels[i*3],
			G: pixels[i*3+1],
			B: pixels[i*3+2],
			A: 255,
		})
	}
	return img, nil
}

// readToken skips whitespace and # comments, returning the next header token
func readToken(r *bufio.Reader) (string, error) {
	var tok []byte
	inComment := false
	for {
		b, err := r.ReadByte()
		if err != nil {
			if len(tok) > 0 {
				return string(tok), nil
			}
			return "", err
		}
		switch {
		case inComment:
			if b == '\n' {
				inComment = false
			}
		case b == '#':
			inComment = true
		case b == ' ' || b == '\t' || b == '\n' || b == '\r':
			if len(tok) > 0 {
				return string(tok), nil
			}
		default:
			tok = append(tok, b)
		}
	}
}
