package rawdecode

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePPM(t *testing.T) {
	t.Run("2x2 pixels", func(t *testing.T) {
		data := []byte("P6\n2 2\n255\n")
		data = append(data,
			255, 0, 0, 0, 255, 0,
			0, 0, 255, 255, 255, 255,
		)

		img, err := decodePPM(data)
		require.NoError(t, err)
		assert.Equal(t, 2, img.Bounds().Dx())
		assert.Equal(t, 2, img.Bounds().Dy())

		r, g, b, a := img.At(0, 0).RGBA()
		assert.Equal(t, color.RGBA{255, 0, 0, 255}, color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)})
		r, g, b, _ = img.At(1, 1).RGBA()
		assert.Equal(t, uint8(255), uint8(r>>8))
		assert.Equal(t, uint8(255), uint8(g>>8))
		assert.Equal(t, uint8(255), uint8(b>>8))
	})

	t.Run("header comments skipped", func(t *testing.T) {
		data := []byte("P6\n# written by dcraw\n1 1\n255\n")
		data = append(data, 10, 20, 30)

		img, err := decodePPM(data)
		require.NoError(t, err)
		assert.Equal(t, 1, img.Bounds().Dx())
	})

	t.Run("rejects wrong magic", func(t *testing.T) {
		_, err := decodePPM([]byte("P5\n1 1\n255\n\x00"))
		require.Error(t, err)
	})

	t.Run("rejects 16-bit maxval", func(t *testing.T) {
		_, err := decodePPM([]byte("P6\n1 1\n65535\n\x00\x00\x00\x00\x00\x00"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "maxval")
	})

	t.Run("rejects truncated pixels", func(t *testing.T) {
		_, err := decodePPM([]byte("P6\n4 4\n255\nshort"))
		require.Error(t, err)
	})
}

func TestParseIdentify(t *testing.T) {
	out := `
Filename: /photos/IMG_1234.CR2
Timestamp: Thu Apr 11 10:23:11 2019
Camera: Canon EOS 5D Mark IV
ISO speed: 400
Shutter: 1/250.0 sec
Aperture: f/2.8
Focal length: 50.0 mm
Embedded ICC profile: no
Number of raw images: 1
Thumb size:  5760 x 3840
Full size:   6880 x 4544
Image size:  6720 x 4480
Output size: 6720 x 4480
`
	meta := parseIdentify(out)
	assert.Equal(t, "Canon", meta.Make)
	assert.Equal(t, "EOS 5D Mark IV", meta.Model)
	assert.Equal(t, 400.0, meta.ISO)
	assert.Equal(t, 2.8, meta.Aperture)
	assert.Equal(t, "1/250.0", meta.ShutterSpeed)
	assert.Equal(t, 50.0, meta.FocalLength)
	assert.Equal(t, 6720, meta.Width)
	assert.Equal(t, 4480, meta.Height)
	assert.Equal(t, "Thu Apr 11 10:23:11 2019", meta.Timestamp)
	assert.Equal(t, "no", meta.Extra["Embedded ICC profile"])
}

func TestParseIdentifyPartialOutput(t *testing.T) {
	meta := parseIdentify("Camera: Nikon D850\nGarbage line without separator\n")
	assert.Equal(t, "Nikon", meta.Make)
	assert.Equal(t, "D850", meta.Model)
	assert.Zero(t, meta.ISO)
	assert.Zero(t, meta.Width)
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "boom", firstLine([]byte("boom\nmore context\n")))
	assert.Equal(t, "(no diagnostic output)", firstLine(nil))
	assert.Equal(t, "trimmed", firstLine([]byte("  trimmed  \n")))
}

func TestIsNoThumbnail(t *testing.T) {
	assert.True(t, isNoThumbnail([]byte("/photos/a.cr2: Has no thumbnail.\n")))
	assert.False(t, isNoThumbnail([]byte("/photos/a.cr2: Cannot decode file\n")))
}
