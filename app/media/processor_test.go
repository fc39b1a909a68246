package media

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessor_RejectsOversizedBeforeDecoding(t *testing.T) {
	p := NewProcessor(0)

	data := make([]byte, DefaultMaxBytes+1)
	_, err := p.Process(data)

	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Equal(t, "File is too big! Please use an image smaller than 1MB.", err.Error())
	assert.ErrorIs(t, p.CheckSize(DefaultMaxBytes+1), ErrTooLarge)
	assert.NoError(t, p.CheckSize(DefaultMaxBytes))
}

func TestProcessor_RejectsNonImages(t *testing.T) {
	p := NewProcessor(0)

	_, err := p.Process([]byte("%PDF-1.4 not an image"))
	assert.ErrorIs(t, err, ErrNotAnImage)

	_, err = p.Process(nil)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestProcessor_KeepsSmallPNG(t *testing.T) {
	p := NewProcessor(0)

	img, err := p.Process(pngBytes(t, 40, 20))
	require.NoError(t, err)

	assert.Equal(t, "image/png", img.MimeType)
	assert.Equal(t, 40, img.Width)
	assert.Equal(t, 20, img.Height)
	assert.True(t, strings.HasPrefix(img.DataURL, "data:image/png;base64,"))
}

func TestProcessor_FitsLargeImages(t *testing.T) {
	p := NewProcessor(0)
	p.maxWidth, p.maxHeight = 100, 100

	img, err := p.Process(pngBytes(t, 400, 200))
	require.NoError(t, err)

	assert.Equal(t, 100, img.Width)
	assert.Equal(t, 50, img.Height)
}

func TestProcessor_CustomLimit(t *testing.T) {
	p := NewProcessor(64)

	_, err := p.Process(pngBytes(t, 50, 50))
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Equal(t, int64(64), p.MaxBytes())
}
