package avatar

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalizeProducesSquareJPEG(t *testing.T) {
	p := NewProcessor(64, 80, 1<<20)

	out, err := p.Normalize(bytes.NewReader(pngBytes(t, 200, 100)))
	require.NoError(t, err)

	img, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 64, img.Bounds().Dy())

	_, err = imaging.Decode(bytes.NewReader(out))
	assert.NoError(t, err)
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	p := NewProcessor(64, 80, 1<<20)
	_, err := p.Normalize(strings.NewReader("not an image"))
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestNormalizeEnforcesSizeLimit(t *testing.T) {
	data := pngBytes(t, 50, 50)
	p := NewProcessor(32, 80, int64(len(data)-1))
	_, err := p.Normalize(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrTooLarge)
}
