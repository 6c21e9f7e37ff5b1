// Package avatar normalises uploaded profile pictures to square JPEGs.
package avatar

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/disintegration/imaging"

	// Decoders for uploads that are not JPEG.
	_ "image/gif"
	_ "image/png"
)

var (
	ErrTooLarge     = errors.New("image exceeds size limit")
	ErrInvalidImage = errors.New("unsupported or corrupt image")
)

const ContentType = "image/jpeg"

type Processor struct {
	Size     int
	Quality  int
	MaxBytes int64
}

func NewProcessor(size, quality int, maxBytes int64) *Processor {
	if size <= 0 {
		size = 256
	}
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	return &Processor{Size: size, Quality: quality, MaxBytes: maxBytes}
}

// Normalize decodes r, honouring EXIF orientation, crops it to a centred
// square of Size pixels and re-encodes it as JPEG.
func (p *Processor) Normalize(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, p.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > p.MaxBytes {
		return nil, ErrTooLarge
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	img = imaging.Fill(img, p.Size, p.Size, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(p.Quality)); err != nil {
		return nil, fmt.Errorf("encode avatar: %w", err)
	}
	return buf.Bytes(), nil
}
