package storage

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"

	"github.com/disintegration/imaging"
)

// Thumbnailer produces JPEG thumbnails fitted into a bounding box.
type Thumbnailer struct {
	MaxWidth  int
	MaxHeight int
	Quality   int
}

func NewThumbnailer(maxWidth, maxHeight int) *Thumbnailer {
	return &Thumbnailer{MaxWidth: maxWidth, MaxHeight: maxHeight, Quality: 80}
}

// Generate decodes the source image and returns a fitted JPEG thumbnail.
func (t *Thumbnailer) Generate(content io.Reader) (io.Reader, error) {
	img, _, err := image.Decode(content)
	if err != nil {
		return nil, fmt.Errorf("decode image failed: %w", err)
	}

	thumb := imaging.Fit(img, t.MaxWidth, t.MaxHeight, imaging.Lanczos)

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, thumb, &jpeg.Options{Quality: t.Quality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail failed: %w", err)
	}
	return buf, nil
}
