package capture

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
)

// ImageSource serves a single still image as every frame.
type ImageSource struct {
	img image.Image
}

// NewImageSource wraps an already decoded image.
func NewImageSource(img image.Image) *ImageSource {
	return &ImageSource{img: img}
}

// OpenImage decodes a PNG, JPEG or GIF file.
func OpenImage(path string) (*ImageSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("capture: open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("capture: decode %s: %w", path, err)
	}
	return &ImageSource{img: img}, nil
}

// Frame returns the image.
func (s *ImageSource) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.img == nil {
		return nil, ErrSourceNotReady
	}
	return s.img, nil
}

// Close is a no-op.
func (s *ImageSource) Close() error {
	return nil
}

var _ Source = (*ImageSource)(nil)
