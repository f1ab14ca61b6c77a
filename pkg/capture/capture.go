// Package capture grabs a still frame from a media source and encodes it
// as a data URI ready to send to the proxy.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/teslashibe/framelens/pkg/inference"
)

// ErrSourceNotReady is returned when the source has no frame to give yet,
// e.g. a video that has not loaded or a zero-sized image.
var ErrSourceNotReady = errors.New("capture: source not ready")

// Source produces still frames.
type Source interface {
	// Frame returns the current frame.
	Frame(ctx context.Context) (image.Image, error)

	// Close releases the source.
	Close() error
}

// Frame is one encoded capture.
type Frame struct {
	DataURI  string
	MIMEType string
	Width    int
	Height   int

	// Data holds the encoded image bytes.
	Data []byte
}

// Format selects the capture encoding.
type Format int

const (
	PNG Format = iota
	JPEG
)

// MIMEType returns the MIME type of the format.
func (f Format) MIMEType() string {
	if f == JPEG {
		return "image/jpeg"
	}
	return "image/png"
}

type options struct {
	format  Format
	quality int
}

// Option configures Capture.
type Option func(*options)

// WithJPEG encodes frames as JPEG at the given quality (1-100).
func WithJPEG(quality int) Option {
	return func(o *options) {
		o.format = JPEG
		o.quality = quality
	}
}

// Capture grabs the current frame from src and encodes it, as PNG unless
// configured otherwise. A frame with zero width or height yields
// ErrSourceNotReady.
func Capture(ctx context.Context, src Source, opts ...Option) (Frame, error) {
	o := options{format: PNG, quality: jpeg.DefaultQuality}
	for _, opt := range opts {
		opt(&o)
	}

	img, err := src.Frame(ctx)
	if err != nil {
		if errors.Is(err, ErrSourceNotReady) {
			return Frame{}, err
		}
		return Frame{}, fmt.Errorf("capture: read frame: %w", err)
	}
	if img == nil {
		return Frame{}, ErrSourceNotReady
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return Frame{}, ErrSourceNotReady
	}

	data, err := Encode(img, o.format, o.quality)
	if err != nil {
		return Frame{}, err
	}

	return Frame{
		DataURI:  inference.DataURI(o.format.MIMEType(), data),
		MIMEType: o.format.MIMEType(),
		Width:    b.Dx(),
		Height:   b.Dy(),
		Data:     data,
	}, nil
}

// Encode encodes img in the given format. quality applies to JPEG only.
func Encode(img image.Image, format Format, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case JPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	default:
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return nil, fmt.Errorf("capture: encode %s: %w", format.MIMEType(), err)
	}
	return buf.Bytes(), nil
}
