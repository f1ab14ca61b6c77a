package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Request errors.
var (
	// ErrNoImage is returned when a request carries no image.
	ErrNoImage = errors.New("analysis: no image provided")

	// ErrInvalidImage is returned when the image is present but cannot be decoded.
	ErrInvalidImage = errors.New("analysis: invalid image")
)

// Request is a single analysis request.
type Request struct {
	// Image is base64 image data, optionally prefixed with a data URI header.
	Image string `json:"image"`

	// MIMEType optionally declares the image encoding.
	MIMEType string `json:"mimeType,omitempty"`
}

// ParseRequest decodes a JSON request body.
//
// A body that is not a JSON object, or whose image field is missing or
// falsy, yields ErrNoImage. An image that is present but not a string
// yields ErrInvalidImage.
func ParseRequest(body []byte) (Request, error) {
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return Request{}, ErrNoImage
	}

	image := fields["image"]
	if !truthy(image) {
		return Request{}, ErrNoImage
	}
	s, ok := image.(string)
	if !ok {
		return Request{}, fmt.Errorf("%w: image is a %T, want base64 string", ErrInvalidImage, image)
	}

	req := Request{Image: s}
	if m, ok := fields["mimeType"].(string); ok {
		req.MIMEType = m
	}
	return req, nil
}
