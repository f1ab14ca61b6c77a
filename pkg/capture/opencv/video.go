// Package opencv reads frames from video files, cameras and streams with
// OpenCV (gocv). It needs OpenCV installed to build.
package opencv

import (
	"context"
	"fmt"
	"image"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/framelens/pkg/capture"
)

// VideoSource reads frames from an OpenCV video capture.
type VideoSource struct {
	name string
	vc   *gocv.VideoCapture
	mat  gocv.Mat
	mu   sync.Mutex // Protects vc and mat
}

// Open opens a video file, stream URL or camera. A name that is a plain
// non-negative integer selects the camera with that device index.
func Open(name string) (*VideoSource, error) {
	vc, err := gocv.OpenVideoCapture(parseSource(name))
	if err != nil {
		return nil, fmt.Errorf("opencv: open %s: %w", name, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("opencv: open %s: %w", name, capture.ErrSourceNotReady)
	}

	return &VideoSource{
		name: name,
		vc:   vc,
		mat:  gocv.NewMat(),
	}, nil
}

// parseSource maps device indexes to int and leaves everything else as a path or URL.
func parseSource(name string) interface{} {
	if id, err := strconv.Atoi(name); err == nil && id >= 0 {
		return id
	}
	return name
}

// Seek moves playback to pos from the start of the video.
func (v *VideoSource) Seek(pos time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.vc.Set(gocv.VideoCapturePosMsec, float64(pos.Milliseconds()))
}

// Position returns the current playback position.
func (v *VideoSource) Position() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return time.Duration(v.vc.Get(gocv.VideoCapturePosMsec)) * time.Millisecond
}

// Size returns the frame dimensions reported by the backend.
func (v *VideoSource) Size() (width, height int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return int(v.vc.Get(gocv.VideoCaptureFrameWidth)), int(v.vc.Get(gocv.VideoCaptureFrameHeight))
}

// Frame reads the next frame. It returns capture.ErrSourceNotReady when the
// backend has no frame, e.g. at end of file or before a camera warms up.
func (v *VideoSource) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if ok := v.vc.Read(&v.mat); !ok || v.mat.Empty() {
		return nil, capture.ErrSourceNotReady
	}

	img, err := v.mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("opencv: convert frame from %s: %w", v.name, err)
	}
	return img, nil
}

// Close releases the capture device.
func (v *VideoSource) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mat.Close()
	return v.vc.Close()
}

var _ capture.Source = (*VideoSource)(nil)
