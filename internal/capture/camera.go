// Package capture provides frame sources backed by GoCV (OpenCV) and the
// bounded frame queue that feeds the landmark worker.
package capture

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"gocv.io/x/gocv"
)

// Default capture resolution requested from local devices.
const (
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrDeviceUnavailable is returned when a source cannot be opened.
	ErrDeviceUnavailable = errors.New("capture device unavailable")
	// ErrEndOfStream is returned when a source stops yielding frames.
	ErrEndOfStream = errors.New("end of stream")
	// ErrCameraNotOpen is returned when reading from a closed camera.
	ErrCameraNotOpen = errors.New("camera is not open")
)

// Camera defines the interface for frame sources.
type Camera interface {
	// ReadFrame reads the next frame. The caller owns the returned Mat and
	// must close it.
	ReadFrame() (*gocv.Mat, error)
	// Close releases the underlying device. It is safe to call more than once.
	Close() error
	IsOpen() bool
	Source() string
}

// cameraImpl reads frames from a local device or a network stream using GoCV.
type cameraImpl struct {
	source  string
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
}

// OpenCamera opens source and returns a ready Camera.
// A source that parses as an integer is treated as a local device index;
// anything else (file path, rtsp:// or http:// URL) is passed to OpenCV as is.
// It fails synchronously so callers can abort before spawning any goroutine.
func OpenCamera(source string) (Camera, error) {
	var device interface{} = source
	if id, err := strconv.Atoi(source); err == nil {
		device = id
	}

	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDeviceUnavailable, source, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: %s", ErrDeviceUnavailable, source)
	}

	if _, isDevice := device.(int); isDevice {
		vc.Set(gocv.VideoCaptureFrameWidth, DefaultWidth)
		vc.Set(gocv.VideoCaptureFrameHeight, DefaultHeight)
	}

	return &cameraImpl{
		source:  source,
		capture: vc,
		running: true,
	}, nil
}

// ReadFrame blocks until the device yields a frame.
// A failed or empty read is reported as ErrEndOfStream.
func (c *cameraImpl) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, ErrEndOfStream
	}

	return &mat, nil
}

// Close closes the camera and releases resources.
func (c *cameraImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// IsOpen returns true until Close is called.
func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}

// Source returns the identifier the camera was opened with.
func (c *cameraImpl) Source() string {
	return c.source
}
