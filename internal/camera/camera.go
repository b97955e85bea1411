// Package camera acquires and releases the video capture resource.
package camera

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultTimeout bounds how long Acquire waits for the first frame.
const DefaultTimeout = 5 * time.Second

const readyPollInterval = 50 * time.Millisecond

// ErrorKind classifies a camera failure.
type ErrorKind int

// Camera failure kinds.
const (
	PermissionDenied ErrorKind = iota + 1
	NoDevice
	Busy
	Timeout
	InvalidDimensions
)

func (k ErrorKind) String() string {
	switch k {
	case PermissionDenied:
		return "permission denied"
	case NoDevice:
		return "no device"
	case Busy:
		return "device busy"
	case Timeout:
		return "timeout"
	case InvalidDimensions:
		return "invalid dimensions"
	default:
		return "unknown"
	}
}

// Error is a camera acquisition failure. It is fatal to the current attempt
// and recoverable by retrying.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "camera: " + e.Kind.String()
	}
	return fmt.Sprintf("camera: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same kind.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrPermissionDenied  = &Error{Kind: PermissionDenied}
	ErrNoDevice          = &Error{Kind: NoDevice}
	ErrBusy              = &Error{Kind: Busy}
	ErrTimeout           = &Error{Kind: Timeout}
	ErrInvalidDimensions = &Error{Kind: InvalidDimensions}
)

// Device is a frame source.
type Device interface {
	// Open claims the device. Implementations return *Error for known failures.
	Open() error
	// Dimensions reports the current frame size; zero means not ready yet.
	Dimensions() (width, height int, err error)
	// Frame returns the current encoded frame.
	Frame() ([]byte, error)
	// Close releases the device.
	Close() error
}

// Capture is an acquired device. Release is idempotent.
type Capture struct {
	dev  Device
	once sync.Once
	err  error
	mu   sync.Mutex
	done bool
}

// Acquire opens dev and waits until it reports non-zero dimensions or the
// timeout elapses. A timeout <= 0 uses DefaultTimeout.
func Acquire(ctx context.Context, dev Device, timeout time.Duration) (*Capture, error) {
	if dev == nil {
		return nil, &Error{Kind: NoDevice, Err: errors.New("no capture device configured")}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if err := dev.Open(); err != nil {
		var camErr *Error
		if errors.As(err, &camErr) {
			return nil, camErr
		}
		return nil, &Error{Kind: NoDevice, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()
	for {
		w, h, err := dev.Dimensions()
		if err != nil {
			closeQuietly(dev)
			return nil, &Error{Kind: InvalidDimensions, Err: err}
		}
		if w > 0 && h > 0 {
			return &Capture{dev: dev}, nil
		}
		select {
		case <-ctx.Done():
			closeQuietly(dev)
			return nil, &Error{Kind: Timeout, Err: ctx.Err()}
		case <-ticker.C:
		}
	}
}

// Ready reports whether the capture is producing frames.
func (c *Capture) Ready() bool {
	if c == nil || c.released() {
		return false
	}
	w, h, err := c.dev.Dimensions()
	return err == nil && w > 0 && h > 0
}

// Snapshot returns the current frame.
func (c *Capture) Snapshot() ([]byte, error) {
	if c == nil || c.released() {
		return nil, errors.New("camera released")
	}
	return c.dev.Frame()
}

// Release closes the device exactly once.
func (c *Capture) Release() error {
	if c == nil {
		return nil
	}
	c.once.Do(func() {
		c.mu.Lock()
		c.done = true
		c.mu.Unlock()
		c.err = c.dev.Close()
	})
	return c.err
}

func (c *Capture) released() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

func closeQuietly(dev Device) {
	if cerr := dev.Close(); cerr != nil {
		// Best-effort close after a failed acquire.
		_ = cerr
	}
}
