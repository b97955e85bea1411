package camera

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // JPEG frame decoding.
	_ "image/png"  // PNG frame decoding.
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// DirDevice replays still frames from a directory, advancing one frame per
// snapshot and wrapping around. It stands in for a webcam on machines where
// frames are produced by another program (a capture daemon writing JPEGs, or
// a recorded practice session).
type DirDevice struct {
	dir string

	mu     sync.Mutex
	open   bool
	frames []string
	next   int
}

// NewDirDevice returns a device reading *.jpg, *.jpeg and *.png from dir.
func NewDirDevice(dir string) *DirDevice {
	return &DirDevice{dir: dir}
}

// Open implements Device.
func (d *DirDevice) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.open {
		return &Error{Kind: Busy, Err: fmt.Errorf("%s is already open", d.dir)}
	}
	if d.dir == "" {
		return &Error{Kind: NoDevice, Err: errors.New("camera directory is not configured")}
	}
	if _, err := os.Stat(d.dir); err != nil {
		return classifyFSError(err)
	}
	d.open = true
	d.next = 0
	return nil
}

// Dimensions implements Device. It rescans the directory so frames written
// after Open are picked up.
func (d *DirDevice) Dimensions() (int, int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return 0, 0, nil
	}
	if err := d.scan(); err != nil {
		return 0, 0, err
	}
	if len(d.frames) == 0 {
		return 0, 0, nil
	}
	data, err := os.ReadFile(d.frames[d.next%len(d.frames)])
	if err != nil {
		return 0, 0, err
	}
	if len(data) == 0 {
		return 0, 0, nil
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode frame: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// Frame implements Device.
func (d *DirDevice) Frame() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return nil, errors.New("device is not open")
	}
	if len(d.frames) == 0 {
		if err := d.scan(); err != nil {
			return nil, err
		}
		if len(d.frames) == 0 {
			return nil, nil
		}
	}
	path := d.frames[d.next%len(d.frames)]
	d.next = (d.next + 1) % len(d.frames)
	return os.ReadFile(path)
}

// Close implements Device.
func (d *DirDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = false
	d.frames = nil
	return nil
}

func (d *DirDevice) scan() error {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return classifyFSError(err)
	}
	frames := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg", ".png":
			frames = append(frames, filepath.Join(d.dir, entry.Name()))
		}
	}
	sort.Strings(frames)
	d.frames = frames
	if d.next >= len(frames) {
		d.next = 0
	}
	return nil
}

func classifyFSError(err error) error {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return &Error{Kind: PermissionDenied, Err: err}
	case errors.Is(err, fs.ErrNotExist):
		return &Error{Kind: NoDevice, Err: err}
	default:
		return &Error{Kind: NoDevice, Err: err}
	}
}
