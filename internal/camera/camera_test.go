package camera

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type fakeDevice struct {
	readyAfter int
	polls      int
	closes     int
	openErr    error
}

func (f *fakeDevice) Open() error { return f.openErr }

func (f *fakeDevice) Dimensions() (int, int, error) {
	f.polls++
	if f.polls > f.readyAfter {
		return 640, 480, nil
	}
	return 0, 0, nil
}

func (f *fakeDevice) Frame() ([]byte, error) { return []byte("frame"), nil }

func (f *fakeDevice) Close() error {
	f.closes++
	return nil
}

func TestAcquireWaitsForDimensions(t *testing.T) {
	dev := &fakeDevice{readyAfter: 2}
	capture, err := Acquire(context.Background(), dev, time.Second)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !capture.Ready() {
		t.Fatalf("expected capture to be ready")
	}
	if dev.polls < 3 {
		t.Fatalf("expected at least 3 polls, got %d", dev.polls)
	}
}

func TestAcquireTimeout(t *testing.T) {
	dev := &fakeDevice{readyAfter: 1 << 30}
	_, err := Acquire(context.Background(), dev, 120*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if dev.closes != 1 {
		t.Fatalf("expected device closed once after timeout, got %d", dev.closes)
	}
}

func TestAcquireWrapsOpenFailure(t *testing.T) {
	dev := &fakeDevice{openErr: &Error{Kind: PermissionDenied}}
	_, err := Acquire(context.Background(), dev, time.Second)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected permission error, got %v", err)
	}
	_, err = Acquire(context.Background(), nil, time.Second)
	if !errors.Is(err, ErrNoDevice) {
		t.Fatalf("expected no device error, got %v", err)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	dev := &fakeDevice{}
	capture, err := Acquire(context.Background(), dev, time.Second)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := capture.Release(); err != nil {
			t.Fatalf("release: %v", err)
		}
	}
	if dev.closes != 1 {
		t.Fatalf("expected one close, got %d", dev.closes)
	}
	if capture.Ready() {
		t.Fatalf("released capture must not be ready")
	}
	if _, err := capture.Snapshot(); err == nil {
		t.Fatalf("expected snapshot error after release")
	}
}

func TestDirDeviceReplaysFrames(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "001.png"), 4, 3, 10)
	writePNG(t, filepath.Join(dir, "002.png"), 4, 3, 200)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	dev := NewDirDevice(dir)
	capture, err := Acquire(context.Background(), dev, time.Second)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer func() {
		_ = capture.Release()
	}()

	w, h, err := dev.Dimensions()
	if err != nil || w != 4 || h != 3 {
		t.Fatalf("unexpected dimensions %dx%d err=%v", w, h, err)
	}
	first, err := capture.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	second, _ := capture.Snapshot()
	third, _ := capture.Snapshot()
	if string(first) == string(second) {
		t.Fatalf("expected frames to advance")
	}
	if string(first) != string(third) {
		t.Fatalf("expected frames to wrap around")
	}

	if err := dev.Open(); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected busy on second open, got %v", err)
	}
}

func TestDirDeviceMissingDirectory(t *testing.T) {
	dev := NewDirDevice(filepath.Join(t.TempDir(), "missing"))
	_, err := Acquire(context.Background(), dev, time.Second)
	if !errors.Is(err, ErrNoDevice) {
		t.Fatalf("expected no device, got %v", err)
	}
}

func TestDirDeviceInvalidFrame(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.jpg"), []byte("not an image"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := Acquire(context.Background(), NewDirDevice(dir), time.Second)
	if !errors.Is(err, ErrInvalidDimensions) {
		t.Fatalf("expected invalid dimensions, got %v", err)
	}
}

func writePNG(t *testing.T, path string, w, h int, shade uint8) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: shade, A: 255})
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer func() {
		_ = f.Close()
	}()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
}
