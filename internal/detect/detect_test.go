package detect

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/verte-zerg/signdrill/internal/model"
	"github.com/verte-zerg/signdrill/internal/sched"
)

type fakeFrames struct {
	ready    bool
	releases int
}

func (f *fakeFrames) Ready() bool               { return f.ready }
func (f *fakeFrames) Snapshot() ([]byte, error) { return []byte("frame"), nil }
func (f *fakeFrames) Release() error {
	f.releases++
	return nil
}

type scriptedClassifier struct {
	results []model.Detection
	errs    []error
	calls   int
}

func (c *scriptedClassifier) Classify(_ context.Context, _ []byte) (model.Detection, error) {
	i := c.calls
	c.calls++
	if i < len(c.errs) && c.errs[i] != nil {
		return model.Detection{}, c.errs[i]
	}
	if len(c.results) == 0 {
		return model.Detection{}, nil
	}
	if i >= len(c.results) {
		return c.results[len(c.results)-1], nil
	}
	return c.results[i], nil
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func letter(l string, conf float64) model.Detection {
	return model.Detection{Success: true, Label: l, Confidence: conf}
}

func TestLoopPollsAtInterval(t *testing.T) {
	v := sched.NewVirtual(time.Unix(0, 0))
	frames := &fakeFrames{ready: true}
	c := &scriptedClassifier{results: []model.Detection{letter("A", 0.9)}}
	loop := NewLoop(v, frames, c, Options{}, nil, quietLogger())

	var got []model.Detection
	if err := loop.Start(func(d model.Detection) { got = append(got, d) }); err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected immediate first cycle, got %d", len(got))
	}
	v.Advance(900 * time.Millisecond)
	if len(got) != 4 {
		t.Fatalf("expected 4 detections after 900ms, got %d", len(got))
	}
	if got[0].Timestamp.IsZero() {
		t.Fatalf("expected detection timestamp")
	}
}

func TestLoopWaitsForFrames(t *testing.T) {
	v := sched.NewVirtual(time.Unix(0, 0))
	frames := &fakeFrames{}
	c := &scriptedClassifier{results: []model.Detection{letter("A", 0.9)}}
	var statuses []model.Status
	loop := NewLoop(v, frames, c, Options{}, func(s model.Status) { statuses = append(statuses, s) }, quietLogger())
	_ = loop.Start(func(model.Detection) {})

	if c.calls != 0 || len(statuses) != 1 || statuses[0].Type != model.StatusWaiting {
		t.Fatalf("expected waiting status and no classification, got %+v calls=%d", statuses, c.calls)
	}
	frames.ready = true
	v.Advance(400 * time.Millisecond)
	if c.calls != 0 {
		t.Fatalf("expected retry after 500ms, got %d calls", c.calls)
	}
	v.Advance(100 * time.Millisecond)
	if c.calls != 1 {
		t.Fatalf("expected one call after retry, got %d", c.calls)
	}
}

func TestLoopEnforcesMinimumGap(t *testing.T) {
	v := sched.NewVirtual(time.Unix(0, 0))
	c := &scriptedClassifier{results: []model.Detection{letter("A", 0.9)}}
	loop := NewLoop(v, &fakeFrames{ready: true}, c, Options{Interval: 50 * time.Millisecond, MinGap: 200 * time.Millisecond}, nil, quietLogger())
	_ = loop.Start(func(model.Detection) {})

	v.Advance(199 * time.Millisecond)
	if c.calls != 1 {
		t.Fatalf("expected gap to suppress calls, got %d", c.calls)
	}
	v.Advance(51 * time.Millisecond)
	if c.calls != 2 {
		t.Fatalf("expected second call once the gap elapsed, got %d", c.calls)
	}
}

func TestLoopKeepsPollingThroughClassifierErrors(t *testing.T) {
	v := sched.NewVirtual(time.Unix(0, 0))
	c := &scriptedClassifier{
		results: []model.Detection{{}, {}, letter("B", 0.95)},
		errs:    []error{errors.New("boom"), errors.New("boom")},
	}
	var statuses []model.StatusType
	var got []model.Detection
	loop := NewLoop(v, &fakeFrames{ready: true}, c, Options{}, func(s model.Status) { statuses = append(statuses, s.Type) }, quietLogger())
	_ = loop.Start(func(d model.Detection) { got = append(got, d) })
	v.Advance(600 * time.Millisecond)

	if len(got) != 1 || got[0].Label != "B" {
		t.Fatalf("expected single detection after errors, got %+v", got)
	}
	if statuses[0] != model.StatusError || statuses[1] != model.StatusError || statuses[2] != model.StatusSuccess {
		t.Fatalf("unexpected statuses %v", statuses)
	}
}

func TestLoopStopReleasesOnceAndCancels(t *testing.T) {
	v := sched.NewVirtual(time.Unix(0, 0))
	frames := &fakeFrames{ready: true}
	c := &scriptedClassifier{results: []model.Detection{letter("A", 0.9)}}
	loop := NewLoop(v, frames, c, Options{}, nil, quietLogger())
	_ = loop.Start(func(model.Detection) {})

	loop.Stop()
	loop.Stop()
	v.Advance(2 * time.Second)
	if c.calls != 1 {
		t.Fatalf("expected no calls after stop, got %d", c.calls)
	}
	if frames.releases != 1 {
		t.Fatalf("expected one release, got %d", frames.releases)
	}
	if err := loop.Start(func(model.Detection) {}); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func TestLoopPauseKeepsCamera(t *testing.T) {
	v := sched.NewVirtual(time.Unix(0, 0))
	frames := &fakeFrames{ready: true}
	c := &scriptedClassifier{results: []model.Detection{letter("A", 0.9)}}
	loop := NewLoop(v, frames, c, Options{}, nil, quietLogger())
	_ = loop.Start(func(model.Detection) {})
	loop.Pause()
	v.Advance(time.Second)
	if c.calls != 1 || frames.releases != 0 || loop.Running() {
		t.Fatalf("unexpected state calls=%d releases=%d", c.calls, frames.releases)
	}
	if err := loop.Start(func(model.Detection) {}); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if c.calls != 2 {
		t.Fatalf("expected resumed polling, got %d calls", c.calls)
	}
}

func TestLoopStopFromCallback(t *testing.T) {
	v := sched.NewVirtual(time.Unix(0, 0))
	c := &scriptedClassifier{results: []model.Detection{letter("A", 0.9)}}
	var loop *Loop
	loop = NewLoop(v, &fakeFrames{ready: true}, c, Options{}, nil, quietLogger())
	_ = loop.Start(func(model.Detection) { loop.Stop() })
	if v.Pending() != 0 {
		t.Fatalf("expected no cycle scheduled after stop, got %d", v.Pending())
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		d    model.Detection
		want model.StatusType
	}{
		{letter("A", 0.7), model.StatusSuccess},
		{letter("A", 0.55), model.StatusWarning},
		{letter("A", 0.2), model.StatusInfo},
		{model.Detection{Success: false, Confidence: 0.9}, model.StatusIdle},
		{model.Detection{Success: true}, model.StatusIdle},
	}
	for _, tc := range cases {
		if got, _ := StatusFor(tc.d); got != tc.want {
			t.Fatalf("StatusFor(%+v) = %s, want %s", tc.d, got, tc.want)
		}
	}
}

func TestIsValid(t *testing.T) {
	if !IsValid(letter("A", 0.7), 0.7) {
		t.Fatalf("expected threshold to be inclusive")
	}
	if IsValid(letter("A", 0.69), 0.7) {
		t.Fatalf("expected low confidence to be invalid")
	}
	if IsValid(letter("", 0.9), 0.7) {
		t.Fatalf("expected missing label to be invalid")
	}
	if IsValid(model.Detection{Label: "A", Confidence: 0.9}, 0.7) {
		t.Fatalf("expected unsuccessful detection to be invalid")
	}
}

func TestDebouncerHeldGestureCreditsOnce(t *testing.T) {
	v := sched.NewVirtual(time.Unix(0, 0))
	d := NewDebouncer(v, 500*time.Millisecond)
	events := 0
	for i := 0; i < 5; i++ {
		if _, ok := d.Observe(letter("A", 0.9)); ok {
			events++
		}
		v.Advance(100 * time.Millisecond)
	}
	if events != 1 {
		t.Fatalf("expected one event for a held gesture, got %d", events)
	}
}

func TestDebouncerRearmsAfterExpiry(t *testing.T) {
	v := sched.NewVirtual(time.Unix(0, 0))
	d := NewDebouncer(v, 500*time.Millisecond)
	if _, ok := d.Observe(letter("A", 0.9)); !ok {
		t.Fatalf("expected first event")
	}
	v.Advance(500 * time.Millisecond)
	if _, active := d.Active(); active {
		t.Fatalf("expected idle after hold window")
	}
	ev, ok := d.Observe(letter("A", 0.9))
	if !ok {
		t.Fatalf("expected re-armed event")
	}
	if !ev.FirstSeenAt.Equal(time.Unix(0, 0).Add(500 * time.Millisecond)) {
		t.Fatalf("unexpected first seen %v", ev.FirstSeenAt)
	}
}

func TestDebouncerDifferentLabelEmits(t *testing.T) {
	v := sched.NewVirtual(time.Unix(0, 0))
	d := NewDebouncer(v, 0)
	d.Observe(letter("A", 0.9))
	v.Advance(100 * time.Millisecond)
	ev, ok := d.Observe(letter("B", 0.8))
	if !ok || ev.Label != "B" {
		t.Fatalf("expected event for new label, got %+v ok=%v", ev, ok)
	}
	v.Advance(450 * time.Millisecond)
	if _, ok := d.Observe(letter("B", 0.8)); ok {
		t.Fatalf("expected B hold window to restart on switch")
	}
	if v.Pending() != 1 {
		t.Fatalf("expected a single hold timer, got %d", v.Pending())
	}
}

func TestDebouncerResetCancelsTimer(t *testing.T) {
	v := sched.NewVirtual(time.Unix(0, 0))
	d := NewDebouncer(v, 0)
	d.Observe(letter("A", 0.9))
	d.Reset()
	if v.Pending() != 0 {
		t.Fatalf("expected hold timer cancelled")
	}
	if _, ok := d.Observe(letter("A", 0.9)); !ok {
		t.Fatalf("expected event after reset")
	}
}
