// Package detect turns the classifier's per-frame results into gesture events.
package detect

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/verte-zerg/signdrill/internal/classifier"
	"github.com/verte-zerg/signdrill/internal/model"
	"github.com/verte-zerg/signdrill/internal/sched"
)

// Defaults for Options.
const (
	DefaultInterval      = 300 * time.Millisecond
	DefaultMinGap        = 200 * time.Millisecond
	DefaultNotReadyRetry = 500 * time.Millisecond
	DefaultThreshold     = 0.7
)

// Status messages emitted by the loop.
const (
	MsgStartingCamera = "Starting camera..."
	MsgPreparing      = "Preparing detection..."
	MsgPerfect        = "Perfect!"
	MsgAlmost         = "Almost... hold the position"
	MsgAdjust         = "Adjust your position..."
	MsgShowLetter     = "Show a letter..."
	MsgError          = "Detection error"
)

// ErrStopped is returned by Start after Stop released the camera.
var ErrStopped = errors.New("detection loop stopped")

// Frames is the capture surface the loop polls. *camera.Capture implements it.
type Frames interface {
	Ready() bool
	Snapshot() ([]byte, error)
	Release() error
}

// Options tunes the poll cadence.
type Options struct {
	Interval      time.Duration
	MinGap        time.Duration
	NotReadyRetry time.Duration
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.MinGap < 0 {
		o.MinGap = 0
	} else if o.MinGap == 0 {
		o.MinGap = DefaultMinGap
	}
	if o.NotReadyRetry <= 0 {
		o.NotReadyRetry = DefaultNotReadyRetry
	}
	return o
}

// Loop polls a capture surface and submits frames to a classifier at a
// bounded rate. All methods and callbacks run on the scheduler.
type Loop struct {
	sched      sched.Scheduler
	frames     Frames
	classifier classifier.Classifier
	opts       Options
	onStatus   func(model.Status)
	logger     *log.Logger

	running     bool
	released    bool
	gen         int
	pending     sched.Cancel
	cancelCall  context.CancelFunc
	lastAccept  time.Time
	onDetection func(model.Detection)
}

// NewLoop builds a stopped loop. onStatus may be nil.
func NewLoop(s sched.Scheduler, frames Frames, c classifier.Classifier, opts Options, onStatus func(model.Status), logger *log.Logger) *Loop {
	if logger == nil {
		logger = log.Default()
	}
	return &Loop{
		sched:      s,
		frames:     frames,
		classifier: c,
		opts:       opts.withDefaults(),
		onStatus:   onStatus,
		logger:     logger,
	}
}

// Running reports whether cycles are being scheduled.
func (l *Loop) Running() bool {
	return l.running
}

// Start begins polling. Every successful classification is passed to
// onDetection in arrival order. Starting a running loop is a no-op.
func (l *Loop) Start(onDetection func(model.Detection)) error {
	if l.released {
		return ErrStopped
	}
	if l.running {
		return nil
	}
	l.running = true
	l.gen++
	l.onDetection = onDetection
	ctx, cancel := context.WithCancel(context.Background())
	l.cancelCall = cancel
	l.cycle(ctx, l.gen)
	return nil
}

// Pause cancels the pending cycle and ignores any in-flight response while
// keeping the camera. Start resumes polling.
func (l *Loop) Pause() {
	if !l.running {
		return
	}
	l.running = false
	l.gen++
	if l.pending != nil {
		l.pending()
		l.pending = nil
	}
	if l.cancelCall != nil {
		l.cancelCall()
		l.cancelCall = nil
	}
	l.onDetection = nil
}

// Stop pauses the loop and releases the camera exactly once. Idempotent.
func (l *Loop) Stop() {
	l.Pause()
	if l.released {
		return
	}
	l.released = true
	if l.frames == nil {
		return
	}
	if err := l.frames.Release(); err != nil {
		l.logger.Printf("failed to release camera: %v", err)
	}
}

func (l *Loop) active(gen int) bool {
	return l.running && l.gen == gen
}

func (l *Loop) next(ctx context.Context, gen int, delay time.Duration) {
	if !l.active(gen) {
		return
	}
	l.pending = l.sched.Schedule(delay, func() { l.cycle(ctx, gen) })
}

func (l *Loop) cycle(ctx context.Context, gen int) {
	if !l.active(gen) {
		return
	}
	l.pending = nil
	if l.frames == nil || !l.frames.Ready() {
		l.status(model.StatusWaiting, MsgStartingCamera)
		l.next(ctx, gen, l.opts.NotReadyRetry)
		return
	}

	now := l.sched.Now()
	if !l.lastAccept.IsZero() && now.Sub(l.lastAccept) < l.opts.MinGap {
		l.next(ctx, gen, l.opts.Interval)
		return
	}

	frame, err := l.frames.Snapshot()
	if err != nil || len(frame) == 0 {
		l.status(model.StatusWaiting, MsgPreparing)
		l.next(ctx, gen, l.opts.NotReadyRetry)
		return
	}

	var (
		det  model.Detection
		cerr error
	)
	l.sched.Go(func() {
		det, cerr = l.classifier.Classify(ctx, frame)
	}, func() {
		if !l.active(gen) {
			return
		}
		if cerr != nil {
			l.logger.Printf("classification failed: %v", cerr)
			l.status(model.StatusError, MsgError)
		} else {
			l.lastAccept = now
			if det.Timestamp.IsZero() {
				det.Timestamp = l.sched.Now()
			}
			l.status(StatusFor(det))
			if l.onDetection != nil {
				l.onDetection(det)
			}
		}
		l.next(ctx, gen, l.opts.Interval)
	})
}

func (l *Loop) status(kind model.StatusType, msg string) {
	if l.onStatus != nil {
		l.onStatus(model.Status{Type: kind, Message: msg})
	}
}

// StatusFor maps a classification to the status shown while polling.
func StatusFor(d model.Detection) (model.StatusType, string) {
	if !d.Success || d.Confidence <= 0 {
		return model.StatusIdle, MsgShowLetter
	}
	switch {
	case d.Confidence >= 0.7:
		return model.StatusSuccess, MsgPerfect
	case d.Confidence >= 0.5:
		return model.StatusWarning, MsgAlmost
	default:
		return model.StatusInfo, MsgAdjust
	}
}

// IsValid reports whether d may reach game logic.
func IsValid(d model.Detection, threshold float64) bool {
	return d.Success && d.Label != "" && d.Confidence >= threshold
}
