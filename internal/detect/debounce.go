package detect

import (
	"time"

	"github.com/verte-zerg/signdrill/internal/model"
	"github.com/verte-zerg/signdrill/internal/sched"
)

// DefaultHold is how long a credited gesture suppresses the same label.
const DefaultHold = 500 * time.Millisecond

// Debouncer collapses a held gesture into a single event. It is either idle
// or active for one label while its hold timer runs. Missing detections do
// not clear the active state; only the timer or a different label does.
type Debouncer struct {
	sched  sched.Scheduler
	hold   time.Duration
	active bool
	label  string
	cancel sched.Cancel
}

// NewDebouncer returns an idle debouncer. A hold <= 0 uses DefaultHold.
func NewDebouncer(s sched.Scheduler, hold time.Duration) *Debouncer {
	if hold <= 0 {
		hold = DefaultHold
	}
	return &Debouncer{sched: s, hold: hold}
}

// Observe feeds one valid detection and reports the event to credit, if any.
func (d *Debouncer) Observe(det model.Detection) (model.GestureEvent, bool) {
	if d.active && d.label == det.Label {
		return model.GestureEvent{}, false
	}
	d.disarm()
	d.active = true
	d.label = det.Label
	d.cancel = d.sched.Schedule(d.hold, d.expire)

	at := det.Timestamp
	if at.IsZero() {
		at = d.sched.Now()
	}
	return model.GestureEvent{Label: det.Label, Confidence: det.Confidence, FirstSeenAt: at}, true
}

// Active returns the label currently held, if any.
func (d *Debouncer) Active() (string, bool) {
	return d.label, d.active
}

// Reset cancels the hold timer and returns to idle.
func (d *Debouncer) Reset() {
	d.disarm()
	d.active = false
	d.label = ""
}

func (d *Debouncer) expire() {
	d.cancel = nil
	d.active = false
	d.label = ""
}

func (d *Debouncer) disarm() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}
