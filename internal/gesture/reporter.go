// Package gesture reports the outcome of dispatched on-screen gestures.
package gesture

import (
	"jordanella.com/phone-agent-go/internal/events"
	"jordanella.com/phone-agent-go/internal/logging"
)

// Variant distinguishes a short tap from a long press
type Variant int

const (
	Tap Variant = iota
	LongPress
)

func (v Variant) String() string {
	if v == LongPress {
		return "long_press"
	}
	return "tap"
}

// Callback receives the platform's verdict for one dispatched gesture
type Callback interface {
	OnCompleted(v Variant)
	OnCancelled(v Variant)
}

// DefaultTag is the component name used when no tag is configured
const DefaultTag = "UIAccessibilityService"

// Reporter logs gesture outcomes. It holds no per-gesture state.
type Reporter struct {
	logger *logging.Logger
	bus    events.EventBus
}

// NewReporter creates a reporter writing through logger. The logger's
// component is the log tag.
func NewReporter(logger *logging.Logger) *Reporter {
	return &Reporter{logger: logger}
}

// WithEventBus also publishes gesture events on bus
func (r *Reporter) WithEventBus(bus events.EventBus) *Reporter {
	r.bus = bus
	return r
}

// OnCompleted logs a successful gesture at INFO
func (r *Reporter) OnCompleted(v Variant) {
	if v == LongPress {
		r.logger.Info("Long-press gesture completed successfully.")
	} else {
		r.logger.Info("Gesture completed successfully.")
	}
	r.publish(v, true)
}

// OnCancelled logs a cancelled gesture at WARN
func (r *Reporter) OnCancelled(v Variant) {
	if v == LongPress {
		r.logger.Warn("Long-press gesture was cancelled.")
	} else {
		r.logger.Warn("Gesture was cancelled.")
	}
	r.publish(v, false)
}

func (r *Reporter) publish(v Variant, completed bool) {
	if r.bus != nil {
		r.bus.Publish(events.NewGestureEvent(v.String(), completed))
	}
}
