package adb

import (
	"context"
	"errors"
	"time"

	"jordanella.com/phone-agent-go/internal/capture"
	"jordanella.com/phone-agent-go/internal/gesture"
	"jordanella.com/phone-agent-go/internal/logging"
)

// ScreenshotPlatform serves capture requests with `adb exec-out screencap`.
// Every request runs on its own goroutine and reports through exactly one
// callback method.
type ScreenshotPlatform struct {
	controller *Controller
	timeout    time.Duration
	logger     *logging.Logger
}

// NewScreenshotPlatform creates a platform backed by controller. A request
// that runs past timeout fails with ErrorCodeInternal.
func NewScreenshotPlatform(controller *Controller, timeout time.Duration, logger *logging.Logger) *ScreenshotPlatform {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ScreenshotPlatform{controller: controller, timeout: timeout, logger: logger}
}

// TakeScreenshot implements capture.Platform
func (p *ScreenshotPlatform) TakeScreenshot(cb capture.Callback) {
	go p.capture(cb)
}

func (p *ScreenshotPlatform) capture(cb capture.Callback) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	shot, err := p.controller.ScreencapRaw(ctx)
	if err != nil {
		code := capture.ErrorCodeInternal
		switch {
		case errors.Is(err, ErrNotConnected):
			code = capture.ErrorCodeNoAccess
		case errors.Is(err, ErrScreencapPayload):
			code = capture.ErrorCodeInvalidDisplay
		}
		p.logger.ErrorWithContext("screencap failed", err, map[string]interface{}{
			"device": p.controller.Device(),
			"code":   code,
		})
		cb.OnFailure(code)
		return
	}

	p.logger.Debugf("screencap %dx%d %s %s", shot.Width, shot.Height, shot.Format, shot.ColorSpace)
	cb.OnSuccess(shot.Buffer(), shot.ColorSpace)
}

// GestureDispatcher sends taps and long presses to the device and reports
// the outcome to a gesture.Callback. A command that fails or times out
// counts as cancelled.
type GestureDispatcher struct {
	controller        *Controller
	callback          gesture.Callback
	timeout           time.Duration
	tapDuration       time.Duration
	longPressDuration time.Duration
}

// NewGestureDispatcher creates a dispatcher reporting to callback
func NewGestureDispatcher(controller *Controller, callback gesture.Callback) *GestureDispatcher {
	return &GestureDispatcher{
		controller:        controller,
		callback:          callback,
		timeout:           5 * time.Second,
		longPressDuration: time.Second,
	}
}

// WithDurations sets the press durations. A zero tap duration sends a plain
// `input tap`; a zero long-press duration keeps the default.
func (d *GestureDispatcher) WithDurations(tap, longPress time.Duration) *GestureDispatcher {
	d.tapDuration = tap
	if longPress > 0 {
		d.longPressDuration = longPress
	}
	return d
}

// Tap taps (x, y) and reports the outcome. It returns the command error, if any.
func (d *GestureDispatcher) Tap(x, y int) error {
	return d.dispatch(gesture.Tap, func(ctx context.Context) error {
		if d.tapDuration > 0 {
			return d.controller.Swipe(ctx, x, y, x, y, d.tapDuration)
		}
		return d.controller.Tap(ctx, x, y)
	})
}

// LongPress holds (x, y) and reports the outcome
func (d *GestureDispatcher) LongPress(x, y int) error {
	return d.dispatch(gesture.LongPress, func(ctx context.Context) error {
		return d.controller.LongPress(ctx, x, y, d.longPressDuration)
	})
}

func (d *GestureDispatcher) dispatch(v gesture.Variant, send func(ctx context.Context) error) error {
	timeout := d.timeout
	if v == gesture.LongPress {
		timeout += d.longPressDuration
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := send(ctx); err != nil {
		d.callback.OnCancelled(v)
		return err
	}
	d.callback.OnCompleted(v)
	return nil
}
