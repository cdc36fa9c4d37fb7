package capture

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"sync/atomic"

	"jordanella.com/phone-agent-go/internal/cv"
	"jordanella.com/phone-agent-go/internal/logging"
)

// ScreenshotData is an in-memory PNG capture
type ScreenshotData struct {
	Width     int
	Height    int
	Base64PNG string
}

// Coordinator issues capture requests to a Platform and drives the
// buffer -> bitmap -> file pipeline when the platform calls back.
//
// Issue blocks until the platform calls back and applies no timeout of
// its own; a platform that never calls back blocks the caller forever.
type Coordinator struct {
	platform  Platform
	converter cv.Converter
	encoder   cv.Encoder
	logger    *logging.Logger
}

// NewCoordinator creates a coordinator using the default converter and
// file encoder
func NewCoordinator(platform Platform, logger *logging.Logger) *Coordinator {
	return &Coordinator{
		platform:  platform,
		converter: cv.NewBufferConverter(),
		encoder:   cv.NewFileEncoder(),
		logger:    logger,
	}
}

// WithConverter replaces the pixel buffer converter
func (c *Coordinator) WithConverter(converter cv.Converter) *Coordinator {
	c.converter = converter
	return c
}

// WithEncoder replaces the image encoder
func (c *Coordinator) WithEncoder(encoder cv.Encoder) *Coordinator {
	c.encoder = encoder
	return c
}

// Issue captures the screen to path, encoded per formatToken, and returns
// once the platform has reported back and every resource is released.
func (c *Coordinator) Issue(path, formatToken string) Outcome {
	format := cv.ResolveFormat(formatToken)

	p := c.newPendingCapture(path, func(img image.Image) error {
		return c.encoder.Encode(img, format, path)
	})
	c.dispatch(p)

	return <-p.done
}

// IssueData captures the screen into memory as base64 PNG. data is nil
// unless the outcome succeeded.
func (c *Coordinator) IssueData() (*ScreenshotData, Outcome) {
	var data *ScreenshotData

	p := c.newPendingCapture("memory", func(img image.Image) error {
		var buf bytes.Buffer
		if err := cv.EncodeTo(&buf, img, cv.ResolveFormat("png")); err != nil {
			return err
		}
		bounds := img.Bounds()
		data = &ScreenshotData{
			Width:     bounds.Dx(),
			Height:    bounds.Dy(),
			Base64PNG: base64.StdEncoding.EncodeToString(buf.Bytes()),
		}
		return nil
	})
	c.dispatch(p)

	outcome := <-p.done
	if !outcome.Success {
		return nil, outcome
	}
	return data, outcome
}

func (c *Coordinator) dispatch(p *pendingCapture) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Capture entry point panicked", fmt.Errorf("%v", r))
			p.OnFailure(ErrorCodeInternal)
		}
	}()

	c.platform.TakeScreenshot(p)
}

// pendingCapture is the Callback handed to the platform for one request.
// The first callback claims it; done receives exactly one Outcome.
type pendingCapture struct {
	coordinator *Coordinator
	destination string
	write       func(img image.Image) error
	claimed     atomic.Bool
	done        chan Outcome
}

func (c *Coordinator) newPendingCapture(destination string, write func(img image.Image) error) *pendingCapture {
	return &pendingCapture{
		coordinator: c,
		destination: destination,
		write:       write,
		done:        make(chan Outcome, 1),
	}
}

func (p *pendingCapture) OnFailure(code int) {
	if !p.claimed.CompareAndSwap(false, true) {
		p.coordinator.logger.Warn(fmt.Sprintf("Ignoring late failure callback (code %d) for %s", code, p.destination))
		return
	}

	p.coordinator.logger.WarnWithContext("Platform failed to capture screenshot", map[string]interface{}{
		"code":        code,
		"destination": p.destination,
	})
	p.done <- failed(FailurePlatform)
}

func (p *pendingCapture) OnSuccess(buf cv.PixelBuffer, colorSpace cv.ColorSpace) {
	if !p.claimed.CompareAndSwap(false, true) {
		p.coordinator.logger.Warn(fmt.Sprintf("Ignoring late success callback for %s", p.destination))
		p.coordinator.closeBuffer(buf)
		return
	}

	p.done <- p.coordinator.process(buf, colorSpace, p.destination, p.write)
}

// process owns buf and the decoded bitmap for the duration of the call and
// releases each exactly once before returning.
func (c *Coordinator) process(buf cv.PixelBuffer, colorSpace cv.ColorSpace, destination string, write func(img image.Image) error) (outcome Outcome) {
	bmp, ok := c.convert(buf, colorSpace)
	if !ok {
		c.logger.Warn(fmt.Sprintf("Pixel buffer did not decode to an image (color space %s)", colorSpace))
		return failed(FailureDecode)
	}
	defer c.releaseBitmap(bmp)

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error(fmt.Sprintf("Encoder panicked writing %s", destination), fmt.Errorf("%v", r))
			outcome = failed(FailureEncode)
		}
	}()

	if err := write(bmp.Image()); err != nil {
		c.logger.Error(fmt.Sprintf("Failed to write screenshot to %s", destination), err)
		return failed(FailureEncode)
	}

	c.logger.Debug(fmt.Sprintf("Screenshot written to %s", destination))
	return succeeded()
}

// convert closes buf before returning, whether or not it decoded
func (c *Coordinator) convert(buf cv.PixelBuffer, colorSpace cv.ColorSpace) (bmp cv.Bitmap, ok bool) {
	if buf == nil {
		return nil, false
	}

	defer c.closeBuffer(buf)
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Pixel buffer conversion panicked", fmt.Errorf("%v", r))
			bmp, ok = nil, false
		}
	}()

	bmp, ok = c.converter.Convert(buf, colorSpace)
	if !ok && bmp != nil {
		c.releaseBitmap(bmp)
		bmp = nil
	}
	return bmp, ok && bmp != nil
}

func (c *Coordinator) closeBuffer(buf cv.PixelBuffer) {
	if buf == nil {
		return
	}
	defer c.recoverRelease("pixel buffer")
	if err := buf.Close(); err != nil {
		c.logger.Warn(fmt.Sprintf("Failed to release pixel buffer: %v", err))
	}
}

func (c *Coordinator) releaseBitmap(bmp cv.Bitmap) {
	defer c.recoverRelease("bitmap")
	if err := bmp.Release(); err != nil {
		c.logger.Warn(fmt.Sprintf("Failed to release bitmap: %v", err))
	}
}

func (c *Coordinator) recoverRelease(resource string) {
	if r := recover(); r != nil {
		c.logger.Error(fmt.Sprintf("Releasing %s panicked", resource), fmt.Errorf("%v", r))
	}
}
