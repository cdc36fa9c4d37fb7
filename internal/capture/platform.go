// Package capture turns the platform's callback-driven screenshot facility
// into blocking calls that report a single boolean outcome.
package capture

import "jordanella.com/phone-agent-go/internal/cv"

// Error codes a platform passes to Callback.OnFailure
const (
	ErrorCodeInternal         = 1
	ErrorCodeNoAccess         = 2
	ErrorCodeIntervalTooShort = 3
	ErrorCodeInvalidDisplay   = 4
)

// Callback receives the result of one screenshot request. The platform
// invokes exactly one of the two methods, on a goroutine other than the
// one that issued the request. On success the callee owns buf and must
// close it.
type Callback interface {
	OnFailure(code int)
	OnSuccess(buf cv.PixelBuffer, colorSpace cv.ColorSpace)
}

// Platform is the asynchronous capture entry point. TakeScreenshot must
// return without waiting for the capture.
type Platform interface {
	TakeScreenshot(cb Callback)
}

// PlatformFunc adapts a function to Platform
type PlatformFunc func(cb Callback)

func (f PlatformFunc) TakeScreenshot(cb Callback) {
	f(cb)
}
