package cv

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrBufferReleased is returned when a pixel buffer is read or closed after
// it has already been released.
var ErrBufferReleased = errors.New("pixel buffer already released")

// PixelFormat identifies the memory layout of a raw pixel buffer. Values
// match the PIXEL_FORMAT_* codes written by Android's screencap.
type PixelFormat int

const (
	PixelFormatUnknown  PixelFormat = 0
	PixelFormatRGBA8888 PixelFormat = 1
	PixelFormatRGBX8888 PixelFormat = 2
	PixelFormatRGB888   PixelFormat = 3
	PixelFormatRGB565   PixelFormat = 4
	PixelFormatBGRA8888 PixelFormat = 5
)

// BytesPerPixel returns the pixel size, or 0 for unsupported formats
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case PixelFormatRGBA8888, PixelFormatRGBX8888, PixelFormatBGRA8888:
		return 4
	case PixelFormatRGB888:
		return 3
	case PixelFormatRGB565:
		return 2
	default:
		return 0
	}
}

func (f PixelFormat) String() string {
	switch f {
	case PixelFormatRGBA8888:
		return "RGBA_8888"
	case PixelFormatRGBX8888:
		return "RGBX_8888"
	case PixelFormatRGB888:
		return "RGB_888"
	case PixelFormatRGB565:
		return "RGB_565"
	case PixelFormatBGRA8888:
		return "BGRA_8888"
	default:
		return fmt.Sprintf("PixelFormat(%d)", int(f))
	}
}

// ColorSpace describes how a buffer's channels are interpreted. Values match
// the dataspace codes in the screencap header.
type ColorSpace int

const (
	ColorSpaceUnknown   ColorSpace = 0
	ColorSpaceSRGB      ColorSpace = 1
	ColorSpaceDisplayP3 ColorSpace = 2
)

func (c ColorSpace) String() string {
	switch c {
	case ColorSpaceSRGB:
		return "sRGB"
	case ColorSpaceDisplayP3:
		return "Display P3"
	default:
		return "unknown"
	}
}

// PixelBuffer is an opaque, externally owned block of captured pixels. The
// holder must Close it exactly once.
type PixelBuffer interface {
	Width() int
	Height() int
	// Stride is the number of bytes between the starts of two rows
	Stride() int
	Format() PixelFormat
	// Pixels returns the raw bytes; ErrBufferReleased after Close
	Pixels() ([]byte, error)
	Close() error
}

// HardwareBuffer is a PixelBuffer over a byte slice handed over by the
// platform. Close drops the reference to the pixels.
type HardwareBuffer struct {
	width  int
	height int
	stride int
	format PixelFormat
	pix    []byte
	closed atomic.Bool
}

// NewHardwareBuffer wraps pix. A stride of 0 means tightly packed rows.
func NewHardwareBuffer(width, height, stride int, format PixelFormat, pix []byte) *HardwareBuffer {
	if stride == 0 {
		stride = width * format.BytesPerPixel()
	}
	return &HardwareBuffer{
		width:  width,
		height: height,
		stride: stride,
		format: format,
		pix:    pix,
	}
}

func (b *HardwareBuffer) Width() int          { return b.width }
func (b *HardwareBuffer) Height() int         { return b.height }
func (b *HardwareBuffer) Stride() int         { return b.stride }
func (b *HardwareBuffer) Format() PixelFormat { return b.format }

func (b *HardwareBuffer) Pixels() ([]byte, error) {
	if b.closed.Load() {
		return nil, ErrBufferReleased
	}
	return b.pix, nil
}

// Close releases the buffer. A second Close returns ErrBufferReleased.
func (b *HardwareBuffer) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return ErrBufferReleased
	}
	b.pix = nil
	return nil
}

// Closed reports whether Close has been called
func (b *HardwareBuffer) Closed() bool {
	return b.closed.Load()
}
