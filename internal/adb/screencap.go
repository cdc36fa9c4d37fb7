package adb

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"jordanella.com/phone-agent-go/internal/cv"
)

var (
	ErrScreencapShort   = errors.New("screencap output too short")
	ErrScreencapFormat  = errors.New("unsupported screencap pixel format")
	ErrScreencapPayload = errors.New("screencap payload size mismatch")
)

// Dataspace values written by newer screencap builds
const (
	dataspaceUnknown = 0
	dataspaceSRGB    = 1
	dataspaceP3      = 2

	// Full ADataSpace values some builds write instead
	adataspaceSRGB      = 142671872
	adataspaceDisplayP3 = 143261696
)

// Screencap is one decoded `screencap` raw frame
type Screencap struct {
	Width      int
	Height     int
	Format     cv.PixelFormat
	ColorSpace cv.ColorSpace
	Pixels     []byte
}

// ParseScreencap decodes the raw output of `screencap` (no -p). The header
// is width, height and format as little-endian uint32, followed on
// Android 10+ by a dataspace word.
func ParseScreencap(data []byte) (*Screencap, error) {
	if len(data) < 12 {
		return nil, ErrScreencapShort
	}

	width := int(binary.LittleEndian.Uint32(data[0:4]))
	height := int(binary.LittleEndian.Uint32(data[4:8]))
	format := cv.PixelFormat(binary.LittleEndian.Uint32(data[8:12]))

	bpp := format.BytesPerPixel()
	if bpp == 0 {
		return nil, fmt.Errorf("%w: %d", ErrScreencapFormat, format)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrScreencapPayload, width, height)
	}

	size := width * height * bpp
	shot := &Screencap{Width: width, Height: height, Format: format, ColorSpace: cv.ColorSpaceSRGB}

	switch len(data) - size {
	case 16:
		shot.ColorSpace = colorSpaceFor(binary.LittleEndian.Uint32(data[12:16]))
		shot.Pixels = data[16:]
	case 12:
		shot.Pixels = data[12:]
	default:
		return nil, fmt.Errorf("%w: %d bytes for %dx%d %s", ErrScreencapPayload, len(data), width, height, format)
	}
	return shot, nil
}

func colorSpaceFor(dataspace uint32) cv.ColorSpace {
	switch dataspace {
	case dataspaceUnknown, dataspaceSRGB, adataspaceSRGB:
		return cv.ColorSpaceSRGB
	case dataspaceP3, adataspaceDisplayP3:
		return cv.ColorSpaceDisplayP3
	}
	return cv.ColorSpaceUnknown
}

// Buffer wraps the frame as a pixel buffer the converter accepts
func (s *Screencap) Buffer() *cv.HardwareBuffer {
	return cv.NewHardwareBuffer(s.Width, s.Height, 0, s.Format, s.Pixels)
}

// ScreencapRaw captures the current screen as a raw frame
func (c *Controller) ScreencapRaw(ctx context.Context) (*Screencap, error) {
	data, err := c.ExecOut(ctx, "screencap")
	if err != nil {
		return nil, err
	}
	return ParseScreencap(data)
}
