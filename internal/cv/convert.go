package cv

import (
	"errors"
	"image"
	"image/color"
	"sync/atomic"

	"golang.org/x/image/draw"
)

// ErrBitmapReleased is returned by Release on an already released bitmap
var ErrBitmapReleased = errors.New("bitmap already released")

// Bitmap is a decoded, addressable image. It is owned by one goroutine and
// must be released exactly once.
type Bitmap interface {
	Image() image.Image
	ColorSpace() ColorSpace
	Release() error
}

// Converter turns a pixel buffer into a Bitmap. ok is false when no valid
// image can be produced from the buffer and color space.
type Converter interface {
	Convert(buf PixelBuffer, colorSpace ColorSpace) (bmp Bitmap, ok bool)
}

type nrgbaBitmap struct {
	img        *image.NRGBA
	colorSpace ColorSpace
	released   atomic.Bool
}

// NewBitmap wraps an already decoded image
func NewBitmap(img *image.NRGBA, colorSpace ColorSpace) Bitmap {
	return &nrgbaBitmap{img: img, colorSpace: colorSpace}
}

func (b *nrgbaBitmap) Image() image.Image     { return b.img }
func (b *nrgbaBitmap) ColorSpace() ColorSpace { return b.colorSpace }

func (b *nrgbaBitmap) Release() error {
	if !b.released.CompareAndSwap(false, true) {
		return ErrBitmapReleased
	}
	b.img = nil
	return nil
}

// BufferConverter copies buffer pixels into an NRGBA bitmap so the buffer
// can be released as soon as Convert returns.
type BufferConverter struct{}

// NewBufferConverter creates the default converter
func NewBufferConverter() *BufferConverter {
	return &BufferConverter{}
}

// Convert never returns an error; every rejected input yields ok == false.
// Display P3 pixels are tagged on the bitmap, not remapped.
func (c *BufferConverter) Convert(buf PixelBuffer, colorSpace ColorSpace) (Bitmap, bool) {
	if buf == nil {
		return nil, false
	}
	if colorSpace != ColorSpaceSRGB && colorSpace != ColorSpaceDisplayP3 {
		return nil, false
	}

	width, height, stride := buf.Width(), buf.Height(), buf.Stride()
	bpp := buf.Format().BytesPerPixel()
	if width <= 0 || height <= 0 || bpp == 0 || stride < width*bpp {
		return nil, false
	}

	pix, err := buf.Pixels()
	if err != nil {
		return nil, false
	}
	if len(pix) < stride*(height-1)+width*bpp {
		return nil, false
	}

	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	rowBytes := width * bpp

	switch buf.Format() {
	case PixelFormatRGBA8888:
		for y := 0; y < height; y++ {
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+rowBytes], pix[y*stride:y*stride+rowBytes])
		}
	case PixelFormatBGRA8888:
		// Swap red and blue
		for y := 0; y < height; y++ {
			src := pix[y*stride : y*stride+rowBytes]
			out := dst.Pix[y*dst.Stride : y*dst.Stride+rowBytes]
			for i := 0; i < rowBytes; i += 4 {
				out[i] = src[i+2]
				out[i+1] = src[i+1]
				out[i+2] = src[i]
				out[i+3] = src[i+3]
			}
		}
	default:
		src := &rawImage{
			pix:    pix,
			width:  width,
			height: height,
			stride: stride,
			format: buf.Format(),
		}
		draw.Draw(dst, dst.Bounds(), src, image.Point{}, draw.Src)
	}

	return NewBitmap(dst, colorSpace), true
}

// rawImage exposes packed formats without a native image type as an
// image.Image so draw can copy them.
type rawImage struct {
	pix    []byte
	width  int
	height int
	stride int
	format PixelFormat
}

func (r *rawImage) ColorModel() color.Model { return color.NRGBAModel }

func (r *rawImage) Bounds() image.Rectangle { return image.Rect(0, 0, r.width, r.height) }

func (r *rawImage) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= r.width || y >= r.height {
		return color.NRGBA{}
	}
	i := y*r.stride + x*r.format.BytesPerPixel()

	switch r.format {
	case PixelFormatRGBX8888:
		return color.NRGBA{R: r.pix[i], G: r.pix[i+1], B: r.pix[i+2], A: 0xff}
	case PixelFormatRGB888:
		return color.NRGBA{R: r.pix[i], G: r.pix[i+1], B: r.pix[i+2], A: 0xff}
	case PixelFormatRGB565:
		v := uint16(r.pix[i]) | uint16(r.pix[i+1])<<8 // little endian
		red := uint8(v>>11) & 0x1f
		green := uint8(v>>5) & 0x3f
		blue := uint8(v) & 0x1f
		return color.NRGBA{
			R: red<<3 | red>>2,
			G: green<<2 | green>>4,
			B: blue<<3 | blue>>2,
			A: 0xff,
		}
	default:
		return color.NRGBA{}
	}
}
