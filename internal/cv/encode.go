package cv

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
)

// Encoder writes an image to path in the given format. A nil error means
// the encode and the file write/close all succeeded.
type Encoder interface {
	Encode(img image.Image, format Format, path string) error
}

// FileEncoder encodes images to files on the local filesystem
type FileEncoder struct {
	dirPerm  os.FileMode
	filePerm os.FileMode
}

// NewFileEncoder creates an encoder using 0755 directories and 0644 files
func NewFileEncoder() *FileEncoder {
	return &FileEncoder{
		dirPerm:  0755,
		filePerm: 0644,
	}
}

// Encode creates missing parent directories, writes the encoded image, and
// closes the file on every path. A partially written file is removed.
func (e *FileEncoder) Encode(img image.Image, format Format, path string) (err error) {
	if img == nil {
		return errors.New("no image to encode")
	}
	if path == "" {
		return errors.New("empty destination path")
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, e.dirPerm); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, e.filePerm)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	written := false
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, closeErr)
		}
		// Also runs while an encoder panic unwinds
		if err != nil || !written {
			os.Remove(path)
		}
	}()

	if err := EncodeTo(file, img, format); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	written = true
	return nil
}

// EncodeTo writes img to w. PNG is lossless so its quality is ignored.
func EncodeTo(w io.Writer, img image.Image, format Format) error {
	switch format.Codec {
	case CodecJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: format.Quality})
	case CodecPNG:
		enc := png.Encoder{CompressionLevel: png.DefaultCompression}
		return enc.Encode(w, img)
	default:
		return fmt.Errorf("unsupported codec %d", int(format.Codec))
	}
}
