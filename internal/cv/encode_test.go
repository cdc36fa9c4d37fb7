package cv

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func testImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 16), G: uint8(y * 32), B: 128, A: 255})
		}
	}
	return img
}

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		token string
		want  Format
	}{
		{"png", Format{Codec: CodecPNG, Quality: 100}},
		{"jpg", Format{Codec: CodecJPEG, Quality: 90}},
		{"jpeg", Format{Codec: CodecJPEG, Quality: 90}},
		{"bmp", Format{Codec: CodecPNG, Quality: 100}},
		{"", Format{Codec: CodecPNG, Quality: 100}},
		{"JPG", Format{Codec: CodecPNG, Quality: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			if got := ResolveFormat(tt.token); got != tt.want {
				t.Errorf("ResolveFormat(%q) = %+v, want %+v", tt.token, got, tt.want)
			}
		})
	}
}

func TestFileEncoderMagicBytes(t *testing.T) {
	tests := []struct {
		name  string
		token string
		file  string
		magic []byte
	}{
		{"png", "png", "shot.png", []byte{0x89, 0x50, 0x4E, 0x47}},
		{"jpg", "jpg", "shot.jpg", []byte{0xFF, 0xD8}},
		{"unknown token falls back to png", "bmp", "shot.bmp", []byte{0x89, 0x50, 0x4E, 0x47}},
	}

	encoder := NewFileEncoder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)

			if err := encoder.Encode(testImage(), ResolveFormat(tt.token), path); err != nil {
				t.Fatalf("Encode failed: %v", err)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("Failed to read output: %v", err)
			}
			if !bytes.HasPrefix(data, tt.magic) {
				t.Errorf("Expected prefix % X, got % X", tt.magic, data[:len(tt.magic)])
			}
		})
	}
}

func TestFileEncoderCreatesParentDirectories(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a", "b", "c", "shot.png")

	if err := NewFileEncoder().Encode(testImage(), ResolveFormat("png"), path); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if info, err := os.Stat(filepath.Join(root, "a", "b", "c")); err != nil || !info.IsDir() {
		t.Fatalf("Expected parent directory to be created: %v", err)
	}
}

func TestFileEncoderLeavesExistingDirectoryAlone(t *testing.T) {
	dir := t.TempDir()
	sibling := filepath.Join(dir, "keep.txt")
	if err := os.WriteFile(sibling, []byte("keep"), 0644); err != nil {
		t.Fatalf("Failed to write sibling: %v", err)
	}
	before, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("Failed to stat dir: %v", err)
	}

	if err := NewFileEncoder().Encode(testImage(), ResolveFormat("png"), filepath.Join(dir, "shot.png")); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	after, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("Failed to stat dir: %v", err)
	}
	if before.Mode() != after.Mode() {
		t.Errorf("Directory mode changed from %v to %v", before.Mode(), after.Mode())
	}
	if data, err := os.ReadFile(sibling); err != nil || string(data) != "keep" {
		t.Errorf("Existing file disturbed: %q, %v", data, err)
	}
}

func TestFileEncoderFailures(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to write blocker: %v", err)
	}

	tests := []struct {
		name string
		img  image.Image
		path string
	}{
		{"parent is a regular file", testImage(), filepath.Join(blocker, "shot.png")},
		{"destination is a directory", testImage(), dir},
		{"empty path", testImage(), ""},
		{"nil image", nil, filepath.Join(dir, "nil.png")},
		{"zero sized image", image.NewNRGBA(image.Rect(0, 0, 0, 0)), filepath.Join(dir, "empty.png")},
	}

	encoder := NewFileEncoder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := encoder.Encode(tt.img, ResolveFormat("png"), tt.path); err == nil {
				t.Error("Expected encode to fail")
			}
		})
	}

	if _, err := os.Stat(filepath.Join(dir, "empty.png")); !os.IsNotExist(err) {
		t.Errorf("Expected partial file to be removed, stat err: %v", err)
	}
}

func TestEncodeTo(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeTo(&buf, testImage(), Format{Codec: CodecJPEG, Quality: 90}); err != nil {
		t.Fatalf("EncodeTo failed: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte{0xFF, 0xD8}) {
		t.Error("Expected JPEG magic bytes")
	}

	if err := EncodeTo(&buf, testImage(), Format{Codec: Codec(7)}); err == nil {
		t.Error("Expected unsupported codec to fail")
	}
}

// panicImage panics as soon as an encoder reads a pixel
type panicImage struct{}

func (panicImage) ColorModel() color.Model { return color.NRGBAModel }
func (panicImage) Bounds() image.Rectangle { return image.Rect(0, 0, 4, 4) }
func (panicImage) At(x, y int) color.Color { panic("pixel read failed") }

func TestFileEncoderRemovesFileWhenEncoderPanics(t *testing.T) {
	for _, token := range []string{"png", "jpg"} {
		t.Run(token, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "shot."+token)

			func() {
				defer func() {
					if r := recover(); r == nil {
						t.Error("Expected encoder panic to propagate")
					}
				}()
				NewFileEncoder().Encode(panicImage{}, ResolveFormat(token), path)
			}()

			if _, err := os.Stat(path); !os.IsNotExist(err) {
				t.Errorf("Partial file left behind after panic: %v", err)
			}
		})
	}
}
