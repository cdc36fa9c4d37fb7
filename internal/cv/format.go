package cv

// Codec is the image container written by the encoder
type Codec int

const (
	CodecPNG Codec = iota
	CodecJPEG
)

func (c Codec) String() string {
	if c == CodecJPEG {
		return "JPEG"
	}
	return "PNG"
}

const (
	pngQuality  = 100
	jpegQuality = 90
)

// Format is a resolved codec and quality pair
type Format struct {
	Codec   Codec
	Quality int
}

// Extension returns the conventional file extension, including the dot
func (f Format) Extension() string {
	if f.Codec == CodecJPEG {
		return ".jpg"
	}
	return ".png"
}

// ResolveFormat maps a caller supplied token to a Format. Only the exact
// lower-case tokens "jpg" and "jpeg" select JPEG; "png" and anything else
// fall back to lossless PNG.
func ResolveFormat(token string) Format {
	switch token {
	case "jpg", "jpeg":
		return Format{Codec: CodecJPEG, Quality: jpegQuality}
	default:
		return Format{Codec: CodecPNG, Quality: pngQuality}
	}
}
