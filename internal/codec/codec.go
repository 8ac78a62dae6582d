// Package codec converts between encoded image bytes and the *image.NRGBA
// buffers the dilation engine works on. Decoding and encoding are delegated
// to github.com/disintegration/imaging.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// Format is an output encoding.
type Format = imaging.Format

// Supported output formats.
const (
	PNG  = imaging.PNG
	JPEG = imaging.JPEG
	GIF  = imaging.GIF
	TIFF = imaging.TIFF
	BMP  = imaging.BMP
)

// jpegQuality is used when an output path asks for JPEG. Alpha is lost in
// JPEG anyway, so only the color channels matter.
const jpegQuality = 95

// DecodeError reports unreadable or unsupported source bytes.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "decode: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError reports a failure to serialize a buffer.
type EncodeError struct {
	Format Format
	Err    error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s: %v", e.Format, e.Err)
}
func (e *EncodeError) Unwrap() error { return e.Err }

// Decode parses image bytes into a non-premultiplied RGBA buffer anchored at
// the origin. Inputs already stored as NRGBA keep the residual color of
// transparent pixels bit for bit.
func Decode(data []byte) (*image.NRGBA, error) {
	return DecodeReader(bytes.NewReader(data))
}

// DecodeReader is Decode for a stream.
func DecodeReader(r io.Reader) (*image.NRGBA, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Rect.Min == (image.Point{}) {
		return nrgba, nil
	}
	return imaging.Clone(img), nil
}

// Encode serializes img in the given format.
func Encode(img image.Image, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeTo(&buf, img, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeTo is Encode for a stream.
func EncodeTo(w io.Writer, img image.Image, format Format) error {
	err := imaging.Encode(w, img, format,
		imaging.PNGCompressionLevel(png.BestCompression),
		imaging.JPEGQuality(jpegQuality),
	)
	if err != nil {
		return &EncodeError{Format: format, Err: err}
	}
	return nil
}

// FormatForPath picks the encoding for an output path. The extension's own
// format is kept only when it stores alpha losslessly (PNG, TIFF, BMP);
// everything else, including GIF and JPEG, is written as PNG data.
func FormatForPath(path string) Format {
	f, err := imaging.FormatFromFilename(path)
	if err != nil || !KeepsAlpha(f) {
		return PNG
	}
	return f
}

// KeepsAlpha reports whether f round-trips alpha and the color of fully
// transparent pixels without loss. GIF quantizes to an opaque palette and
// JPEG has no alpha channel.
func KeepsAlpha(f Format) bool {
	switch f {
	case PNG, TIFF, BMP:
		return true
	}
	return false
}

// IsDecodeError reports whether err is (or wraps) a *DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// IsEncodeError reports whether err is (or wraps) an *EncodeError.
func IsEncodeError(err error) bool {
	var ee *EncodeError
	return errors.As(err, &ee)
}

// Extension returns the canonical file extension (with dot) for a format.
func Extension(f Format) string {
	switch f {
	case JPEG:
		return ".jpg"
	case GIF:
		return ".gif"
	case TIFF:
		return ".tif"
	case BMP:
		return ".bmp"
	default:
		return ".png"
	}
}

// HasImageExtension reports whether imaging can encode to path's extension.
func HasImageExtension(path string) bool {
	_, err := imaging.FormatFromExtension(filepath.Ext(path))
	return err == nil
}
