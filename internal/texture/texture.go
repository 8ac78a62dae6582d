// Package texture is the single-image entry point: encoded bytes in, fixed
// PNG bytes out, with no batch machinery around it.
package texture

import (
	"io"

	"github.com/fixmyhalo/fixmyhalo/internal/codec"
	"github.com/fixmyhalo/fixmyhalo/internal/dilate"
)

// Fix decodes data, bleeds opaque color padding pixels into transparent
// areas and returns the result encoded as PNG. Errors are *codec.DecodeError
// or *codec.EncodeError.
func Fix(data []byte, padding int) ([]byte, error) {
	img, err := codec.Decode(data)
	if err != nil {
		return nil, err
	}
	return codec.Encode(dilate.Dilate(img, padding), codec.PNG)
}

// FixStream is Fix between streams (stdin to stdout in the CLI).
func FixStream(r io.Reader, w io.Writer, padding int) error {
	img, err := codec.DecodeReader(r)
	if err != nil {
		return err
	}
	return codec.EncodeTo(w, dilate.Dilate(img, padding), codec.PNG)
}
