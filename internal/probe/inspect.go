package probe

import "image"

// Inspect counts pixels by alpha class.
func Inspect(img *image.NRGBA) Stats {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	s := Stats{Width: w, Height: h}
	for y := 0; y < h; y++ {
		row := y * img.Stride
		for x := 0; x < w; x++ {
			switch a := img.Pix[row+x*4+3]; a {
			case 0:
				s.Transparent++
			case 255:
				s.Opaque++
			default:
				s.Translucent++
			}
		}
	}
	return s
}

// CountChanged returns how many pixels differ between a and b. Buffers with
// different sizes are compared over their common area.
func CountChanged(a, b *image.NRGBA) int {
	w := min(a.Rect.Dx(), b.Rect.Dx())
	h := min(a.Rect.Dy(), b.Rect.Dy())
	n := 0
	for y := 0; y < h; y++ {
		ra, rb := y*a.Stride, y*b.Stride
		for x := 0; x < w; x++ {
			pa := a.Pix[ra+x*4 : ra+x*4+4]
			pb := b.Pix[rb+x*4 : rb+x*4+4]
			if pa[0] != pb[0] || pa[1] != pb[1] || pa[2] != pb[2] || pa[3] != pb[3] {
				n++
			}
		}
	}
	return n
}
