// Package dilate implements color dilation ("color bleed") over RGBA pixel
// buffers: fully transparent pixels take the color of an opaque neighbor,
// one pixel of distance per iteration, while alpha stays untouched.
//
// Buffers are *image.NRGBA because the repaired color of a transparent pixel
// only survives in non-premultiplied storage. Coordinates are relative to
// Rect.Min, so sub-images work as well as origin-anchored buffers.
//
// The package does no I/O and starts no goroutines.
package dilate

import (
	"image"
	"image/color"
)

// NeighborOffsets is the donor search order. The first in-bounds neighbor with
// alpha > 0 wins, so this list is the tie-break policy: left, right, up, down,
// then up-left, up-right, down-left, down-right.
var NeighborOffsets = [8]image.Point{
	{X: -1, Y: 0},
	{X: 1, Y: 0},
	{X: 0, Y: -1},
	{X: 0, Y: 1},
	{X: -1, Y: -1},
	{X: 1, Y: -1},
	{X: -1, Y: 1},
	{X: 1, Y: 1},
}

// Dilate returns a new buffer where the color of opaque regions has been bled
// padding pixels (8-connected) into the surrounding fully transparent area.
// The alpha channel of the result equals the alpha channel of src, and pixels
// with alpha > 0 keep their exact RGBA. src is never modified.
func Dilate(src *image.NRGBA, padding int) *image.NRGBA {
	cur := clone(src)
	if padding <= 0 || cur.Rect.Empty() {
		return cur
	}

	alpha := snapshotAlpha(cur)
	for i := 0; i < padding; i++ {
		next, changed := step(cur)
		if !changed {
			// Fixed point: further iterations would produce the same buffer.
			break
		}
		cur = next
	}
	restoreAlpha(cur, alpha)
	return cur
}

// Step performs a single dilation iteration. The result starts as a copy of
// src; every pixel whose alpha is 0 in src takes the full RGBA of its first
// donor in [NeighborOffsets] order. All reads come from src, so color never
// travels more than one pixel per call.
func Step(src *image.NRGBA) *image.NRGBA {
	next, _ := step(src)
	return next
}

// NeighborColor returns the color of the first neighbor of (x, y) in
// [NeighborOffsets] order that lies inside the buffer and has alpha > 0.
func NeighborColor(src *image.NRGBA, x, y int) (color.NRGBA, bool) {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	for _, off := range NeighborOffsets {
		nx, ny := x+off.X, y+off.Y
		if nx < 0 || nx >= w || ny < 0 || ny >= h {
			continue
		}
		i := ny*src.Stride + nx*4
		if src.Pix[i+3] > 0 {
			p := src.Pix[i : i+4 : i+4]
			return color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]}, true
		}
	}
	return color.NRGBA{}, false
}

// step returns the next state and whether any pixel changed value.
func step(src *image.NRGBA) (*image.NRGBA, bool) {
	next := clone(src)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	changed := false

	for y := 0; y < h; y++ {
		row := y * src.Stride
		for x := 0; x < w; x++ {
			i := row + x*4
			if src.Pix[i+3] != 0 {
				continue
			}
			c, ok := NeighborColor(src, x, y)
			if !ok {
				continue
			}
			p := next.Pix[i : i+4 : i+4]
			if p[0] != c.R || p[1] != c.G || p[2] != c.B || p[3] != c.A {
				p[0], p[1], p[2], p[3] = c.R, c.G, c.B, c.A
				changed = true
			}
		}
	}
	return next, changed
}

// clone copies src into a fresh buffer with a compact stride. The clone keeps
// src's Rect so callers see the same coordinate space.
func clone(src *image.NRGBA) *image.NRGBA {
	r := src.Rect
	dst := image.NewNRGBA(r)
	w, h := r.Dx(), r.Dy()
	if w <= 0 || h <= 0 {
		return dst
	}
	for y := 0; y < h; y++ {
		si := y * src.Stride
		di := y * dst.Stride
		copy(dst.Pix[di:di+w*4], src.Pix[si:si+w*4])
	}
	return dst
}

// snapshotAlpha captures the alpha of every pixel in row-major order.
func snapshotAlpha(img *image.NRGBA) []uint8 {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	alpha := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		row := y * img.Stride
		for x := 0; x < w; x++ {
			alpha[y*w+x] = img.Pix[row+x*4+3]
		}
	}
	return alpha
}

// restoreAlpha writes a snapshot from snapshotAlpha back into img.
func restoreAlpha(img *image.NRGBA, alpha []uint8) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	for y := 0; y < h; y++ {
		row := y * img.Stride
		for x := 0; x < w; x++ {
			img.Pix[row+x*4+3] = alpha[y*w+x]
		}
	}
}
