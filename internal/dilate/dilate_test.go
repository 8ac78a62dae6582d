package dilate

import (
	"image"
	"image/color"
	"math/rand"
	"testing"
)

var (
	red         = color.NRGBA{R: 255, A: 255}
	hiddenRed   = color.NRGBA{R: 255}
	blue        = color.NRGBA{B: 255, A: 255}
	transparent = color.NRGBA{}
)

// canvas returns a w×h fully transparent black buffer.
func canvas(w, h int) *image.NRGBA {
	return image.NewNRGBA(image.Rect(0, 0, w, h))
}

func TestNeighborOffsets_Order(t *testing.T) {
	want := [8]image.Point{
		{-1, 0}, {1, 0}, {0, -1}, {0, 1},
		{-1, -1}, {1, -1}, {-1, 1}, {1, 1},
	}
	if NeighborOffsets != want {
		t.Errorf("NeighborOffsets = %v, want %v", NeighborOffsets, want)
	}
}

func TestNeighborColor(t *testing.T) {
	// [ T, T, T ]
	// [ T, T, C ]
	// [ T, T, T ]
	img := canvas(3, 3)
	img.SetNRGBA(2, 1, red)

	got, ok := NeighborColor(img, 1, 1)
	if !ok || got != red {
		t.Errorf("NeighborColor(1,1) = %v, %v; want red", got, ok)
	}
	if _, ok := NeighborColor(img, 0, 0); ok {
		t.Error("NeighborColor(0,0) should find nothing: red is two pixels away")
	}
}

func TestNeighborColor_TieBreak(t *testing.T) {
	tests := []struct {
		name   string
		donors map[image.Point]color.NRGBA
		want   color.NRGBA
	}{
		{"left beats right", map[image.Point]color.NRGBA{{0, 1}: red, {2, 1}: blue}, red},
		{"right beats up", map[image.Point]color.NRGBA{{2, 1}: blue, {1, 0}: red}, blue},
		{"up beats down", map[image.Point]color.NRGBA{{1, 0}: red, {1, 2}: blue}, red},
		{"down beats diagonal", map[image.Point]color.NRGBA{{1, 2}: blue, {0, 0}: red}, blue},
		{"up-left beats up-right", map[image.Point]color.NRGBA{{0, 0}: red, {2, 0}: blue}, red},
		{"up-right beats down-left", map[image.Point]color.NRGBA{{2, 0}: blue, {0, 2}: red}, blue},
		{"down-left beats down-right", map[image.Point]color.NRGBA{{0, 2}: red, {2, 2}: blue}, red},
		{"translucent donor counts", map[image.Point]color.NRGBA{{2, 2}: {G: 9, A: 1}}, color.NRGBA{G: 9, A: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := canvas(3, 3)
			for p, c := range tt.donors {
				img.SetNRGBA(p.X, p.Y, c)
			}
			got, ok := NeighborColor(img, 1, 1)
			if !ok || got != tt.want {
				t.Errorf("NeighborColor = %v, %v; want %v", got, ok, tt.want)
			}
		})
	}
}

func TestStep_SingleIteration(t *testing.T) {
	// [ T, C, T ]
	// [ T, T, T ]
	// [ T, T, T ]
	img := canvas(3, 3)
	img.SetNRGBA(1, 0, red)

	next := Step(img)

	checks := []struct {
		x, y int
		want color.NRGBA
	}{
		{1, 0, red}, // donor unchanged
		{0, 0, red}, // left of donor
		{2, 0, red}, // right of donor
		{1, 1, red}, // below donor
		{0, 1, red}, // diagonal
		{1, 2, transparent},
	}
	for _, c := range checks {
		if got := next.NRGBAAt(c.x, c.y); got != c.want {
			t.Errorf("Step: (%d,%d) = %v, want %v", c.x, c.y, got, c.want)
		}
	}
	if got := img.NRGBAAt(0, 0); got != transparent {
		t.Errorf("Step mutated its input: (0,0) = %v", got)
	}
}

func TestStep_NoSamePassCascade(t *testing.T) {
	// A single donor at the left edge of a 1-row strip must advance exactly
	// one pixel per step even though the scan runs left to right.
	img := canvas(6, 1)
	img.SetNRGBA(0, 0, red)

	next := Step(img)
	if got := next.NRGBAAt(1, 0); got != red {
		t.Errorf("(1,0) = %v, want red", got)
	}
	if got := next.NRGBAAt(2, 0); got != transparent {
		t.Errorf("(2,0) = %v, want untouched after one step", got)
	}
}

func TestDilate_PaddingReach(t *testing.T) {
	// 5×5, only the center is opaque red.
	img := canvas(5, 5)
	img.SetNRGBA(2, 2, red)

	one := Dilate(img, 1)
	if got := one.NRGBAAt(2, 1); got != hiddenRed {
		t.Errorf("padding 1: (2,1) = %v, want hidden red", got)
	}
	if got := one.NRGBAAt(2, 0); got != transparent {
		t.Errorf("padding 1: (2,0) = %v, want (0,0,0,0)", got)
	}

	two := Dilate(img, 2)
	if got := two.NRGBAAt(2, 0); got != hiddenRed {
		t.Errorf("padding 2: (2,0) = %v, want hidden red", got)
	}
	if got := two.NRGBAAt(2, 2); got != red {
		t.Errorf("padding 2: center = %v, want red", got)
	}
}

func TestDilate_ChebyshevBound(t *testing.T) {
	const size, cx, cy = 21, 10, 10
	for _, p := range []int{0, 1, 3, 6} {
		img := canvas(size, size)
		img.SetNRGBA(cx, cy, red)
		out := Dilate(img, p)

		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				if x == cx && y == cy {
					continue
				}
				d := chebyshev(x-cx, y-cy)
				got := out.NRGBAAt(x, y)
				if d <= p && got != hiddenRed {
					t.Fatalf("padding %d: (%d,%d) at distance %d = %v, want hidden red", p, x, y, d, got)
				}
				if d > p && got != transparent {
					t.Fatalf("padding %d: (%d,%d) at distance %d = %v, want untouched", p, x, y, d, got)
				}
			}
		}
	}
}

func TestDilate_NoTransparentPixelsIsIdentity(t *testing.T) {
	img := randomImage(7, 5, 1, false)
	out := Dilate(img, 8)
	assertEqualPix(t, img, out)
}

func TestDilate_ZeroPaddingIsIdentity(t *testing.T) {
	img := randomImage(9, 9, 2, true)
	out := Dilate(img, 0)
	assertEqualPix(t, img, out)
	if out == img {
		t.Error("Dilate should return a new buffer even for padding 0")
	}
}

func TestDilate_Invariants(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		img := randomImage(16, 12, seed, true)
		orig := clone(img)
		out := Dilate(img, 3)

		assertEqualPix(t, orig, img) // input untouched

		for y := 0; y < 12; y++ {
			for x := 0; x < 16; x++ {
				before := orig.NRGBAAt(x, y)
				after := out.NRGBAAt(x, y)
				if after.A != before.A {
					t.Fatalf("seed %d: alpha changed at (%d,%d): %d -> %d", seed, x, y, before.A, after.A)
				}
				if before.A > 0 && after != before {
					t.Fatalf("seed %d: visible pixel changed at (%d,%d): %v -> %v", seed, x, y, before, after)
				}
			}
		}
	}
}

func TestDilate_EmptyBuffers(t *testing.T) {
	for _, r := range []image.Rectangle{image.Rect(0, 0, 0, 0), image.Rect(0, 0, 4, 0), image.Rect(0, 0, 0, 4)} {
		out := Dilate(image.NewNRGBA(r), 5)
		if !out.Rect.Eq(r) {
			t.Errorf("Dilate(%v) rect = %v", r, out.Rect)
		}
	}
}

func TestDilate_SubImageCoordinates(t *testing.T) {
	parent := canvas(8, 8)
	parent.SetNRGBA(4, 4, red)
	sub := parent.SubImage(image.Rect(3, 3, 6, 6)).(*image.NRGBA)

	out := Dilate(sub, 1)
	if !out.Rect.Eq(sub.Rect) {
		t.Fatalf("rect = %v, want %v", out.Rect, sub.Rect)
	}
	if got := out.NRGBAAt(3, 3); got != hiddenRed {
		t.Errorf("(3,3) = %v, want hidden red", got)
	}
	if got := parent.NRGBAAt(3, 3); got != transparent {
		t.Errorf("parent modified: (3,3) = %v", got)
	}
}

func TestDilate_FullyTransparentStaysBlack(t *testing.T) {
	img := canvas(4, 4)
	out := Dilate(img, 10)
	assertEqualPix(t, img, out)
}

func BenchmarkDilate512(b *testing.B) {
	img := randomImage(512, 512, 42, true)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Dilate(img, 8)
	}
}

// --- Helpers ---

func chebyshev(dx, dy int) int {
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

// randomImage fills a buffer with random colors. When holes is true roughly
// half the pixels are fully transparent with a random residual color.
func randomImage(w, h int, seed int64, holes bool) *image.NRGBA {
	rng := rand.New(rand.NewSource(seed))
	img := canvas(w, h)
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(rng.Intn(256))
		img.Pix[i+1] = uint8(rng.Intn(256))
		img.Pix[i+2] = uint8(rng.Intn(256))
		img.Pix[i+3] = uint8(1 + rng.Intn(255))
		if holes && rng.Intn(2) == 0 {
			img.Pix[i+3] = 0
		}
	}
	return img
}

func assertEqualPix(t *testing.T, want, got *image.NRGBA) {
	t.Helper()
	if !want.Rect.Eq(got.Rect) {
		t.Fatalf("rect = %v, want %v", got.Rect, want.Rect)
	}
	for y := want.Rect.Min.Y; y < want.Rect.Max.Y; y++ {
		for x := want.Rect.Min.X; x < want.Rect.Max.X; x++ {
			if w, g := want.NRGBAAt(x, y), got.NRGBAAt(x, y); w != g {
				t.Fatalf("(%d,%d) = %v, want %v", x, y, g, w)
			}
		}
	}
}
