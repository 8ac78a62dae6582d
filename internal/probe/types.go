package probe

import "fmt"

// Stats summarizes the alpha distribution of one buffer.
type Stats struct {
	Width       int
	Height      int
	Transparent int // alpha == 0
	Translucent int // 0 < alpha < 255
	Opaque      int // alpha == 255
}

// Pixels returns Width*Height.
func (s Stats) Pixels() int {
	return s.Width * s.Height
}

// Visible returns the number of pixels with alpha > 0.
func (s Stats) Visible() int {
	return s.Translucent + s.Opaque
}

// NeedsDilation reports whether dilation can change anything: there must be
// at least one transparent pixel and at least one donor.
func (s Stats) NeedsDilation() bool {
	return s.Transparent > 0 && s.Visible() > 0
}

// Resolution returns "WxH".
func (s Stats) Resolution() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// TransparentPercent returns the share of transparent pixels in [0,100].
func (s Stats) TransparentPercent() float64 {
	if s.Pixels() == 0 {
		return 0
	}
	return float64(s.Transparent) * 100 / float64(s.Pixels())
}
