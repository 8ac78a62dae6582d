// Package probe inspects decoded pixel buffers: how many pixels are fully
// transparent, translucent or opaque, and how many pixels a dilation pass
// actually changed. The batch executor uses it for per-file stats and to
// note inputs that have nothing to repair.
package probe
