// Package geometry maps structural-object bounding boxes from PDF user space
// (origin bottom-left, Y up) into overlay space (origin top-left, Y down).
//
// The overlay is drawn in a viewBox equal to the page size, so no scaling is
// done here; the rendering surface scales the viewBox to its pixel size.
package geometry

import "math"

const (
	// DefaultMarkerInset keeps zero-area markers this far from the page edge.
	DefaultMarkerInset = 24.0

	// DefaultMarkerSize is the side of the square drawn for a zero-area marker.
	DefaultMarkerSize = 20.0
)

// BBox is an axis-aligned box (x1, y1, x2, y2) in PDF user space.
type BBox [4]float64

// Width returns x2 - x1. It may be zero or negative.
func (b BBox) Width() float64 { return b[2] - b[0] }

// Height returns y2 - y1. It may be zero or negative.
func (b BBox) Height() float64 { return b[3] - b[1] }

// Area returns width * height, or 0 for degenerate boxes.
func (b BBox) Area() float64 {
	if b.IsZeroArea() {
		return 0
	}
	return b.Width() * b.Height()
}

// IsZeroArea reports whether the box has non-positive width or height.
func (b BBox) IsZeroArea() bool {
	return b.Width() <= 0 || b.Height() <= 0
}

// ParseBBox converts a raw coordinate list into a BBox.
// It returns false unless there are exactly four finite values.
func ParseBBox(coords []float64) (BBox, bool) {
	if len(coords) != 4 {
		return BBox{}, false
	}
	var b BBox
	for i, v := range coords {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return BBox{}, false
		}
		b[i] = v
	}
	return b, true
}

// Rect is a rectangle in overlay space.
type Rect struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// ToScreenRect flips a positive-area box into overlay space.
// Degenerate boxes return false and belong on the marker path instead.
func ToScreenRect(b BBox, pageHeight float64) (Rect, bool) {
	w, h := b.Width(), b.Height()
	if w <= 0 || h <= 0 {
		return Rect{}, false
	}
	return Rect{
		X:      b[0],
		Y:      pageHeight - b[3],
		Width:  w,
		Height: h,
	}, true
}

// Marker positions the glyph drawn for a zero-area object.
type Marker struct {
	X           float64        `json:"x" yaml:"x"`
	Y           float64        `json:"y" yaml:"y"`
	OutOfBounds bool           `json:"out_of_bounds" yaml:"out_of_bounds"`
	Kind        DegenerateKind `json:"kind" yaml:"kind"`
}

// ToMarkerPosition anchors a marker at (x1, y1), flipped into overlay space and
// clamped into [inset, dim-inset] on both axes so it stays visible near the
// page edge. OutOfBounds reports whether the unclamped point lies off the page;
// it never changes the clamped position.
func ToMarkerPosition(b BBox, pageWidth, pageHeight, inset float64) Marker {
	x := b[0]
	y := pageHeight - b[1]

	return Marker{
		X:           clampAxis(x, pageWidth, inset),
		Y:           clampAxis(y, pageHeight, inset),
		OutOfBounds: x < 0 || x > pageWidth || y < 0 || y > pageHeight,
		Kind:        Degenerate(b),
	}
}

// clampAxis clamps v into [inset, dim-inset]. Pages narrower than two insets
// have no such interval, so the marker is centred on that axis.
func clampAxis(v, dim, inset float64) float64 {
	lo, hi := inset, dim-inset
	if hi < lo {
		return dim / 2
	}
	return math.Max(lo, math.Min(v, hi))
}
