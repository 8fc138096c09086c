package geometry

// Class routes an object either to the outline path or to the anomaly list.
type Class string

const (
	ClassNormal   Class = "normal"
	ClassZeroArea Class = "zero-area"
)

// Classify returns ClassZeroArea when the box has non-positive width or height.
func Classify(b BBox) Class {
	if b.IsZeroArea() {
		return ClassZeroArea
	}
	return ClassNormal
}

// DegenerateKind distinguishes the shapes a zero-area box collapses to.
// Only the marker glyph uses it; classification treats all of them alike.
type DegenerateKind string

const (
	KindNone       DegenerateKind = ""
	KindPoint      DegenerateKind = "point"
	KindHorizontal DegenerateKind = "horizontal"
	KindVertical   DegenerateKind = "vertical"
)

// Degenerate reports which shape a zero-area box collapses to.
func Degenerate(b BBox) DegenerateKind {
	flatW, flatH := b.Width() <= 0, b.Height() <= 0
	switch {
	case flatW && flatH:
		return KindPoint
	case flatH:
		return KindHorizontal
	case flatW:
		return KindVertical
	default:
		return KindNone
	}
}

// Glyph returns the letter drawn inside the marker square.
func (k DegenerateKind) Glyph() string {
	switch k {
	case KindPoint:
		return "P"
	case KindHorizontal:
		return "H"
	case KindVertical:
		return "V"
	default:
		return "?"
	}
}
