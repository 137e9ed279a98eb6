package model

import "fmt"

// BBox is an axis-aligned bounding box in page coordinates. The origin is
// the bottom-left corner of the page, so Y1 >= Y0 and Y grows upward.
type BBox struct {
	X0 float64
	Y0 float64
	X1 float64
	Y1 float64
}

// Width returns the horizontal extent of the box.
func (b BBox) Width() float64 {
	return b.X1 - b.X0
}

// Height returns the vertical extent of the box.
func (b BBox) Height() float64 {
	return b.Y1 - b.Y0
}

// OverlapsX reports whether the horizontal spans of two boxes intersect.
func (b BBox) OverlapsX(other BBox) bool {
	return b.X1 > other.X0 && b.X0 < other.X1
}

// String returns the box as "x0,y0,x1,y1" with two decimals, matching the
// format used by structure dumps.
func (b BBox) String() string {
	return fmt.Sprintf("%.2f,%.2f,%.2f,%.2f", b.X0, b.Y0, b.X1, b.Y1)
}
