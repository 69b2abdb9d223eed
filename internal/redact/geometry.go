package redact

import "math"

// Package redact burns opaque redaction marks into PDF page content.
// UI coordinates (origin top-left, y down) are converted into PDF user space
// (origin bottom-left, y up) before the marks are written.

// Rect is a rectangle in UI space: X/Y are the offsets of the top-left corner
// from the top-left corner of the page, in points.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Box is a rectangle in PDF space given by its lower-left (X0, Y0) and
// upper-right (X1, Y1) corners.
type Box struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// MapToPDFSpace converts a UI-space rectangle into PDF space for a page of the
// given height. It neither clamps nor validates; out-of-page input yields an
// out-of-page box.
func MapToPDFSpace(r Rect, pageHeight float64) Box {
	x0 := r.X
	y1 := pageHeight - r.Y
	return Box{
		X0: x0,
		Y0: y1 - r.Height,
		X1: x0 + r.Width,
		Y1: y1,
	}
}

// Width returns the horizontal extent of b.
func (b Box) Width() float64 { return b.X1 - b.X0 }

// Height returns the vertical extent of b.
func (b Box) Height() float64 { return b.Y1 - b.Y0 }

// Area returns the signed area of b. Inverted boxes have a non-positive area.
func (b Box) Area() float64 {
	w, h := b.Width(), b.Height()
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Translate shifts b by (dx, dy).
func (b Box) Translate(dx, dy float64) Box {
	return Box{X0: b.X0 + dx, Y0: b.Y0 + dy, X1: b.X1 + dx, Y1: b.Y1 + dy}
}

// Overlaps reports whether b and o share a region of positive area.
func (b Box) Overlaps(o Box) bool {
	return b.X0 < o.X1 && o.X0 < b.X1 && b.Y0 < o.Y1 && o.Y0 < b.Y1
}

// normalize orders the corners so that X0 <= X1 and Y0 <= Y1. PDF files may
// give a rectangle by any two opposite corners.
func (b Box) normalize() Box {
	if b.X0 > b.X1 {
		b.X0, b.X1 = b.X1, b.X0
	}
	if b.Y0 > b.Y1 {
		b.Y0, b.Y1 = b.Y1, b.Y0
	}
	return b
}

func (b Box) finite() bool {
	for _, v := range [...]float64{b.X0, b.Y0, b.X1, b.Y1} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
