package smartbrush

import "image"

// Point is a position in viewport (client) or mask buffer space.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Rect is the on-screen rectangle the display canvas is rendered into.
type Rect struct {
	Min, Max Point
}

// Dx returns the rectangle width.
func (r Rect) Dx() float64 { return r.Max.X - r.Min.X }

// Dy returns the rectangle height.
func (r Rect) Dy() float64 { return r.Max.Y - r.Min.Y }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.Dx() <= 0 || r.Dy() <= 0 }

// MapToCanvas converts a viewport position into mask buffer coordinates.
// The horizontal and vertical scale factors are independent, so a canvas
// stretched on screen maps back exactly. Positions outside the rect are not
// clamped; the stroke renderer ignores pixels outside the buffer.
func MapToCanvas(client Point, bounds Rect, buffer image.Point) Point {
	if bounds.Empty() {
		return Point{}
	}
	sx := float64(buffer.X) / bounds.Dx()
	sy := float64(buffer.Y) / bounds.Dy()

	return Point{
		X: (client.X - bounds.Min.X) * sx,
		Y: (client.Y - bounds.Min.Y) * sy,
	}
}

// MapPoint maps a viewport position onto the painter's mask buffer.
// It returns the origin while no source image has been laid out.
func (p *Painter) MapPoint(client Point, bounds Rect) Point {
	if p.display == nil {
		return Point{}
	}
	return MapToCanvas(client, bounds, p.Size())
}
