// Package geometry provides the planar primitives used to reason about card
// outlines: points, quadrilaterals, rectangle sizes and perspective matrices.
//
// Coordinates follow the image convention used throughout the repository:
// (0,0) is the top-left corner, X grows rightward and Y grows downward.
package geometry

import (
	"image"
	"math"
)

// Point is a 2D point with floating-point coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// FromImagePoint converts an integer pixel coordinate to a Point.
func FromImagePoint(p image.Point) Point {
	return Point{X: float64(p.X), Y: float64(p.Y)}
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Size is the width and height of a rectangle.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// SizeOf returns the size of an image rectangle.
func SizeOf(r image.Rectangle) Size {
	return Size{Width: float64(r.Dx()), Height: float64(r.Dy())}
}

// Area returns Width × Height.
func (s Size) Area() float64 {
	return s.Width * s.Height
}

// AreaRatio compares two rectangles by area and returns min/max, a value in
// [0, 1] where 1 means both rectangles cover the same area. A zero-area
// rectangle yields 0.
func AreaRatio(a, b Size) float64 {
	areaA := a.Area()
	areaB := b.Area()
	hi := math.Max(areaA, areaB)
	if hi <= 0 {
		return 0
	}
	return math.Min(areaA, areaB) / hi
}

// Quad is an ordered quadrilateral. The vertex order is significant: it is
// the cyclic order reported by the contour that produced it, and the
// rectifier maps vertex i onto destination corner i.
type Quad [4]Point

// QuadFromPoints builds a Quad from exactly four points.
func QuadFromPoints(pts []Point) (Quad, bool) {
	var q Quad
	if len(pts) != 4 {
		return q, false
	}
	copy(q[:], pts)
	return q, true
}

// SideLengths returns the lengths of edge 0→1 and edge 0→3.
func (q Quad) SideLengths() (side01, side03 float64) {
	return Distance(q[0], q[1]), Distance(q[0], q[3])
}

// SideSize returns the two adjacent side lengths as a Size, with edge 0→1 as
// the width and edge 0→3 as the height.
func (q Quad) SideSize() Size {
	w, h := q.SideLengths()
	return Size{Width: w, Height: h}
}

// Points returns the vertices as a slice in order.
func (q Quad) Points() []Point {
	return []Point{q[0], q[1], q[2], q[3]}
}

// PolygonArea returns the absolute area of a closed polygon using the
// shoelace formula.
func PolygonArea(pts []Point) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return math.Abs(sum) / 2
}

// Perimeter returns the length of the polyline through pts, including the
// closing segment when closed is true.
func Perimeter(pts []Point, closed bool) float64 {
	if len(pts) < 2 {
		return 0
	}
	var length float64
	for i := 1; i < len(pts); i++ {
		length += Distance(pts[i-1], pts[i])
	}
	if closed {
		length += Distance(pts[len(pts)-1], pts[0])
	}
	return length
}
