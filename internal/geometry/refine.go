package geometry

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// minSidePoints is the fewest contour points a side needs before a line is
// fitted through it.
const minSidePoints = 5

// line is a point on the line and a unit direction.
type line struct {
	x, y   float64
	dx, dy float64
}

// fitLine returns the total least squares line through pts.
func fitLine(pts []Point) line {
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		xs[i], ys[i] = p.X, p.Y
	}
	sxx := stat.Variance(xs, nil)
	syy := stat.Variance(ys, nil)
	sxy := stat.Covariance(xs, ys, nil)
	theta := math.Atan2(2*sxy, sxx-syy) / 2
	return line{x: stat.Mean(xs, nil), y: stat.Mean(ys, nil), dx: math.Cos(theta), dy: math.Sin(theta)}
}

func intersect(a, b line) (Point, bool) {
	den := a.dx*b.dy - a.dy*b.dx
	if math.Abs(den) < 1e-6 {
		return Point{}, false
	}
	t := ((b.x-a.x)*b.dy - (b.y-a.y)*b.dx) / den
	return Pt(a.x+t*a.dx, a.y+t*a.dy), true
}

// RefineCorners moves the vertices of q, which must be points of the closed
// contour, onto the intersections of lines fitted to the contour between
// them. The outer fifth of each side is left out of the fit so rounded or
// chamfered corners do not bend the lines. Vertex order is kept.
//
// A vertex stays where it is when it is not on the contour, when either
// adjacent side is too short to fit, when the two lines are parallel or when
// the intersection lies farther than a tenth of the shorter adjacent side.
func RefineCorners(contour []Point, q Quad) Quad {
	n := len(contour)
	idx := [4]int{}
	for i, v := range q {
		idx[i] = -1
		for j, p := range contour {
			if p == v {
				idx[i] = j
				break
			}
		}
	}

	var lines [4]line
	var fitted [4]bool
	for i := range q {
		a, b := idx[i], idx[(i+1)%4]
		if a < 0 || b < 0 {
			continue
		}
		run := (b - a + n) % n
		trim := run / 5
		if run-2*trim+1 < minSidePoints {
			continue
		}
		side := make([]Point, 0, run-2*trim+1)
		for k := trim; k <= run-trim; k++ {
			side = append(side, contour[(a+k)%n])
		}
		lines[i] = fitLine(side)
		fitted[i] = true
	}

	out := q
	for i := range q {
		prev := (i + 3) % 4
		if !fitted[prev] || !fitted[i] {
			continue
		}
		p, ok := intersect(lines[prev], lines[i])
		if !ok {
			continue
		}
		limit := math.Min(Distance(q[prev], q[i]), Distance(q[i], q[(i+1)%4])) / 10
		if Distance(p, q[i]) > limit {
			continue
		}
		out[i] = p
	}
	return out
}
