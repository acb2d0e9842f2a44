package vision

import (
	"math"

	"github.com/matsumo0922/TrumpDetection/internal/geometry"
)

// simplify reduces a polyline with the Douglas-Peucker algorithm, dropping
// every vertex that lies within epsilon of the simplified shape.
//
// For a closed curve the split starts from two far-apart vertices: a is the
// vertex farthest from pts[0] and b the vertex farthest from a. The result
// begins at a and visits the surviving vertices in the order of pts, so the
// cyclic orientation of the input is preserved.
func simplify(pts []geometry.Point, epsilon float64, closed bool) []geometry.Point {
	n := len(pts)
	if n <= 2 {
		return append([]geometry.Point(nil), pts...)
	}
	if !closed {
		keep := make([]bool, n)
		markDP(pts, 0, n-1, epsilon, keep)
		return collect(pts, keep)
	}

	a := farthest(pts, 0)
	b := farthest(pts, a)
	if a == b {
		return []geometry.Point{pts[a]}
	}

	// Rotate so a sits at index 0; b moves to bi.
	ring := make([]geometry.Point, 0, n+1)
	ring = append(ring, pts[a:]...)
	ring = append(ring, pts[:a]...)
	ring = append(ring, pts[a])
	bi := (b - a + n) % n

	keep := make([]bool, n+1)
	markDP(ring, 0, bi, epsilon, keep)
	markDP(ring, bi, n, epsilon, keep)
	keep[n] = false // same vertex as ring[0]

	return collect(ring, keep)
}

// markDP flags the vertices of pts[first..last] that survive simplification.
// An explicit stack avoids deep recursion on long contours.
func markDP(pts []geometry.Point, first, last int, epsilon float64, keep []bool) {
	keep[first] = true
	keep[last] = true

	type span struct{ lo, hi int }
	stack := []span{{first, last}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s.hi-s.lo < 2 {
			continue
		}

		maxDist := -1.0
		idx := -1
		for i := s.lo + 1; i < s.hi; i++ {
			d := segmentDistance(pts[i], pts[s.lo], pts[s.hi])
			if d > maxDist {
				maxDist = d
				idx = i
			}
		}
		if maxDist > epsilon {
			keep[idx] = true
			stack = append(stack, span{s.lo, idx}, span{idx, s.hi})
		}
	}
}

func collect(pts []geometry.Point, keep []bool) []geometry.Point {
	out := make([]geometry.Point, 0, 8)
	for i, k := range keep {
		if k {
			out = append(out, pts[i])
		}
	}
	return out
}

// farthest returns the index of the point farthest from pts[from]. Ties keep
// the earliest index.
func farthest(pts []geometry.Point, from int) int {
	best := from
	bestDist := -1.0
	for i, p := range pts {
		d := geometry.Distance(p, pts[from])
		if d > bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// segmentDistance returns the perpendicular distance from p to the line
// through a and b, or the distance to a when a and b coincide.
func segmentDistance(p, a, b geometry.Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return geometry.Distance(p, a)
	}
	return math.Abs(dy*p.X-dx*p.Y+b.X*a.Y-b.Y*a.X) / length
}
