package geometry

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrDegenerate is returned when a perspective matrix cannot be derived or
// inverted, typically because three of the four points are collinear.
var ErrDegenerate = errors.New("degenerate perspective transform")

// Matrix is a 3×3 perspective transform stored row-major.
type Matrix [9]float64

// Identity is the identity transform.
var Identity = Matrix{1, 0, 0, 0, 1, 0, 0, 0, 1}

// Homography computes the perspective matrix H mapping src[i] onto dst[i]
// for all four vertices. H is normalised so that H[8] == 1.
//
// The eight unknowns h00..h21 satisfy, for every correspondence (X,Y)→(x,y):
//
//	x = (h00 X + h01 Y + h02) / (h20 X + h21 Y + 1)
//	y = (h10 X + h11 Y + h12) / (h20 X + h21 Y + 1)
//
// which is linear after multiplying out the denominator.
func Homography(src, dst Quad) (Matrix, error) {
	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		sx, sy := src[i].X, src[i].Y
		dx, dy := dst[i].X, dst[i].Y
		r := 2 * i
		a.SetRow(r, []float64{sx, sy, 1, 0, 0, 0, -sx * dx, -sy * dx})
		b.SetVec(r, dx)
		a.SetRow(r+1, []float64{0, 0, 0, sx, sy, 1, -sx * dy, -sy * dy})
		b.SetVec(r+1, dy)
	}

	var h mat.VecDense
	if err := h.SolveVec(a, b); err != nil && !usable(err) {
		return Matrix{}, fmt.Errorf("%w: %v", ErrDegenerate, err)
	}

	m := Matrix{
		h.AtVec(0), h.AtVec(1), h.AtVec(2),
		h.AtVec(3), h.AtVec(4), h.AtVec(5),
		h.AtVec(6), h.AtVec(7), 1,
	}
	if !m.finite() {
		return Matrix{}, ErrDegenerate
	}
	return m, nil
}

// Inverse returns the inverse transform.
func (m Matrix) Inverse() (Matrix, error) {
	var inv mat.Dense
	if err := inv.Inverse(mat.NewDense(3, 3, m[:])); err != nil && !usable(err) {
		return Matrix{}, fmt.Errorf("%w: %v", ErrDegenerate, err)
	}

	var out Matrix
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r*3+c] = inv.At(r, c)
		}
	}
	if out[8] != 0 {
		for i := range out {
			out[i] /= out[8]
		}
	}
	if !out.finite() {
		return Matrix{}, ErrDegenerate
	}
	return out, nil
}

// Apply maps p through the transform. Points mapped to infinity come back
// with NaN coordinates.
func (m Matrix) Apply(p Point) Point {
	w := m[6]*p.X + m[7]*p.Y + m[8]
	if w == 0 {
		return Point{X: math.NaN(), Y: math.NaN()}
	}
	return Point{
		X: (m[0]*p.X + m[1]*p.Y + m[2]) / w,
		Y: (m[3]*p.X + m[4]*p.Y + m[5]) / w,
	}
}

func (m Matrix) finite() bool {
	for _, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// usable reports whether a gonum solve error is only an ill-conditioning
// warning. The result is still computed in that case unless the matrix is
// exactly singular.
func usable(err error) bool {
	var cond mat.Condition
	if errors.As(err, &cond) {
		return !math.IsInf(float64(cond), 1)
	}
	return false
}
