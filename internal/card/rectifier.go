package card

import (
	"fmt"
	"image"

	"github.com/matsumo0922/TrumpDetection/internal/geometry"
	"github.com/matsumo0922/TrumpDetection/internal/vision"
)

const (
	// ShortSide is the short edge of every rectified card, in pixels.
	ShortSide = 1024
	// AspectRatio is long edge over short edge.
	AspectRatio = 1.618
	// LongSide is the long edge of every rectified card, in pixels:
	// ShortSide × AspectRatio rounded to the nearest pixel.
	LongSide = 1657
)

// CanonicalSize returns the warp canvas for q. When edge 0→1 is at least as
// long as edge 0→3 the canvas is ShortSide wide; otherwise it is ShortSide
// tall and rotate is true.
func CanonicalSize(q geometry.Quad) (size image.Point, rotate bool) {
	side01, side03 := q.SideLengths()
	if side01 >= side03 {
		return image.Pt(ShortSide, LongSide), false
	}
	return image.Pt(LongSide, ShortSide), true
}

// DestinationQuad returns the canvas corners in the order source vertices
// are mapped onto them: top-left, bottom-left, bottom-right, top-right.
func DestinationQuad(size image.Point) geometry.Quad {
	w, h := float64(size.X), float64(size.Y)
	return geometry.Quad{
		geometry.Pt(0, 0),
		geometry.Pt(0, h),
		geometry.Pt(w, h),
		geometry.Pt(w, 0),
	}
}

// Rectifier maps an accepted outline onto the canonical rectangle.
type Rectifier struct {
	backend vision.Backend
}

// NewRectifier returns a Rectifier using b.
func NewRectifier(b vision.Backend) *Rectifier {
	return &Rectifier{backend: b}
}

// Rectify warps the region of img bounded by q onto a canonical canvas,
// mirrors it horizontally and, for outlines whose edge 0→1 is the shorter,
// turns it a quarter clockwise. img is not modified.
func (r *Rectifier) Rectify(img image.Image, q geometry.Quad) (image.Image, error) {
	size, rotate := CanonicalSize(q)

	m, err := r.backend.PerspectiveTransform(q, DestinationQuad(size))
	if err != nil {
		return nil, fmt.Errorf("perspective transform: %w", err)
	}
	out, err := r.backend.WarpPerspective(img, m, size)
	if err != nil {
		return nil, fmt.Errorf("warp: %w", err)
	}
	if out, err = r.backend.FlipHorizontal(out); err != nil {
		return nil, fmt.Errorf("flip: %w", err)
	}
	if rotate {
		if out, err = r.backend.Rotate90Clockwise(out); err != nil {
			return nil, fmt.Errorf("rotate: %w", err)
		}
	}
	return out, nil
}
