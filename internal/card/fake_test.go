package card

import (
	"fmt"
	"image"
	"sync"

	"github.com/matsumo0922/TrumpDetection/internal/geometry"
	"github.com/matsumo0922/TrumpDetection/internal/vision"
)

// fakeBackend records every call as a short string and returns canned
// contours. Areas and perimeters are real; ApproxPolyDP returns the contour
// unchanged, so a contour's vertex count is what the selector sees.
type fakeBackend struct {
	mu    sync.Mutex
	calls []string

	// contours returns the contours for the n-th FindContours call.
	contours func(n int) []vision.Contour
	finds    int

	// fail returns an error for a call string, or nil.
	fail func(call string) error
}

func (f *fakeBackend) record(format string, args ...any) error {
	call := fmt.Sprintf(format, args...)
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
	if f.fail != nil {
		return f.fail(call)
	}
	return nil
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (*fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Grayscale(img image.Image) (*image.Gray, error) {
	if err := f.record("Grayscale"); err != nil {
		return nil, err
	}
	b := img.Bounds()
	return image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy())), nil
}

func (f *fakeBackend) BitwiseNot(*image.Gray) error {
	return f.record("BitwiseNot")
}

func (f *fakeBackend) AdaptiveThreshold(_ *image.Gray, blockSize int, c float64) error {
	return f.record("AdaptiveThreshold(%d,%g)", blockSize, c)
}

func (f *fakeBackend) MedianBlur(_ *image.Gray, ksize int) error {
	return f.record("MedianBlur(%d)", ksize)
}

func (f *fakeBackend) Dilate(_ *image.Gray, iterations int) error {
	return f.record("Dilate(%d)", iterations)
}

func (f *fakeBackend) Erode(_ *image.Gray, iterations int) error {
	return f.record("Erode(%d)", iterations)
}

func (f *fakeBackend) FindContours(*image.Gray) ([]vision.Contour, error) {
	if err := f.record("FindContours"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	n := f.finds
	f.finds++
	f.mu.Unlock()
	if f.contours == nil {
		return nil, nil
	}
	return f.contours(n), nil
}

func (*fakeBackend) ContourArea(c vision.Contour) float64 {
	return geometry.PolygonArea(c.Points())
}

func (*fakeBackend) ArcLength(c vision.Contour, closed bool) float64 {
	return geometry.Perimeter(c.Points(), closed)
}

func (f *fakeBackend) ApproxPolyDP(c vision.Contour, _ float64, _ bool) ([]geometry.Point, error) {
	if err := f.record("ApproxPolyDP(%d)", len(c)); err != nil {
		return nil, err
	}
	return c.Points(), nil
}

func (f *fakeBackend) PerspectiveTransform(src, dst geometry.Quad) (geometry.Matrix, error) {
	if err := f.record("PerspectiveTransform"); err != nil {
		return geometry.Matrix{}, err
	}
	return geometry.Homography(src, dst)
}

func (f *fakeBackend) WarpPerspective(_ image.Image, _ geometry.Matrix, size image.Point) (image.Image, error) {
	if err := f.record("WarpPerspective(%dx%d)", size.X, size.Y); err != nil {
		return nil, err
	}
	return image.NewNRGBA(image.Rect(0, 0, size.X, size.Y)), nil
}

func (f *fakeBackend) FlipHorizontal(img image.Image) (image.Image, error) {
	if err := f.record("FlipHorizontal"); err != nil {
		return nil, err
	}
	return img, nil
}

func (f *fakeBackend) Rotate90Clockwise(img image.Image) (image.Image, error) {
	if err := f.record("Rotate90Clockwise"); err != nil {
		return nil, err
	}
	b := img.Bounds()
	return image.NewNRGBA(image.Rect(0, 0, b.Dy(), b.Dx())), nil
}

// rectContour returns the four corners of an axis-aligned rectangle in the
// order a hole border would report them: bottom-right, bottom-left,
// top-left, top-right.
func rectContour(x, y, w, h int) vision.Contour {
	return vision.Contour{
		image.Pt(x+w, y+h),
		image.Pt(x, y+h),
		image.Pt(x, y),
		image.Pt(x+w, y),
	}
}

// pentagon is a five-vertex contour with a large area.
func pentagon(x, y, size int) vision.Contour {
	return vision.Contour{
		image.Pt(x, y+size/3),
		image.Pt(x+size/2, y),
		image.Pt(x+size, y+size/3),
		image.Pt(x+size*4/5, y+size),
		image.Pt(x+size/5, y+size),
	}
}

var _ vision.Backend = (*fakeBackend)(nil)
