package card

import (
	"errors"
	"image"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsumo0922/TrumpDetection/internal/geometry"
	"github.com/matsumo0922/TrumpDetection/internal/vision"
)

var testFrame = geometry.Size{Width: 400, Height: 300}

func newTestSelector(fb *fakeBackend) *Selector {
	return NewSelector(fb, DefaultSelectorConfig())
}

func TestSelector_RejectsFrameAcceptsCard(t *testing.T) {
	contours := []vision.Contour{
		rectContour(120, 40, 30, 30),
		rectContour(1, 1, 397, 297),
		rectContour(100, 30, 150, 243),
	}

	sel, err := newTestSelector(&fakeBackend{}).Select(contours, testFrame)
	require.NoError(t, err)
	require.True(t, sel.Found())

	require.Len(t, sel.Candidates, 2)
	assert.Equal(t, 1, sel.Candidates[0].Index)
	assert.Equal(t, RejectFrame, sel.Candidates[0].Rejected)
	assert.Greater(t, sel.Candidates[0].FrameRatio, 0.9)

	winner, ok := sel.Winner()
	require.True(t, ok)
	assert.Equal(t, 2, winner.Index)
	q, _ := geometry.QuadFromPoints(contours[2].Points())
	assert.Equal(t, q, sel.Quad, "vertex order preserved")
}

func TestSelector_FirstMatchByArea(t *testing.T) {
	contours := []vision.Contour{
		rectContour(10, 10, 50, 80),
		rectContour(100, 30, 150, 243),
	}

	sel, err := newTestSelector(&fakeBackend{}).Select(contours, testFrame)
	require.NoError(t, err)
	winner, _ := sel.Winner()
	assert.Equal(t, 1, winner.Index, "largest acceptable contour is examined first")
	assert.Len(t, sel.Candidates, 1)
}

func TestSelector_StableOnEqualArea(t *testing.T) {
	contours := []vision.Contour{
		rectContour(10, 10, 60, 97),
		rectContour(200, 100, 60, 97),
	}

	sel, err := newTestSelector(&fakeBackend{}).Select(contours, testFrame)
	require.NoError(t, err)
	winner, _ := sel.Winner()
	assert.Equal(t, 0, winner.Index)
}

func TestSelector_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		contour vision.Contour
		want    Rejection
	}{
		{"pentagon", pentagon(50, 50, 150), RejectVertices},
		{"small", rectContour(10, 10, 20, 20), RejectArea},
		{"full frame", rectContour(0, 0, 400, 300), RejectFrame},
		{"triangle", vision.Contour{image.Pt(0, 0), image.Pt(200, 0), image.Pt(0, 200)}, RejectVertices},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := newTestSelector(&fakeBackend{}).Select([]vision.Contour{tt.contour}, testFrame)
			assert.ErrorIs(t, err, ErrNoQuadrilateral)
			require.NotNil(t, sel)
			require.Len(t, sel.Candidates, 1)
			assert.Equal(t, tt.want, sel.Candidates[0].Rejected)
			assert.False(t, sel.Found())
		})
	}
}

func TestSelector_TopNCutoff(t *testing.T) {
	var contours []vision.Contour
	for i := 0; i < 5; i++ {
		contours = append(contours, pentagon(i*10, i*5, 200))
	}
	contours = append(contours, rectContour(100, 30, 60, 97))

	fb := &fakeBackend{}
	sel, err := newTestSelector(fb).Select(contours, testFrame)
	assert.ErrorIs(t, err, ErrNoQuadrilateral)
	assert.Len(t, sel.Candidates, 5)
	assert.Equal(t, 6, sel.Contours)
	assert.NotContains(t, fb.Calls(), "ApproxPolyDP(4)", "sixth contour is never simplified")
}

func TestSelector_Empty(t *testing.T) {
	sel, err := newTestSelector(&fakeBackend{}).Select(nil, testFrame)
	assert.ErrorIs(t, err, ErrNoQuadrilateral)
	assert.Empty(t, sel.Candidates)
}

func TestSelector_BackendError(t *testing.T) {
	boom := errors.New("boom")
	fb := &fakeBackend{fail: func(string) error { return boom }}

	sel, err := newTestSelector(fb).Select([]vision.Contour{rectContour(0, 0, 100, 100)}, testFrame)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNoQuadrilateral)
	assert.NotNil(t, sel)
}

// TestSelector_Invariants feeds random polygons through the selector and
// checks every accepted outline against the acceptance rules.
func TestSelector_Invariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	cfg := DefaultSelectorConfig()
	accepted := 0

	for trial := 0; trial < 500; trial++ {
		n := 1 + rng.Intn(8)
		contours := make([]vision.Contour, n)
		for i := range contours {
			verts := 3 + rng.Intn(4)
			c := make(vision.Contour, verts)
			for j := range c {
				c[j] = image.Pt(rng.Intn(int(testFrame.Width)), rng.Intn(int(testFrame.Height)))
			}
			contours[i] = c
		}

		sel, err := newTestSelector(&fakeBackend{}).Select(contours, testFrame)
		if err != nil {
			require.ErrorIs(t, err, ErrNoQuadrilateral)
			continue
		}
		accepted++

		winner, ok := sel.Winner()
		require.True(t, ok)
		assert.Len(t, winner.Approx, 4)
		assert.GreaterOrEqual(t, winner.Area, cfg.MinArea)
		assert.LessOrEqual(t, geometry.AreaRatio(sel.Quad.SideSize(), testFrame), cfg.MaxFrameRatio)
		assert.LessOrEqual(t, len(sel.Candidates), cfg.TopN)
	}
	assert.Greater(t, accepted, 0)
}

// fixedApprox simplifies every contour to the same polygon.
type fixedApprox struct {
	*fakeBackend
	approx []geometry.Point
}

func (f fixedApprox) ApproxPolyDP(vision.Contour, float64, bool) ([]geometry.Point, error) {
	return f.approx, nil
}

// chamfered traces the border of the rectangle (x0,y0)-(x1,y1) with corners
// cut by c pixels, starting at the bottom edge next to the bottom-right
// corner and running bottom-left, top-left, top-right.
func chamfered(x0, y0, x1, y1, c int) vision.Contour {
	vs := []image.Point{
		{x1 - c, y1}, {x0 + c, y1}, {x0, y1 - c}, {x0, y0 + c},
		{x0 + c, y0}, {x1 - c, y0}, {x1, y0 + c}, {x1, y1 - c},
	}
	var out vision.Contour
	for i, a := range vs {
		b := vs[(i+1)%len(vs)]
		step := image.Pt(sgn(b.X-a.X), sgn(b.Y-a.Y))
		for p := a; p != b; p = p.Add(step) {
			out = append(out, p)
		}
	}
	return out
}

func sgn(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func TestSelector_RefinesCorners(t *testing.T) {
	contour := chamfered(105, 28, 254, 270, 5)
	approx := []geometry.Point{
		geometry.Pt(249, 270), geometry.Pt(105, 265), geometry.Pt(110, 28), geometry.Pt(254, 33),
	}
	s := NewSelector(fixedApprox{&fakeBackend{}, approx}, DefaultSelectorConfig())

	sel, err := s.Select([]vision.Contour{contour}, testFrame)
	require.NoError(t, err)
	winner, _ := sel.Winner()
	assert.Equal(t, approx, winner.Approx, "candidate keeps the simplified vertices")

	want := geometry.Quad{
		geometry.Pt(254, 270), geometry.Pt(105, 270), geometry.Pt(105, 28), geometry.Pt(254, 28),
	}
	for i := range want {
		assert.InDelta(t, want[i].X, sel.Quad[i].X, 1e-6, "vertex %d x", i)
		assert.InDelta(t, want[i].Y, sel.Quad[i].Y, 1e-6, "vertex %d y", i)
	}
}

// A uniformly bright frame traces as one border just inside the image edge,
// which must never be taken for a card.
func TestSelector_RejectsFullFrameBorder(t *testing.T) {
	native := vision.NewNative()
	for _, size := range []image.Point{{100, 100}, {100, 80}, {200, 150}, {360, 300}} {
		img := image.NewGray(image.Rect(0, 0, size.X, size.Y))
		for i := range img.Pix {
			img.Pix[i] = 255
		}
		contours, err := native.FindContours(img)
		require.NoError(t, err)
		require.NotEmpty(t, contours)

		sel, err := NewSelector(native, DefaultSelectorConfig()).Select(contours, geometry.SizeOf(img.Rect))
		require.ErrorIs(t, err, ErrNoQuadrilateral, "%v", size)
		require.NotEmpty(t, sel.Candidates)
		assert.Equal(t, RejectFrame, sel.Candidates[0].Rejected, "%v", size)
		assert.Len(t, sel.Candidates[0].Approx, 4, "%v", size)
	}
}
