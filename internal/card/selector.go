package card

import (
	"sort"

	"github.com/matsumo0922/TrumpDetection/internal/geometry"
	"github.com/matsumo0922/TrumpDetection/internal/vision"
)

// SelectorConfig holds the acceptance thresholds of the Selector.
type SelectorConfig struct {
	// TopN is how many of the largest contours are examined.
	TopN int `json:"top_n"`
	// MinArea is the smallest contour area accepted.
	MinArea float64 `json:"min_area"`
	// MaxFrameRatio rejects outlines whose side-length rectangle is too
	// close in area to the whole frame.
	MaxFrameRatio float64 `json:"max_frame_ratio"`
	// Tolerance is the simplification epsilon as a fraction of perimeter.
	Tolerance float64 `json:"tolerance"`
}

// DefaultSelectorConfig returns the standard thresholds.
func DefaultSelectorConfig() SelectorConfig {
	return SelectorConfig{
		TopN:          5,
		MinArea:       1000,
		MaxFrameRatio: 0.9,
		Tolerance:     0.01,
	}
}

// Rejection explains why a candidate was not accepted.
type Rejection string

const (
	RejectVertices Rejection = "vertices"
	RejectArea     Rejection = "area"
	RejectFrame    Rejection = "frame"
)

// Candidate is one contour examined by the Selector.
type Candidate struct {
	Index      int              `json:"index"`
	Area       float64          `json:"area"`
	Approx     []geometry.Point `json:"approx"`
	FrameRatio float64          `json:"frame_ratio,omitempty"`
	Rejected   Rejection        `json:"rejected,omitempty"`
}

// Selection records the outcome of one Select call.
type Selection struct {
	Frame      geometry.Size `json:"frame"`
	Contours   int           `json:"contours"`
	Candidates []Candidate   `json:"candidates"`
	// Accepted indexes Candidates, or is -1.
	Accepted int           `json:"accepted"`
	Quad     geometry.Quad `json:"quad"`
}

// Found reports whether a quadrilateral was accepted.
func (s *Selection) Found() bool {
	return s != nil && s.Accepted >= 0
}

// Winner returns the accepted candidate.
func (s *Selection) Winner() (Candidate, bool) {
	if !s.Found() {
		return Candidate{}, false
	}
	return s.Candidates[s.Accepted], true
}

// Selector picks the card outline among the contours of a binary image.
type Selector struct {
	backend vision.Backend
	cfg     SelectorConfig
}

// NewSelector returns a Selector using b for measurement and simplification.
func NewSelector(b vision.Backend, cfg SelectorConfig) *Selector {
	return &Selector{backend: b, cfg: cfg}
}

// Config returns the thresholds in use.
func (s *Selector) Config() SelectorConfig {
	return s.cfg
}

// Select examines the TopN largest contours in descending area order and
// accepts the first whose simplified polygon has four vertices, whose area
// is at least MinArea and whose side-length rectangle is not near the frame
// size. Equal areas keep the order of contours. The accepted polygon's
// corners are then refined against its contour; Candidate.Approx keeps the
// unrefined vertices.
//
// The returned Selection is never nil. When nothing qualifies the error is
// ErrNoQuadrilateral; any other error comes from the backend.
func (s *Selector) Select(contours []vision.Contour, frame geometry.Size) (*Selection, error) {
	sel := &Selection{Frame: frame, Contours: len(contours), Accepted: -1}

	areas := make([]float64, len(contours))
	order := make([]int, len(contours))
	for i, c := range contours {
		areas[i] = s.backend.ContourArea(c)
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return areas[order[a]] > areas[order[b]] })
	if len(order) > s.cfg.TopN {
		order = order[:s.cfg.TopN]
	}

	for _, idx := range order {
		c := contours[idx]
		eps := s.cfg.Tolerance * s.backend.ArcLength(c, true)
		approx, err := s.backend.ApproxPolyDP(c, eps, true)
		if err != nil {
			return sel, err
		}

		cand := Candidate{Index: idx, Area: areas[idx], Approx: approx}
		quad, ok := geometry.QuadFromPoints(approx)
		switch {
		case !ok:
			cand.Rejected = RejectVertices
		case cand.Area < s.cfg.MinArea:
			cand.Rejected = RejectArea
		default:
			cand.FrameRatio = geometry.AreaRatio(quad.SideSize(), frame)
			if cand.FrameRatio > s.cfg.MaxFrameRatio {
				cand.Rejected = RejectFrame
			}
		}

		sel.Candidates = append(sel.Candidates, cand)
		if cand.Rejected == "" {
			sel.Accepted = len(sel.Candidates) - 1
			sel.Quad = geometry.RefineCorners(c.Points(), quad)
			return sel, nil
		}
	}
	return sel, ErrNoQuadrilateral
}
