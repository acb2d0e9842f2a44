package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/matsumo0922/TrumpDetection/internal/batch"
	"github.com/matsumo0922/TrumpDetection/internal/card"
	"github.com/matsumo0922/TrumpDetection/internal/geometry"
	"github.com/matsumo0922/TrumpDetection/internal/imaging"
	"github.com/matsumo0922/TrumpDetection/internal/vision"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "card_rectify").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall runs one tool and wraps its JSON result in MCP's text
// content format. A tool error becomes a CodeToolFailed response carrying
// the error string.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return fail(req.ID, CodeInvalidParams, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(params.Name, params.Arguments)
	log := s.log.WithFields(logrus.Fields{"tool": params.Name, "elapsed": time.Since(start)})
	if err != nil {
		log.WithError(err).Warn("tool failed")
		return fail(req.ID, CodeToolFailed, "Tool execution failed", err.Error())
	}
	log.Debug("tool finished")

	text, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fail(req.ID, CodeToolFailed, "Tool execution failed", err.Error())
	}
	return reply(req.ID, map[string]interface{}{
		"content": []map[string]interface{}{
			{"type": "text", "text": string(text)},
		},
	})
}

var errUnknownTool = errors.New("unknown tool")

func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
	case "card_locate":
		return s.handleCardLocate(args)
	case "card_rectify":
		return s.handleCardRectify(args)
	case "card_sweep":
		return s.handleCardSweep(args)
	default:
		return nil, fmt.Errorf("%w: %s", errUnknownTool, name)
	}
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errMissingPath
	}
	return imaging.Inspect(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errMissingPath
	}
	return imaging.Measure(s.cache, a.Path)
}

// === Card Handlers ===

var errMissingPath = errors.New("path is required")

// outline describes an accepted card outline.
type outline struct {
	Quad   geometry.Quad `json:"quad"`
	Side01 float64       `json:"side_01"`
	Side03 float64       `json:"side_03"`
	// Width and Height are the dimensions of the rectified card before the
	// final rotation; Rotated tells whether that rotation happens.
	Width   int  `json:"canvas_width"`
	Height  int  `json:"canvas_height"`
	Rotated bool `json:"rotated"`
}

func describe(q geometry.Quad) *outline {
	s01, s03 := q.SideLengths()
	size, rotate := card.CanonicalSize(q)
	return &outline{Quad: q, Side01: s01, Side03: s03, Width: size.X, Height: size.Y, Rotated: rotate}
}

// attemptResult is the outcome of one parameter set.
type attemptResult struct {
	Params card.ParameterSet `json:"params"`
	Found  bool              `json:"found"`
	Quad   *geometry.Quad    `json:"quad,omitempty"`
	Error  string            `json:"error,omitempty"`
}

func failedAttempts(err error) ([]attemptResult, bool) {
	var exhausted *card.ExhaustedError
	if !errors.As(err, &exhausted) {
		return nil, false
	}
	out := make([]attemptResult, len(exhausted.Attempts))
	for i, a := range exhausted.Attempts {
		out[i] = attemptResult{Params: a.Params, Error: a.Err.Error()}
	}
	return out, true
}

// lastAttempt keeps what the selector saw on the most recent attempt so the
// overlay can be drawn afterwards.
type lastAttempt struct {
	params   card.ParameterSet
	src      image.Image
	contours []vision.Contour
	sel      *card.Selection
}

func (*lastAttempt) Thresholded(card.ParameterSet, *image.Gray) {}
func (*lastAttempt) Binary(card.ParameterSet, *image.Gray)      {}

func (l *lastAttempt) Candidates(p card.ParameterSet, src image.Image, contours []vision.Contour, sel *card.Selection) {
	l.params, l.src, l.contours, l.sel = p, src, contours, sel
}

func (l *lastAttempt) overlay(scale float64) (*imaging.EncodedImage, error) {
	if l.src == nil {
		return nil, nil
	}
	return imaging.EncodePNG(batch.Overlay(l.src, l.params, l.contours, l.sel), scale)
}

// locator builds a Locator for one call, validating a caller-supplied
// sweep first.
func (s *Server) locator(sweep []card.ParameterSet, tr card.Tracer) (*card.Locator, error) {
	opts := []card.Option{card.WithLogger(s.log)}
	if len(sweep) > 0 {
		for _, p := range sweep {
			if err := p.Validate(); err != nil {
				return nil, fmt.Errorf("invalid sweep entry %s: %w", p, err)
			}
		}
		opts = append(opts, card.WithSweep(sweep))
	}
	if tr != nil {
		opts = append(opts, card.WithTracer(tr))
	}
	return card.NewLocator(s.backend, opts...), nil
}

func (s *Server) load(path string) (image.Image, error) {
	if path == "" {
		return nil, errMissingPath
	}
	return s.cache.Load(path)
}

type cardLocateArgs struct {
	Path    string              `json:"path"`
	Sweep   []card.ParameterSet `json:"sweep"`
	Overlay bool                `json:"overlay"`
	Scale   float64             `json:"scale"`
}

type cardLocateResult struct {
	Found     bool                  `json:"found"`
	Outline   *outline              `json:"outline,omitempty"`
	Params    *card.ParameterSet    `json:"params,omitempty"`
	Attempt   int                   `json:"attempt"`
	Selection *card.Selection       `json:"selection,omitempty"`
	Failures  []attemptResult       `json:"failures,omitempty"`
	ElapsedMS int64                 `json:"elapsed_ms"`
	Overlay   *imaging.EncodedImage `json:"overlay,omitempty"`
}

func (s *Server) handleCardLocate(args json.RawMessage) (interface{}, error) {
	var a cardLocateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	img, err := s.load(a.Path)
	if err != nil {
		return nil, err
	}

	trace := &lastAttempt{}
	loc, err := s.locator(a.Sweep, trace)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := loc.Locate(img)
	out := &cardLocateResult{Attempt: -1, ElapsedMS: time.Since(start).Milliseconds()}
	if err != nil {
		failures, ok := failedAttempts(err)
		if !ok {
			return nil, err
		}
		out.Failures = failures
	} else {
		out.Found = true
		out.Outline = describe(res.Quad)
		out.Params = &res.Params
		out.Attempt = res.Attempt
		out.Selection = res.Selection
		out.Failures, _ = failedAttempts(&card.ExhaustedError{Attempts: res.Failures})
	}

	if a.Overlay {
		if out.Overlay, err = trace.overlay(a.Scale); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type cardRectifyArgs struct {
	Path   string              `json:"path"`
	Sweep  []card.ParameterSet `json:"sweep"`
	Scale  float64             `json:"scale"`
	Output string              `json:"output"`
}

type cardRectifyResult struct {
	*imaging.EncodedImage
	Outline *outline          `json:"outline"`
	Params  card.ParameterSet `json:"params"`
	Attempt int               `json:"attempt"`
	Saved   string            `json:"saved,omitempty"`
}

func (s *Server) handleCardRectify(args json.RawMessage) (interface{}, error) {
	var a cardRectifyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 0.25
	}
	img, err := s.load(a.Path)
	if err != nil {
		return nil, err
	}
	loc, err := s.locator(a.Sweep, nil)
	if err != nil {
		return nil, err
	}

	res, err := loc.LocateAndRectify(img)
	if err != nil {
		return nil, err
	}

	out := &cardRectifyResult{Outline: describe(res.Quad), Params: res.Params, Attempt: res.Attempt}
	if a.Output != "" {
		if err := imaging.Save(res.Image, a.Output, s.cfg.JPEGQuality); err != nil {
			return nil, err
		}
		out.Saved = a.Output
	}
	if out.EncodedImage, err = imaging.EncodePNG(res.Image, a.Scale); err != nil {
		return nil, err
	}
	return out, nil
}

type cardSweepArgs struct {
	Path  string              `json:"path"`
	Sweep []card.ParameterSet `json:"sweep"`
}

type cardSweepResult struct {
	Backend  string              `json:"backend"`
	Sweep    []card.ParameterSet `json:"sweep"`
	Selector card.SelectorConfig `json:"selector"`
	Width    int                 `json:"card_width"`
	Height   int                 `json:"card_height"`
	Attempts []attemptResult     `json:"attempts,omitempty"`
}

func (s *Server) handleCardSweep(args json.RawMessage) (interface{}, error) {
	var a cardSweepArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, err
		}
	}
	loc, err := s.locator(a.Sweep, nil)
	if err != nil {
		return nil, err
	}

	out := &cardSweepResult{
		Backend:  s.backend.Name(),
		Sweep:    loc.Sweep(),
		Selector: card.DefaultSelectorConfig(),
		Width:    card.ShortSide,
		Height:   card.LongSide,
	}
	if a.Path == "" {
		return out, nil
	}

	img, err := s.load(a.Path)
	if err != nil {
		return nil, err
	}
	for _, p := range out.Sweep {
		single, err := s.locator([]card.ParameterSet{p}, nil)
		if err != nil {
			return nil, err
		}
		r := attemptResult{Params: p}
		if res, err := single.Locate(img); err != nil {
			if failures, ok := failedAttempts(err); ok && len(failures) == 1 {
				r.Error = failures[0].Error
			} else {
				r.Error = err.Error()
			}
		} else {
			r.Found = true
			q := res.Quad
			r.Quad = &q
		}
		out.Attempts = append(out.Attempts, r)
	}
	return out, nil
}
