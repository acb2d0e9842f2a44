package card

import (
	"errors"
	"image"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/matsumo0922/TrumpDetection/internal/geometry"
	"github.com/matsumo0922/TrumpDetection/internal/vision"
)

// Result is a successful localization.
type Result struct {
	// Image is the rectified card. It is nil for Locate.
	Image image.Image
	// Quad is the accepted outline in source image coordinates.
	Quad geometry.Quad
	// Params is the parameter set that succeeded, found at index Attempt of
	// the sweep.
	Params  ParameterSet
	Attempt int
	// Selection is the selector's record for the winning attempt.
	Selection *Selection
	// Failures holds the attempts that ran before the winning one.
	Failures []Attempt
	Elapsed  time.Duration
}

// Option configures a Locator.
type Option func(*Locator)

// WithSweep replaces the default parameter schedule.
func WithSweep(sweep []ParameterSet) Option {
	return func(l *Locator) { l.sweep = append([]ParameterSet(nil), sweep...) }
}

// WithSelector replaces the default selection thresholds.
func WithSelector(cfg SelectorConfig) Option {
	return func(l *Locator) { l.selector = NewSelector(l.backend, cfg) }
}

// WithTracer installs a Tracer for intermediate images.
func WithTracer(t Tracer) Option {
	return func(l *Locator) {
		if t != nil {
			l.tracer = t
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log logrus.FieldLogger) Option {
	return func(l *Locator) {
		if log != nil {
			l.log = log
		}
	}
}

// Locator runs the parameter sweep.
type Locator struct {
	backend   vision.Backend
	sweep     []ParameterSet
	selector  *Selector
	rectifier *Rectifier
	tracer    Tracer
	log       logrus.FieldLogger
}

// NewLocator returns a Locator that delegates pixel work to b.
func NewLocator(b vision.Backend, opts ...Option) *Locator {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	l := &Locator{
		backend:   b,
		sweep:     DefaultSweep(),
		selector:  NewSelector(b, DefaultSelectorConfig()),
		rectifier: NewRectifier(b),
		tracer:    nopTracer{},
		log:       quiet,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Sweep returns a copy of the schedule in the order it is tried.
func (l *Locator) Sweep() []ParameterSet {
	return append([]ParameterSet(nil), l.sweep...)
}

// Backend returns the vision backend in use.
func (l *Locator) Backend() vision.Backend {
	return l.backend
}

// LocateAndRectify tries each parameter set in order and returns the first
// rectified card. A failing attempt, whether a backend error or no
// acceptable outline, moves on to the next set. When every set fails the
// error is an *ExhaustedError.
func (l *Locator) LocateAndRectify(img image.Image) (*Result, error) {
	return l.run(img, true)
}

// Locate runs the same sweep as LocateAndRectify but stops at the accepted
// outline without warping.
func (l *Locator) Locate(img image.Image) (*Result, error) {
	return l.run(img, false)
}

func (l *Locator) run(img image.Image, rectify bool) (*Result, error) {
	if img == nil {
		return nil, ErrNilImage
	}
	start := time.Now()
	var failures []Attempt

	for i, params := range l.sweep {
		log := l.log.WithFields(logrus.Fields{
			"attempt": i + 1,
			"blur":    params.BlurRadius,
			"morph":   params.MorphIterations,
		})

		res, err := l.attempt(log, img, params, rectify)
		if err != nil {
			if errors.Is(err, ErrNoQuadrilateral) {
				log.Debug("no card outline")
			} else {
				log.WithError(err).Warn("attempt failed")
			}
			failures = append(failures, Attempt{Params: params, Err: err})
			continue
		}

		res.Attempt = i
		res.Failures = failures
		res.Elapsed = time.Since(start)
		log.WithField("elapsed", res.Elapsed).Debug("card located")
		return res, nil
	}

	exhausted := &ExhaustedError{Attempts: failures}
	l.log.WithFields(exhausted.Fields()).Debug("sweep exhausted")
	return nil, exhausted
}

func (l *Locator) attempt(log logrus.FieldLogger, img image.Image, params ParameterSet, rectify bool) (*Result, error) {
	log.Debug("preprocessing")
	binary, err := preprocess(l.backend, img, params, l.tracer)
	if err != nil {
		return nil, &StageError{Stage: StagePreprocess, Params: params, Err: err}
	}

	contours, err := l.backend.FindContours(binary)
	if err != nil {
		return nil, &StageError{Stage: StageContours, Params: params, Err: err}
	}
	log.WithField("contours", len(contours)).Debug("contours extracted")

	sel, err := l.selector.Select(contours, geometry.SizeOf(img.Bounds()))
	l.tracer.Candidates(params, img, contours, sel)
	if err != nil {
		if errors.Is(err, ErrNoQuadrilateral) {
			return nil, err
		}
		return nil, &StageError{Stage: StageSelect, Params: params, Err: err}
	}

	winner, _ := sel.Winner()
	log.WithFields(logrus.Fields{
		"candidate": winner.Index,
		"area":      winner.Area,
		"ratio":     winner.FrameRatio,
	}).Debug("outline accepted")

	res := &Result{Quad: sel.Quad, Params: params, Selection: sel}
	if !rectify {
		return res, nil
	}

	log.WithField("quad", sel.Quad).Debug("rectifying")
	out, err := l.rectifier.Rectify(img, sel.Quad)
	if err != nil {
		return nil, &StageError{Stage: StageRectify, Params: params, Err: err}
	}
	res.Image = out
	return res, nil
}
