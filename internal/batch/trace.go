package batch

import (
	"image"

	"github.com/sirupsen/logrus"

	"github.com/matsumo0922/TrumpDetection/internal/card"
	"github.com/matsumo0922/TrumpDetection/internal/imaging"
	"github.com/matsumo0922/TrumpDetection/internal/vision"
)

// tracers fans one sweep out to several observers.
type tracers []card.Tracer

func (ts tracers) Thresholded(p card.ParameterSet, img *image.Gray) {
	for _, t := range ts {
		t.Thresholded(p, img)
	}
}

func (ts tracers) Binary(p card.ParameterSet, img *image.Gray) {
	for _, t := range ts {
		t.Binary(p, img)
	}
}

func (ts tracers) Candidates(p card.ParameterSet, src image.Image, contours []vision.Contour, sel *card.Selection) {
	for _, t := range ts {
		t.Candidates(p, src, contours, sel)
	}
}

// progress prints one line per sweep step of a single-file run.
type progress struct {
	r *Runner
}

func (p progress) Thresholded(params card.ParameterSet, _ *image.Gray) {
	p.r.printf("PROCESS: Image processing... %s", params)
}

func (p progress) Binary(card.ParameterSet, *image.Gray) {
	p.r.printf("PROCESS: Contour detection in progress...")
}

func (p progress) Candidates(_ card.ParameterSet, _ image.Image, _ []vision.Contour, sel *card.Selection) {
	if sel.Found() {
		p.r.printf("PROCESS: Projection transforming...")
		return
	}
	p.r.printf("ERROR: Can't find trump card.")
}

// Snapshot is a card.Tracer that writes the intermediate images of every
// attempt next to the input, named by DebugPath.
type Snapshot struct {
	input   string
	quality int
	log     logrus.FieldLogger
	written []string
}

// NewSnapshot returns a Snapshot for the image at input.
func NewSnapshot(input string, jpegQuality int, log logrus.FieldLogger) *Snapshot {
	return &Snapshot{input: input, quality: jpegQuality, log: log}
}

// Written lists the files saved so far.
func (s *Snapshot) Written() []string {
	return append([]string(nil), s.written...)
}

func (s *Snapshot) Thresholded(params card.ParameterSet, img *image.Gray) {
	s.save(params, 1, img)
}

func (s *Snapshot) Binary(params card.ParameterSet, img *image.Gray) {
	s.save(params, 2, img)
}

func (s *Snapshot) Candidates(params card.ParameterSet, src image.Image, contours []vision.Contour, sel *card.Selection) {
	s.save(params, 3, Overlay(src, params, contours, sel))
}

func (s *Snapshot) save(params card.ParameterSet, stage int, img image.Image) {
	path := DebugPath(s.input, params, stage)
	if err := imaging.Save(img, path, s.quality); err != nil {
		s.log.WithError(err).WithField("path", path).Warn("failed to write snapshot")
		return
	}
	s.written = append(s.written, path)
}
