package card

import (
	"image"

	"github.com/matsumo0922/TrumpDetection/internal/vision"
)

// Tracer observes intermediate results of a sweep. Images passed to a Tracer
// are working buffers that change after the call returns; implementations
// must copy anything they keep.
type Tracer interface {
	// Thresholded is called after adaptive thresholding.
	Thresholded(params ParameterSet, img *image.Gray)

	// Binary is called with the final preprocessed image.
	Binary(params ParameterSet, img *image.Gray)

	// Candidates is called after selection, whether or not it succeeded.
	Candidates(params ParameterSet, src image.Image, contours []vision.Contour, sel *Selection)
}

type nopTracer struct{}

func (nopTracer) Thresholded(ParameterSet, *image.Gray)                             {}
func (nopTracer) Binary(ParameterSet, *image.Gray)                                  {}
func (nopTracer) Candidates(ParameterSet, image.Image, []vision.Contour, *Selection) {}
