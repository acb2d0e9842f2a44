package card

import (
	"image"

	"github.com/matsumo0922/TrumpDetection/internal/vision"
)

const (
	// ThresholdBlockSize is the adaptive threshold neighbourhood.
	ThresholdBlockSize = 255
	// ThresholdOffset is subtracted from the local mean before comparing.
	ThresholdOffset = 2.0
	// FinalDenoise is the kernel of the closing median blur.
	FinalDenoise = 1
)

// Preprocess converts img into a binary image for params. Backend errors are
// returned unchanged.
//
// The steps are: grayscale, invert, Gaussian adaptive threshold, median blur
// (when BlurRadius >= 1), dilate then erode (when MorphIterations >= 2) and a
// final median blur of size FinalDenoise. Every step after the first works
// in place on the buffer that is returned.
func Preprocess(b vision.Backend, img image.Image, params ParameterSet) (*image.Gray, error) {
	return preprocess(b, img, params, nopTracer{})
}

func preprocess(b vision.Backend, img image.Image, params ParameterSet, tr Tracer) (*image.Gray, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	gray, err := b.Grayscale(img)
	if err != nil {
		return nil, err
	}
	if err := b.BitwiseNot(gray); err != nil {
		return nil, err
	}
	if err := b.AdaptiveThreshold(gray, ThresholdBlockSize, ThresholdOffset); err != nil {
		return nil, err
	}
	tr.Thresholded(params, gray)

	if params.blurs() {
		if err := b.MedianBlur(gray, params.BlurRadius); err != nil {
			return nil, err
		}
	}
	if params.closes() {
		if err := b.Dilate(gray, params.MorphIterations); err != nil {
			return nil, err
		}
		if err := b.Erode(gray, params.MorphIterations); err != nil {
			return nil, err
		}
	}
	if err := b.MedianBlur(gray, FinalDenoise); err != nil {
		return nil, err
	}
	tr.Binary(params, gray)
	return gray, nil
}
