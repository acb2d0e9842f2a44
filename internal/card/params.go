package card

import "fmt"

// ParameterSet is one preprocessing configuration of the sweep.
type ParameterSet struct {
	// BlurRadius is the median blur kernel size. 0 skips the blur; other
	// values must be odd.
	BlurRadius int `json:"blur"`

	// MorphIterations is the number of dilate and erode iterations used to
	// close gaps in the outline. Values below 2 skip the step.
	MorphIterations int `json:"morph"`
}

// String formats the set as "(blur, morph)".
func (p ParameterSet) String() string {
	return fmt.Sprintf("(%d, %d)", p.BlurRadius, p.MorphIterations)
}

// Tag is a filename-safe form of the set, e.g. "b15-m8".
func (p ParameterSet) Tag() string {
	return fmt.Sprintf("b%d-m%d", p.BlurRadius, p.MorphIterations)
}

// Validate reports whether the set can be handed to Preprocess.
func (p ParameterSet) Validate() error {
	if p.BlurRadius < 0 {
		return fmt.Errorf("blur radius must be non-negative, got %d", p.BlurRadius)
	}
	if p.BlurRadius > 0 && p.BlurRadius%2 == 0 {
		return fmt.Errorf("blur radius must be odd, got %d", p.BlurRadius)
	}
	if p.MorphIterations < 0 {
		return fmt.Errorf("morphology iterations must be non-negative, got %d", p.MorphIterations)
	}
	return nil
}

func (p ParameterSet) blurs() bool { return p.BlurRadius >= 1 }

func (p ParameterSet) closes() bool { return p.MorphIterations >= 2 }

// defaultSweep runs from the most aggressive smoothing to none at all.
var defaultSweep = []ParameterSet{
	{BlurRadius: 15, MorphIterations: 8},
	{BlurRadius: 7, MorphIterations: 5},
	{BlurRadius: 5, MorphIterations: 2},
	{BlurRadius: 1, MorphIterations: 2},
	{BlurRadius: 1, MorphIterations: 1},
	{BlurRadius: 0, MorphIterations: 0},
}

// DefaultSweep returns a copy of the standard parameter schedule.
func DefaultSweep() []ParameterSet {
	return append([]ParameterSet(nil), defaultSweep...)
}
