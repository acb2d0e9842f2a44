package card

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Stage names the pipeline step an error came from.
type Stage string

const (
	StagePreprocess Stage = "preprocess"
	StageContours   Stage = "contours"
	StageSelect     Stage = "select"
	StageRectify    Stage = "rectify"
)

var (
	// ErrNoQuadrilateral means no contour passed selection for one parameter
	// set.
	ErrNoQuadrilateral = errors.New("no quadrilateral found")

	// ErrNilImage is returned by Locator for a nil input.
	ErrNilImage = errors.New("nil image")

	// ErrSweepExhausted means every parameter set was tried without success.
	ErrSweepExhausted = errors.New("parameter sweep exhausted")
)

// StageError wraps a failure of the vision backend during one attempt.
type StageError struct {
	Stage  Stage
	Params ParameterSet
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Params, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Attempt is the outcome of one failed parameter set.
type Attempt struct {
	Params ParameterSet
	Err    error
}

// ExhaustedError is returned when the whole sweep failed. It matches
// ErrSweepExhausted with errors.Is and unwraps to the per-attempt errors.
type ExhaustedError struct {
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	if len(e.Attempts) == 0 {
		return ErrSweepExhausted.Error() + ": empty sweep"
	}
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = fmt.Sprintf("%s: %v", a.Params, a.Err)
	}
	return fmt.Sprintf("%s after %d attempts [%s]", ErrSweepExhausted, len(e.Attempts), strings.Join(parts, "; "))
}

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrSweepExhausted
}

func (e *ExhaustedError) Unwrap() []error {
	errs := make([]error, len(e.Attempts))
	for i, a := range e.Attempts {
		errs[i] = a.Err
	}
	return errs
}

// Fields converts the error to structured log fields.
func (e *ExhaustedError) Fields() logrus.Fields {
	failed := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		failed[i] = a.Params.Tag()
	}
	return logrus.Fields{
		"attempts": len(e.Attempts),
		"tried":    strings.Join(failed, ","),
	}
}
