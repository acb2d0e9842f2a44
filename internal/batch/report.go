package batch

import (
	"fmt"
	"time"

	"github.com/matsumo0922/TrumpDetection/internal/card"
)

// FileResult is the outcome for one input image.
type FileResult struct {
	Input  string `json:"input"`
	Output string `json:"output,omitempty"`
	// Params is the parameter set that succeeded; Attempt is its index in
	// the sweep.
	Params  card.ParameterSet `json:"params"`
	Attempt int               `json:"attempt"`
	Elapsed time.Duration     `json:"elapsed"`
	Err     error             `json:"-"`
}

// OK reports whether an output was written.
func (f FileResult) OK() bool {
	return f.Err == nil && f.Output != ""
}

// Report tallies a run.
type Report struct {
	Total   int
	Failed  int
	Results []FileResult
}

func (r *Report) add(res FileResult) {
	r.Total++
	if !res.OK() {
		r.Failed++
	}
	r.Results = append(r.Results, res)
}

// Tally formats the failure count as "[failed/total]".
func (r *Report) Tally() string {
	return fmt.Sprintf("[%d/%d]", r.Failed, r.Total)
}

// Err is non-nil when any image failed.
func (r *Report) Err() error {
	if r == nil || r.Failed == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d images failed to process", r.Failed, r.Total)
}
