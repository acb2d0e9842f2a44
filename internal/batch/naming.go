package batch

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/matsumo0922/TrumpDetection/internal/card"
)

// ProcessMarker appears in the names of debug snapshots.
const ProcessMarker = "-process"

// OutputPath places the result of a single-file run next to its input:
// "dir/name.ext" becomes "dir/name<suffix>.ext".
func OutputPath(input, suffix string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + suffix + ext
}

// DebugPath names the snapshot of one pipeline stage (1 thresholded,
// 2 binary, 3 overlay) for one parameter set.
func DebugPath(input string, params card.ParameterSet, stage int) string {
	ext := filepath.Ext(input)
	return fmt.Sprintf("%s-%s%s%d%s", strings.TrimSuffix(input, ext), params.Tag(), ProcessMarker, stage, ext)
}

// Skip reports whether name looks like something this tool wrote.
func Skip(name, suffix string) bool {
	return (suffix != "" && strings.Contains(name, suffix)) || strings.Contains(name, ProcessMarker)
}
