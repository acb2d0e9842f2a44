// Package card locates a playing card in a photograph and rectifies it onto
// an upright canonical rectangle.
//
// The pipeline has four parts, each usable on its own:
//
//   - Preprocess turns a photograph into a binary image for one ParameterSet.
//   - Selector picks the first plausible card outline among the contours of
//     that binary image.
//   - Rectifier warps the accepted outline onto a 1024×1657 canvas and
//     normalises its orientation.
//   - Locator sweeps a fixed list of parameter sets through the three stages
//     above and stops at the first success.
//
// All pixel work is delegated to a vision.Backend passed in by the caller.
// A Locator holds no per-image state and may be shared between goroutines
// as long as its Backend and Tracer are safe for concurrent use.
package card
