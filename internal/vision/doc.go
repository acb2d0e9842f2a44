// Package vision supplies the primitive image-processing operations the card
// pipeline is built from.
//
// The pipeline never calls an image library directly. It receives a Backend,
// which bundles the primitives (colour conversion, thresholding, morphology,
// contour extraction, polygon simplification and perspective warping) behind
// one interface so that the native library can be chosen at startup and
// replaced by a fake in tests.
//
// # Backends
//
// Two backends are provided:
//
//   - Native: pure Go, built on disintegration/imaging and anthonynsimon/bild,
//     with contour tracing and polygon simplification implemented here. It is
//     always available.
//   - OpenCV: backed by gocv. Compiled only with the "gocv" build tag, since it
//     needs the OpenCV shared libraries and cgo.
//
// Use New with a backend name ("native" or "opencv") to obtain one.
//
// # In-place Operations
//
// Operations that take a *image.Gray modify that image in place and return
// only an error, mirroring how the pipeline reuses a single working buffer
// across preprocessing steps. Operations on colour images return a new image
// and leave their input untouched.
//
// # Contours
//
// FindContours follows the border-following scheme of Suzuki and Abe with
// both outer and hole borders reported (two-level retrieval) and every border
// pixel kept (no chain compression). Pixels on the outermost image frame are
// treated as background, so a region touching the frame produces a border one
// pixel inside it.
//
// # Thread Safety
//
// Backends hold no mutable state and may be shared between goroutines as long
// as each goroutine works on its own images.
package vision
