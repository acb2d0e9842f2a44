package vision

import (
	"fmt"
	"image"
	"sort"
	"strings"
	"sync"

	"github.com/matsumo0922/TrumpDetection/internal/geometry"
)

// Contour is a closed boundary traced in a binary image, as an ordered
// sequence of pixel coordinates.
type Contour []image.Point

// Points converts the contour to floating-point coordinates.
func (c Contour) Points() []geometry.Point {
	pts := make([]geometry.Point, len(c))
	for i, p := range c {
		pts[i] = geometry.FromImagePoint(p)
	}
	return pts
}

// Backend is the set of primitive operations the card pipeline delegates to
// an image-processing library.
//
// Methods taking a *image.Gray work in place. All other image results are
// newly allocated.
type Backend interface {
	// Name identifies the backend in logs.
	Name() string

	// Grayscale converts img to a new single-channel image.
	Grayscale(img image.Image) (*image.Gray, error)

	// BitwiseNot inverts every pixel (v → 255-v).
	BitwiseNot(img *image.Gray) error

	// AdaptiveThreshold binarises img against a Gaussian-weighted local mean
	// over a blockSize×blockSize neighbourhood. A pixel becomes 255 when it is
	// greater than mean-c and 0 otherwise. blockSize must be odd and >= 3.
	AdaptiveThreshold(img *image.Gray, blockSize int, c float64) error

	// MedianBlur replaces each pixel by the median of its ksize×ksize
	// neighbourhood. ksize must be odd; ksize 1 leaves the image unchanged.
	MedianBlur(img *image.Gray, ksize int) error

	// Dilate and Erode apply the default 3×3 structuring element the given
	// number of times.
	Dilate(img *image.Gray, iterations int) error
	Erode(img *image.Gray, iterations int) error

	// FindContours extracts outer and hole borders of the non-zero regions,
	// keeping every border pixel.
	FindContours(img *image.Gray) ([]Contour, error)

	// ContourArea returns the area enclosed by c.
	ContourArea(c Contour) float64

	// ArcLength returns the perimeter of c.
	ArcLength(c Contour, closed bool) float64

	// ApproxPolyDP simplifies c with the Douglas-Peucker algorithm. The result
	// keeps the cyclic vertex order of c.
	ApproxPolyDP(c Contour, epsilon float64, closed bool) ([]geometry.Point, error)

	// PerspectiveTransform derives the matrix mapping src onto dst.
	PerspectiveTransform(src, dst geometry.Quad) (geometry.Matrix, error)

	// WarpPerspective maps img through m onto a canvas of the given size.
	WarpPerspective(img image.Image, m geometry.Matrix, size image.Point) (image.Image, error)

	// FlipHorizontal mirrors img around its vertical axis.
	FlipHorizontal(img image.Image) (image.Image, error)

	// Rotate90Clockwise rotates img by a quarter turn clockwise.
	Rotate90Clockwise(img image.Image) (image.Image, error)
}

// Factory constructs a Backend.
type Factory func() (Backend, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register makes a backend available to New under the given name.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(name)] = f
}

// New returns the backend registered under name. An empty name selects the
// native backend.
func New(name string) (Backend, error) {
	if name == "" {
		name = NativeName
	}
	registryMu.RLock()
	f, ok := registry[strings.ToLower(name)]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown vision backend %q (available: %s)", name, strings.Join(Available(), ", "))
	}
	return f()
}

// Available lists the registered backend names in sorted order.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register(NativeName, func() (Backend, error) { return NewNative(), nil })
}
