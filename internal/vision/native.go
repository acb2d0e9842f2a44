package vision

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"

	"github.com/matsumo0922/TrumpDetection/internal/geometry"
)

// NativeName is the registry name of the pure-Go backend.
const NativeName = "native"

// Native is the pure-Go Backend.
//
// Point filters and the Gaussian mean are delegated to imaging and bild.
// Both return RGBA copies, which are folded back into the caller's gray
// buffer so that the in-place contract holds. The rank filters (median,
// dilate, erode), contour tracing, polygon simplification and the warp are
// implemented in this package.
type Native struct{}

// NewNative returns the pure-Go backend.
func NewNative() *Native {
	return &Native{}
}

// Name implements Backend.
func (*Native) Name() string { return NativeName }

// Grayscale implements Backend using ITU-R BT.601 luminance weights.
func (*Native) Grayscale(img image.Image) (*image.Gray, error) {
	if img == nil {
		return nil, fmt.Errorf("grayscale: nil image")
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("grayscale: empty image")
	}
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	copyChannel(g, imaging.Grayscale(img))
	return g, nil
}

// BitwiseNot implements Backend.
func (*Native) BitwiseNot(img *image.Gray) error {
	if err := checkGray(img); err != nil {
		return fmt.Errorf("bitwise not: %w", err)
	}
	copyChannel(img, imaging.Invert(img))
	return nil
}

// AdaptiveThreshold implements Backend. The local mean is a Gaussian blur
// spanning the block, so the window radius is (blockSize-1)/2.
func (*Native) AdaptiveThreshold(img *image.Gray, blockSize int, c float64) error {
	if err := checkGray(img); err != nil {
		return fmt.Errorf("adaptive threshold: %w", err)
	}
	if blockSize < 3 || blockSize%2 == 0 {
		return fmt.Errorf("adaptive threshold: block size must be odd and >= 3, got %d", blockSize)
	}

	mean := blur.Gaussian(img, float64(blockSize-1)/2)

	w, h := img.Rect.Dx(), img.Rect.Dy()
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w]
		mrow := mean.Pix[y*mean.Stride:]
		for x := 0; x < w; x++ {
			if float64(row[x]) > float64(mrow[x*4])-c {
				row[x] = 255
			} else {
				row[x] = 0
			}
		}
	}
	return nil
}

// MedianBlur implements Backend.
func (*Native) MedianBlur(img *image.Gray, ksize int) error {
	if err := checkGray(img); err != nil {
		return fmt.Errorf("median blur: %w", err)
	}
	if ksize < 1 || ksize%2 == 0 {
		return fmt.Errorf("median blur: kernel size must be odd and positive, got %d", ksize)
	}
	if ksize == 1 {
		return nil
	}
	medianFilter(img, ksize)
	return nil
}

// Dilate implements Backend with iterations passes of a 3×3 element.
func (*Native) Dilate(img *image.Gray, iterations int) error {
	if err := checkGray(img); err != nil {
		return fmt.Errorf("dilate: %w", err)
	}
	if iterations < 0 {
		return fmt.Errorf("dilate: negative iterations %d", iterations)
	}
	if iterations == 0 {
		return nil
	}
	morph3(img, iterations, true)
	return nil
}

// Erode implements Backend. See Dilate.
func (*Native) Erode(img *image.Gray, iterations int) error {
	if err := checkGray(img); err != nil {
		return fmt.Errorf("erode: %w", err)
	}
	if iterations < 0 {
		return fmt.Errorf("erode: negative iterations %d", iterations)
	}
	if iterations == 0 {
		return nil
	}
	morph3(img, iterations, false)
	return nil
}

// FindContours implements Backend.
func (*Native) FindContours(img *image.Gray) ([]Contour, error) {
	if err := checkGray(img); err != nil {
		return nil, fmt.Errorf("find contours: %w", err)
	}
	return traceBorders(img), nil
}

// ContourArea implements Backend.
func (*Native) ContourArea(c Contour) float64 {
	return geometry.PolygonArea(c.Points())
}

// ArcLength implements Backend.
func (*Native) ArcLength(c Contour, closed bool) float64 {
	return geometry.Perimeter(c.Points(), closed)
}

// ApproxPolyDP implements Backend.
func (*Native) ApproxPolyDP(c Contour, epsilon float64, closed bool) ([]geometry.Point, error) {
	if epsilon < 0 {
		return nil, fmt.Errorf("approx poly: negative epsilon %f", epsilon)
	}
	return simplify(c.Points(), epsilon, closed), nil
}

// PerspectiveTransform implements Backend.
func (*Native) PerspectiveTransform(src, dst geometry.Quad) (geometry.Matrix, error) {
	return geometry.Homography(src, dst)
}

// WarpPerspective implements Backend.
func (*Native) WarpPerspective(img image.Image, m geometry.Matrix, size image.Point) (image.Image, error) {
	return warpPerspective(img, m, size)
}

// FlipHorizontal implements Backend.
func (*Native) FlipHorizontal(img image.Image) (image.Image, error) {
	if img == nil {
		return nil, fmt.Errorf("flip: nil image")
	}
	return imaging.FlipH(img), nil
}

// Rotate90Clockwise implements Backend. imaging rotates counter-clockwise,
// so a clockwise quarter turn is Rotate270.
func (*Native) Rotate90Clockwise(img image.Image) (image.Image, error) {
	if img == nil {
		return nil, fmt.Errorf("rotate: nil image")
	}
	return imaging.Rotate270(img), nil
}

func checkGray(img *image.Gray) error {
	if img == nil {
		return fmt.Errorf("nil image")
	}
	if img.Rect.Empty() {
		return fmt.Errorf("empty image")
	}
	return nil
}

// copyChannel writes the first channel of a 4-byte-per-pixel image into dst.
// Both images must have the same dimensions; each is indexed from its own
// origin.
func copyChannel(dst *image.Gray, src image.Image) {
	var pix []uint8
	var stride int
	switch s := src.(type) {
	case *image.NRGBA:
		pix, stride = s.Pix, s.Stride
	case *image.RGBA:
		pix, stride = s.Pix, s.Stride
	default:
		b := src.Bounds()
		for y := 0; y < dst.Rect.Dy(); y++ {
			for x := 0; x < dst.Rect.Dx(); x++ {
				r, _, _, _ := src.At(b.Min.X+x, b.Min.Y+y).RGBA()
				dst.Pix[y*dst.Stride+x] = uint8(r >> 8)
			}
		}
		return
	}
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	for y := 0; y < h; y++ {
		srow := pix[y*stride:]
		drow := dst.Pix[y*dst.Stride:]
		for x := 0; x < w; x++ {
			drow[x] = srow[x*4]
		}
	}
}
