//go:build gocv

package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/matsumo0922/TrumpDetection/internal/geometry"
)

// OpenCVName is the registry name of the gocv backend.
const OpenCVName = "opencv"

// OpenCV is a Backend backed by gocv. Images cross the cgo boundary as Mats
// on every call; nothing is cached between calls.
type OpenCV struct{}

// NewOpenCV returns the gocv backend.
func NewOpenCV() *OpenCV {
	return &OpenCV{}
}

// Name implements Backend.
func (*OpenCV) Name() string { return OpenCVName }

// Grayscale implements Backend.
func (*OpenCV) Grayscale(img image.Image) (*image.Gray, error) {
	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("grayscale: %w", err)
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)
	return matToGray(gray)
}

// BitwiseNot implements Backend.
func (*OpenCV) BitwiseNot(img *image.Gray) error {
	return inPlace(img, "bitwise not", func(src gocv.Mat, dst *gocv.Mat) {
		gocv.BitwiseNot(src, dst)
	})
}

// AdaptiveThreshold implements Backend.
func (*OpenCV) AdaptiveThreshold(img *image.Gray, blockSize int, c float64) error {
	if blockSize < 3 || blockSize%2 == 0 {
		return fmt.Errorf("adaptive threshold: block size must be odd and >= 3, got %d", blockSize)
	}
	return inPlace(img, "adaptive threshold", func(src gocv.Mat, dst *gocv.Mat) {
		gocv.AdaptiveThreshold(src, dst, 255, gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinary, blockSize, float32(c))
	})
}

// MedianBlur implements Backend.
func (*OpenCV) MedianBlur(img *image.Gray, ksize int) error {
	if ksize < 1 || ksize%2 == 0 {
		return fmt.Errorf("median blur: kernel size must be odd and positive, got %d", ksize)
	}
	return inPlace(img, "median blur", func(src gocv.Mat, dst *gocv.Mat) {
		gocv.MedianBlur(src, dst, ksize)
	})
}

// Dilate implements Backend with a 3×3 rectangular element.
func (*OpenCV) Dilate(img *image.Gray, iterations int) error {
	if iterations < 0 {
		return fmt.Errorf("dilate: negative iterations %d", iterations)
	}
	return morph(img, "dilate", iterations, func(src gocv.Mat, dst *gocv.Mat, k gocv.Mat) {
		gocv.Dilate(src, dst, k)
	})
}

// Erode implements Backend with a 3×3 rectangular element.
func (*OpenCV) Erode(img *image.Gray, iterations int) error {
	if iterations < 0 {
		return fmt.Errorf("erode: negative iterations %d", iterations)
	}
	return morph(img, "erode", iterations, func(src gocv.Mat, dst *gocv.Mat, k gocv.Mat) {
		gocv.Erode(src, dst, k)
	})
}

func morph(img *image.Gray, op string, iterations int, fn func(src gocv.Mat, dst *gocv.Mat, kernel gocv.Mat)) error {
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
	defer kernel.Close()
	return inPlace(img, op, func(src gocv.Mat, dst *gocv.Mat) {
		src.CopyTo(dst)
		for i := 0; i < iterations; i++ {
			fn(*dst, dst, kernel)
		}
	})
}

// FindContours implements Backend with two-level retrieval and no chain
// compression.
func (*OpenCV) FindContours(img *image.Gray) ([]Contour, error) {
	src, err := gocv.ImageGrayToMatGray(img)
	if err != nil {
		return nil, fmt.Errorf("find contours: %w", err)
	}
	defer src.Close()

	found := gocv.FindContours(src, gocv.RetrievalCComp, gocv.ChainApproxNone)
	defer found.Close()

	contours := make([]Contour, 0, found.Size())
	for i := 0; i < found.Size(); i++ {
		contours = append(contours, Contour(found.At(i).ToPoints()))
	}
	return contours, nil
}

// ContourArea implements Backend.
func (*OpenCV) ContourArea(c Contour) float64 {
	pv := gocv.NewPointVectorFromPoints(c)
	defer pv.Close()
	return gocv.ContourArea(pv)
}

// ArcLength implements Backend.
func (*OpenCV) ArcLength(c Contour, closed bool) float64 {
	pv := gocv.NewPointVectorFromPoints(c)
	defer pv.Close()
	return gocv.ArcLength(pv, closed)
}

// ApproxPolyDP implements Backend.
func (*OpenCV) ApproxPolyDP(c Contour, epsilon float64, closed bool) ([]geometry.Point, error) {
	pv := gocv.NewPointVectorFromPoints(c)
	defer pv.Close()
	approx := gocv.ApproxPolyDP(pv, epsilon, closed)
	defer approx.Close()
	return Contour(approx.ToPoints()).Points(), nil
}

// PerspectiveTransform implements Backend.
func (*OpenCV) PerspectiveTransform(src, dst geometry.Quad) (geometry.Matrix, error) {
	sv := gocv.NewPoint2fVectorFromPoints(toPoint2f(src))
	defer sv.Close()
	dv := gocv.NewPoint2fVectorFromPoints(toPoint2f(dst))
	defer dv.Close()

	m := gocv.GetPerspectiveTransform2f(sv, dv)
	defer m.Close()
	if m.Empty() {
		return geometry.Matrix{}, geometry.ErrDegenerate
	}

	var out geometry.Matrix
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r*3+c] = m.GetDoubleAt(r, c)
		}
	}
	return out, nil
}

// WarpPerspective implements Backend.
func (*OpenCV) WarpPerspective(img image.Image, m geometry.Matrix, size image.Point) (image.Image, error) {
	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("warp: %w", err)
	}
	defer src.Close()

	mat := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	defer mat.Close()
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			mat.SetDoubleAt(r, c, m[r*3+c])
		}
	}

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.WarpPerspective(src, &dst, mat, size)
	return dst.ToImage()
}

// FlipHorizontal implements Backend.
func (*OpenCV) FlipHorizontal(img image.Image) (image.Image, error) {
	return transformColor(img, "flip", func(src gocv.Mat, dst *gocv.Mat) {
		gocv.Flip(src, dst, 1)
	})
}

// Rotate90Clockwise implements Backend.
func (*OpenCV) Rotate90Clockwise(img image.Image) (image.Image, error) {
	return transformColor(img, "rotate", func(src gocv.Mat, dst *gocv.Mat) {
		gocv.Rotate(src, dst, gocv.Rotate90Clockwise)
	})
}

func inPlace(img *image.Gray, op string, fn func(src gocv.Mat, dst *gocv.Mat)) error {
	if err := checkGray(img); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	src, err := gocv.ImageGrayToMatGray(img)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	fn(src, &dst)

	out, err := matToGray(dst)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	w := img.Rect.Dx()
	for y := 0; y < img.Rect.Dy(); y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+w], out.Pix[y*out.Stride:])
	}
	return nil
}

func transformColor(img image.Image, op string, fn func(src gocv.Mat, dst *gocv.Mat)) (image.Image, error) {
	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	fn(src, &dst)
	return dst.ToImage()
}

func matToGray(m gocv.Mat) (*image.Gray, error) {
	img, err := m.ToImage()
	if err != nil {
		return nil, err
	}
	g, ok := img.(*image.Gray)
	if !ok {
		return nil, fmt.Errorf("expected single-channel image, got %T", img)
	}
	return g, nil
}

func toPoint2f(q geometry.Quad) []gocv.Point2f {
	pts := make([]gocv.Point2f, len(q))
	for i, p := range q {
		pts[i] = gocv.Point2f{X: float32(p.X), Y: float32(p.Y)}
	}
	return pts
}

func init() {
	Register(OpenCVName, func() (Backend, error) { return NewOpenCV(), nil })
}
