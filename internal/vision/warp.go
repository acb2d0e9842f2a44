package vision

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/matsumo0922/TrumpDetection/internal/geometry"
)

// warpPerspective renders a size.X×size.Y canvas in which each pixel (x, y)
// takes the bilinearly sampled colour of m⁻¹(x, y) in img. Samples falling
// outside img are opaque black.
func warpPerspective(img image.Image, m geometry.Matrix, size image.Point) (*image.NRGBA, error) {
	if img == nil {
		return nil, fmt.Errorf("warp: nil image")
	}
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("warp: invalid output size %dx%d", size.X, size.Y)
	}
	inv, err := m.Inverse()
	if err != nil {
		return nil, fmt.Errorf("warp: %w", err)
	}

	src := imaging.Clone(img)
	out := image.NewNRGBA(image.Rect(0, 0, size.X, size.Y))
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			p := inv.Apply(geometry.Pt(float64(x), float64(y)))
			i := y*out.Stride + x*4
			sample(src, p.X, p.Y, out.Pix[i:i+4])
		}
	}
	return out, nil
}

// sample writes the bilinear interpolation of src at (x, y) into dst.
func sample(src *image.NRGBA, x, y float64, dst []uint8) {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if math.IsNaN(x) || math.IsNaN(y) || x < 0 || y < 0 || x > float64(w-1) || y > float64(h-1) {
		dst[0], dst[1], dst[2], dst[3] = 0, 0, 0, 255
		return
	}

	x0, y0 := int(x), int(y)
	x1, y1 := x0+1, y0+1
	if x1 >= w {
		x1 = w - 1
	}
	if y1 >= h {
		y1 = h - 1
	}
	fx := x - float64(x0)
	fy := y - float64(y0)

	p00 := src.Pix[y0*src.Stride+x0*4:]
	p10 := src.Pix[y0*src.Stride+x1*4:]
	p01 := src.Pix[y1*src.Stride+x0*4:]
	p11 := src.Pix[y1*src.Stride+x1*4:]
	for c := 0; c < 4; c++ {
		top := lerp(float64(p00[c]), float64(p10[c]), fx)
		bottom := lerp(float64(p01[c]), float64(p11[c]), fx)
		dst[c] = uint8(lerp(top, bottom, fy) + 0.5)
	}
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }
