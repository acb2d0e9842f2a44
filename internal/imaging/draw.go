package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/matsumo0922/TrumpDetection/internal/geometry"
)

// ParseColor parses a hex colour like "#FF0000" or "#FF000080". The alpha
// byte is optional and defaults to opaque.
func ParseColor(hex string) (color.NRGBA, error) {
	if hex == "" {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}

	alpha := uint8(255)
	switch len(hex) {
	case 7:
	case 9:
		a, err := strconv.ParseUint(hex[7:], 16, 8)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid alpha in %q: %w", hex, err)
		}
		alpha = uint8(a)
		hex = hex[:7]
	default:
		return color.NRGBA{}, fmt.Errorf("invalid hex color length: %q", hex)
	}

	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, err
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}, nil
}

// MustParseColor is ParseColor for compile-time constants.
func MustParseColor(hex string) color.NRGBA {
	c, err := ParseColor(hex)
	if err != nil {
		panic(err)
	}
	return c
}

// Blend mixes a and b in CIE-Lab space; t=0 gives a, t=1 gives b.
func Blend(a, b color.Color, t float64) color.NRGBA {
	ca, _ := colorful.MakeColor(opaque(a))
	cb, _ := colorful.MakeColor(opaque(b))
	r, g, bl := ca.BlendLab(cb, t).Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: bl, A: 255}
}

func opaque(c color.Color) color.Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = 255
	return n
}

// Canvas returns a mutable copy of img to draw annotations on.
func Canvas(img image.Image) *image.NRGBA {
	return imaging.Clone(img)
}

// DrawPolygon strokes the polyline through pts onto dst with a square brush
// of the given width, closing it when closed is true.
func DrawPolygon(dst draw.Image, pts []geometry.Point, closed bool, c color.Color, width int) {
	if len(pts) == 0 {
		return
	}
	if len(pts) == 1 {
		stamp(dst, int(math.Round(pts[0].X)), int(math.Round(pts[0].Y)), c, width)
		return
	}
	for i := 1; i < len(pts); i++ {
		drawLine(dst, pts[i-1], pts[i], c, width)
	}
	if closed {
		drawLine(dst, pts[len(pts)-1], pts[0], c, width)
	}
}

// drawLine rasterises a segment with Bresenham's algorithm.
func drawLine(dst draw.Image, a, b geometry.Point, c color.Color, width int) {
	x0, y0 := int(math.Round(a.X)), int(math.Round(a.Y))
	x1, y1 := int(math.Round(b.X)), int(math.Round(b.Y))

	dx := absInt(x1 - x0)
	dy := -absInt(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		stamp(dst, x0, y0, c, width)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func stamp(dst draw.Image, x, y int, c color.Color, width int) {
	if width < 1 {
		width = 1
	}
	bounds := dst.Bounds()
	lo := -(width - 1) / 2
	for dy := lo; dy < lo+width; dy++ {
		for dx := lo; dx < lo+width; dx++ {
			p := image.Pt(x+dx, y+dy)
			if p.In(bounds) {
				dst.Set(p.X, p.Y, c)
			}
		}
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// DrawLabel draws a small text label at the given position using a 3x5
// pixel font. Only digits, comma, minus and dot are rendered; other
// characters leave a gap.
func DrawLabel(img draw.Image, x, y int, text string, fg, bg color.Color) {
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
		',': {"000", "000", "000", "010", "010"},
		'-': {"000", "000", "111", "000", "000"},
		'.': {"000", "000", "000", "000", "010"},
	}

	bounds := img.Bounds()
	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			if p := image.Pt(x+dx, y+dy); p.In(bounds) {
				img.Set(p.X, p.Y, bg)
			}
		}
	}

	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel != '1' {
					continue
				}
				if p := image.Pt(cx+col, y+row); p.In(bounds) {
					img.Set(p.X, p.Y, fg)
				}
			}
		}
		cx += charWidth
	}
}
