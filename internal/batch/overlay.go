package batch

import (
	"fmt"
	"image"
	"image/color"

	"github.com/matsumo0922/TrumpDetection/internal/card"
	"github.com/matsumo0922/TrumpDetection/internal/imaging"
	"github.com/matsumo0922/TrumpDetection/internal/vision"
)

// Overlay colours.
var (
	ContourColor   = imaging.MustParseColor("#FF0000")
	CandidateColor = imaging.MustParseColor("#0000FF")
	AcceptedColor  = imaging.MustParseColor("#00FF00")

	labelText = imaging.MustParseColor("#FFFFFF")
	shade     = color.NRGBA{A: 255}
)

// Overlay draws every contour in red, the simplified outlines the selector
// examined in blue and the accepted outline in green on a copy of src. A
// label in the top-left corner names the parameter set on a dark green or
// dark red tab depending on the outcome.
func Overlay(src image.Image, params card.ParameterSet, contours []vision.Contour, sel *card.Selection) *image.NRGBA {
	canvas := imaging.Canvas(src)
	width := strokeWidth(canvas.Bounds())

	for _, c := range contours {
		imaging.DrawPolygon(canvas, c.Points(), true, ContourColor, width)
	}

	tab := imaging.Blend(ContourColor, shade, 0.6)
	if sel != nil {
		for i, cand := range sel.Candidates {
			if i == sel.Accepted {
				continue
			}
			imaging.DrawPolygon(canvas, cand.Approx, true, CandidateColor, width)
		}
		if sel.Found() {
			imaging.DrawPolygon(canvas, sel.Quad.Points(), true, AcceptedColor, width*2)
			tab = imaging.Blend(AcceptedColor, shade, 0.6)
		}
	}

	imaging.DrawLabel(canvas, 2, 2, fmt.Sprintf("%d-%d", params.BlurRadius, params.MorphIterations), labelText, tab)
	return canvas
}

// strokeWidth keeps lines visible on large photos.
func strokeWidth(b image.Rectangle) int {
	side := b.Dx()
	if b.Dy() < side {
		side = b.Dy()
	}
	if w := side / 400; w > 1 {
		return w
	}
	return 1
}
