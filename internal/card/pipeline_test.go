package card

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsumo0922/TrumpDetection/internal/vision"
)

var (
	background = color.NRGBA{40, 40, 40, 255}
	cardWhite  = color.NRGBA{230, 230, 230, 255}
	markerRed  = color.NRGBA{220, 20, 20, 255}
)

// cardScene draws a 150×243 card on a dark 360×300 background with a red
// marker near the card's top-left corner.
func cardScene() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 360, 300))
	card := image.Rect(105, 28, 255, 271)
	marker := image.Rect(card.Min.X+35, card.Min.Y+35, card.Min.X+55, card.Min.Y+55)
	for y := 0; y < 300; y++ {
		for x := 0; x < 360; x++ {
			p := image.Pt(x, y)
			switch {
			case p.In(marker):
				img.SetNRGBA(x, y, markerRed)
			case p.In(card):
				img.SetNRGBA(x, y, cardWhite)
			default:
				img.SetNRGBA(x, y, background)
			}
		}
	}
	return img
}

// borderScene is a dark image whose only structure is a 2 px light band
// along the frame. Every border it produces hugs the image edge; a wider band
// lets the median pass trace its inner edge as a quadrilateral.
func borderScene() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 200, 150))
	for y := 0; y < 150; y++ {
		for x := 0; x < 200; x++ {
			c := background
			if x < 2 || y < 2 || x >= 198 || y >= 148 {
				c = cardWhite
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func isRed(c color.Color) bool {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return n.R > 150 && n.G < 100 && n.B < 100
}

func isLight(c color.Color) bool {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return n.R > 180 && n.G > 180 && n.B > 180
}

// assertUprightCard checks that out is the card of cardScene, upright and
// not mirrored.
func assertUprightCard(t *testing.T, out image.Image) {
	t.Helper()
	require.Equal(t, image.Rect(0, 0, ShortSide, LongSide), out.Bounds())

	marker := image.Pt(307, 307)
	assert.True(t, isRed(out.At(marker.X, marker.Y)), "marker at top-left")
	assert.True(t, isLight(out.At(ShortSide-marker.X, marker.Y)), "top-right is plain")
	assert.True(t, isLight(out.At(marker.X, LongSide-marker.Y)), "bottom-left is plain")
	assert.True(t, isLight(out.At(ShortSide/2, LongSide/2)), "centre is plain")
}

func TestPipeline_CleanCard(t *testing.T) {
	if testing.Short() {
		t.Skip("full sweep on the native backend")
	}

	res, err := NewLocator(vision.NewNative()).LocateAndRectify(cardScene())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Attempt, "first parameter set succeeds")
	assertUprightCard(t, res.Image)
}

func TestPipeline_RotatedCard(t *testing.T) {
	if testing.Short() {
		t.Skip("full sweep on the native backend")
	}

	rotated := imaging.Rotate270(cardScene())
	res, err := NewLocator(vision.NewNative()).LocateAndRectify(rotated)
	require.NoError(t, err)
	assertUprightCard(t, res.Image)
}

func TestPipeline_BorderOnly(t *testing.T) {
	if testing.Short() {
		t.Skip("full sweep on the native backend")
	}

	_, err := NewLocator(vision.NewNative()).LocateAndRectify(borderScene())
	assert.ErrorIs(t, err, ErrSweepExhausted)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Len(t, exhausted.Attempts, len(DefaultSweep()))
	for _, a := range exhausted.Attempts {
		assert.ErrorIs(t, a.Err, ErrNoQuadrilateral, a.Params.String())
	}
}
