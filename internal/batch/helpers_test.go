package batch

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matsumo0922/TrumpDetection/internal/card"
	"github.com/matsumo0922/TrumpDetection/internal/config"
	"github.com/matsumo0922/TrumpDetection/internal/imaging"
	"github.com/matsumo0922/TrumpDetection/internal/vision"
)

// quickSweep makes failing images fail after a single cheap attempt.
var quickSweep = card.WithSweep([]card.ParameterSet{{BlurRadius: 0, MorphIterations: 0}})

// cardScene draws a light 150×243 card on a dark 360×300 background.
func cardScene() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 360, 300))
	cardRect := image.Rect(105, 28, 255, 271)
	for y := 0; y < 300; y++ {
		for x := 0; x < 360; x++ {
			c := color.NRGBA{40, 40, 40, 255}
			if image.Pt(x, y).In(cardRect) {
				c = color.NRGBA{230, 230, 230, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// blankScene has no structure at all, so no outline can be found.
func blankScene() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 100, 80))
	for i := range img.Pix {
		img.Pix[i] = 120
	}
	return img
}

func writeImage(t *testing.T, path string, img image.Image) string {
	t.Helper()
	require.NoError(t, imaging.Save(img, path, 95))
	return path
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// syncBuffer collects progress lines from concurrent workers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Lines() []string {
	return strings.Split(strings.TrimSpace(b.String()), "\n")
}

func newRunner(t *testing.T, out *syncBuffer, opts ...Option) *Runner {
	t.Helper()
	cfg := config.Defaults()
	cfg.Workers = 2
	return New(vision.NewNative(), cfg, append([]Option{WithOutput(out)}, opts...)...)
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

