package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func solidImage(width, height int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestEncodePNG(t *testing.T) {
	img := solidImage(100, 80, color.NRGBA{255, 255, 255, 255})
	for y := 0; y < 40; y++ {
		for x := 0; x < 50; x++ {
			img.Set(x, y, color.NRGBA{255, 0, 0, 255})
		}
	}

	result, err := EncodePNG(img, 1.0)
	if err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}
	if result.Width != 100 || result.Height != 80 {
		t.Errorf("dimensions: got %dx%d, want 100x80", result.Width, result.Height)
	}
	if result.MimeType != "image/png" {
		t.Errorf("MimeType: got %s, want image/png", result.MimeType)
	}

	raw, err := base64.StdEncoding.DecodeString(result.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("failed to decode png: %v", err)
	}

	// Top-left quadrant is red, bottom-right white.
	if r, g, b, _ := decoded.At(10, 10).RGBA(); r>>8 != 255 || g>>8 != 0 || b>>8 != 0 {
		t.Errorf("top-left: got (%d,%d,%d), want red", r>>8, g>>8, b>>8)
	}
	if r, g, b, _ := decoded.At(90, 70).RGBA(); r>>8 != 255 || g>>8 != 255 || b>>8 != 255 {
		t.Errorf("bottom-right: got (%d,%d,%d), want white", r>>8, g>>8, b>>8)
	}
}

func TestEncodePNG_Scale(t *testing.T) {
	img := solidImage(100, 60, color.NRGBA{255, 0, 0, 255})

	tests := []struct {
		scale         float64
		width, height int
	}{
		{2.0, 200, 120},
		{0.5, 50, 30},
		{1.0, 100, 60},
		{0, 100, 60},
		{-1, 100, 60},
	}
	for _, tt := range tests {
		result, err := EncodePNG(img, tt.scale)
		if err != nil {
			t.Fatalf("EncodePNG(%v) failed: %v", tt.scale, err)
		}
		if result.Width != tt.width || result.Height != tt.height {
			t.Errorf("scale %v: got %dx%d, want %dx%d", tt.scale, result.Width, result.Height, tt.width, tt.height)
		}
	}
}

func TestEncodePNG_Nil(t *testing.T) {
	if _, err := EncodePNG(nil, 1); err == nil {
		t.Error("EncodePNG should fail for a nil image")
	}
}

func TestScale_Tiny(t *testing.T) {
	out := Scale(solidImage(10, 10, color.Black), 0.01)
	if out.Bounds().Dx() != 1 || out.Bounds().Dy() != 1 {
		t.Errorf("got %v, want 1x1", out.Bounds())
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	img := solidImage(32, 24, color.NRGBA{0, 200, 0, 255})

	for _, name := range []string{"out.png", "out.jpg", "OUT.JPEG"} {
		path := filepath.Join(dir, name)
		if err := Save(img, path, 90); err != nil {
			t.Fatalf("Save(%s) failed: %v", name, err)
		}

		back, err := Open(path)
		if err != nil {
			t.Fatalf("reopen %s failed: %v", name, err)
		}
		if back.Bounds().Dx() != 32 || back.Bounds().Dy() != 24 {
			t.Errorf("%s: got %v, want 32x24", name, back.Bounds())
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Errorf("expected only the three outputs, got %d entries", len(entries))
	}
}

func TestSave_Errors(t *testing.T) {
	dir := t.TempDir()
	img := solidImage(4, 4, color.White)

	if err := Save(img, filepath.Join(dir, "out.xyz"), 90); err == nil {
		t.Error("Save should reject an unknown extension")
	}
	if err := Save(img, filepath.Join(dir, "missing", "out.png"), 90); err == nil {
		t.Error("Save should fail when the directory does not exist")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("failed saves left %d files behind", len(entries))
	}
}
