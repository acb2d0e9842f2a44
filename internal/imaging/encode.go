package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// EncodedImage is an image serialised for transport in a JSON response.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Scale resizes img by factor using Lanczos resampling. A factor of 1 or
// less than or equal to 0 returns img unchanged.
func Scale(img image.Image, factor float64) image.Image {
	if factor == 1.0 || factor <= 0 {
		return img
	}
	b := img.Bounds()
	w := int(float64(b.Dx()) * factor)
	h := int(float64(b.Dy()) * factor)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}

// EncodePNG scales img and returns it as base64 PNG.
func EncodePNG(img image.Image, scale float64) (*EncodedImage, error) {
	if img == nil {
		return nil, fmt.Errorf("nothing to encode")
	}
	out := Scale(img, scale)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &EncodedImage{
		Width:       out.Bounds().Dx(),
		Height:      out.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// Save writes img to path in the format implied by its extension. The file
// is written to a temporary name in the same directory and renamed into
// place, so a failed write never leaves a partial output behind.
//
// jpegQuality applies to JPEG output only; values outside 1..100 fall back
// to the library default.
func Save(img image.Image, path string, jpegQuality int) error {
	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return fmt.Errorf("unsupported output format %q: %w", filepath.Ext(path), err)
	}

	var opts []imaging.EncodeOption
	if jpegQuality >= 1 && jpegQuality <= 100 {
		opts = append(opts, imaging.JPEGQuality(jpegQuality))
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := imaging.Encode(tmp, img, format, opts...); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
