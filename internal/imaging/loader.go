package imaging

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
)

// Cache holds decoded photographs keyed by path so that several card tools
// run against the same file decode it once.
//
// Each entry remembers the size and modification time of the file it was
// decoded from. A Load that finds the file changed on disk decodes it again,
// which keeps long-lived callers (the MCP server, watch mode) from handing out
// a stale photo after it has been overwritten. Cached images are shared and
// must be treated as read-only.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	img  image.Image
	size int64
	mod  time.Time
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

// Load returns the decoded image at path, reusing the cached copy while the
// file is unchanged.
func (c *Cache) Load(path string) (image.Image, error) {
	fi, err := stat(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	e, ok := c.entries[path]
	c.mu.Unlock()
	if ok && e.size == fi.Size() && e.mod.Equal(fi.ModTime()) {
		return e.img, nil
	}

	img, err := decode(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[path] = cacheEntry{img: img, size: fi.Size(), mod: fi.ModTime()}
	c.mu.Unlock()
	return img, nil
}

// Len returns the number of cached images.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Forget drops the entry for path, if any.
func (c *Cache) Forget(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.mu.Unlock()
}

// Reset drops every entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// Open decodes the image at path without caching it. JPEG files are turned
// upright according to their EXIF orientation tag, so a phone photo is seen
// the way it was framed.
func Open(path string) (image.Image, error) {
	if _, err := stat(path); err != nil {
		return nil, err
	}
	return decode(path)
}

func stat(path string) (os.FileInfo, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("failed to open image: %s is a directory", path)
	}
	return fi, nil
}

func decode(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// Orientation of a photo after EXIF correction.
const (
	Portrait  = "portrait"
	Landscape = "landscape"
	Square    = "square"
)

// Info describes a photo file as the card tools will see it.
type Info struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	// Format is "png", "jpeg", "gif", "bmp", "tiff" or "unknown", taken
	// from the file extension.
	Format string `json:"format"`

	Orientation string `json:"orientation"`

	// BitDepth is 16 for 16-bit-per-channel decodes and 8 otherwise.
	BitDepth int `json:"bit_depth"`

	// HasAlpha is set when the decoded image reports itself as not opaque.
	HasAlpha bool `json:"has_alpha"`

	FileSizeBytes int64 `json:"file_size_bytes"`
}

// Inspect loads path through c and describes it.
func Inspect(c *Cache, path string) (*Info, error) {
	img, err := c.Load(path)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	b := img.Bounds()
	info := &Info{
		Width:         b.Dx(),
		Height:        b.Dy(),
		Format:        FormatOf(path),
		Orientation:   orientation(b.Dx(), b.Dy()),
		BitDepth:      8,
		FileSizeBytes: fi.Size(),
	}
	switch img.(type) {
	case *image.RGBA64, *image.NRGBA64, *image.Gray16:
		info.BitDepth = 16
	}
	if o, ok := img.(interface{ Opaque() bool }); ok {
		info.HasAlpha = !o.Opaque()
	}
	return info, nil
}

func orientation(w, h int) string {
	switch {
	case w > h:
		return Landscape
	case h > w:
		return Portrait
	default:
		return Square
	}
}

// Dimensions is the pixel size of an upright photo.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Measure loads path through c and returns its size.
func Measure(c *Cache, path string) (*Dimensions, error) {
	img, err := c.Load(path)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	return &Dimensions{Width: b.Dx(), Height: b.Dy()}, nil
}

// FormatOf names the image format implied by the extension of path:
// "png", "jpeg", "gif", "bmp", "tiff" or "unknown".
func FormatOf(path string) string {
	f, err := imaging.FormatFromFilename(path)
	if err != nil {
		return "unknown"
	}
	return strings.ToLower(f.String())
}

// Extension returns the lower-cased extension of path without the dot.
func Extension(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}
