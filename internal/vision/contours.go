package vision

import "image"

// Neighbour offsets indexed counter-clockwise as seen on screen (Y down),
// starting east: E, NE, N, NW, W, SW, S, SE.
var neighbours = [8]image.Point{
	{1, 0}, {1, -1}, {0, -1}, {-1, -1},
	{-1, 0}, {-1, 1}, {0, 1}, {1, 1},
}

const (
	dirEast = 0
	dirWest = 4
)

// direction returns the neighbour index of the offset (dx, dy).
func direction(dx, dy int) int {
	for i, n := range neighbours {
		if n.X == dx && n.Y == dy {
			return i
		}
	}
	return -1
}

// traceBorders runs Suzuki-Abe border following over img and returns every
// outer and hole border in raster order of their starting pixels.
//
// Labels live in a separate int32 grid: 0 is background, 1 an unvisited
// foreground pixel, +n a pixel on border n, and -n a pixel on border n whose
// east neighbour is background (the right-hand end of a run). The outermost
// frame of the image is forced to background.
func traceBorders(img *image.Gray) []Contour {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w < 3 || h < 3 {
		return nil
	}

	f := make([]int32, w*h)
	for y := 1; y < h-1; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 1; x < w-1; x++ {
			if row[x] != 0 {
				f[y*w+x] = 1
			}
		}
	}

	var contours []Contour
	nbd := int32(1)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			v := f[y*w+x]
			if v == 0 {
				continue
			}

			var from int
			switch {
			case v == 1 && f[y*w+x-1] == 0:
				from = dirWest
			case v >= 1 && f[y*w+x+1] == 0:
				from = dirEast
			default:
				continue
			}

			nbd++
			contours = append(contours, followBorder(f, w, x, y, from, nbd))
		}
	}
	return contours
}

// followBorder traces one border starting at (x0, y0), whose background
// neighbour lies in direction from.
func followBorder(f []int32, w, x0, y0, from int, nbd int32) Contour {
	at := func(x, y int) int32 { return f[y*w+x] }

	// Search clockwise from the background neighbour for the first
	// foreground pixel.
	first := -1
	for k := 0; k < 8; k++ {
		d := (from - k + 8) % 8
		if at(x0+neighbours[d].X, y0+neighbours[d].Y) != 0 {
			first = d
			break
		}
	}
	if first < 0 {
		f[y0*w+x0] = -nbd
		return Contour{image.Pt(x0, y0)}
	}

	x1, y1 := x0+neighbours[first].X, y0+neighbours[first].Y
	x2, y2 := x1, y1
	x3, y3 := x0, y0

	var contour Contour
	for {
		contour = append(contour, image.Pt(x3, y3))

		// Search counter-clockwise, starting just past the previous pixel.
		prev := direction(x2-x3, y2-y3)
		eastChecked := false
		next := prev
		for k := 1; k <= 8; k++ {
			d := (prev + k) % 8
			if at(x3+neighbours[d].X, y3+neighbours[d].Y) != 0 {
				next = d
				break
			}
			if d == dirEast {
				eastChecked = true
			}
		}

		if eastChecked {
			f[y3*w+x3] = -nbd
		} else if at(x3, y3) == 1 {
			f[y3*w+x3] = nbd
		}

		x4, y4 := x3+neighbours[next].X, y3+neighbours[next].Y
		if x4 == x0 && y4 == y0 && x3 == x1 && y3 == y1 {
			break
		}
		x2, y2 = x3, y3
		x3, y3 = x4, y4
	}
	return contour
}
