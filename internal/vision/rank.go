package vision

import "image"

// medianFilter replaces every pixel of img with the median of the k×k
// window around it, replicating edge pixels. k must be odd.
//
// Each row slides a 256-bin histogram across the image, so the cost per
// pixel is O(k) rather than the O(k² log k) of sorting every window.
func medianFilter(img *image.Gray, k int) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	r := k / 2
	half := k * k / 2
	src := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		copy(src[y*w:], img.Pix[y*img.Stride:y*img.Stride+w])
	}
	at := func(x, y int) uint8 {
		return src[clamp(y, h)*w+clamp(x, w)]
	}

	var hist [256]int
	for y := 0; y < h; y++ {
		hist = [256]int{}
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				hist[at(dx, y+dy)]++
			}
		}
		// lt counts window values below med.
		med, lt := 0, 0
		for lt+hist[med] <= half {
			lt += hist[med]
			med++
		}
		row := img.Pix[y*img.Stride:]
		row[0] = uint8(med)

		for x := 1; x < w; x++ {
			for dy := -r; dy <= r; dy++ {
				out := at(x-r-1, y+dy)
				hist[out]--
				if int(out) < med {
					lt--
				}
				in := at(x+r, y+dy)
				hist[in]++
				if int(in) < med {
					lt++
				}
			}
			for lt > half {
				med--
				lt -= hist[med]
			}
			for lt+hist[med] <= half {
				lt += hist[med]
				med++
			}
			row[x] = uint8(med)
		}
	}
}

// morph3 applies n passes of a 3×3 maximum (dilate) or minimum (erode).
// Pixels outside the image are ignored. The square element is separable, so
// each pass is a horizontal then a vertical 3-tap filter.
func morph3(img *image.Gray, n int, dilate bool) {
	pick := func(a, b uint8) uint8 { return min(a, b) }
	if dilate {
		pick = func(a, b uint8) uint8 { return max(a, b) }
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	tmp := make([]uint8, w*h)
	for ; n > 0; n-- {
		for y := 0; y < h; y++ {
			row := img.Pix[y*img.Stride : y*img.Stride+w]
			out := tmp[y*w : (y+1)*w]
			for x := range row {
				v := row[x]
				if x > 0 {
					v = pick(v, row[x-1])
				}
				if x+1 < w {
					v = pick(v, row[x+1])
				}
				out[x] = v
			}
		}
		for y := 0; y < h; y++ {
			row := img.Pix[y*img.Stride : y*img.Stride+w]
			for x := range row {
				v := tmp[y*w+x]
				if y > 0 {
					v = pick(v, tmp[(y-1)*w+x])
				}
				if y+1 < h {
					v = pick(v, tmp[(y+1)*w+x])
				}
				row[x] = v
			}
		}
	}
}

func clamp(v, n int) int {
	switch {
	case v < 0:
		return 0
	case v >= n:
		return n - 1
	}
	return v
}
