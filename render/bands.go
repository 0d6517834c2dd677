package render

import "image"

// Bands splits r into at most n horizontal bands of contiguous rows. Band
// heights differ by at most one row and together cover every row of r exactly
// once.
func Bands(r image.Rectangle, n int) []image.Rectangle {
	h := r.Dy()
	if h <= 0 || r.Dx() <= 0 {
		return nil
	}
	if n <= 0 {
		n = 1
	}
	if n > h {
		n = h
	}

	base, rem := h/n, h%n
	bands := make([]image.Rectangle, 0, n)
	y := r.Min.Y
	for i := 0; i < n; i++ {
		bh := base
		if i < rem {
			bh++
		}
		bands = append(bands, image.Rect(r.Min.X, y, r.Max.X, y+bh))
		y += bh
	}
	return bands
}
