// Package interlace rebuilds Adam7-interlaced PNG image data into its
// final pixel order.
package interlace

import (
	"png.brickate.net/internal/filter"
)

// Adam7 parameters for each pass:
// starting x, starting y, x increment, y increment.
var adam7Passes = [7][4]int{
	{0, 0, 8, 8},
	{4, 0, 8, 8},
	{0, 4, 4, 8},
	{2, 0, 4, 4},
	{0, 2, 2, 4},
	{1, 0, 2, 2},
	{0, 1, 1, 2},
}

// passExtent returns how many sample positions of pass p fall inside a
// width x height image. Either count being zero means the pass
// contributes no scanlines, and so not even a filter byte.
func passExtent(p, width, height int) (pw, ph int) {
	x0, y0, dx, dy := adam7Passes[p][0], adam7Passes[p][1], adam7Passes[p][2], adam7Passes[p][3]
	if width > x0 {
		pw = (width - x0 + dx - 1) / dx
	}
	if height > y0 {
		ph = (height - y0 + dy - 1) / dy
	}
	return pw, ph
}

// Deinterlace reconstructs the seven filtered sub-images concatenated in
// src and scatters their pixels into final row-major order. Filter
// predecessors are scoped to each sub-image: the up neighbor is the
// previous scanline of the same pass, never a row of the final image.
func Deinterlace(src []byte, width, height, bpp int) ([]byte, error) {
	out := make([]byte, width*height*bpp)
	for p := 0; p < 7; p++ {
		pw, ph := passExtent(p, width, height)
		if pw == 0 || ph == 0 {
			continue // empty passes consume no bytes
		}

		sub, rest, err := filter.Reconstruct(src, pw, ph, bpp)
		if err != nil {
			return nil, err
		}
		src = rest

		x0, y0, dx, dy := adam7Passes[p][0], adam7Passes[p][1], adam7Passes[p][2], adam7Passes[p][3]
		idx := 0
		for y := y0; y < height; y += dy {
			for x := x0; x < width; x += dx {
				copy(out[(y*width+x)*bpp:(y*width+x+1)*bpp], sub[idx*bpp:(idx+1)*bpp])
				idx++
			}
		}
	}
	return out, nil
}
