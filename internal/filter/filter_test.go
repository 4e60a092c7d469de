package filter

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// applyFilter is the encode-side counterpart of Reconstruct: it filters
// raw pixel rows with a single filter type, prepending the selector byte
// to every scanline.
func applyFilter(ft byte, raw []byte, width, height, bpp int) []byte {
	stride := width * bpp
	out := make([]byte, 0, height*(stride+1))
	for y := 0; y < height; y++ {
		row := raw[y*stride : (y+1)*stride]
		var prev []byte
		if y > 0 {
			prev = raw[(y-1)*stride : y*stride]
		}
		out = append(out, ft)
		for i := 0; i < stride; i++ {
			var left, up, upLeft byte
			if i >= bpp {
				left = row[i-bpp]
			}
			if prev != nil {
				up = prev[i]
				if i >= bpp {
					upLeft = prev[i-bpp]
				}
			}
			var pred byte
			switch ft {
			case None:
				pred = 0
			case Sub:
				pred = left
			case Up:
				pred = up
			case Average:
				pred = byte((int(left) + int(up)) >> 1)
			case Paeth:
				pred = PaethPredictor(left, up, upLeft)
			}
			out = append(out, row[i]-pred)
		}
	}
	return out
}

func TestPaethPredictor(t *testing.T) {
	for _, x := range []uint8{0, 1, 127, 128, 255} {
		assert.Equal(t, x, PaethPredictor(x, x, x), "Paeth(%d,%d,%d)", x, x, x)
	}

	tests := []struct {
		a, b, c uint8
		want    uint8
	}{
		{1, 2, 3, 1},       // p=0: pa=1, pb=2, pc=3 -> a
		{3, 2, 1, 3},       // p=4: pa=1, pb=2, pc=3 -> a
		{0, 10, 5, 5},      // p=5: pa=5, pb=5, pc=0 -> c
		{10, 0, 5, 5},      // p=5: pa=5, pb=5, pc=0 -> c
		{100, 100, 0, 100}, // a/b tie breaks toward a
		{0, 255, 255, 0},   // p=0: pa=0 -> a
		{255, 0, 255, 0},   // p=0: pa=255, pb=0 -> b
	}
	for _, tt := range tests {
		got := PaethPredictor(tt.a, tt.b, tt.c)
		assert.Equal(t, tt.want, got, "Paeth(%d,%d,%d)", tt.a, tt.b, tt.c)
	}
}

func TestReconstructRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	sizes := []struct{ width, height, bpp int }{
		{1, 1, 1},
		{1, 1, 4},
		{2, 1, 1},
		{7, 3, 2},
		{16, 16, 3},
		{5, 9, 4},
	}
	for _, sz := range sizes {
		raw := make([]byte, sz.width*sz.height*sz.bpp)
		rng.Read(raw)
		for ft := byte(None); ft <= Paeth; ft++ {
			filtered := applyFilter(ft, raw, sz.width, sz.height, sz.bpp)
			got, rest, err := Reconstruct(filtered, sz.width, sz.height, sz.bpp)
			require.NoError(t, err, "filter %d on %dx%dx%d", ft, sz.width, sz.height, sz.bpp)
			assert.Equal(t, raw, got, "filter %d on %dx%dx%d", ft, sz.width, sz.height, sz.bpp)
			assert.Empty(t, rest)
		}
	}
}

func TestReconstructSubWraparound(t *testing.T) {
	// 2x1 grayscale with Sub filter: 200+100 wraps to 44.
	got, rest, err := Reconstruct([]byte{Sub, 100, 200}, 2, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{100, 44}, got)
	assert.Empty(t, rest)
}

func TestReconstructTrailingBytes(t *testing.T) {
	src := []byte{None, 1, 2, 3, 0xAA, 0xBB}
	got, rest, err := Reconstruct(src, 3, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got)
	assert.Equal(t, []byte{0xAA, 0xBB}, rest, "unconsumed bytes are handed back")
}

func TestReconstructErrors(t *testing.T) {
	_, _, err := Reconstruct([]byte{5, 1, 2, 3}, 3, 1, 1)
	assert.Error(t, err, "unknown filter selector")

	_, _, err = Reconstruct([]byte{None, 1, 2}, 3, 1, 1)
	assert.Error(t, err, "short scanline")

	_, _, err = Reconstruct([]byte{None, 1, 2, 3}, 3, 2, 1)
	assert.Error(t, err, "missing second scanline")
}
