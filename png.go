// Package png decodes PNG files into tightly packed 8-bit RGBA pixel
// buffers. It handles the five standard color types at bit depth 8,
// Adam7 interlacing and gAMA correction, and is meant for embedding in
// software rasterizers and other graphics tooling where a full image
// library is unwanted.
package png

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"

	"png.brickate.net/internal/chunk"
	"png.brickate.net/internal/filter"
	"png.brickate.net/internal/interlace"
	"png.brickate.net/internal/pixel"
)

// ErrDecode is the failure every bad input collapses to. Wrapped detail
// is attached for debugging; match with errors.Is.
var ErrDecode = errors.New("png: decode failed")

// Image is a decoded PNG. Pix is a row-major RGBA buffer of
// 4*Width*Height bytes owned by the caller. ColorType reports the
// source layout (0, 2, 3, 4 or 6) and is informational; Pix is always
// RGBA with alpha 255 where the source had no alpha channel.
type Image struct {
	Pix       []byte
	Width     int
	Height    int
	ColorType uint8
}

// LoadPNG decodes the PNG file at path.
func LoadPNG(path string) (*Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer file.Close()
	return Decode(file)
}

// Decode decodes a PNG datastream from r. The reader is consumed
// sequentially through the IEND chunk; no seeking is required.
func Decode(r io.Reader) (*Image, error) {
	img, err := decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

func decode(r io.Reader) (*Image, error) {
	if err := chunk.VerifySignature(r); err != nil {
		return nil, err
	}

	// The IHDR chunk must appear first.
	first, err := chunk.Read(r)
	if err != nil {
		return nil, errors.Wrap(err, "read IHDR")
	}
	if first.Type != chunk.ChunkIHDR {
		return nil, errors.Errorf("expected IHDR as first chunk, got %q", first.Name)
	}
	ihdr, err := chunk.HandleIHDR(first)
	if err != nil {
		return nil, err
	}

	// idat is a buffer accumulating the payloads of all IDAT chunks in
	// encounter order; boundaries between them carry no meaning.
	var (
		idat  bytes.Buffer
		pal   *chunk.Palette
		gamma float64
	)
loop:
	for {
		chunkStream, err := chunk.Read(r)
		if err != nil {
			return nil, errors.Wrap(err, "read chunk")
		}
		switch chunkStream.Type {
		case chunk.ChunkPLTE:
			pal, err = chunk.HandlePLTE(chunkStream)
			if err != nil {
				return nil, err
			}
		case chunk.ChunkIDAT:
			if err := chunk.HandleIDAT(chunkStream, &idat); err != nil {
				return nil, err
			}
		case chunk.ChunkgAMA:
			g, err := chunk.ParseGAMA(chunkStream.Data)
			if err != nil {
				return nil, err
			}
			gamma = g.ConvertGamma()
		case chunk.ChunkIEND:
			break loop
		default:
			// CRC-verified by the reader and discarded, critical or not.
		}
	}

	if idat.Len() == 0 {
		return nil, errors.New("no IDAT data")
	}
	inflated, err := inflate(&idat)
	if err != nil {
		return nil, errors.Wrap(err, "inflate IDAT")
	}

	bpp, err := chunk.BytesPerPixel(ihdr.ColorType)
	if err != nil {
		return nil, err
	}
	width, height := int(ihdr.Width), int(ihdr.Height)

	// Reverse the scanline filters; the inflated stream may carry
	// trailing bytes past the expected size, which are ignored.
	var raw []byte
	if ihdr.InterlaceMethod == 1 {
		raw, err = interlace.Deinterlace(inflated, width, height, bpp)
	} else {
		raw, _, err = filter.Reconstruct(inflated, width, height, bpp)
	}
	if err != nil {
		return nil, err
	}

	pix, err := pixel.ToRGBA(raw, width, height, ihdr.ColorType, pal)
	if err != nil {
		return nil, err
	}
	pixel.ApplyGamma(pix, gamma)

	return &Image{
		Pix:       pix,
		Width:     width,
		Height:    height,
		ColorType: ihdr.ColorType,
	}, nil
}

// inflate decompresses the accumulated IDAT bytes as a zlib-wrapped
// DEFLATE stream. The output size is discovered as the buffer grows.
func inflate(compressed *bytes.Buffer) ([]byte, error) {
	inflatedData, err := zlib.NewReader(compressed)
	if err != nil {
		return nil, err
	}
	defer inflatedData.Close()

	var decompressedBytes bytes.Buffer
	if _, err := io.Copy(&decompressedBytes, inflatedData); err != nil {
		return nil, err
	}
	return decompressedBytes.Bytes(), nil
}
