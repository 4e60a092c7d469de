package chunk

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Chunk defines the chunk layout as specified by PNG datastream structure.
type Chunk struct {
	Length uint32    // A four-byte unsigned integer giving the number of bytes in the chunk's data field.
	Type   ChunkType // A sequence of four bytes defining the chunk type.
	Name   string    // The four-character type code as it appeared on disk; set even for types mapped to Unknown.
	Data   []byte    // The data bytes of the relevant chunk type; can be zero length.
	Crc    uint32    // A four-byte CRC (Cyclic Redundancy Code) calculated on the preceding bytes in the chunk.
	// Includes chunk type and data, but NOT length.
}

// Color types as defined by the PNG specification.
const (
	ColorGray      = 0
	ColorRGB       = 2
	ColorIndexed   = 3
	ColorGrayAlpha = 4
	ColorRGBA      = 6
)

// BytesPerPixel returns the number of bytes one pixel occupies in the
// filtered scanline for the given color type at bit depth 8.
func BytesPerPixel(colorType uint8) (int, error) {
	switch colorType {
	case ColorGray, ColorIndexed:
		return 1, nil
	case ColorGrayAlpha:
		return 2, nil
	case ColorRGB:
		return 3, nil
	case ColorRGBA:
		return 4, nil
	}
	return 0, fmt.Errorf("invalid color type: %d", colorType)
}

type IHDR struct {
	Width             uint32
	Height            uint32
	BitDepth          uint8
	ColorType         uint8
	CompressionMethod uint8
	FilterMethod      uint8
	InterlaceMethod   uint8
}

// HandleIHDR parses and validates the 13-byte IHDR payload.
func HandleIHDR(chunkStream *Chunk) (IHDR, error) {
	if len(chunkStream.Data) != 13 {
		return IHDR{}, fmt.Errorf("invalid length for IHDR: %d", len(chunkStream.Data))
	}
	ihdr := IHDR{
		Width:             binary.BigEndian.Uint32(chunkStream.Data[0:4]),
		Height:            binary.BigEndian.Uint32(chunkStream.Data[4:8]),
		BitDepth:          chunkStream.Data[8],
		ColorType:         chunkStream.Data[9],
		CompressionMethod: chunkStream.Data[10],
		FilterMethod:      chunkStream.Data[11],
		InterlaceMethod:   chunkStream.Data[12],
	}
	if err := ihdr.validate(); err != nil {
		return IHDR{}, err
	}
	return ihdr, nil
}

// validate enforces the subset of the PNG format this decoder supports:
// bit depth 8, compression and filter method 0, interlace method 0 or 1.
func (h IHDR) validate() error {
	if h.BitDepth != 8 {
		return fmt.Errorf("unsupported bit depth: %d", h.BitDepth)
	}
	if _, err := BytesPerPixel(h.ColorType); err != nil {
		return err
	}
	if h.CompressionMethod != 0 {
		return fmt.Errorf("unknown compression method: %d", h.CompressionMethod)
	}
	if h.FilterMethod != 0 {
		return fmt.Errorf("unknown filter method: %d", h.FilterMethod)
	}
	if h.InterlaceMethod != 0 && h.InterlaceMethod != 1 {
		return fmt.Errorf("unknown interlace method: %d", h.InterlaceMethod)
	}
	if h.Width == 0 || h.Height == 0 {
		return fmt.Errorf("non-positive dimension: %dx%d", h.Width, h.Height)
	}
	if h.Width > 0x7fffffff || h.Height > 0x7fffffff {
		return fmt.Errorf("dimension overflow: %dx%d", h.Width, h.Height)
	}
	// Guard the size arithmetic for the width*height*4 output buffer and
	// the per-pass intermediates, including on 32-bit builds.
	nPixels64 := int64(h.Width) * int64(h.Height)
	nPixels := int(nPixels64)
	if nPixels64 != int64(nPixels) || nPixels != (nPixels*8)/8 {
		return fmt.Errorf("dimension overflow: %dx%d", h.Width, h.Height)
	}
	return nil
}

// Palette holds the RGBA entries decoded from a PLTE chunk.
// Alpha is always 255; this decoder does not read tRNS.
type Palette struct {
	Entries [][4]uint8
}

// HandlePLTE parses a PLTE payload of RGB triplets.
func HandlePLTE(chunkStream *Chunk) (*Palette, error) {
	data := chunkStream.Data
	if len(data)%3 != 0 {
		return nil, fmt.Errorf("PLTE length must be a multiple of 3; got: %d", len(data))
	}
	n := len(data) / 3
	if n > 256 {
		return nil, fmt.Errorf("PLTE holds at most 256 entries; got: %d", n)
	}
	pal := &Palette{Entries: make([][4]uint8, n)}
	for i := 0; i < n; i++ {
		pal.Entries[i] = [4]uint8{data[i*3], data[i*3+1], data[i*3+2], 255}
	}
	return pal, nil
}

func HandleIDAT(chunkStream *Chunk, dest io.Writer) error {
	_, err := dest.Write(chunkStream.Data)
	if err != nil {
		return fmt.Errorf("error writing to IDAT buffer: %v", err)
	}
	return nil
}

type GAMA struct {
	Gamma uint32 // Encoded as a four-byte unsigned integer, representing Gamma * 100000
}

func ParseGAMA(data []byte) (*GAMA, error) {
	if len(data) != 4 {
		return nil, fmt.Errorf("gAMA length must be 4 bytes; got: %d", len(data))
	}

	// NOTE: don't forget the data in the datastream MUST be converted to big endian
	gamma := binary.BigEndian.Uint32(data)

	return &GAMA{Gamma: gamma}, nil
}

// ConvertGamma converts the encoded image gamma value to a float64.
func (g *GAMA) ConvertGamma() float64 {
	return float64(g.Gamma) / 100_000.0
}

// IsCritical determines if a chunk is a Ancillary or Critical type.
func (c *Chunk) IsCritical() bool {
	return len(c.Name) > 0 && c.Name[0] >= 'A' && c.Name[0] <= 'Z'
}

type ChunkType struct {
	slug string
}

func (c ChunkType) String() string {
	return c.slug
}

// FromString maps a four-character type code to its ChunkType.
// Codes this decoder does not act on map to Unknown; the reader still
// CRC-verifies their chunks before they are discarded.
func FromString(s string) ChunkType {
	switch s {
	case ChunkIHDR.slug:
		return ChunkIHDR
	case ChunkPLTE.slug:
		return ChunkPLTE
	case ChunkIDAT.slug:
		return ChunkIDAT
	case ChunkIEND.slug:
		return ChunkIEND
	case ChunkgAMA.slug:
		return ChunkgAMA
	}
	return Unknown
}

var (
	Unknown = ChunkType{""}

	// NOTE: Critical chunks
	ChunkIHDR = ChunkType{"IHDR"}
	ChunkPLTE = ChunkType{"PLTE"}
	ChunkIDAT = ChunkType{"IDAT"}
	ChunkIEND = ChunkType{"IEND"}

	// NOTE: Ancillary chunks
	ChunkgAMA = ChunkType{"gAMA"}
)
