package chunk

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/snksoft/crc"
)

// 137 80 78 71 13 10 26 10
const pngSignatureHex = "\x89\x50\x4E\x47\x0D\x0A\x1A\x0A"

// Chunk lengths are 31-bit per the PNG specification; anything larger is
// a corrupt stream and would only serve as an allocation bomb.
const maxChunkLength = 0x7fffffff

// VerifySignature consumes the 8-byte PNG signature from r.
func VerifySignature(r io.Reader) error {
	signature := make([]byte, 8)
	if _, err := io.ReadFull(r, signature); err != nil {
		return fmt.Errorf("failed to read PNG signature: %v", err)
	}
	if !bytes.Equal(signature, []byte(pngSignatureHex)) {
		return fmt.Errorf("signature mismatch: got %x, expected %x", signature, pngSignatureHex)
	}
	return nil
}

// Read reads a single chunk of PNG data and verifies its CRC.
func Read(r io.Reader) (*Chunk, error) {
	// Below is visually what a chunk in the PNG datastream looks like.
	//  +------------+ +------------+ +------------+ +-------+
	//  |   LENGTH   | | CHUNK TYPE | | CHUNK DATA | |  CRC  |
	//  +------------+ +------------+ +------------+ +-------+

	// Step 1: Read 4 integer bytes, the length of the chunk data field.
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return nil, fmt.Errorf("failed to read chunk length: %v", err)
	}
	if length > maxChunkLength {
		return nil, fmt.Errorf("bad chunk length: %d", length)
	}

	// Step 2: Read 4 bytes of chunk type data.
	readType := make([]byte, 4)
	if _, err := io.ReadFull(r, readType); err != nil {
		return nil, fmt.Errorf("failed to read the chunk type: %v", err)
	}

	// Step 3: Read the chunk data according to the length field.
	chunkData := make([]byte, length)
	if _, err := io.ReadFull(r, chunkData); err != nil {
		return nil, fmt.Errorf("failed to read chunk data: %v", err)
	}

	// Step 4a: Read the stored CRC, a 4-byte big endian integer.
	var storedCRC uint32
	if err := binary.Read(r, binary.BigEndian, &storedCRC); err != nil {
		return nil, fmt.Errorf("failed to read chunk CRC: %v", err)
	}

	// Step 4b: Validate it. The four-byte CRC is calculated on the
	// preceding bytes in the chunk: chunk type + chunk data.
	computedCRC := Checksum(string(readType), chunkData)
	if computedCRC != storedCRC {
		return nil, fmt.Errorf("checksum failed for CRC validation: stored %d, calculated %d", storedCRC, computedCRC)
	}

	return &Chunk{
		Length: length,
		Type:   FromString(string(readType)),
		Name:   string(readType),
		Data:   chunkData,
		Crc:    computedCRC,
	}, nil
}

// crcTable is the 256-entry CRC-32 lookup table, built once when the
// package is initialized.
var crcTable = crc.NewTable(crc.CRC32)

// Checksum computes the CRC-32 of typ||data: polynomial 0xEDB88320
// (reflected), initial value all-ones, final XOR all-ones. The crc
// package's CRC32 parameter set is exactly the PNG/Ethernet variant.
func Checksum(typ string, data []byte) uint32 {
	buf := make([]byte, 0, len(typ)+len(data))
	buf = append(buf, typ...)
	buf = append(buf, data...)
	return uint32(crcTable.CalculateCRC(buf))
}
