package ltbs

import (
	"encoding/binary"
	"fmt"
)

// currentFormatVersion is written by Create and accepted by Open (versions
// 0 and 1 are both readable — spec §3/§6).
const currentFormatVersion uint32 = 1

// legacyTileDim is the implicit tile dimension for version-0 files, which
// predate the on-disk tile-dimension field.
const legacyTileDim = 128

// encodeHeader serializes the fixed 256-byte header: five little-endian
// uint32 fields (format, width, height, version, tile dim), 12 reserved
// zero bytes, then the caller-opaque user header region.
//
// Mirrors the teacher's own fixed-offset binary.LittleEndian header codec
// (pmtiles SerializeHeader), adapted to this format's field layout.
func encodeHeader(format PixelFormat, width, height int, tileDim int, userHeader []byte) []byte {
	b := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(b[0:4], uint32(format))
	binary.LittleEndian.PutUint32(b[4:8], uint32(width))
	binary.LittleEndian.PutUint32(b[8:12], uint32(height))
	binary.LittleEndian.PutUint32(b[12:16], currentFormatVersion)
	binary.LittleEndian.PutUint32(b[16:20], uint32(tileDim))
	// bytes [20,32) left zero (reserved).
	copy(b[32:HeaderSize], userHeader)
	return b
}

type decodedHeader struct {
	format    PixelFormat
	width     int
	height    int
	version   uint32
	tileDim   int
	userArea  []byte
}

// decodeHeader parses the fixed header and validates the pixel format code,
// but does not validate geometry against file size — the caller does that
// once it knows the total file length.
func decodeHeader(b []byte) (decodedHeader, error) {
	if len(b) < HeaderSize {
		return decodedHeader{}, fmt.Errorf("%w: header too short", ErrInvalidArgument)
	}

	format := PixelFormat(binary.LittleEndian.Uint32(b[0:4]))
	width := int(int32(binary.LittleEndian.Uint32(b[4:8])))
	height := int(int32(binary.LittleEndian.Uint32(b[8:12])))
	version := binary.LittleEndian.Uint32(b[12:16])

	tileDim := legacyTileDim
	if version >= 1 {
		tileDim = int(binary.LittleEndian.Uint32(b[16:20]))
	}

	if _, ok := format.BytesPerPixel(); !ok {
		return decodedHeader{}, fmt.Errorf("unknown pixel format code %d", uint32(format))
	}

	userArea := make([]byte, UserHeaderSize)
	copy(userArea, b[32:HeaderSize])

	return decodedHeader{
		format:   format,
		width:    width,
		height:   height,
		version:  version,
		tileDim:  tileDim,
		userArea: userArea,
	}, nil
}
