package ltbs

import (
	"fmt"
	"math/bits"
)

// HeaderSize is the fixed on-disk header size in bytes (spec §3/§6).
const HeaderSize = 256

// UserHeaderSize is the size of the caller-opaque region within the header.
const UserHeaderSize = 256 - 32

// DefaultTileDim is the tile edge length used by Create when the caller
// doesn't override it.
const DefaultTileDim = 256

// DefaultMemoryLimit is the per-instance cache budget used by Create/Open
// when the caller doesn't override it: 32 MiB (spec §6).
const DefaultMemoryLimit int64 = 32 * 1024 * 1024

// geometry holds the derived, immutable-after-open image layout (spec §3).
type geometry struct {
	format PixelFormat
	bpp    int
	width  int
	height int

	tileDim      int
	tileDimBits  uint
	tilesX       int
	tilesY       int
	edgeTileW    int
	edgeTileH    int
	imageBytes   int64
	formatVer    uint32
}

// newGeometry validates and derives geometry per spec §3's invariants:
// tileDim is a power of two, width/height positive, bpp positive.
func newGeometry(format PixelFormat, width, height, tileDim int, formatVer uint32) (geometry, error) {
	bpp, ok := format.BytesPerPixel()
	if !ok {
		return geometry{}, fmt.Errorf("%w: unknown pixel format %d", ErrInvalidArgument, uint32(format))
	}
	if width <= 0 || height <= 0 {
		return geometry{}, fmt.Errorf("%w: width and height must be positive", ErrInvalidArgument)
	}
	if tileDim <= 0 || tileDim&(tileDim-1) != 0 {
		return geometry{}, fmt.Errorf("%w: tile dimension must be a power of two", ErrInvalidArgument)
	}

	tilesX := ceilDiv(width, tileDim)
	tilesY := ceilDiv(height, tileDim)
	edgeW := width - (tilesX-1)*tileDim
	edgeH := height - (tilesY-1)*tileDim

	return geometry{
		format:      format,
		bpp:         bpp,
		width:       width,
		height:      height,
		tileDim:     tileDim,
		tileDimBits: uint(bits.TrailingZeros(uint(tileDim))),
		tilesX:      tilesX,
		tilesY:      tilesY,
		edgeTileW:   edgeW,
		edgeTileH:   edgeH,
		imageBytes:  int64(bpp) * int64(width) * int64(height),
		formatVer:   formatVer,
	}, nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// tileDims returns the actual pixel extents of tile (bx,by): tileDim except
// on the rightmost column / bottommost row, where it's the edge size.
func (g geometry) tileDims(bx, by int) (w, h int) {
	w = g.tileDim
	h = g.tileDim
	if bx == g.tilesX-1 {
		w = g.edgeTileW
	}
	if by == g.tilesY-1 {
		h = g.edgeTileH
	}
	return w, h
}

// tileOffset computes the on-disk byte offset of tile (bx,by), per the
// canonical layout formula in spec §3. Bit-exact: this must reproduce the
// original vaLargeBitmapFile layout so existing files remain compatible.
func (g geometry) tileOffset(bx, by int) int64 {
	bpp := int64(g.bpp)
	td := int64(g.tileDim)
	tx := int64(g.tilesX)
	edgeW := int64(g.edgeTileW)
	edgeH := int64(g.edgeTileH)

	offset := int64(HeaderSize)
	offset += int64(by) * (tx - 1) * (td * td * bpp)
	offset += int64(by) * (td * edgeW * bpp)
	if by == g.tilesY-1 {
		offset += int64(bx) * td * edgeH * bpp
	} else {
		offset += int64(bx) * td * td * bpp
	}
	return offset
}

// tileByteLen returns the exact byte length of tile (bx,by)'s blob.
func (g geometry) tileByteLen(bx, by int) int64 {
	w, h := g.tileDims(bx, by)
	return int64(w) * int64(h) * int64(g.bpp)
}
