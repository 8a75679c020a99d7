package ltbs

import "sync"

// tileRecord is one entry in the dense tile table (C3), one per (bx,by).
// data is nil iff the tile is absent; dirty is only meaningful while
// resident. width/height are the tile's actual pixel extents (equal to
// tileDim except on the edge row/column).
//
// Grounded on vaLargeBitmapFile.h's DataBlock, reshaped from a C-style
// DataBlock** grid into one contiguous Go slice so a single allocation
// backs the whole table and no record ever moves in memory.
type tileRecord struct {
	mu     sync.RWMutex
	data   []byte
	dirty  bool
	width  int
	height int
}

// tileTable is the fixed tilesX*tilesY array of tile records, allocated
// once at open/create and never reallocated or rehashed (spec §4.2) — this
// is what lets a caller hold a *tileRecord across the whole lifetime of a
// rectangle operation without it being invalidated.
type tileTable struct {
	tilesX int
	tilesY int
	tiles  []tileRecord
}

func newTileTable(g geometry) *tileTable {
	t := &tileTable{
		tilesX: g.tilesX,
		tilesY: g.tilesY,
		tiles:  make([]tileRecord, g.tilesX*g.tilesY),
	}
	for by := 0; by < g.tilesY; by++ {
		for bx := 0; bx < g.tilesX; bx++ {
			w, h := g.tileDims(bx, by)
			r := t.at(bx, by)
			r.width = w
			r.height = h
		}
	}
	return t
}

func (t *tileTable) at(bx, by int) *tileRecord {
	return &t.tiles[by*t.tilesX+bx]
}

func (t *tileTable) linearIndex(bx, by int) uint32 {
	return uint32(by*t.tilesX + bx)
}

func (t *tileTable) coords(idx uint32) (bx, by int) {
	bx = int(idx) % t.tilesX
	by = int(idx) / t.tilesX
	return
}
