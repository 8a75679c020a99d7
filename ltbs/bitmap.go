package ltbs

import (
	"sync"

	"github.com/RoaringBitmap/roaring"
)

// residentBitmap tracks which tiles (by linear index by*tilesX+bx) are
// currently resident, as a compressed bitmap for cheap cardinality and
// membership queries from introspection/Stats() code paths.
//
// This is a convenience index, not a source of truth: the tile's own
// data != nil is what "resident" means (spec §8's invariant), and the LRU
// list is what the evictor walks. residentBitmap is kept in lockstep by
// cache.touch/forget but nothing in the hot get/set/rect path ever reads
// it back to decide behavior.
//
// Grounded on pmtiles/bitmap.go's use of RoaringBitmap/roaring64 for sets of
// tile IDs (Add/Contains/Iterator/GetCardinality); LTBS tiles fit in a
// 32-bit linear index so the plain (32-bit) roaring.Bitmap is enough.
type residentBitmap struct {
	mu sync.Mutex
	rb *roaring.Bitmap
}

func newResidentBitmap() *residentBitmap {
	return &residentBitmap{rb: roaring.New()}
}

func (r *residentBitmap) add(idx uint32) {
	r.mu.Lock()
	r.rb.Add(idx)
	r.mu.Unlock()
}

func (r *residentBitmap) remove(idx uint32) {
	r.mu.Lock()
	r.rb.Remove(idx)
	r.mu.Unlock()
}

func (r *residentBitmap) contains(idx uint32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rb.Contains(idx)
}

func (r *residentBitmap) cardinality() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rb.GetCardinality()
}

// snapshot returns a cloned copy of the resident-tile bitmap, safe for the
// caller to iterate or mutate without locking.
func (r *residentBitmap) snapshot() *roaring.Bitmap {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rb.Clone()
}
