package ltbs

// Fill sets every pixel in the image to value, a bpp-byte pixel. Grounded
// on original_source/Source/Core/Misc/vaLargeBitmapFile.h's
// SetAllPixels<T>, reimplemented here over the same tile decomposition
// engine as WriteRect (one tile at a time, under the same locking and
// eviction rules) rather than materializing a full-image buffer, since the
// whole point of tiling is that the image need not fit in memory at once.
func (s *Store) Fill(value []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	if s.readOnly {
		return ErrReadOnly
	}
	if len(value) != s.geo.bpp {
		return ErrInvalidArgument
	}

	plan, err := s.planRect(0, 0, s.geo.width, s.geo.height)
	if err != nil {
		return err
	}

	var firstErrMu atomicErr
	err = s.runRect(plan, rectOptions{}, func(i int) {
		key := plan.tiles[i]
		rec := s.tiles.at(key.bx, key.by)
		rec.mu.Lock()
		if rec.data == nil {
			if e := s.loader.loadTile(key.bx, key.by, true); e != nil {
				firstErrMu.store(e)
				rec.mu.Unlock()
				return
			}
		}
		fillTileBuffer(rec.data, value, s.geo.bpp)
		rec.dirty = true
		rec.mu.Unlock()
	})
	if err != nil {
		return err
	}
	return firstErrMu.load()
}

func fillTileBuffer(data, value []byte, bpp int) {
	for off := 0; off+bpp <= len(data); off += bpp {
		copy(data[off:off+bpp], value)
	}
}
