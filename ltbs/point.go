package ltbs

// getPixelLocked implements get_pixel (spec §4.5). Caller already holds the
// instance global lock shared.
func (s *Store) getPixelLocked(x, y int, out []byte) error {
	if x < 0 || x >= s.geo.width || y < 0 || y >= s.geo.height {
		return ErrOutOfRange
	}
	bx, by, lx, ly := s.tileCoords(x, y)
	rec := s.tiles.at(bx, by)

	rec.mu.RLock()
	if rec.data != nil {
		copyPixel(out, rec.data, rec.width, lx, ly, s.geo.bpp)
		rec.mu.RUnlock()
		return nil
	}
	rec.mu.RUnlock()

	// Double-checked upgrade: release shared, take exclusive, re-check.
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.data == nil {
		if err := s.loader.loadTile(bx, by, false); err != nil {
			return err
		}
	}
	copyPixel(out, rec.data, rec.width, lx, ly, s.geo.bpp)
	return nil
}

// setPixelLocked implements set_pixel (spec §4.5). Caller already holds the
// instance global lock shared.
func (s *Store) setPixelLocked(x, y int, value []byte) error {
	if s.readOnly {
		return ErrReadOnly
	}
	if x < 0 || x >= s.geo.width || y < 0 || y >= s.geo.height {
		return ErrOutOfRange
	}
	if len(value) != s.geo.bpp {
		return ErrInvalidArgument
	}
	bx, by, lx, ly := s.tileCoords(x, y)
	rec := s.tiles.at(bx, by)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.data == nil {
		if err := s.loader.loadTile(bx, by, false); err != nil {
			return err
		}
	}
	setPixel(rec.data, rec.width, lx, ly, s.geo.bpp, value)
	rec.dirty = true
	return nil
}

func (s *Store) tileCoords(x, y int) (bx, by, lx, ly int) {
	bx = x >> s.geo.tileDimBits
	by = y >> s.geo.tileDimBits
	lx = x - bx*s.geo.tileDim
	ly = y - by*s.geo.tileDim
	return
}

func copyPixel(dst, tileData []byte, tileWidth, lx, ly, bpp int) {
	off := (tileWidth*ly + lx) * bpp
	copy(dst, tileData[off:off+bpp])
}

func setPixel(tileData []byte, tileWidth, lx, ly, bpp int, value []byte) {
	off := (tileWidth*ly + lx) * bpp
	copy(tileData[off:off+bpp], value)
}
