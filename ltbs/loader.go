package ltbs

import (
	"time"

	"go.uber.org/zap"
)

// loader bundles the pieces load_tile/release_tile/save_tile need: the tile
// table, the LRU/accounting cache, the file gate, and geometry. It has no
// state of its own.
//
// Grounded on pmtiles/server.go's cache-fill path (check cache, evict LRU
// entries under a budget, fill, insert) generalized from whole-file
// directories to individual fixed-size tile blobs, per spec §4.4.
type loader struct {
	geo     geometry
	tiles   *tileTable
	cache   *cache
	file    *fileGate
	metrics *StoreMetrics
	logger  *zap.Logger
}

// loadTile fills (bx,by)'s record. Precondition: caller holds the tile's
// lock exclusively and rec.data == nil.
func (l *loader) loadTile(bx, by int, skipFileRead bool) error {
	rec := l.tiles.at(bx, by)
	key := tileKey{bx, by}
	n := int64(rec.width) * int64(rec.height) * int64(l.geo.bpp)

	if err := l.evictUntilUnderBudget(key, n); err != nil {
		return err
	}

	start := time.Now()
	buf := make([]byte, n)

	source := "init"
	if !skipFileRead {
		source = "disk"
		if err := l.file.readAt(l.geo.tileOffset(bx, by), buf); err != nil {
			return err
		}
	}

	rec.data = buf
	rec.dirty = false

	idx := l.tiles.linearIndex(bx, by)
	l.cache.touch(key, idx)
	l.cache.charge(n)

	if l.metrics != nil {
		l.metrics.observeLoad(source, time.Since(start).Seconds())
	}
	return nil
}

// evictUntilUnderBudget implements spec §4.4 step 1: walk the LRU from the
// back, non-blocking-try-locking candidates, until usage is back under
// budget or no evictable candidate remains. self is the tile about to be
// loaded and incoming is its byte size, which must never be evicted
// against itself; the budget check accounts for incoming so a limit sized
// to hold exactly one tile evicts in the same call, not the next one.
//
// A candidate's writeback failing mid-eviction is not starvation: unlike
// "no evictable candidate exists", the tile was never freed, so folding it
// into forget/discharge as if it had been would leave the candidate's
// buffer permanently resident but invisible to the LRU/accounting and
// bitmap (spec §8's "resident iff in the LRU" / "sum_resident == used_memory"
// invariants broken forever). This propagates to the loadTile call that
// triggered the eviction instead, per spec §7's general propagation policy.
func (l *loader) evictUntilUnderBudget(self tileKey, incoming int64) error {
	tries := 0
	for l.cache.wouldExceedBudget(incoming) {
		lruLen := l.cache.lruLen()
		if lruLen == 0 {
			l.warnStarvation(self, incoming, "lru empty")
			return nil
		}

		l.cache.mu.Lock()
		candidate, ok := l.cache.lru.back()
		if !ok {
			l.cache.mu.Unlock()
			l.warnStarvation(self, incoming, "lru empty")
			return nil
		}
		if candidate == self {
			l.cache.lru.rotateToFront(candidate)
			l.cache.mu.Unlock()
			tries++
			if tries > lruLen {
				l.warnStarvation(self, incoming, "only self resident")
				return nil
			}
			continue
		}
		l.cache.mu.Unlock()

		cbx, cby := candidate.bx, candidate.by
		crec := l.tiles.at(cbx, cby)
		if !crec.mu.TryLock() {
			l.cache.mu.Lock()
			l.cache.lru.rotateToFront(candidate)
			l.cache.mu.Unlock()
			tries++
			if tries > lruLen {
				l.warnStarvation(self, incoming, "all candidates lock-contended")
				return nil
			}
			continue
		}

		// Re-check residency: another goroutine may have evicted this
		// tile already between reading the LRU back and locking it.
		if crec.data == nil {
			crec.mu.Unlock()
			continue
		}

		n := int64(crec.width) * int64(crec.height) * int64(l.geo.bpp)
		if err := l.releaseLocked(cbx, cby, crec); err != nil {
			crec.mu.Unlock()
			if l.logger != nil {
				l.logger.Error("tile writeback failed during eviction, candidate stays resident",
					zap.Int("bx", cbx), zap.Int("by", cby), zap.Error(err))
			}
			return err
		}
		crec.mu.Unlock()

		idx := l.tiles.linearIndex(cbx, cby)
		l.cache.forget(candidate, idx)
		l.cache.discharge(n)
		if l.metrics != nil {
			l.metrics.observeEviction()
		}
		tries = 0
	}
	return nil
}

// warnStarvation logs that the evictor gave up without freeing enough room,
// so the incoming tile is about to load anyway and transiently exceed the
// budget (spec §7: "not surfaced — the evictor degrades to exceeding the
// budget", but still worth an operator-visible trace).
func (l *loader) warnStarvation(self tileKey, incoming int64, reason string) {
	if l.logger == nil {
		return
	}
	l.logger.Warn("eviction could not free enough room, budget will be transiently exceeded",
		zap.Int("bx", self.bx), zap.Int("by", self.by),
		zap.Int64("incoming_bytes", incoming), zap.String("reason", reason))
}

// releaseTile flushes (bx,by) if dirty and frees its buffer. Precondition:
// caller holds the tile's lock exclusively; tile is resident.
func (l *loader) releaseTile(bx, by int) error {
	rec := l.tiles.at(bx, by)
	return l.releaseLocked(bx, by, rec)
}

func (l *loader) releaseLocked(bx, by int, rec *tileRecord) error {
	if rec.dirty {
		if err := l.file.writeAt(l.geo.tileOffset(bx, by), rec.data); err != nil {
			return err
		}
		rec.dirty = false
	}
	rec.data = nil
	return nil
}

// saveTile flushes (bx,by) to disk if dirty, without freeing it. Used by
// Close to write back every resident tile.
func (l *loader) saveTile(bx, by int) error {
	rec := l.tiles.at(bx, by)
	if !rec.dirty {
		return nil
	}
	if err := l.file.writeAt(l.geo.tileOffset(bx, by), rec.data); err != nil {
		return err
	}
	rec.dirty = false
	return nil
}
