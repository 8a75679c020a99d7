package ltbs

import "container/list"

// tileKey identifies a tile by its block coordinates.
type tileKey struct {
	bx, by int
}

// tileLRU is the LRU list (C4): a container/list.List ordered
// most-recently-used at the front, least-recently-used at the back, plus a
// map for O(1) lookup of a key's list.Element. No duplicates.
//
// Grounded directly on pmtiles/server.go's in-process directory cache,
// which uses exactly this container/list.List + map[key]*list.Element shape
// with MoveToFront/PushFront/Back/Remove.
type tileLRU struct {
	order *list.List
	index map[tileKey]*list.Element
}

func newTileLRU() *tileLRU {
	return &tileLRU{
		order: list.New(),
		index: make(map[tileKey]*list.Element),
	}
}

// touch moves key to the front, inserting it if absent.
func (l *tileLRU) touch(key tileKey) {
	if el, ok := l.index[key]; ok {
		l.order.MoveToFront(el)
		return
	}
	el := l.order.PushFront(key)
	l.index[key] = el
}

// remove deletes key from the list if present.
func (l *tileLRU) remove(key tileKey) {
	if el, ok := l.index[key]; ok {
		l.order.Remove(el)
		delete(l.index, key)
	}
}

// contains reports whether key is currently in the list.
func (l *tileLRU) contains(key tileKey) bool {
	_, ok := l.index[key]
	return ok
}

// len returns the number of entries currently tracked.
func (l *tileLRU) len() int {
	return l.order.Len()
}

// back returns the least-recently-used key, or false if the list is empty.
func (l *tileLRU) back() (tileKey, bool) {
	el := l.order.Back()
	if el == nil {
		return tileKey{}, false
	}
	return el.Value.(tileKey), true
}

// rotateToFront moves key (assumed present) to the front without touching
// anything else — used by the evictor to skip a candidate that turned out
// to be unevictable (itself, or lock-contended) while it walks the list
// back-to-front (spec §4.4).
func (l *tileLRU) rotateToFront(key tileKey) {
	if el, ok := l.index[key]; ok {
		l.order.MoveToFront(el)
	}
}
