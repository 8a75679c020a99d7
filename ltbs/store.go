package ltbs

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// Store is a large tiled bitmap: a fixed-header file backing a dense grid
// of fixed-size pixel tiles, with an in-memory LRU cache bounding resident
// bytes. One Store is safe for concurrent use by many goroutines.
//
// Grounded on pmtiles/server.go's top-level struct (which bundles a bucket,
// a directory cache, and a logger behind one reader/writer lock guarding
// close-vs-in-flight-request races) — generalized here from "serve HTTP
// requests against map tile archives" to "read/write pixels against a
// tiled bitmap file".
type Store struct {
	mu     sync.RWMutex // instance global lock (spec §5 lock #1)
	closed bool

	geo      geometry
	tiles    *tileTable
	cache    *cache
	file     *fileGate
	loader   *loader
	readOnly bool
	path     string

	userHeader []byte
	userHdrMu  sync.Mutex

	logger  *zap.Logger
	metrics *StoreMetrics

	outstandingAsync int64
}

// CreateOption configures Create.
type CreateOption func(*createConfig)

type createConfig struct {
	tileDim     int
	memoryLimit int64
	userHeader  []byte
	logger      *zap.Logger
	metrics     *StoreMetrics
}

// WithTileDim overrides the default tile edge length (must be a power of
// two). Only meaningful for Create; Open reads the tile dimension that was
// stored at creation time.
func WithTileDim(dim int) CreateOption {
	return func(c *createConfig) { c.tileDim = dim }
}

// WithUserHeader sets the caller-opaque 224-byte header region at creation
// time. Longer slices are truncated; shorter ones are zero-padded.
func WithUserHeader(b []byte) CreateOption {
	return func(c *createConfig) { c.userHeader = b }
}

// WithCreateLogger attaches a zap logger to the new Store.
func WithCreateLogger(l *zap.Logger) CreateOption {
	return func(c *createConfig) { c.logger = l }
}

// WithCreateMetrics attaches a StoreMetrics to the new Store.
func WithCreateMetrics(m *StoreMetrics) CreateOption {
	return func(c *createConfig) { c.metrics = m }
}

// OpenOption configures Open.
type OpenOption func(*openConfig)

type openConfig struct {
	memoryLimit int64
	logger      *zap.Logger
	metrics     *StoreMetrics
}

// WithMemoryLimit overrides the default per-instance resident-byte budget
// for a new Store.
func WithMemoryLimit(limit int64) CreateOption {
	return func(c *createConfig) { c.memoryLimit = limit }
}

// WithOpenMemoryLimit overrides the default per-instance resident-byte
// budget for a Store opened from an existing file.
func WithOpenMemoryLimit(limit int64) OpenOption {
	return func(c *openConfig) { c.memoryLimit = limit }
}

// WithLogger attaches a zap logger to an opened Store.
func WithLogger(l *zap.Logger) OpenOption {
	return func(c *openConfig) { c.logger = l }
}

// WithMetrics attaches a StoreMetrics to an opened Store.
func WithMetrics(m *StoreMetrics) OpenOption {
	return func(c *openConfig) { c.metrics = m }
}

// Create makes a new tiled bitmap file at path with the given pixel format
// and dimensions, and returns it opened for read-write.
func Create(path string, format PixelFormat, width, height int, opts ...CreateOption) (*Store, error) {
	cfg := createConfig{tileDim: DefaultTileDim, memoryLimit: DefaultMemoryLimit}
	for _, opt := range opts {
		opt(&cfg)
	}

	geo, err := newGeometry(format, width, height, cfg.tileDim, currentFormatVersion)
	if err != nil {
		return nil, err
	}

	userHeader := make([]byte, UserHeaderSize)
	copy(userHeader, cfg.userHeader)

	totalSize := int64(HeaderSize) + geo.imageBytes
	fg, err := createFileGate(path, totalSize)
	if err != nil {
		return nil, err
	}
	if err := fg.writeAt(0, encodeHeader(format, width, height, cfg.tileDim, userHeader)); err != nil {
		fg.close()
		return nil, err
	}

	return newStore(geo, fg, path, false, cfg.memoryLimit, userHeader, cfg.logger, cfg.metrics), nil
}

// Open opens an existing tiled bitmap file. readOnly rejects SetPixel,
// WriteRect, and Fill with ErrReadOnly.
func Open(path string, readOnly bool, opts ...OpenOption) (*Store, error) {
	cfg := openConfig{memoryLimit: DefaultMemoryLimit}
	for _, opt := range opts {
		opt(&cfg)
	}

	fg, err := openFileGate(path, readOnly)
	if err != nil {
		return nil, err
	}

	headerBuf := make([]byte, HeaderSize)
	if err := fg.readAt(0, headerBuf); err != nil {
		fg.close()
		return nil, err
	}
	hdr, err := decodeHeader(headerBuf)
	if err != nil {
		fg.close()
		return nil, &CorruptHeaderError{Path: path, Reason: err.Error()}
	}

	geo, err := newGeometry(hdr.format, hdr.width, hdr.height, hdr.tileDim, hdr.version)
	if err != nil {
		fg.close()
		return nil, &CorruptHeaderError{Path: path, Reason: err.Error()}
	}

	wantSize := int64(HeaderSize) + geo.imageBytes
	gotSize, err := fg.size()
	if err != nil {
		fg.close()
		return nil, err
	}
	if gotSize != wantSize {
		fg.close()
		return nil, &CorruptHeaderError{
			Path:   path,
			Reason: fmt.Sprintf("expected file length %d, got %d", wantSize, gotSize),
		}
	}

	return newStore(geo, fg, path, readOnly, cfg.memoryLimit, hdr.userArea, cfg.logger, cfg.metrics), nil
}

func newStore(geo geometry, fg *fileGate, path string, readOnly bool, memLimit int64, userHeader []byte, logger *zap.Logger, metrics *StoreMetrics) *Store {
	c := newCache(memLimit)
	c.metrics = metrics
	nopSafeLogger := orNopLogger(logger)

	s := &Store{
		geo:        geo,
		tiles:      newTileTable(geo),
		cache:      c,
		file:       fg,
		readOnly:   readOnly,
		path:       path,
		userHeader: userHeader,
		logger:     nopSafeLogger,
		metrics:    metrics,
	}
	s.loader = &loader{geo: geo, tiles: s.tiles, cache: c, file: fg, metrics: metrics, logger: nopSafeLogger}
	return s
}

// Close flushes every dirty resident tile to disk and releases the file
// handle. Close takes the instance global lock exclusively (spec §5 lock
// #1), so it waits for all in-flight calls to finish, and logs an error if
// any async rect operation is still outstanding. A tile writeback failure
// is logged and Close goes on with the remaining tiles; it is not returned.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	if n := atomic.LoadInt64(&s.outstandingAsync); n != 0 {
		s.logger.Error("closing store with outstanding async rect operations", zap.Int64("count", n))
	}

	var firstErr error
	for by := 0; by < s.geo.tilesY; by++ {
		for bx := 0; bx < s.geo.tilesX; bx++ {
			rec := s.tiles.at(bx, by)
			rec.mu.Lock()
			if rec.data != nil {
				if err := s.loader.saveTile(bx, by); err != nil {
					s.logger.Error("tile writeback failed during close",
						zap.Int("bx", bx), zap.Int("by", by), zap.Error(err))
				}
			}
			rec.mu.Unlock()
		}
	}

	if err := s.saveUserHeaderLocked(); err != nil && firstErr == nil {
		firstErr = err
	}

	if err := s.file.close(); err != nil && firstErr == nil {
		firstErr = err
	}
	s.closed = true
	return firstErr
}

func (s *Store) saveUserHeaderLocked() error {
	s.userHdrMu.Lock()
	defer s.userHdrMu.Unlock()
	return s.file.writeAt(32, s.userHeader)
}

// GetPixel copies the bpp-byte pixel at (x,y) into a new slice.
func (s *Store) GetPixel(x, y int) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([]byte, s.geo.bpp)
	if err := s.getPixelLocked(x, y, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetPixelClamped copies the bpp-byte pixel at (x,y) into a new slice,
// clamping x into [0,width) and y into [0,height) first, so an out-of-range
// coordinate never errors and instead returns the nearest edge pixel.
// Grounded on vaLargeBitmapFile.h's templated GetPixelSafe<T>, which clamps
// with vaMath::Clamp before delegating to the unclamped GetPixel.
func (s *Store) GetPixelClamped(x, y int) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	x = clampInt(x, 0, s.geo.width-1)
	y = clampInt(y, 0, s.geo.height-1)
	out := make([]byte, s.geo.bpp)
	if err := s.getPixelLocked(x, y, out); err != nil {
		return nil, err
	}
	return out, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SetPixel writes the bpp-byte pixel value at (x,y).
func (s *Store) SetPixel(x, y int, value []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return s.setPixelLocked(x, y, value)
}

// PixelFormat returns the store's pixel format.
func (s *Store) PixelFormat() PixelFormat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.geo.format
}

// Width returns the image width in pixels.
func (s *Store) Width() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.geo.width
}

// Height returns the image height in pixels.
func (s *Store) Height() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.geo.height
}

// TileDim returns the tile edge length in pixels.
func (s *Store) TileDim() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.geo.tileDim
}

// IsReadOnly reports whether the store rejects writes.
func (s *Store) IsReadOnly() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readOnly
}

// UserHeader returns a copy of the caller-opaque 224-byte header region.
func (s *Store) UserHeader() []byte {
	s.userHdrMu.Lock()
	defer s.userHdrMu.Unlock()
	out := make([]byte, len(s.userHeader))
	copy(out, s.userHeader)
	return out
}

// SetUserHeader overwrites the caller-opaque header region and persists it
// immediately. Fails with ErrReadOnly on a read-only store.
func (s *Store) SetUserHeader(b []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	if s.readOnly {
		return ErrReadOnly
	}
	s.userHdrMu.Lock()
	defer s.userHdrMu.Unlock()
	if len(b) > UserHeaderSize {
		return ErrInvalidArgument
	}
	copy(s.userHeader, b)
	for i := len(b); i < len(s.userHeader); i++ {
		s.userHeader[i] = 0
	}
	return s.file.writeAt(32, s.userHeader)
}

// ResidentTiles returns a snapshot of the bitmap of currently resident tile
// indices (linear index by*tilesX+bx), for introspection; never
// load-bearing for correctness.
func (s *Store) ResidentTiles() *roaring.Bitmap {
	return s.cache.resident.snapshot()
}

// Stats is a point-in-time snapshot of a Store's cache and memory state.
type Stats struct {
	Path            string
	Width, Height   int
	TileDim         int
	ResidentTiles   int
	ResidentBytes   int64
	MemoryLimit     int64
	ProcessWideUsed int64
}

// String renders Stats with human-readable byte counts.
func (st Stats) String() string {
	return fmt.Sprintf("%s: %dx%d tiledim=%d resident=%d tiles (%s) limit=%s process_total=%s",
		st.Path, st.Width, st.Height, st.TileDim, st.ResidentTiles,
		humanize.Bytes(uint64(st.ResidentBytes)), humanize.Bytes(uint64(st.MemoryLimit)),
		humanize.Bytes(uint64(st.ProcessWideUsed)))
}

// Stats reports the store's current cache occupancy.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Path:            s.path,
		Width:           s.geo.width,
		Height:          s.geo.height,
		TileDim:         s.geo.tileDim,
		ResidentTiles:   s.cache.lruLen(),
		ResidentBytes:   s.cache.usedBytes(),
		MemoryLimit:     s.cache.limit,
		ProcessWideUsed: TotalProcessMemory(),
	}
}
