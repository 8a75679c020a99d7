package ltbs

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name)
}

// Scenario 1: create/set/get/close/reopen.
func TestCreateSetGetCloseReopen(t *testing.T) {
	path := tempPath(t, "a.lbf")
	s, err := Create(path, FormatGeneric8, 4, 4)
	require.NoError(t, err)

	require.NoError(t, s.SetPixel(0, 0, []byte{7}))
	require.NoError(t, s.SetPixel(3, 3, []byte{9}))
	require.NoError(t, s.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(HeaderSize+16), info.Size())

	s2, err := Open(path, true)
	require.NoError(t, err)
	defer s2.Close()

	v, err := s2.GetPixel(0, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{7}, v)

	v, err = s2.GetPixel(3, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{9}, v)
}

// Scenario 2: tile boundary crossing.
func TestWriteRectAcrossTileBoundary(t *testing.T) {
	path := tempPath(t, "b.lbf")
	s, err := Create(path, FormatGeneric32, 300, 300, WithTileDim(256))
	require.NoError(t, err)
	defer s.Close()

	pixel := []byte{0xDD, 0xCC, 0xBB, 0xAA} // little-endian 0xAABBCCDD
	src := make([]byte, 4*4*4)
	for i := 0; i < 16; i++ {
		copy(src[i*4:i*4+4], pixel)
	}

	require.NoError(t, s.WriteRect(src, 4*4, 254, 254, 4, 4))

	dst := make([]byte, 4*4*4)
	require.NoError(t, s.ReadRect(dst, 4*4, 254, 254, 4, 4))
	assert.Equal(t, src, dst)

	assert.Equal(t, 4, s.cache.lruLen()) // four tiles touched
}

// Scenario 3: eviction under a tight budget.
func TestEvictionUnderBudget(t *testing.T) {
	path := tempPath(t, "c.lbf")
	tileDim := 8
	bpp := 1
	tileBytes := int64(tileDim * tileDim * bpp)
	s, err := Create(path, FormatGeneric8, 40, 40, WithTileDim(tileDim), WithMemoryLimit(tileBytes))
	require.NoError(t, err)
	defer s.Close()

	coords := [][2]int{{0, 0}, {8, 0}, {16, 0}, {24, 0}, {32, 0}}
	for _, c := range coords {
		_, err := s.GetPixel(c[0], c[1])
		require.NoError(t, err)
		assert.Equal(t, 1, s.cache.lruLen())
		assert.Equal(t, tileBytes, s.cache.usedBytes())
	}
}

// Scenario 4: concurrent non-overlapping writes.
func TestConcurrentNonOverlappingWrites(t *testing.T) {
	path := tempPath(t, "d.lbf")
	tileDim := 8
	n := 4
	s, err := Create(path, FormatGeneric8, tileDim*n, tileDim, WithTileDim(tileDim))
	require.NoError(t, err)
	defer s.Close()

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf := make([]byte, tileDim*tileDim)
			for j := range buf {
				buf[j] = byte(i)
			}
			err := s.WriteRect(buf, tileDim, i*tileDim, 0, tileDim, tileDim)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	full := make([]byte, tileDim*n*tileDim)
	require.NoError(t, s.ReadRect(full, tileDim*n, 0, 0, tileDim*n, tileDim))
	for i := 0; i < n; i++ {
		for y := 0; y < tileDim; y++ {
			for x := 0; x < tileDim; x++ {
				off := y*tileDim*n + i*tileDim + x
				assert.Equal(t, byte(i), full[off])
			}
		}
	}
}

// Scenario 5: clamped-border corner.
func TestReadRectClampedCorner(t *testing.T) {
	path := tempPath(t, "e.lbf")
	s, err := Create(path, FormatGeneric8, 8, 8)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Fill([]byte{1}))

	dst := make([]byte, 12*12)
	require.NoError(t, s.ReadRectClamped(dst, 12, -2, -2, 12, 12))
	for _, b := range dst {
		assert.Equal(t, byte(1), b)
	}
}

// Scenario 6: dirty writeback on close.
func TestDirtyWritebackOnClose(t *testing.T) {
	path := tempPath(t, "f.lbf")
	s, err := Create(path, FormatGeneric8, 4, 4)
	require.NoError(t, err)
	require.NoError(t, s.SetPixel(1, 1, []byte{42}))
	require.NoError(t, s.Close())

	s2, err := Open(path, true)
	require.NoError(t, err)
	defer s2.Close()
	v, err := s2.GetPixel(1, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{42}, v)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	tileW, _ := s2.geo.tileDims(0, 0)
	off := s2.geo.tileOffset(0, 0) + int64(tileW*1+1)
	assert.Equal(t, byte(42), raw[off])
}

func TestOpenRejectsCorruptLength(t *testing.T) {
	path := tempPath(t, "g.lbf")
	s, err := Create(path, FormatGeneric8, 4, 4)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	require.NoError(t, os.Truncate(path, HeaderSize+1))
	_, err = Open(path, true)
	var corrupt *CorruptHeaderError
	assert.ErrorAs(t, err, &corrupt)
}

func TestSetPixelReadOnlyRejected(t *testing.T) {
	path := tempPath(t, "h.lbf")
	s, err := Create(path, FormatGeneric8, 4, 4)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2, err := Open(path, true)
	require.NoError(t, err)
	defer s2.Close()
	err = s2.SetPixel(0, 0, []byte{1})
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestGetSetPixelOutOfRange(t *testing.T) {
	path := tempPath(t, "i.lbf")
	s, err := Create(path, FormatGeneric8, 4, 4)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.GetPixel(4, 0)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = s.GetPixel(0, 4)
	assert.ErrorIs(t, err, ErrOutOfRange)
	err = s.SetPixel(-1, 0, []byte{1})
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestGetPixelClampedClampsToNearestEdgePixel(t *testing.T) {
	path := tempPath(t, "clamp-point.lbf")
	s, err := Create(path, FormatGeneric8, 4, 4)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SetPixel(0, 0, []byte{11}))
	require.NoError(t, s.SetPixel(3, 0, []byte{22}))
	require.NoError(t, s.SetPixel(0, 3, []byte{33}))
	require.NoError(t, s.SetPixel(3, 3, []byte{44}))

	v, err := s.GetPixelClamped(-5, -5)
	require.NoError(t, err)
	assert.Equal(t, []byte{11}, v)

	v, err = s.GetPixelClamped(100, -5)
	require.NoError(t, err)
	assert.Equal(t, []byte{22}, v)

	v, err = s.GetPixelClamped(-5, 100)
	require.NoError(t, err)
	assert.Equal(t, []byte{33}, v)

	v, err = s.GetPixelClamped(100, 100)
	require.NoError(t, err)
	assert.Equal(t, []byte{44}, v)

	// In-range coordinates pass through unchanged.
	v, err = s.GetPixelClamped(1, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0}, v)
}

func TestUserHeaderRoundtrip(t *testing.T) {
	path := tempPath(t, "j.lbf")
	s, err := Create(path, FormatGeneric8, 4, 4, WithUserHeader([]byte("custom-meta")))
	require.NoError(t, err)

	got := s.UserHeader()
	assert.Equal(t, "custom-meta", string(got[:len("custom-meta")]))

	require.NoError(t, s.SetUserHeader([]byte("updated")))
	require.NoError(t, s.Close())

	s2, err := Open(path, true)
	require.NoError(t, err)
	defer s2.Close()
	got2 := s2.UserHeader()
	assert.Equal(t, "updated", string(got2[:len("updated")]))
}

func TestCloseIsIdempotent(t *testing.T) {
	path := tempPath(t, "k.lbf")
	s, err := Create(path, FormatGeneric8, 4, 4)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestStatsReportsResidentBytes(t *testing.T) {
	path := tempPath(t, "l.lbf")
	s, err := Create(path, FormatGeneric8, 16, 16, WithTileDim(8))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.GetPixel(0, 0)
	require.NoError(t, err)
	st := s.Stats()
	assert.Equal(t, 1, st.ResidentTiles)
	assert.Equal(t, int64(64), st.ResidentBytes)
	assert.NotEmpty(t, st.String())
}
