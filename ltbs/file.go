package ltbs

import (
	"os"
	"sync"
)

// fileGate is the File I/O gate (C1): it serializes absolute-positioned
// reads and writes against the single backing os.File, because the
// underlying handle has one shared position even though ReadAt/WriteAt take
// an explicit offset (on some platforms concurrent pread/pwrite on the same
// fd is safe, but the store targets a single mutex-guarded handle uniformly
// rather than relying on that). It does not interpret the bytes it moves.
//
// Grounded on pmtiles/bucket.go's FileBucket, which also wraps a single
// *os.File behind ReadAt for local-disk access.
type fileGate struct {
	mu   sync.Mutex
	file *os.File
	path string
}

func openFileGate(path string, readOnly bool) (*fileGate, error) {
	flag := os.O_RDWR
	if readOnly {
		flag = os.O_RDONLY
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, ioErr("open", err)
	}
	return &fileGate{file: f, path: path}, nil
}

func createFileGate(path string, size int64) (*fileGate, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, ioErr("create", err)
	}
	if err := f.Truncate(size); err != nil {
		f.Close()
		return nil, ioErr("truncate", err)
	}
	return &fileGate{file: f, path: path}, nil
}

func (g *fileGate) readAt(offset int64, buf []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, err := g.file.ReadAt(buf, offset)
	return ioErr("read", err)
}

func (g *fileGate) writeAt(offset int64, buf []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, err := g.file.WriteAt(buf, offset)
	return ioErr("write", err)
}

func (g *fileGate) size() (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	info, err := g.file.Stat()
	if err != nil {
		return 0, ioErr("stat", err)
	}
	return info.Size(), nil
}

func (g *fileGate) close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ioErr("close", g.file.Close())
}
