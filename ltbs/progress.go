package ltbs

import (
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// ProgressWriter builds a Progress tracker for a bulk rectangle operation
// (ReadRect/WriteRect spanning many tiles). Quiet by default — a Store
// never prints anything unless a caller opts in with SetProgressWriter.
//
// Grounded on pmtiles/progress.go's ProgressWriter/Progress pair, narrowed
// to the one thing LTBS has to report: tiles touched during a rect op.
type ProgressWriter interface {
	NewTileProgress(total int64, description string) Progress
}

// Progress is an active progress tracker, updated once per tile visited.
type Progress interface {
	io.Writer
	Add(num int)
	Close() error
}

var (
	progressWriterMu sync.RWMutex
	progressWriter   ProgressWriter = quietProgressWriter{}
)

// SetProgressWriter installs pw as the progress reporter used by future
// rect operations across all Stores in the process. Pass nil to go back to
// quiet (the default).
func SetProgressWriter(pw ProgressWriter) {
	progressWriterMu.Lock()
	defer progressWriterMu.Unlock()
	if pw == nil {
		progressWriter = quietProgressWriter{}
		return
	}
	progressWriter = pw
}

func getProgressWriter() ProgressWriter {
	progressWriterMu.RLock()
	defer progressWriterMu.RUnlock()
	return progressWriter
}

// DefaultProgressWriter reports tile progress on a terminal bar via
// schollz/progressbar/v3. Pass it to SetProgressWriter to enable it.
type DefaultProgressWriter struct{}

func (DefaultProgressWriter) NewTileProgress(total int64, description string) Progress {
	bar := progressbar.Default(total, description)
	return &progressBarWrapper{bar: bar}
}

type progressBarWrapper struct {
	bar *progressbar.ProgressBar
}

func (p *progressBarWrapper) Write(data []byte) (int, error) {
	if p.bar == nil {
		return len(data), nil
	}
	return p.bar.Write(data)
}

func (p *progressBarWrapper) Add(num int) {
	if p.bar != nil {
		p.bar.Add(num)
	}
}

func (p *progressBarWrapper) Close() error {
	if p.bar != nil {
		return p.bar.Close()
	}
	return nil
}

type quietProgressWriter struct{}

func (quietProgressWriter) NewTileProgress(total int64, description string) Progress {
	return quietProgress{}
}

type quietProgress struct{}

func (quietProgress) Write(data []byte) (int, error) { return len(data), nil }
func (quietProgress) Add(int)                        {}
func (quietProgress) Close() error                    { return nil }
