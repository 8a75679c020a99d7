package ltbs

import (
	"sync"
	"sync/atomic"
)

// atomicErr captures the first error raised by any concurrent copyOne
// call during a rect op's task set (spec §4.6: ordering between tile
// copies in one task set is unspecified, but failures must still surface).
type atomicErr struct {
	mu  sync.Mutex
	err error
}

func (a *atomicErr) store(err error) {
	a.mu.Lock()
	if a.err == nil {
		a.err = err
	}
	a.mu.Unlock()
}

func (a *atomicErr) load() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

// TaskRunner is the external collaborator that executes a range [0,n) of
// per-tile copy tasks, on whatever threads it chooses. LTBS never schedules
// goroutines itself for a rect op unless a TaskRunner is supplied — that
// policy, and any pooling/concurrency-limiting behind it, is explicitly out
// of scope (spec Non-goals); see package ltbsrunner for a reference
// implementation built on golang.org/x/sync/errgroup.
type TaskRunner interface {
	// Run executes fn(start, end) over some partition of [0, n) and
	// returns a Wait handle. Run itself must not block until completion;
	// callers that want synchronous behavior call Wait() on the result.
	Run(n int, fn func(start, end int)) Wait
}

// Wait is a handle for an in-flight task set submitted to a TaskRunner.
type Wait interface {
	Wait()
}

// syncWait is a Wait for a task set whose work already completed before Run
// returned, so Wait is a no-op.
type syncWait struct{}

func (syncWait) Wait() {}

type rectPlan struct {
	bxFrom, byFrom int
	bxTo, byTo     int
	tiles          []tileKey
}

// planRect decomposes a user rectangle into its covering tile list, per
// spec §4.6 steps 1-2.
func (s *Store) planRect(rx, ry, rw, rh int) (rectPlan, error) {
	if rw < 0 || rh < 0 {
		return rectPlan{}, ErrInvalidArgument
	}
	if rw == 0 || rh == 0 {
		return rectPlan{}, nil
	}
	if rx < 0 || ry < 0 || rx+rw > s.geo.width || ry+rh > s.geo.height {
		return rectPlan{}, ErrOutOfRange
	}

	td := s.geo.tileDim
	bxFrom := rx / td
	byFrom := ry / td
	bxTo := (rx + rw - 1) / td
	byTo := (ry + rh - 1) / td

	plan := rectPlan{bxFrom: bxFrom, byFrom: byFrom, bxTo: bxTo, byTo: byTo}
	for by := byFrom; by <= byTo; by++ {
		for bx := bxFrom; bx <= bxTo; bx++ {
			plan.tiles = append(plan.tiles, tileKey{bx, by})
		}
	}
	return plan, nil
}

// RectOption configures a single ReadRect/WriteRect/ReadRectClamped call.
type RectOption func(*rectOptions)

type rectOptions struct {
	runner   TaskRunner
	outWait  *Wait
	progress ProgressWriter
}

// WithTaskRunner supplies an external TaskRunner to parallelize the tile
// copy loop across. Without one, the loop runs sequentially on the caller's
// goroutine.
func WithTaskRunner(r TaskRunner) RectOption {
	return func(o *rectOptions) { o.runner = r }
}

// WithAsyncWait requests asynchronous execution: the call submits the tile
// copy task set to the TaskRunner and returns immediately, storing a Wait
// handle at *out. Requires WithTaskRunner. The caller must call out.Wait()
// before touching the buffer again, and must not call Close on the Store
// until every outstanding Wait has completed.
func WithAsyncWait(out *Wait) RectOption {
	return func(o *rectOptions) { o.outWait = out }
}

// WithProgress reports per-tile progress to pw as the rect op proceeds.
func WithProgress(pw ProgressWriter) RectOption {
	return func(o *rectOptions) { o.progress = pw }
}

func resolveRectOptions(opts []RectOption) rectOptions {
	var o rectOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// runRect executes copyOne over [0, len(plan.tiles)) per the execution mode
// selected by opts (spec §4.6 step 3), tracking the outstanding-async-op
// counter so Close can assert it reaches zero.
func (s *Store) runRect(plan rectPlan, opts rectOptions, copyOne func(i int)) error {
	n := len(plan.tiles)
	if n == 0 {
		return nil
	}

	pw := opts.progress
	if pw == nil {
		pw = getProgressWriter()
	}
	bar := pw.NewTileProgress(int64(n), "rect")
	inner := copyOne
	copyOne = func(i int) {
		inner(i)
		bar.Add(1)
	}

	if opts.runner == nil {
		for i := 0; i < n; i++ {
			copyOne(i)
		}
		if bar != nil {
			bar.Close()
		}
		return nil
	}

	atomic.AddInt64(&s.outstandingAsync, 1)
	wait := opts.runner.Run(n, func(start, end int) {
		for i := start; i < end; i++ {
			copyOne(i)
		}
	})

	done := func() {
		atomic.AddInt64(&s.outstandingAsync, -1)
		if bar != nil {
			bar.Close()
		}
	}

	if opts.outWait != nil {
		*opts.outWait = waitFunc(func() {
			wait.Wait()
			done()
		})
		return nil
	}

	wait.Wait()
	done()
	return nil
}

type waitFunc func()

func (f waitFunc) Wait() { f() }

// copyOneRead performs the per-tile copy for ReadRect (spec §4.6,
// copy_one): acquire shared (upgrading to exclusive + load on a miss),
// intersect the tile's footprint with the user rectangle, copy row by row.
func (s *Store) copyOneRead(dst []byte, dstPitch, rx, ry, rw, rh int, key tileKey) error {
	bx, by := key.bx, key.by
	rec := s.tiles.at(bx, by)

	rec.mu.RLock()
	if rec.data == nil {
		rec.mu.RUnlock()
		rec.mu.Lock()
		if rec.data == nil {
			if err := s.loader.loadTile(bx, by, false); err != nil {
				rec.mu.Unlock()
				return err
			}
		}
		s.copyTileIntersection(dst, dstPitch, rx, ry, rw, rh, bx, by, rec, true)
		rec.mu.Unlock()
		return nil
	}
	s.copyTileIntersection(dst, dstPitch, rx, ry, rw, rh, bx, by, rec, false)
	rec.mu.RUnlock()
	return nil
}

// copyOneWrite performs the per-tile copy for WriteRect: always exclusive,
// load on a miss, mark dirty after copying.
func (s *Store) copyOneWrite(src []byte, srcPitch, rx, ry, rw, rh int, key tileKey) error {
	bx, by := key.bx, key.by
	rec := s.tiles.at(bx, by)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.data == nil {
		if err := s.loader.loadTile(bx, by, false); err != nil {
			return err
		}
	}
	s.copyTileIntersectionWrite(src, srcPitch, rx, ry, rw, rh, bx, by, rec)
	rec.dirty = true
	return nil
}

func (s *Store) copyTileIntersection(dst []byte, dstPitch, rx, ry, rw, rh, bx, by int, rec *tileRecord, write bool) {
	td := s.geo.tileDim
	bpp := s.geo.bpp
	bw, bh := rec.width, rec.height

	fromX := max(bx*td, rx)
	toX := min(bx*td+bw, rx+rw)
	fromY := max(by*td, ry)
	toY := min(by*td+bh, ry+rh)

	for y := fromY; y < toY; y++ {
		dstOff := (y-ry)*dstPitch + (fromX-rx)*bpp
		srcOff := ((y-by*td)*rec.width + (fromX - bx*td)) * bpp
		n := (toX - fromX) * bpp
		copy(dst[dstOff:dstOff+n], rec.data[srcOff:srcOff+n])
	}
}

func (s *Store) copyTileIntersectionWrite(src []byte, srcPitch, rx, ry, rw, rh, bx, by int, rec *tileRecord) {
	td := s.geo.tileDim
	bpp := s.geo.bpp
	bw, bh := rec.width, rec.height

	fromX := max(bx*td, rx)
	toX := min(bx*td+bw, rx+rw)
	fromY := max(by*td, ry)
	toY := min(by*td+bh, ry+rh)

	for y := fromY; y < toY; y++ {
		srcOff := (y-ry)*srcPitch + (fromX-rx)*bpp
		dstOff := ((y-by*td)*rec.width + (fromX - bx*td)) * bpp
		n := (toX - fromX) * bpp
		copy(rec.data[dstOff:dstOff+n], src[srcOff:srcOff+n])
	}
}

// ReadRect copies the rectangle (rx,ry,rw,rh) from the store into dst, a
// buffer with row stride dstPitch, per spec §4.6.
func (s *Store) ReadRect(dst []byte, dstPitch, rx, ry, rw, rh int, opts ...RectOption) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	if dstPitch < rw*s.geo.bpp {
		return ErrInvalidArgument
	}
	if rw > 0 && rh > 0 && len(dst) < (rh-1)*dstPitch+rw*s.geo.bpp {
		return ErrInvalidArgument
	}

	plan, err := s.planRect(rx, ry, rw, rh)
	if err != nil {
		return err
	}
	o := resolveRectOptions(opts)

	var firstErrMu atomicErr
	err = s.runRect(plan, o, func(i int) {
		if e := s.copyOneRead(dst, dstPitch, rx, ry, rw, rh, plan.tiles[i]); e != nil {
			firstErrMu.store(e)
		}
	})
	if err != nil {
		return err
	}
	return firstErrMu.load()
}

// WriteRect copies the rectangle (rx,ry,rw,rh) from src, a buffer with row
// stride srcPitch, into the store, per spec §4.6.
func (s *Store) WriteRect(src []byte, srcPitch, rx, ry, rw, rh int, opts ...RectOption) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	if s.readOnly {
		return ErrReadOnly
	}
	if srcPitch < rw*s.geo.bpp {
		return ErrInvalidArgument
	}

	plan, err := s.planRect(rx, ry, rw, rh)
	if err != nil {
		return err
	}
	o := resolveRectOptions(opts)

	var firstErrMu atomicErr
	err = s.runRect(plan, o, func(i int) {
		if e := s.copyOneWrite(src, srcPitch, rx, ry, rw, rh, plan.tiles[i]); e != nil {
			firstErrMu.store(e)
		}
	})
	if err != nil {
		return err
	}
	return firstErrMu.load()
}
