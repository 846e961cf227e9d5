package toc

import (
	"fmt"
	"io"
	"sync"

	"github.com/meigma/toc/ranges"
)

// Window holds the bytes fetched for one interval of a remote resource and
// exposes them at their absolute offsets.
//
// Window implements io.ReaderAt over the whole resource so format readers can
// seek to offsets recorded in an index trailer. Bytes outside the fetched
// interval read as zeros and are recorded as misses, except for reads that
// run to the end of the resource: those are trailer scans (searching backwards
// for an end-of-index signature) and succeed on the tail alone.
type Window struct {
	rng  ranges.Range
	data []byte
	size int64

	mu         sync.Mutex
	missed     bool
	lowestMiss int64
}

// NewWindow returns a window over rng of a resource of the given total size,
// backed by data. len(data) must equal rng.Len().
func NewWindow(size int64, rng ranges.Range, data []byte) (*Window, error) {
	if rng.Start < 0 || rng.End >= size || rng.Start > rng.End {
		return nil, fmt.Errorf("toc: window %d-%d outside resource of size %d", rng.Start, rng.End, size)
	}
	if int64(len(data)) != rng.Len() {
		return nil, fmt.Errorf("toc: window %d-%d has %d bytes, want %d", rng.Start, rng.End, len(data), rng.Len())
	}
	return &Window{rng: rng, data: data, size: size}, nil
}

// Size returns the total size of the resource.
func (w *Window) Size() int64 {
	return w.size
}

// Range returns the fetched interval.
func (w *Window) Range() ranges.Range {
	return w.rng
}

// Bytes returns exactly the fetched bytes.
func (w *Window) Bytes() []byte {
	return w.data
}

// Complete reports whether the window covers the whole resource.
func (w *Window) Complete() bool {
	return w.rng.Start == 0 && w.rng.End == w.size-1
}

// Missed reports whether a read needed bytes before the window, and the lowest
// such offset.
func (w *Window) Missed() (int64, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lowestMiss, w.missed
}

// ReadAt reads len(p) bytes at absolute offset off.
func (w *Window) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("toc: read at %d: negative offset", off)
	}
	if off >= w.size {
		return 0, io.EOF
	}

	n := len(p)
	if remaining := w.size - off; int64(n) > remaining {
		n = int(remaining)
	}
	end := off + int64(n) // exclusive

	clear(p[:n])
	lo := max(off, w.rng.Start)
	hi := min(end, w.rng.End+1)
	if lo < hi {
		copy(p[lo-off:hi-off], w.data[lo-w.rng.Start:hi-w.rng.Start])
	}

	outside := off < w.rng.Start || end > w.rng.End+1
	if outside && end < w.size {
		w.recordMiss(off)
	}

	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (w *Window) recordMiss(off int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.missed || off < w.lowestMiss {
		w.lowestMiss = off
	}
	w.missed = true
}
