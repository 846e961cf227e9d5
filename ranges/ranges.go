// Package ranges splits byte intervals into contiguous chunks suitable for
// HTTP range requests.
//
// A [Sequencer] walks a closed interval [start, end] and yields one [Range]
// per step, each at most chunk bytes wide. The produced ranges are contiguous,
// never overlap, and together cover the interval exactly. Sequencers are pure:
// two sequencers built from the same parameters always yield the same ranges.
package ranges

import (
	"errors"
	"fmt"
	"iter"
)

var (
	// ErrInvalidChunkSize is returned when a chunk size is zero or negative.
	ErrInvalidChunkSize = errors.New("ranges: invalid chunk size, must be greater than zero")

	// ErrNegativeOffset is returned when an interval starts before offset zero.
	ErrNegativeOffset = errors.New("ranges: negative offset")
)

// Range is an end-inclusive byte interval.
type Range struct {
	// Start is the offset of the first byte (starting at 0).
	Start int64

	// End is the offset of the last byte.
	End int64
}

// Len returns the number of bytes covered by the range.
func (r Range) Len() int64 {
	return r.End - r.Start + 1
}

// Contains reports whether off falls within the range.
func (r Range) Contains(off int64) bool {
	return off >= r.Start && off <= r.End
}

// String renders the range as an HTTP Range header value.
func (r Range) String() string {
	return fmt.Sprintf("bytes=%d-%d", r.Start, r.End)
}

// Tail returns the range covering the last n bytes of a resource of the given
// size. The range is clamped to offset zero when n exceeds size. It reports
// false when size or n is not positive.
func Tail(size, n int64) (Range, bool) {
	if size <= 0 || n <= 0 {
		return Range{}, false
	}
	start := size - n
	if start < 0 {
		start = 0
	}
	return Range{Start: start, End: size - 1}, true
}

// Sequencer yields the chunks of a byte interval in ascending order.
// It is not restartable and not safe for concurrent use.
type Sequencer struct {
	next  int64
	end   int64
	chunk int64
	done  bool
}

// New returns a Sequencer over [start, end] producing chunks of at most chunk
// bytes. If start is greater than end the sequence is empty.
func New(start, end, chunk int64) (*Sequencer, error) {
	if chunk <= 0 {
		return nil, ErrInvalidChunkSize
	}
	if start < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeOffset, start)
	}
	return &Sequencer{
		next:  start,
		end:   end,
		chunk: chunk,
		done:  start > end,
	}, nil
}

// Next returns the next chunk. It reports false once the interval is exhausted.
func (s *Sequencer) Next() (Range, bool) {
	if s.done {
		return Range{}, false
	}

	width := s.end - s.next + 1
	if width > s.chunk || width <= 0 {
		// width overflows to a non-positive value when the interval spans
		// the whole int64 domain.
		width = s.chunk
	}

	r := Range{Start: s.next, End: s.next + width - 1}
	if r.End >= s.end {
		s.done = true
	} else {
		s.next = r.End + 1
	}
	return r, true
}

// All returns an iterator over the remaining chunks. Iterating consumes the
// sequencer.
func (s *Sequencer) All() iter.Seq[Range] {
	return func(yield func(Range) bool) {
		for {
			r, ok := s.Next()
			if !ok || !yield(r) {
				return
			}
		}
	}
}

// Collect returns every chunk of [start, end] at the given chunk size.
func Collect(start, end, chunk int64) ([]Range, error) {
	s, err := New(start, end, chunk)
	if err != nil {
		return nil, err
	}
	var out []Range
	for r := range s.All() {
		out = append(out, r)
	}
	return out, nil
}
