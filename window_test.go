package toc

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/toc/ranges"
)

func TestNewWindowValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		size int64
		rng  ranges.Range
		data int
	}{
		{name: "past end", size: 10, rng: ranges.Range{Start: 5, End: 10}, data: 6},
		{name: "negative start", size: 10, rng: ranges.Range{Start: -1, End: 3}, data: 5},
		{name: "inverted", size: 10, rng: ranges.Range{Start: 5, End: 4}, data: 0},
		{name: "length mismatch", size: 10, rng: ranges.Range{Start: 5, End: 9}, data: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewWindow(tt.size, tt.rng, make([]byte, tt.data))
			require.Error(t, err)
		})
	}
}

func TestWindowReadAt(t *testing.T) {
	t.Parallel()

	data := []byte("0123456789")
	w, err := NewWindow(100, ranges.Range{Start: 90, End: 99}, data)
	require.NoError(t, err)

	assert.Equal(t, int64(100), w.Size())
	assert.Equal(t, ranges.Range{Start: 90, End: 99}, w.Range())
	assert.Equal(t, data, w.Bytes())
	assert.False(t, w.Complete())

	buf := make([]byte, 4)
	n, err := w.ReadAt(buf, 92)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte("2345"), buf)

	_, missed := w.Missed()
	assert.False(t, missed)
}

func TestWindowTrailerScanIsNotAMiss(t *testing.T) {
	t.Parallel()

	w, err := NewWindow(100, ranges.Range{Start: 90, End: 99}, []byte("0123456789"))
	require.NoError(t, err)

	buf := make([]byte, 30)
	n, err := w.ReadAt(buf, 70)
	require.NoError(t, err)
	assert.Equal(t, 30, n)
	assert.Equal(t, make([]byte, 20), buf[:20], "bytes before the window read as zeros")
	assert.Equal(t, []byte("0123456789"), buf[20:])

	_, missed := w.Missed()
	assert.False(t, missed)
}

func TestWindowRecordsLowestMiss(t *testing.T) {
	t.Parallel()

	w, err := NewWindow(100, ranges.Range{Start: 90, End: 99}, []byte("0123456789"))
	require.NoError(t, err)

	buf := make([]byte, 5)
	_, err = w.ReadAt(buf, 40)
	require.NoError(t, err)
	_, err = w.ReadAt(buf, 10)
	require.NoError(t, err)
	_, err = w.ReadAt(buf, 60)
	require.NoError(t, err)

	off, missed := w.Missed()
	assert.True(t, missed)
	assert.Equal(t, int64(10), off)
}

func TestWindowReadPastEnd(t *testing.T) {
	t.Parallel()

	w, err := NewWindow(10, ranges.Range{Start: 0, End: 9}, []byte("0123456789"))
	require.NoError(t, err)
	assert.True(t, w.Complete())

	buf := make([]byte, 4)
	n, err := w.ReadAt(buf, 8)
	assert.Equal(t, 2, n)
	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []byte("89"), buf[:n])

	n, err = w.ReadAt(buf, 10)
	assert.Zero(t, n)
	require.ErrorIs(t, err, io.EOF)

	_, err = w.ReadAt(buf, -1)
	require.Error(t, err)
}
