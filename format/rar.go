package format

import (
	"errors"
	"fmt"
	"io"

	"github.com/javi11/rardecode/v2"
)

// rarSignatureSize is the length of the RAR 1.5-4.x marker block.
const rarSignatureSize = 7

type rarFormat struct{}

// Rar returns the format for RAR archives. File headers are interleaved with
// file data from the start of the stream, so RAR is not tail-indexed.
func Rar() Format { return rarFormat{} }

func (rarFormat) Kind() Kind         { return KindRar }
func (rarFormat) TailIndexed() bool  { return false }
func (rarFormat) TrailerSize() int64 { return rarSignatureSize }

// Entries walks the file headers of the first volume. Listing stops cleanly
// when the archive continues in a volume that is not available.
func (rarFormat) Entries(src io.ReaderAt, size int64) ([]string, error) {
	r, err := rardecode.NewReader(io.NewSectionReader(src, 0, size))
	if err != nil {
		return nil, fmt.Errorf("rar: %w", err)
	}

	var names []string
	for {
		header, err := r.Next()
		if header != nil {
			names = append(names, header.Name)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if errors.Is(err, rardecode.ErrMultiVolume) && len(names) > 0 {
				break
			}
			return nil, fmt.Errorf("rar: %w", err)
		}
	}
	return names, nil
}
