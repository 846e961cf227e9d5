package format

import (
	"fmt"
	"io"

	"github.com/javi11/sevenzip"
)

// sevenZipSignatureHeaderSize is the size of the fixed signature header that
// points at the end header.
const sevenZipSignatureHeaderSize = 32

type sevenZipFormat struct{}

// SevenZip returns the format for 7z archives. The end header is located
// through the signature header at offset zero, so 7z is not tail-indexed.
func SevenZip() Format { return sevenZipFormat{} }

func (sevenZipFormat) Kind() Kind         { return KindSevenZip }
func (sevenZipFormat) TailIndexed() bool  { return false }
func (sevenZipFormat) TrailerSize() int64 { return sevenZipSignatureHeaderSize }

func (sevenZipFormat) Entries(src io.ReaderAt, size int64) ([]string, error) {
	r, err := sevenzip.NewReader(src, size)
	if err != nil {
		return nil, fmt.Errorf("7z: %w", err)
	}
	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names, nil
}
