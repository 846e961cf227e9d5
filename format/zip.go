package format

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zip"
)

// zipEndOfDirectorySize is the size of the end of central directory record
// without a trailing comment.
const zipEndOfDirectorySize = 22

type zipFormat struct{}

// Zip returns the format for zip archives. The central directory and its
// end record sit at the end of the file, so zip is tail-indexed.
func Zip() Format { return zipFormat{} }

func (zipFormat) Kind() Kind         { return KindZip }
func (zipFormat) TailIndexed() bool  { return true }
func (zipFormat) TrailerSize() int64 { return zipEndOfDirectorySize }

// Entries returns names in central directory order. Directory entries keep
// their trailing slash.
func (zipFormat) Entries(src io.ReaderAt, size int64) ([]string, error) {
	zr, err := zip.NewReader(src, size)
	if err != nil {
		return nil, fmt.Errorf("zip: %w", err)
	}
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names, nil
}
