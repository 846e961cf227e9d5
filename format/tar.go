package format

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// tarBlockSize is the size of a tar header block.
const tarBlockSize = 512

// tarFormat lists tar streams, optionally wrapped in a compression layer.
type tarFormat struct {
	kind       Kind
	decompress func(io.Reader) (io.ReadCloser, error)
}

// Tar returns the format for uncompressed tar archives.
func Tar() Format {
	return tarFormat{kind: KindTar}
}

// TarGzip returns the format for gzip-compressed tar archives.
func TarGzip() Format {
	return tarFormat{
		kind: KindTarGzip,
		decompress: func(r io.Reader) (io.ReadCloser, error) {
			zr, err := gzip.NewReader(r)
			if err != nil {
				return nil, err
			}
			return zr, nil
		},
	}
}

// TarZstd returns the format for zstd-compressed tar archives.
func TarZstd() Format {
	return tarFormat{
		kind: KindTarZstd,
		decompress: func(r io.Reader) (io.ReadCloser, error) {
			dec, err := zstd.NewReader(r)
			if err != nil {
				return nil, err
			}
			return dec.IOReadCloser(), nil
		},
	}
}

func (f tarFormat) Kind() Kind { return f.kind }

// TailIndexed is false: tar has no index, every header must be read in order.
func (tarFormat) TailIndexed() bool { return false }

func (tarFormat) TrailerSize() int64 { return tarBlockSize }

// Entries returns header names in stream order. Entry bodies are skipped by
// the tar reader, but compressed streams still have to be decoded end to end.
func (f tarFormat) Entries(src io.ReaderAt, size int64) ([]string, error) {
	var r io.Reader = io.NewSectionReader(src, 0, size)
	if f.decompress != nil {
		rc, err := f.decompress(r)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.kind, err)
		}
		defer rc.Close()
		r = rc
	}

	tr := tar.NewReader(r)
	var names []string
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.kind, err)
		}
		names = append(names, hdr.Name)
	}
	return names, nil
}
