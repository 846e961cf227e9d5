package format

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// sniffSize is how many leading bytes Detect inspects.
const sniffSize = 512

var (
	zipLocalHeaderMagic = []byte("PK\x03\x04")
	zipEmptyMagic       = []byte("PK\x05\x06")
	zipSpannedMagic     = []byte("PK\x07\x08")
	sevenZipMagic       = []byte{'7', 'z', 0xBC, 0xAF, 0x27, 0x1C}
	rarMagic            = []byte("Rar!\x1A\x07")
	gzipMagic           = []byte{0x1F, 0x8B}
	zstdMagic           = []byte{0x28, 0xB5, 0x2F, 0xFD}
	tarMagic            = []byte("ustar")
)

// tarMagicOffset is the offset of the ustar magic within a tar header.
const tarMagicOffset = 257

// Detect classifies src by its leading magic bytes. Gzip streams that end
// with an eStargz footer are reported as KindEStargz. It returns
// ErrUnknownFormat when nothing matches.
func Detect(src io.ReaderAt, size int64) (Kind, error) {
	n := int64(sniffSize)
	if size < n {
		n = size
	}
	head := make([]byte, n)
	read, err := src.ReadAt(head, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return KindUnknown, fmt.Errorf("read header: %w", err)
	}
	head = head[:read]

	switch {
	case bytes.HasPrefix(head, zipLocalHeaderMagic),
		bytes.HasPrefix(head, zipEmptyMagic),
		bytes.HasPrefix(head, zipSpannedMagic):
		return KindZip, nil
	case bytes.HasPrefix(head, sevenZipMagic):
		return KindSevenZip, nil
	case bytes.HasPrefix(head, rarMagic):
		return KindRar, nil
	case bytes.HasPrefix(head, gzipMagic):
		if isEStargz(src, size) {
			return KindEStargz, nil
		}
		return KindTarGzip, nil
	case bytes.HasPrefix(head, zstdMagic):
		return KindTarZstd, nil
	case len(head) >= tarMagicOffset+len(tarMagic) &&
		bytes.Equal(head[tarMagicOffset:tarMagicOffset+len(tarMagic)], tarMagic):
		return KindTar, nil
	}
	return KindUnknown, ErrUnknownFormat
}
