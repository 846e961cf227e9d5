package toc

import (
	"github.com/opencontainers/go-digest"

	"github.com/meigma/toc/format"
	"github.com/meigma/toc/ranges"
)

// Index is the table of contents recovered from one archive.
type Index struct {
	// Source is the URL or path the index was resolved from.
	Source string

	// Kind is the archive kind the entries were read as.
	Kind format.Kind

	// Size is the total size of the resource in bytes.
	Size int64

	// Window is the byte interval that was read to build the index. For local
	// files it covers the whole file.
	Window ranges.Range

	// Digest identifies the fetched window bytes. It is empty for local files.
	Digest digest.Digest

	// Entries are the entry names in the order reported by the archive format.
	Entries []string
}

// Len returns the number of entries.
func (idx *Index) Len() int {
	return len(idx.Entries)
}
