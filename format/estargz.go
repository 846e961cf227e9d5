package format

import (
	"errors"
	"fmt"
	"io"
	"path"
	"sort"

	"github.com/containerd/stargz-snapshotter/estargz"
)

type estargzFormat struct{}

// EStargz returns the format for eStargz layers: gzip-compressed tar streams
// with a JSON table of contents and a fixed-size footer at the end.
func EStargz() Format { return estargzFormat{} }

func (estargzFormat) Kind() Kind         { return KindEStargz }
func (estargzFormat) TailIndexed() bool  { return true }
func (estargzFormat) TrailerSize() int64 { return estargz.FooterSize }

// Entries returns the TOC paths in lexical order. Directories carry a trailing
// slash and the prefetch landmark files are omitted.
func (estargzFormat) Entries(src io.ReaderAt, size int64) ([]string, error) {
	r, err := estargz.Open(io.NewSectionReader(src, 0, size))
	if err != nil {
		return nil, fmt.Errorf("estargz: %w", err)
	}
	root, ok := r.Lookup("")
	if !ok {
		return nil, errors.New("estargz: missing root entry")
	}

	var names []string
	var walk func(prefix string, dir *estargz.TOCEntry)
	walk = func(prefix string, dir *estargz.TOCEntry) {
		dir.ForeachChild(func(base string, child *estargz.TOCEntry) bool {
			if prefix == "" && (base == estargz.PrefetchLandmark || base == estargz.NoPrefetchLandmark) {
				return true
			}
			p := path.Join(prefix, base)
			if child.Type == "dir" {
				names = append(names, p+"/")
				walk(p, child)
			} else {
				names = append(names, p)
			}
			return true
		})
	}
	walk("", root)

	sort.Strings(names)
	return names, nil
}

// Confirm returns KindEStargz when src ends with an eStargz footer and
// KindTarGzip otherwise. Plain gzip layers share the eStargz media types.
func (estargzFormat) Confirm(src io.ReaderAt, size int64) Kind {
	if isEStargz(src, size) {
		return KindEStargz
	}
	return KindTarGzip
}

// isEStargz reports whether src ends with a valid eStargz footer.
func isEStargz(src io.ReaderAt, size int64) bool {
	if size < estargz.FooterSize {
		return false
	}
	_, _, err := estargz.OpenFooter(io.NewSectionReader(src, 0, size))
	return err == nil
}
