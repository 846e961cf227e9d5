// Package format lists the entries of archive containers.
//
// Each supported container is a [Format]: given a random-access byte source
// and its total size, it returns the ordered entry names recorded in the
// container's index. Formats whose index lives at the end of the byte stream
// report TailIndexed, which makes them eligible for remote resolution from a
// tail window. A [Registry] maps each [Kind] to its Format.
//
// Entry contents are never decompressed; only index structures are read.
package format

import (
	"errors"
	"io"
	"slices"
)

var (
	// ErrUnknownFormat is returned when a byte source matches no known container.
	ErrUnknownFormat = errors.New("format: unrecognized archive")

	// ErrUnsupportedKind is returned when no Format is registered for a kind.
	ErrUnsupportedKind = errors.New("format: unsupported kind")
)

// Format lists the entries of one kind of archive.
type Format interface {
	// Kind returns the container kind handled by the format.
	Kind() Kind

	// TailIndexed reports whether the container's index is located at the end
	// of the byte stream, so that a tail window can be sufficient to list it.
	TailIndexed() bool

	// TrailerSize returns the size of the fixed end-of-index marker. A
	// resource shorter than this cannot be a valid container.
	TrailerSize() int64

	// Entries returns the entry names in index order.
	Entries(src io.ReaderAt, size int64) ([]string, error)
}

// Confirmer is implemented by formats whose media types are shared with other
// kinds. Confirm inspects the trailer at the end of src and returns the kind
// src actually holds.
type Confirmer interface {
	Confirm(src io.ReaderAt, size int64) Kind
}

// Registry maps kinds to formats.
type Registry struct {
	formats map[Kind]Format
	order   []Kind
}

// NewRegistry returns a registry containing the given formats.
// Later formats replace earlier ones of the same kind.
func NewRegistry(formats ...Format) *Registry {
	r := &Registry{formats: make(map[Kind]Format)}
	for _, f := range formats {
		r.Register(f)
	}
	return r
}

// Default returns a registry with every built-in format.
func Default() *Registry {
	return NewRegistry(
		Zip(),
		EStargz(),
		SevenZip(),
		Rar(),
		Tar(),
		TarGzip(),
		TarZstd(),
	)
}

// Register adds or replaces the format for f.Kind().
func (r *Registry) Register(f Format) {
	if f == nil {
		return
	}
	if _, ok := r.formats[f.Kind()]; !ok {
		r.order = append(r.order, f.Kind())
	}
	r.formats[f.Kind()] = f
}

// Lookup returns the format registered for k.
func (r *Registry) Lookup(k Kind) (Format, bool) {
	f, ok := r.formats[k]
	return f, ok
}

// Kinds returns the registered kinds in registration order.
func (r *Registry) Kinds() []Kind {
	return slices.Clone(r.order)
}

// TailIndexed returns the registered kinds whose formats are tail-indexed.
func (r *Registry) TailIndexed() []Kind {
	var out []Kind
	for _, k := range r.order {
		if r.formats[k].TailIndexed() {
			out = append(out, k)
		}
	}
	return out
}
