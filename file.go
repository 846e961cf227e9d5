package toc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/meigma/toc/format"
	"github.com/meigma/toc/ranges"
)

// fileSource wraps *os.File so format readers get its size alongside ReadAt.
type fileSource struct {
	file *os.File
	size int64
}

func newFileSource(f *os.File) (*fileSource, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", f.Name(), err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s: is a directory", f.Name())
	}
	return &fileSource{file: f, size: info.Size()}, nil
}

func (s *fileSource) ReadAt(p []byte, off int64) (int, error) {
	return s.file.ReadAt(p, off)
}

func (s *fileSource) Size() int64 {
	return s.size
}

// ResolveFile lists the entries of the archive at path. The kind is detected
// from the file's magic bytes, so every registered format is eligible, not
// only tail-indexed ones. A missing file yields an error wrapping
// fs.ErrNotExist.
func ResolveFile(ctx context.Context, path string, opts ...FileOption) (*Index, error) {
	cfg := fileConfig{formats: format.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	log := cfg.logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("toc: open %s: %w", path, err)
	}
	defer f.Close()

	src, err := newFileSource(f)
	if err != nil {
		return nil, fmt.Errorf("toc: %w", err)
	}

	kind, err := format.Detect(src, src.Size())
	if err != nil {
		if errors.Is(err, format.ErrUnknownFormat) {
			return nil, &NotAnArchiveError{Kind: format.KindUnknown}
		}
		return nil, fmt.Errorf("toc: detect %s: %w", path, err)
	}
	fmtr, ok := cfg.formats.Lookup(kind)
	if !ok {
		return nil, &NotAnArchiveError{Kind: kind}
	}
	log.Debug("detected local archive", "path", path, "kind", kind, "size", src.Size())

	entries, err := fmtr.Entries(src, src.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrArchiveParse, kind, err)
	}

	idx := &Index{
		Source:  path,
		Kind:    kind,
		Size:    src.Size(),
		Entries: entries,
	}
	if src.Size() > 0 {
		idx.Window = ranges.Range{Start: 0, End: src.Size() - 1}
	}
	return idx, nil
}
