package toc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	nethttp "net/http"
	"strings"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/toc/format"
	tochttp "github.com/meigma/toc/http"
	"github.com/meigma/toc/internal/sizing"
	"github.com/meigma/toc/ranges"
)

var errWindowTooLarge = errors.New("toc: window exceeds addressable memory")

// Transport performs the requests used to resolve a remote archive.
// *http.Client from the http subpackage implements it.
type Transport interface {
	// Probe performs a metadata-only request. Only failures to obtain a
	// response are errors.
	Probe(ctx context.Context, url string) (*tochttp.Metadata, error)

	// Fetch performs a content request, restricted to rng when it is non-nil.
	// Only failures to obtain a response are errors.
	Fetch(ctx context.Context, url string, rng *ranges.Range) (*tochttp.Response, error)
}

// Probe is what a metadata-only request revealed about a resource.
type Probe struct {
	// MediaType is the declared Content-Type.
	MediaType string

	// Kind is the archive kind the media type maps to.
	Kind format.Kind

	// Length is the declared size, or -1 if the probe did not report one.
	Length int64
}

// Resolver recovers archive tables of contents from remote resources by
// fetching a tail window of bytes in bounded range requests.
//
// Resolution runs in stages: [Resolver.Probe] classifies the resource,
// [Resolver.Length] finds its size, [Resolver.FetchWindow] fetches the tail,
// and [Resolver.Parse] reads the index out of the fetched bytes. Each stage
// can be called on its own; [Resolver.Resolve] runs them in order.
//
// A Resolver is safe for concurrent use.
type Resolver struct {
	transport Transport
	formats   *format.Registry
	accepted  map[format.Kind]bool
	chunkSize int64
	tailSize  int64
	tailSet   bool
	minSize   int64
	logger    *slog.Logger
}

// NewResolver creates a Resolver with the given options.
func NewResolver(opts ...Option) (*Resolver, error) {
	r := &Resolver{
		formats:   format.Default(),
		chunkSize: DefaultChunkSize,
		tailSize:  DefaultTailSize,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	if !r.tailSet && r.minSize > 1 {
		r.tailSize = r.minSize - 1
	}
	if r.transport == nil {
		r.transport = tochttp.NewClient(tochttp.WithLogger(r.logger))
	}
	if r.accepted == nil {
		r.accepted = make(map[format.Kind]bool)
		for _, k := range r.formats.TailIndexed() {
			r.accepted[k] = true
		}
	}
	for k := range r.accepted {
		if _, ok := r.formats.Lookup(k); !ok {
			return nil, fmt.Errorf("%w: %s", format.ErrUnsupportedKind, k)
		}
	}
	return r, nil
}

// log returns the logger, falling back to a discard logger if nil.
func (r *Resolver) log() *slog.Logger {
	if r.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.logger
}

// Resolve probes url and, if it is an accepted archive, returns its index.
func (r *Resolver) Resolve(ctx context.Context, url string) (*Index, error) {
	probe, err := r.Probe(ctx, url)
	if err != nil {
		return nil, err
	}
	return r.ResolveProbed(ctx, url, probe)
}

// ResolveProbed resolves url using metadata obtained elsewhere, such as an
// OCI descriptor, in place of a probe request.
func (r *Resolver) ResolveProbed(ctx context.Context, url string, probe Probe) (*Index, error) {
	f, err := r.accept(probe)
	if err != nil {
		return nil, err
	}
	length, err := r.Length(ctx, url, probe)
	if err != nil {
		return nil, err
	}
	if err := r.checkSize(length, f); err != nil {
		return nil, err
	}
	win, err := r.FetchWindow(ctx, url, length)
	if err != nil {
		return nil, err
	}
	idx, err := r.Parse(win, f.Kind())
	if err != nil {
		return nil, err
	}
	idx.Source = url

	r.log().Debug("resolved", "url", url, "kind", idx.Kind, "entries", idx.Len(), "window", idx.Window)
	return idx, nil
}

// Probe performs a metadata-only request for url and classifies the result.
// A status outside 2xx yields an *UnexpectedStatusError and a response without
// a Content-Type yields ErrMissingContentType.
func (r *Resolver) Probe(ctx context.Context, url string) (Probe, error) {
	md, err := r.transport.Probe(ctx, url)
	if err != nil {
		return Probe{}, fmt.Errorf("%w: probe %s: %w", ErrTransport, url, err)
	}
	if md.StatusCode < 200 || md.StatusCode > 299 {
		return Probe{}, &UnexpectedStatusError{Code: md.StatusCode, Status: md.Status, URL: url}
	}
	if strings.TrimSpace(md.ContentType) == "" {
		return Probe{}, fmt.Errorf("%w: %s", ErrMissingContentType, url)
	}

	p := Probe{
		MediaType: md.ContentType,
		Kind:      format.KindFromMediaType(md.ContentType),
		Length:    md.ContentLength,
	}
	r.log().Debug("probed", "url", url, "media_type", p.MediaType, "kind", p.Kind, "length", p.Length)
	return p, nil
}

// Length returns the size of the resource at url. The probe's length is used
// when it reported one. Otherwise a one-byte range request is made and the
// size is read from its Content-Range. A server that ignores the range sends
// the whole resource; its Content-Length is used and the body is dropped
// unread.
func (r *Resolver) Length(ctx context.Context, url string, probe Probe) (int64, error) {
	if probe.Length > 0 {
		return probe.Length, nil
	}

	first := ranges.Range{Start: 0, End: 0}
	resp, err := r.transport.Fetch(ctx, url, &first)
	if err != nil {
		return 0, fmt.Errorf("%w: length %s: %w", ErrTransport, url, err)
	}

	switch resp.StatusCode {
	case nethttp.StatusPartialContent:
		_ = resp.Body.Close()
	case nethttp.StatusOK:
		_ = resp.Abandon()
	default:
		_ = resp.Abandon()
		return 0, &UnexpectedStatusError{Code: resp.StatusCode, Status: resp.Status, URL: url, Range: &first}
	}
	if resp.Total < 0 {
		return 0, fmt.Errorf("%w: %s", ErrUnknownLength, url)
	}
	r.log().Debug("length", "url", url, "length", resp.Total, "status", resp.StatusCode)
	return resp.Total, nil
}

// FetchWindow fetches the trailing bytes of a resource of the given length in
// ranges no wider than the chunk size, in ascending order, and assembles them
// into one window. If the server answers a range request with the full body,
// that body becomes the window and no further requests are made.
func (r *Resolver) FetchWindow(ctx context.Context, url string, length int64) (*Window, error) {
	tail, ok := ranges.Tail(length, r.tailSize)
	if !ok {
		return nil, &ResourceTooSmallError{Length: length, Min: 1}
	}
	seq, err := ranges.New(tail.Start, tail.End, r.chunkSize)
	if err != nil {
		return nil, err
	}
	n, err := sizing.ToInt(tail.Len(), errWindowTooLarge)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, n)
	for rng := range seq.All() {
		dst := buf[rng.Start-tail.Start : rng.End-tail.Start+1]
		full, err := r.fetchRange(ctx, url, rng, length, dst)
		if err != nil {
			return nil, err
		}
		if full != nil {
			return NewWindow(length, ranges.Range{Start: 0, End: length - 1}, full)
		}
	}
	return NewWindow(length, tail, buf)
}

// fetchRange copies rng into dst. When the server ignores the range and
// returns the whole resource, that body is returned instead.
func (r *Resolver) fetchRange(ctx context.Context, url string, rng ranges.Range, length int64, dst []byte) ([]byte, error) {
	resp, err := r.transport.Fetch(ctx, url, &rng)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s %s: %w", ErrTransport, url, rng, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case nethttp.StatusPartialContent:
		if resp.Range != nil && *resp.Range != rng {
			return nil, fmt.Errorf("%w: %s: requested %s, server returned %s", ErrTransport, url, rng, resp.Range)
		}
		if _, err := io.ReadFull(resp.Body, dst); err != nil {
			return nil, fmt.Errorf("%w: read %s %s: %w", ErrTransport, url, rng, err)
		}
		return nil, nil

	case nethttp.StatusOK:
		r.log().Debug("range ignored, using full body", "url", url, "range", rng, "length", length)
		body, err := sizing.ReadAllWithLimit(resp.Body, length, errWindowTooLarge)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", ErrTransport, url, err)
		}
		if int64(len(body)) != length {
			return nil, fmt.Errorf("%w: %s: body has %d bytes, want %d", ErrTransport, url, len(body), length)
		}
		return body, nil

	default:
		return nil, &UnexpectedStatusError{Code: resp.StatusCode, Status: resp.Status, URL: url, Range: &rng}
	}
}

// Parse reads the index of an archive of the given kind from win. A kind whose
// trailer shows the window holds some other kind is re-read as that kind if it
// is accepted, and reported as an *NotAnArchiveError otherwise. A failure
// after the format reader needed bytes before a partial window is reported as
// an *WindowInsufficientError; any other failure wraps ErrArchiveParse.
func (r *Resolver) Parse(win *Window, kind format.Kind) (*Index, error) {
	f, ok := r.formats.Lookup(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %s", format.ErrUnsupportedKind, kind)
	}

	if c, ok := f.(format.Confirmer); ok && coversTrailer(win, f) {
		if actual := c.Confirm(win, win.Size()); actual != kind {
			if !r.accepted[actual] {
				return nil, &NotAnArchiveError{Kind: actual}
			}
			r.log().Debug("kind corrected", "declared", kind, "actual", actual)
			return r.Parse(win, actual)
		}
	}

	entries, err := f.Entries(win, win.Size())
	if err != nil {
		if off, missed := win.Missed(); missed && !win.Complete() {
			return nil, &WindowInsufficientError{Window: win.Range(), Offset: off, Err: err}
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrArchiveParse, kind, err)
	}

	return &Index{
		Kind:    kind,
		Size:    win.Size(),
		Window:  win.Range(),
		Digest:  digest.FromBytes(win.Bytes()),
		Entries: entries,
	}, nil
}

// coversTrailer reports whether win holds the last TrailerSize bytes of the
// resource.
func coversTrailer(win *Window, f format.Format) bool {
	rng := win.Range()
	return rng.End == win.Size()-1 && rng.Len() >= f.TrailerSize()
}

func (r *Resolver) accept(p Probe) (format.Format, error) {
	if !r.accepted[p.Kind] {
		return nil, &NotAnArchiveError{MediaType: p.MediaType, Kind: p.Kind}
	}
	f, ok := r.formats.Lookup(p.Kind)
	if !ok {
		return nil, &NotAnArchiveError{MediaType: p.MediaType, Kind: p.Kind}
	}
	return f, nil
}

// checkSize rejects resources shorter than the configured minimum, or the
// format's trailer when no minimum is set.
func (r *Resolver) checkSize(length int64, f format.Format) error {
	minSize := r.minSize
	if minSize == 0 {
		minSize = f.TrailerSize()
	}
	if length < minSize {
		return &ResourceTooSmallError{Length: length, Min: minSize}
	}
	return nil
}
