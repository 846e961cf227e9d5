package toc

import (
	"fmt"
	"log/slog"

	"github.com/meigma/toc/format"
)

// Option configures a Resolver.
type Option func(*Resolver) error

// Default window sizes.
const (
	DefaultChunkSize int64 = 64 << 10  // 64 KiB
	DefaultTailSize  int64 = 128 << 10 // 128 KiB
)

// WithTransport sets the transport used for probe and fetch requests.
// By default an http.Client with the resolver's logger is used.
func WithTransport(t Transport) Option {
	return func(r *Resolver) error {
		r.transport = t
		return nil
	}
}

// WithFormats sets the registry of archive formats.
// By default format.Default is used.
func WithFormats(reg *format.Registry) Option {
	return func(r *Resolver) error {
		if reg == nil {
			return fmt.Errorf("toc: nil format registry")
		}
		r.formats = reg
		return nil
	}
}

// WithAcceptedKinds restricts the kinds a probed resource may have.
// By default every tail-indexed kind in the format registry is accepted.
func WithAcceptedKinds(kinds ...format.Kind) Option {
	return func(r *Resolver) error {
		r.accepted = make(map[format.Kind]bool, len(kinds))
		for _, k := range kinds {
			if k == format.KindUnknown {
				return fmt.Errorf("%w: %s", format.ErrUnsupportedKind, k)
			}
			r.accepted[k] = true
		}
		return nil
	}
}

// WithChunkSize sets the maximum width of a single range request.
func WithChunkSize(n int64) Option {
	return func(r *Resolver) error {
		if n <= 0 {
			return fmt.Errorf("%w: %d", ErrInvalidChunkSize, n)
		}
		r.chunkSize = n
		return nil
	}
}

// WithTailSize sets how many trailing bytes of a resource are fetched.
func WithTailSize(n int64) Option {
	return func(r *Resolver) error {
		if n <= 0 {
			return fmt.Errorf("toc: invalid tail size %d", n)
		}
		r.tailSize = n
		r.tailSet = true
		return nil
	}
}

// WithMinSize sets the smallest resource length that is fetched. Zero, the
// default, uses the trailer size of the probed format. Unless WithTailSize is
// also given, a minimum above one sets the tail to one byte less than it.
func WithMinSize(n int64) Option {
	return func(r *Resolver) error {
		if n < 0 {
			return fmt.Errorf("toc: invalid minimum size %d", n)
		}
		r.minSize = n
		return nil
	}
}

// WithLogger sets the logger for resolution diagnostics.
// If nil, a discard logger is used (default behavior).
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) error {
		r.logger = logger
		return nil
	}
}
