package toc

import (
	"errors"
	"fmt"

	"github.com/meigma/toc/format"
	"github.com/meigma/toc/ranges"
)

// Sentinel errors for resolution. Typed errors below carry details and match
// their sentinel with errors.Is.
var (
	// ErrInvalidChunkSize is returned when the configured chunk size is not positive.
	ErrInvalidChunkSize = ranges.ErrInvalidChunkSize

	// ErrTransport is returned when a request fails before a response is received,
	// or when a response body ends early.
	ErrTransport = errors.New("toc: transport error")

	// ErrMissingContentType is returned when a probed resource declares no content type.
	ErrMissingContentType = errors.New("toc: missing content type")

	// ErrNotAnArchive is returned when a resource is not of an accepted archive kind.
	ErrNotAnArchive = errors.New("toc: not an archive")

	// ErrUnknownLength is returned when the size of a resource cannot be determined.
	ErrUnknownLength = errors.New("toc: unknown length")

	// ErrResourceTooSmall is returned when a resource is shorter than the
	// smallest valid index trailer.
	ErrResourceTooSmall = errors.New("toc: resource too small")

	// ErrUnexpectedStatus is returned when a response has a status other than
	// the expected success codes.
	ErrUnexpectedStatus = errors.New("toc: unexpected status")

	// ErrArchiveParse is returned when the archive index cannot be read from
	// the available bytes.
	ErrArchiveParse = errors.New("toc: archive parse error")

	// ErrWindowInsufficient is returned when parsing failed after the format
	// reader needed bytes that precede the fetched window.
	ErrWindowInsufficient = errors.New("toc: window insufficient")
)

// UnexpectedStatusError reports a response whose status was not acceptable.
type UnexpectedStatusError struct {
	Code   int
	Status string
	URL    string

	// Range is the requested interval, or nil for requests without one.
	Range *ranges.Range
}

func (e *UnexpectedStatusError) Error() string {
	status := e.Status
	if status == "" {
		status = fmt.Sprint(e.Code)
	}
	if e.Range != nil {
		return fmt.Sprintf("toc: unexpected status %s for %s (%s)", status, e.URL, e.Range)
	}
	return fmt.Sprintf("toc: unexpected status %s for %s", status, e.URL)
}

// Is reports whether target is ErrUnexpectedStatus.
func (e *UnexpectedStatusError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}

// NotAnArchiveError reports a resource whose kind is not accepted.
type NotAnArchiveError struct {
	MediaType string
	Kind      format.Kind
}

func (e *NotAnArchiveError) Error() string {
	if e.MediaType == "" {
		return fmt.Sprintf("toc: not an archive (kind %s)", e.Kind)
	}
	return fmt.Sprintf("toc: not an archive (content type %q, kind %s)", e.MediaType, e.Kind)
}

// Is reports whether target is ErrNotAnArchive.
func (e *NotAnArchiveError) Is(target error) bool {
	return target == ErrNotAnArchive
}

// ResourceTooSmallError reports a resource below the minimum size.
type ResourceTooSmallError struct {
	Length int64
	Min    int64
}

func (e *ResourceTooSmallError) Error() string {
	return fmt.Sprintf("toc: resource too small: length %d, minimum %d", e.Length, e.Min)
}

// Is reports whether target is ErrResourceTooSmall.
func (e *ResourceTooSmallError) Is(target error) bool {
	return target == ErrResourceTooSmall
}

// WindowInsufficientError reports a parse failure caused by the fetched window
// not reaching far enough towards the start of the resource.
type WindowInsufficientError struct {
	// Window is the interval that was fetched.
	Window ranges.Range

	// Offset is the lowest offset the format reader asked for.
	Offset int64

	// Err is the format reader's error.
	Err error
}

func (e *WindowInsufficientError) Error() string {
	return fmt.Sprintf("toc: window insufficient: fetched %d-%d, reader needed offset %d: %v",
		e.Window.Start, e.Window.End, e.Offset, e.Err)
}

// Is reports whether target is ErrWindowInsufficient.
func (e *WindowInsufficientError) Is(target error) bool {
	return target == ErrWindowInsufficient
}

// Unwrap returns the format reader's error.
func (e *WindowInsufficientError) Unwrap() error {
	return e.Err
}
