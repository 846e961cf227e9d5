// Package testutil provides shared helpers for tests: in-memory byte sources,
// archive builders, and an HTTP server that records range requests.
package testutil

import (
	"bytes"
	"context"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// MockByteSource implements a simple in-memory byte source for tests.
type MockByteSource struct {
	data  []byte
	mu    sync.Mutex
	reads int
}

// NewMockByteSource returns a byte source backed by the provided data.
func NewMockByteSource(data []byte) *MockByteSource {
	return &MockByteSource{data: data}
}

// ReadAt implements io.ReaderAt semantics over the backing slice.
func (m *MockByteSource) ReadAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	m.reads++
	m.mu.Unlock()

	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Size returns the total size of the backing data.
func (m *MockByteSource) Size() int64 {
	return int64(len(m.data))
}

// Bytes returns the backing slice.
func (m *MockByteSource) Bytes() []byte {
	return m.data
}

// Reads returns how many times ReadAt was called.
func (m *MockByteSource) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// Request is a request observed by a RangeServer.
type Request struct {
	Method string
	Range  string
}

// RangeServer serves a byte slice with HTTP range support and records every
// request it receives.
type RangeServer struct {
	*httptest.Server

	data        []byte
	contentType string
	ignoreRange bool
	rangeStatus int

	mu       sync.Mutex
	requests []Request
}

// ServerOption configures a RangeServer.
type ServerOption func(*RangeServer)

// WithIgnoreRange makes the server answer range requests with the full body
// and status 200, like servers without range support.
func WithIgnoreRange() ServerOption {
	return func(s *RangeServer) {
		s.ignoreRange = true
	}
}

// WithRangeStatus makes the server answer every range request with the given
// status code and no body.
func WithRangeStatus(code int) ServerOption {
	return func(s *RangeServer) {
		s.rangeStatus = code
	}
}

// NewRangeServer starts a server for data with the given Content-Type. An
// empty contentType omits the header entirely. The server is closed when the
// test finishes.
func NewRangeServer(tb testing.TB, data []byte, contentType string, opts ...ServerOption) *RangeServer {
	tb.Helper()

	s := &RangeServer{data: data, contentType: contentType}
	for _, opt := range opts {
		opt(s)
	}
	s.Server = httptest.NewServer(nethttp.HandlerFunc(s.serve))
	tb.Cleanup(s.Close)
	return s
}

func (s *RangeServer) serve(w nethttp.ResponseWriter, r *nethttp.Request) {
	rng := r.Header.Get("Range")
	s.mu.Lock()
	s.requests = append(s.requests, Request{Method: r.Method, Range: rng})
	s.mu.Unlock()

	if s.contentType == "" {
		// A present but empty slice stops ServeContent from sniffing.
		w.Header()["Content-Type"] = nil
	} else {
		w.Header().Set("Content-Type", s.contentType)
	}

	if rng != "" && s.rangeStatus != 0 {
		w.WriteHeader(s.rangeStatus)
		return
	}
	if rng != "" && s.ignoreRange {
		r = r.Clone(context.Background())
		r.Header.Del("Range")
	}
	nethttp.ServeContent(w, r, "", time.Time{}, bytes.NewReader(s.data))
}

// Requests returns a copy of the requests received so far.
func (s *RangeServer) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// RangeRequests returns the Range header of every request that carried one.
func (s *RangeServer) RangeRequests() []string {
	var out []string
	for _, r := range s.Requests() {
		if r.Range != "" {
			out = append(out, r.Range)
		}
	}
	return out
}
