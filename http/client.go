// Package http provides the transport used to probe and range-fetch remote
// archives.
//
// A [Client] issues two kinds of exchanges: a metadata-only HEAD ([Client.Probe])
// and a content GET, optionally qualified by a byte range ([Client.Fetch]).
// Status codes are reported to the caller rather than interpreted, so the
// resolver can decide which outcomes are acceptable.
package http //nolint:revive // intentional naming for domain clarity

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	nethttp "net/http"
	"strconv"
	"strings"

	"github.com/meigma/toc/ranges"
)

// DefaultUserAgent is sent when no User-Agent header is configured.
const DefaultUserAgent = "toc/1.0"

// maxDrainBytes bounds how much of an unread body is discarded on close to
// allow connection reuse.
const maxDrainBytes = 64 << 10

// Client performs probe and fetch requests against remote resources.
type Client struct {
	client    *nethttp.Client
	headers   nethttp.Header
	userAgent string
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithClient sets the HTTP client used for requests.
func WithClient(client *nethttp.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithHeaders sets additional headers on each request.
func WithHeaders(headers nethttp.Header) Option {
	return func(c *Client) {
		if headers == nil {
			return
		}
		c.headers = headers.Clone()
	}
}

// WithHeader sets a single header on each request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		if c.headers == nil {
			c.headers = make(nethttp.Header)
		}
		c.headers.Set(key, value)
	}
}

// WithUserAgent sets the User-Agent header for all requests.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLogger sets the logger used for request diagnostics.
// If nil, a discard logger is used (default behavior).
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client with the given options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		client:    nethttp.DefaultClient,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = nethttp.DefaultClient
	}
	return c
}

// log returns the logger, falling back to a discard logger if nil.
func (c *Client) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

// Metadata is the result of a metadata-only request.
type Metadata struct {
	// StatusCode is the HTTP status code of the response.
	StatusCode int

	// Status is the HTTP status line, e.g. "200 OK".
	Status string

	// ContentType is the raw Content-Type header value.
	ContentType string

	// ContentLength is the declared size of the resource, or -1 if unknown.
	ContentLength int64

	// AcceptRanges is the raw Accept-Ranges header value.
	AcceptRanges string

	// ETag is the entity tag of the resource, if any.
	ETag string
}

// Response is the result of a content request. The caller must close Body.
type Response struct {
	// StatusCode is the HTTP status code of the response.
	StatusCode int

	// Status is the HTTP status line, e.g. "206 Partial Content".
	Status string

	// ContentType is the raw Content-Type header value.
	ContentType string

	// ContentLength is the number of body bytes, or -1 if unknown.
	ContentLength int64

	// ContentRange is the raw Content-Range header value.
	ContentRange string

	// Range is the interval the server returned on a partial response, parsed
	// from Content-Range. It is nil otherwise.
	Range *ranges.Range

	// Total is the full size of the resource: taken from Content-Range on a
	// partial response and from Content-Length on a full one. It is -1 when
	// neither is available.
	Total int64

	// Body is the response body.
	Body io.ReadCloser
}

// Abandon closes the body without reading any of it. The connection is not
// reused, so it suits bodies that may be large and are not wanted.
func (r *Response) Abandon() error {
	if d, ok := r.Body.(*drainCloser); ok {
		return d.body.Close()
	}
	return r.Body.Close()
}

// Probe issues a HEAD request and returns the resource metadata.
// Only transport failures are returned as errors; any status code is reported
// in the result.
func (c *Client) Probe(ctx context.Context, url string) (*Metadata, error) {
	req, err := c.newRequest(ctx, nethttp.MethodHead, url)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	md := &Metadata{
		StatusCode:    resp.StatusCode,
		Status:        resp.Status,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
		AcceptRanges:  resp.Header.Get("Accept-Ranges"),
		ETag:          resp.Header.Get("ETag"),
	}
	c.log().Debug("probe", "url", url, "status", resp.StatusCode,
		"content_type", md.ContentType, "content_length", md.ContentLength)
	return md, nil
}

// Fetch issues a GET request. When rng is non-nil the request carries a Range
// header for that interval. Only transport failures are returned as errors;
// the returned body must be closed by the caller.
func (c *Client) Fetch(ctx context.Context, url string, rng *ranges.Range) (*Response, error) {
	req, err := c.newRequest(ctx, nethttp.MethodGet, url)
	if err != nil {
		return nil, err
	}
	if rng != nil {
		req.Header.Set("Range", rng.String())
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	out := &Response{
		StatusCode:    resp.StatusCode,
		Status:        resp.Status,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
		ContentRange:  resp.Header.Get("Content-Range"),
		Total:         -1,
		Body:          &drainCloser{body: resp.Body},
	}
	switch resp.StatusCode {
	case nethttp.StatusPartialContent:
		if served, size, err := parseContentRange(out.ContentRange); err == nil {
			out.Range = &served
			out.Total = size
		}
	case nethttp.StatusOK:
		out.Total = resp.ContentLength
	}

	c.log().Debug("fetch", "url", url, "range", rangeAttr(rng), "status", resp.StatusCode,
		"content_length", out.ContentLength, "total", out.Total)
	return out, nil
}

// newRequest creates an HTTP request with configured headers.
func (c *Client) newRequest(ctx context.Context, method, url string) (*nethttp.Request, error) {
	req, err := nethttp.NewRequestWithContext(ctx, method, url, nethttp.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%s %s: create request: %w", method, url, err)
	}
	for key, values := range c.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "identity")
	}
	if req.Header.Get("User-Agent") == "" && c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req, nil
}

// drainCloser drains a bounded amount of an HTTP response body on close
// so the connection can be reused.
type drainCloser struct {
	body io.ReadCloser
}

// Read reads from the underlying body.
func (d *drainCloser) Read(p []byte) (int, error) {
	return d.body.Read(p)
}

// Close drains and closes the underlying response body.
func (d *drainCloser) Close() error {
	_, _ = io.CopyN(io.Discard, d.body, maxDrainBytes) //nolint:errcheck // best-effort drain for connection reuse
	return d.body.Close()
}

func rangeAttr(rng *ranges.Range) string {
	if rng == nil {
		return "none"
	}
	return rng.String()
}

// parseContentRange parses a Content-Range header value of the form
// "bytes start-end/size". It returns the served interval and the total size.
func parseContentRange(value string) (ranges.Range, int64, error) {
	invalid := fmt.Errorf("invalid Content-Range %q", value)

	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, "bytes ") {
		return ranges.Range{}, 0, invalid
	}
	spec, total, ok := strings.Cut(strings.TrimPrefix(value, "bytes "), "/")
	if !ok || total == "*" {
		return ranges.Range{}, 0, invalid
	}
	size, err := strconv.ParseInt(total, 10, 64)
	if err != nil || size < 0 {
		return ranges.Range{}, 0, invalid
	}
	first, last, ok := strings.Cut(spec, "-")
	if !ok {
		return ranges.Range{}, 0, invalid
	}
	start, err := strconv.ParseInt(first, 10, 64)
	if err != nil {
		return ranges.Range{}, 0, invalid
	}
	end, err := strconv.ParseInt(last, 10, 64)
	if err != nil || start < 0 || end < start || end >= size {
		return ranges.Range{}, 0, invalid
	}
	return ranges.Range{Start: start, End: end}, size, nil
}
