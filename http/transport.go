package http //nolint:revive // intentional naming for domain clarity

import (
	"log/slog"
	nethttp "net/http"
	"time"
)

// NewLoggingTransport wraps base with a RoundTripper that logs every request
// at debug level. A nil base uses a clone of http.DefaultTransport.
func NewLoggingTransport(base nethttp.RoundTripper, logger *slog.Logger) nethttp.RoundTripper {
	if base == nil {
		base = nethttp.DefaultTransport
		if t, ok := base.(*nethttp.Transport); ok {
			base = t.Clone()
		}
	}
	if logger == nil {
		return base
	}
	return &loggingRoundTripper{base: base, logger: logger}
}

type loggingRoundTripper struct {
	base   nethttp.RoundTripper
	logger *slog.Logger
}

func (rt *loggingRoundTripper) RoundTrip(req *nethttp.Request) (*nethttp.Response, error) {
	start := time.Now()
	resp, err := rt.base.RoundTrip(req)
	attrs := []any{
		"method", req.Method,
		"url", req.URL.Redacted(),
		"elapsed", time.Since(start),
	}
	if rng := req.Header.Get("Range"); rng != "" {
		attrs = append(attrs, "range", rng)
	}
	if err != nil {
		rt.logger.DebugContext(req.Context(), "request failed", append(attrs, "error", err)...)
		return nil, err
	}
	rt.logger.DebugContext(req.Context(), "request", append(attrs, "status", resp.StatusCode)...)
	return resp, nil
}
