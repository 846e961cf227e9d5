package registry

import (
	"context"
	"log/slog"
	"net/http"

	"oras.land/oras-go/v2/registry"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"
	"oras.land/oras-go/v2/registry/remote/retry"

	tochttp "github.com/meigma/toc/http"
)

// DefaultUserAgent is sent to registries when none is configured.
const DefaultUserAgent = tochttp.DefaultUserAgent

// Client reads manifests from OCI registries.
type Client struct {
	plainHTTP  bool
	userAgent  string
	credStore  credentials.Store
	authClient *auth.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithPlainHTTP enables plain HTTP (no TLS) for registries.
// This is useful for local development registries.
func WithPlainHTTP(enabled bool) Option {
	return func(c *Client) {
		c.plainHTTP = enabled
	}
}

// WithDockerConfig enables reading credentials from ~/.docker/config.json.
// If the docker config cannot be loaded the client falls back to anonymous
// access.
func WithDockerConfig() Option {
	return func(c *Client) {
		store, err := dockerStore()
		if err != nil {
			c.log().Debug("docker config unavailable", "error", err)
			return
		}
		c.credStore = store
	}
}

// WithStaticCredentials sets username/password credentials for one registry
// host, e.g. "ghcr.io".
func WithStaticCredentials(registry, username, password string) Option {
	return func(c *Client) {
		c.credStore = newStaticStore(registry, auth.Credential{Username: username, Password: password})
	}
}

// WithStaticToken sets a bearer token for one registry host.
func WithStaticToken(registry, token string) Option {
	return func(c *Client) {
		c.credStore = newStaticStore(registry, auth.Credential{AccessToken: token})
	}
}

// WithUserAgent sets the User-Agent header for requests.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLogger sets the logger for registry requests.
// If nil, a discard logger is used (default behavior).
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client with the given options.
func New(opts ...Option) *Client {
	c := &Client{userAgent: DefaultUserAgent}
	for _, opt := range opts {
		opt(c)
	}

	// One auth client is shared so tokens are reused across requests.
	c.authClient = &auth.Client{
		Client: &http.Client{
			Transport: retry.NewTransport(tochttp.NewLoggingTransport(nil, c.logger)),
		},
		Cache: auth.NewCache(),
		Credential: func(ctx context.Context, hostport string) (auth.Credential, error) {
			if c.credStore == nil {
				return auth.EmptyCredential, nil
			}
			return c.credStore.Get(ctx, hostport)
		},
		Header: http.Header{
			"User-Agent": []string{c.userAgent},
		},
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

// repository creates a Repository for ref using the shared auth client.
func (c *Client) repository(ref registry.Reference) *remote.Repository {
	return &remote.Repository{
		Client:    c.authClient,
		Reference: ref,
		PlainHTTP: c.plainHTTP,
	}
}

// authTransport adds repository pull scope to each request and delegates to
// the shared auth client, which performs the token exchange.
type authTransport struct {
	client *auth.Client
	ref    registry.Reference
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := auth.AppendRepositoryScope(req.Context(), t.ref, auth.ActionPull)
	return t.client.Do(req.Clone(ctx))
}

// httpClient returns an HTTP client authorized to pull from ref's repository.
func (c *Client) httpClient(ref registry.Reference) *http.Client {
	return &http.Client{Transport: &authTransport{client: c.authClient, ref: ref}}
}
