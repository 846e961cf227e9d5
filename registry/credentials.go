package registry

import (
	"context"
	"errors"
	"strings"

	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"
)

// staticStore implements credentials.Store for a single registry.
type staticStore struct {
	registry string
	cred     auth.Credential
}

func newStaticStore(registry string, cred auth.Credential) credentials.Store {
	return &staticStore{registry: normalizeServerAddress(registry), cred: cred}
}

// Get returns the credential when serverAddress names the configured registry.
func (s *staticStore) Get(_ context.Context, serverAddress string) (auth.Credential, error) {
	if normalizeServerAddress(serverAddress) == s.registry {
		return s.cred, nil
	}
	return auth.EmptyCredential, nil
}

func (s *staticStore) Put(context.Context, string, auth.Credential) error {
	return errors.New("registry: static credential store is read-only")
}

func (s *staticStore) Delete(context.Context, string) error {
	return errors.New("registry: static credential store is read-only")
}

// dockerStore reads ~/.docker/config.json and its credential helpers.
func dockerStore() (credentials.Store, error) {
	return credentials.NewStoreFromDocker(credentials.StoreOptions{})
}

// normalizeServerAddress reduces an address to host[:port], dropping any
// scheme and path.
func normalizeServerAddress(addr string) string {
	addr = strings.TrimPrefix(addr, "http://")
	addr = strings.TrimPrefix(addr, "https://")
	addr, _, _ = strings.Cut(addr, "/")
	return addr
}
