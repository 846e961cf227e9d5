package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/containerd/stargz-snapshotter/estargz"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2/registry"

	"github.com/meigma/toc/format"
	"github.com/meigma/toc/internal/sizing"
)

// Scheme prefixes references that name OCI layers, e.g. "oci://ghcr.io/org/app:v1".
const Scheme = "oci://"

// maxManifestSize bounds how much of a manifest response is read.
const maxManifestSize = 4 << 20

// mediaTypeDockerManifest is the Docker image manifest v2 schema 2 media type.
const mediaTypeDockerManifest = "application/vnd.docker.distribution.manifest.v2+json"

var errManifestTooLarge = errors.New("registry: manifest too large")

// Layer is a registry blob selected from an image manifest.
type Layer struct {
	// Reference is the parsed image reference.
	Reference registry.Reference

	// Descriptor describes the selected layer.
	Descriptor ocispec.Descriptor

	// URL is the blob endpoint of the layer.
	URL string

	// Client performs authenticated requests against URL.
	Client *http.Client
}

// Kind returns the archive kind declared by the layer's media type.
func (l *Layer) Kind() format.Kind {
	return format.KindFromMediaType(l.Descriptor.MediaType)
}

// AcceptFunc decides whether a layer should be selected.
type AcceptFunc func(ocispec.Descriptor) bool

// TailIndexed accepts zip layers and gzip layers annotated with an eStargz
// table of contents digest.
func TailIndexed(desc ocispec.Descriptor) bool {
	switch format.KindFromMediaType(desc.MediaType) {
	case format.KindZip:
		return true
	case format.KindEStargz:
		_, ok := desc.Annotations[estargz.TOCJSONDigestAnnotation]
		return ok
	default:
		return false
	}
}

// IsReference reports whether target carries the oci:// scheme.
func IsReference(target string) bool {
	return strings.HasPrefix(target, Scheme)
}

// ParseReference parses ref, with or without the oci:// scheme. A missing tag
// defaults to "latest".
func ParseReference(ref string) (registry.Reference, error) {
	r, err := registry.ParseReference(strings.TrimPrefix(ref, Scheme))
	if err != nil {
		return registry.Reference{}, fmt.Errorf("%w: %w", ErrInvalidReference, err)
	}
	if r.Reference == "" {
		r.Reference = "latest"
	}
	return r, nil
}

// Layer fetches the image manifest for ref and returns the first layer
// accepted by accept. A nil accept uses TailIndexed.
func (c *Client) Layer(ctx context.Context, ref string, accept AcceptFunc) (*Layer, error) {
	parsed, err := ParseReference(ref)
	if err != nil {
		return nil, err
	}
	if accept == nil {
		accept = TailIndexed
	}

	manifest, err := c.fetchManifest(ctx, parsed)
	if err != nil {
		return nil, err
	}

	for _, desc := range manifest.Layers {
		if !accept(desc) {
			continue
		}
		c.log().Debug("selected layer", "ref", parsed.String(), "digest", desc.Digest,
			"media_type", desc.MediaType, "size", desc.Size)
		return &Layer{
			Reference:  parsed,
			Descriptor: desc,
			URL:        c.blobURL(parsed, desc),
			Client:     c.httpClient(parsed),
		}, nil
	}
	return nil, fmt.Errorf("%w: %s has %d layers", ErrNoMatchingLayer, parsed, len(manifest.Layers))
}

func (c *Client) fetchManifest(ctx context.Context, ref registry.Reference) (*ocispec.Manifest, error) {
	repo := c.repository(ref)
	desc, rc, err := repo.FetchReference(ctx, ref.Reference)
	if err != nil {
		return nil, mapError(err)
	}
	defer rc.Close()

	if mt := desc.MediaType; mt != ocispec.MediaTypeImageManifest && mt != mediaTypeDockerManifest {
		return nil, fmt.Errorf("%w: %s is %s", ErrUnsupportedManifest, ref, mt)
	}

	raw, err := sizing.ReadAllWithLimit(rc, maxManifestSize, errManifestTooLarge)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", ref, err)
	}
	var manifest ocispec.Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrUnsupportedManifest, ref, err)
	}
	return &manifest, nil
}

// blobURL builds <scheme>://<registry>/v2/<repository>/blobs/<digest>.
func (c *Client) blobURL(ref registry.Reference, desc ocispec.Descriptor) string {
	scheme := "https"
	if c.plainHTTP {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s/v2/%s/blobs/%s", scheme, ref.Host(), ref.Repository, desc.Digest)
}
