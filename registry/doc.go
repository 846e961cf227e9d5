// Package registry locates archive layers in OCI registries.
//
// [Client.Layer] reads an image manifest through ORAS and returns the blob URL
// of the first layer whose index can be listed from a tail window, together
// with an *http.Client that performs registry token authentication. The pair
// plugs directly into a range-fetching resolver, so a layer's table of
// contents can be recovered without pulling the layer.
package registry
