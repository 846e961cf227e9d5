//go:build integration

// Package integration exercises archive resolution against real servers.
//
// These tests require Docker. They start an nginx container serving a zip
// archive and a registry:2 container holding an eStargz layer, using
// testcontainers. Set SKIP_DOCKER_TESTS=1 to skip them.
// Run with: go test -tags=integration ./integration/...
package integration
