//go:build integration

package integration

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/sync/errgroup"

	"github.com/meigma/toc/internal/testutil"
)

const zipPath = "/dist/release.zip"

// env holds the addresses of the shared containers.
type env struct {
	webURL       string
	registryAddr string
	zip          []byte
}

var (
	envOnce sync.Once
	shared  env
	envErr  error
)

// zipFiles is enough entries that the central directory spans several
// kilobytes.
func zipFiles() []testutil.File {
	files := make([]testutil.File, 0, 300)
	for i := range 300 {
		files = append(files, testutil.File{
			Name:    fmt.Sprintf("pkg/module-%03d/source.go", i),
			Content: bytes.Repeat([]byte(fmt.Sprintf("// file %d\n", i)), 64),
		})
	}
	return files
}

// getEnv returns the shared environment, starting the containers on first use.
// Both containers start concurrently.
func getEnv(tb testing.TB) env {
	tb.Helper()

	if os.Getenv("SKIP_DOCKER_TESTS") == "1" {
		tb.Skip("SKIP_DOCKER_TESTS is set")
	}

	envOnce.Do(func() {
		shared.zip = testutil.BuildZip(tb, zipFiles())

		g, ctx := errgroup.WithContext(context.Background())
		g.Go(func() error {
			url, err := startWebContainer(ctx, shared.zip)
			shared.webURL = url
			return err
		})
		g.Go(func() error {
			addr, err := startRegistryContainer(ctx)
			shared.registryAddr = addr
			return err
		})
		envErr = g.Wait()
	})

	if envErr != nil {
		tb.Fatalf("start containers: %v", envErr)
	}
	return shared
}

// startWebContainer starts nginx serving data at zipPath and returns its base URL.
func startWebContainer(ctx context.Context, data []byte) (string, error) {
	req := testcontainers.ContainerRequest{
		Image:        "nginx:alpine",
		ExposedPorts: []string{"80/tcp"},
		Files: []testcontainers.ContainerFile{{
			Reader:            bytes.NewReader(data),
			ContainerFilePath: "/usr/share/nginx/html" + zipPath,
			FileMode:          0o644,
		}},
		WaitingFor: wait.ForHTTP(zipPath).WithPort("80/tcp").WithStatusCodeMatcher(isOKStatus),
	}
	return startContainer(ctx, req, "80/tcp", "http://")
}

// startRegistryContainer starts a registry:2 container and returns the host:port address.
func startRegistryContainer(ctx context.Context) (string, error) {
	req := testcontainers.ContainerRequest{
		Image:        "registry:2",
		ExposedPorts: []string{"5000/tcp"},
		WaitingFor:   wait.ForHTTP("/v2/").WithPort("5000/tcp").WithStatusCodeMatcher(isOKStatus),
	}
	return startContainer(ctx, req, "5000/tcp", "")
}

// startContainer starts req and returns prefix + host:port for port.
// Cleanup is handled by the testcontainers reaper.
func startContainer(ctx context.Context, req testcontainers.ContainerRequest, port, prefix string) (string, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("start %s: %w", req.Image, err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve %s host: %w", req.Image, err)
	}
	mapped, err := container.MappedPort(ctx, nat.Port(port))
	if err != nil {
		return "", fmt.Errorf("resolve %s port: %w", req.Image, err)
	}
	return fmt.Sprintf("%s%s:%s", prefix, host, mapped.Port()), nil
}

func isOKStatus(status int) bool {
	return status >= 200 && status < 300
}
