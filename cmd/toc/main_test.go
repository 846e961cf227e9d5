package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/toc/internal/config"
	"github.com/meigma/toc/internal/testutil"
)

// testEnv points the config loader at an empty file so a user config on the
// test machine has no effect.
func testEnv(t *testing.T, extra map[string]string) func(string) (string, bool) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	env := map[string]string{config.EnvConfig: path}
	for k, v := range extra {
		env[k] = v
	}
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func runCLI(t *testing.T, env map[string]string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr, testEnv(t, env))
	return code, stdout.String(), stderr.String()
}

var cliFiles = []testutil.File{
	{Name: "LICENSE", Content: []byte("MIT")},
	{Name: "lib/", Content: nil},
	{Name: "lib/util.go", Content: []byte("package lib")},
}

func TestRunHTTP(t *testing.T) {
	t.Parallel()

	srv := testutil.NewRangeServer(t, testutil.BuildZip(t, cliFiles), "application/zip")

	code, stdout, stderr := runCLI(t, map[string]string{config.EnvChunkSize: "64"}, srv.URL+"/dist.zip")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "LICENSE\nlib/\nlib/util.go\n", stdout)
	assert.NotEmpty(t, srv.RangeRequests())
}

func TestRunHTTPNotAnArchive(t *testing.T) {
	t.Parallel()

	srv := testutil.NewRangeServer(t, []byte("<html></html>"), "text/html")

	code, stdout, stderr := runCLI(t, nil, srv.URL)
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "not an archive")
	assert.Empty(t, srv.RangeRequests())
}

func TestRunLocal(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "src.tar.gz")
	require.NoError(t, os.WriteFile(path, testutil.BuildTarGzip(t, cliFiles), 0o644))

	code, stdout, stderr := runCLI(t, nil, path)
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, strings.Join(testutil.Names(cliFiles), "\n")+"\n", stdout)
}

func TestRunLocalMissing(t *testing.T) {
	t.Parallel()

	code, _, stderr := runCLI(t, nil, filepath.Join(t.TempDir(), "missing.zip"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "no such file")
}

func TestRunUsage(t *testing.T) {
	t.Parallel()

	code, _, stderr := runCLI(t, nil)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "usage: toc")

	code, _, _ = runCLI(t, nil, "a", "b")
	assert.Equal(t, 2, code)

}

func TestRunRejectsTailFlag(t *testing.T) {
	t.Parallel()

	// The tail window is set through TOC_TAIL_SIZE or tail_size only.
	code, stdout, stderr := runCLI(t, nil, "-tail", "1k", "a.zip")
	assert.Equal(t, 2, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "flag provided but not defined: -tail")
}

func TestRunVersion(t *testing.T) {
	t.Parallel()

	code, stdout, _ := runCLI(t, nil, "-version")
	assert.Equal(t, 0, code)
	assert.Equal(t, version+"\n", stdout)
}

func TestRunBadConfig(t *testing.T) {
	t.Parallel()

	code, _, stderr := runCLI(t, map[string]string{config.EnvChunkSize: "0"}, "https://example.invalid/a.zip")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "chunk size")
}

func TestIsHTTP(t *testing.T) {
	t.Parallel()

	assert.True(t, isHTTP("http://example.com/a.zip"))
	assert.True(t, isHTTP("https://example.com"))
	assert.False(t, isHTTP("oci://ghcr.io/a/b"))
	assert.False(t, isHTTP("./archive.zip"))
	assert.False(t, isHTTP("C:\\archives\\a.zip"))
	assert.False(t, isHTTP("http://"))
}
