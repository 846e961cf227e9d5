package testutil

import (
	"archive/tar"
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/containerd/stargz-snapshotter/estargz"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
)

// File is an archive member used by the builders. Names ending in "/" are
// written as directories.
type File struct {
	Name    string
	Content []byte
}

// Names returns the names of files in order.
func Names(files []File) []string {
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	return names
}

// BuildZip returns a zip archive containing files in order, stored without
// compression.
func BuildZip(tb testing.TB, files []File) []byte {
	tb.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: f.Name, Method: zip.Store})
		require.NoError(tb, err)
		if !strings.HasSuffix(f.Name, "/") {
			_, err = w.Write(f.Content)
			require.NoError(tb, err)
		}
	}
	require.NoError(tb, zw.Close())
	return buf.Bytes()
}

// BuildTar returns an uncompressed tar archive containing files in order.
func BuildTar(tb testing.TB, files []File) []byte {
	tb.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	modTime := time.Unix(1700000000, 0)
	for _, f := range files {
		hdr := &tar.Header{Name: f.Name, Mode: 0o644, ModTime: modTime, Format: tar.FormatPAX}
		if strings.HasSuffix(f.Name, "/") {
			hdr.Typeflag = tar.TypeDir
			hdr.Mode = 0o755
		} else {
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(f.Content))
		}
		require.NoError(tb, tw.WriteHeader(hdr))
		if hdr.Typeflag == tar.TypeReg {
			_, err := tw.Write(f.Content)
			require.NoError(tb, err)
		}
	}
	require.NoError(tb, tw.Close())
	return buf.Bytes()
}

// BuildTarGzip returns a gzip-compressed tar archive containing files in order.
func BuildTarGzip(tb testing.TB, files []File) []byte {
	tb.Helper()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(BuildTar(tb, files))
	require.NoError(tb, err)
	require.NoError(tb, zw.Close())
	return buf.Bytes()
}

// BuildTarZstd returns a zstd-compressed tar archive containing files in order.
func BuildTarZstd(tb testing.TB, files []File) []byte {
	tb.Helper()

	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	require.NoError(tb, err)
	_, err = zw.Write(BuildTar(tb, files))
	require.NoError(tb, err)
	require.NoError(tb, zw.Close())
	return buf.Bytes()
}

// BuildEStargz returns an eStargz blob built from a tar of files.
func BuildEStargz(tb testing.TB, files []File) []byte {
	tb.Helper()

	raw := BuildTar(tb, files)
	blob, err := estargz.Build(io.NewSectionReader(bytes.NewReader(raw), 0, int64(len(raw))))
	require.NoError(tb, err)
	defer blob.Close()

	data, err := io.ReadAll(blob)
	require.NoError(tb, err)
	return data
}
