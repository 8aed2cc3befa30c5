package stacio

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/robert-malhotra/go-stac-catalog/pkg/stac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadHTTP(t *testing.T) {
	ctx := context.Background()
	payload := strings.Repeat("x", 100*1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/scene.tif" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	o := newTestIO(t)
	dest := filepath.Join(t.TempDir(), "assets", "scene.tif")

	var last int64
	err := o.Download(ctx, srv.URL+"/scene.tif", dest, func(downloaded, _ int64) {
		assert.GreaterOrEqual(t, downloaded, last)
		last = downloaded
	})
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), last)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, string(data))

	missing := filepath.Join(t.TempDir(), "missing.tif")
	err = o.Download(ctx, srv.URL+"/missing.tif", missing, nil)
	assert.ErrorIs(t, err, stac.ErrNotFound)
	assert.NoFileExists(t, missing)
}

func TestDownloadLocalAndS3(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	require.NoError(t, os.WriteFile(src, []byte("local bytes"), 0o644))

	fake := newFakeS3()
	fake.objects["bucket/a/b.bin"] = []byte("s3 bytes")
	o := newTestIO(t, WithS3Client(fake))

	dest := filepath.Join(dir, "out", "copy.bin")
	require.NoError(t, o.Download(ctx, filepath.ToSlash(src), dest, nil))
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "local bytes", string(data))

	dest = filepath.Join(dir, "out", "s3.bin")
	var total int64
	require.NoError(t, o.Download(ctx, "s3://bucket/a/b.bin", dest, func(_, n int64) { total = n }))
	data, err = os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "s3 bytes", string(data))
	assert.Equal(t, int64(len("s3 bytes")), total)

	err = o.Download(ctx, "s3://bucket/none.bin", filepath.Join(dir, "none.bin"), nil)
	assert.ErrorIs(t, err, stac.ErrNotFound)

	err = o.Download(ctx, filepath.ToSlash(filepath.Join(dir, "nope.bin")), filepath.Join(dir, "x.bin"), nil)
	assert.ErrorIs(t, err, stac.ErrNotFound)
}

type failOnClose struct{ *os.File }

func (f failOnClose) Close() error {
	_ = f.File.Close()
	return errors.New("disk full")
}

func TestDownloadReportsCloseError(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	require.NoError(t, os.WriteFile(src, []byte("bytes"), 0o644))

	orig := createFile
	createFile = func(name string) (io.WriteCloser, error) {
		f, err := os.Create(name)
		if err != nil {
			return nil, err
		}
		return failOnClose{f}, nil
	}
	t.Cleanup(func() { createFile = orig })

	dest := filepath.Join(dir, "out", "copy.bin")
	err := newTestIO(t).Download(context.Background(), filepath.ToSlash(src), dest, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoFileExists(t, dest)
}
