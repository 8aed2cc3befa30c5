package stacio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// ProgressFunc reports cumulative bytes downloaded and the expected total,
// which is zero or negative when unknown.
type ProgressFunc func(downloaded, total int64)

// Download copies the asset at src to the local file dest, creating parent
// directories. src may be a local path, file://, http(s):// or s3:// href.
// A partial file is removed on failure.
func (o *IO) Download(ctx context.Context, src, dest string, progress ProgressFunc) (err error) {
	loc, err := parseHref(src)
	if err != nil {
		return err
	}

	var (
		body  io.ReadCloser
		total int64
	)
	switch loc.scheme {
	case schemeFile:
		f, err := os.Open(filepath.FromSlash(loc.path))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return notFound(src, err)
			}
			return transport(src, err)
		}
		if info, err := f.Stat(); err == nil {
			total = info.Size()
		}
		body = f
	case schemeHTTP:
		resp, err := o.send(ctx, http.MethodGet, src, nil, "")
		if err != nil {
			return fmt.Errorf("failed to download asset: %w", err)
		}
		body, total = resp.Body, resp.ContentLength
	case schemeS3:
		out, err := o.openS3(ctx, loc.bucket, loc.key, src)
		if err != nil {
			return fmt.Errorf("failed to download from S3: %w", err)
		}
		body = out.Body
		if out.ContentLength != nil {
			total = *out.ContentLength
		}
	}
	defer body.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}
	out, err := createFile(dest)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close destination file: %w", cerr)
		}
		if err != nil {
			_ = os.Remove(dest)
		}
	}()

	if progress != nil {
		progress(0, total)
	}
	if _, err = copyWithProgress(ctx, out, body, total, progress); err != nil {
		return fmt.Errorf("failed to write asset to file: %w", err)
	}
	o.logger.Debugf("downloaded %s to %s", src, dest)
	return nil
}

var createFile = func(name string) (io.WriteCloser, error) { return os.Create(name) }

func copyWithProgress(ctx context.Context, dst io.Writer, src io.Reader, total int64, progress ProgressFunc) (int64, error) {
	const defaultBufferSize = 32 * 1024
	buf := make([]byte, defaultBufferSize)
	var written int64

	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		n, readErr := src.Read(buf)
		if n > 0 {
			w, writeErr := dst.Write(buf[:n])
			if writeErr != nil {
				return written, writeErr
			}
			if w != n {
				return written, io.ErrShortWrite
			}
			written += int64(w)
			if progress != nil {
				progress(written, total)
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return written, nil
			}
			return written, readErr
		}
	}
}
