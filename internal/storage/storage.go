package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

var (
	ErrObjectNotFound = errors.New("storage object not found")
	ErrInvalidPath    = errors.New("invalid storage path")
)

const healthCheckObject = "healthcheck.txt"

// Bucket is the owned object storage. Object paths are slash separated and
// relative to the bucket root.
type Bucket struct {
	fs afero.Fs
}

func New(fs afero.Fs) *Bucket {
	return &Bucket{fs: fs}
}

// NewOSBucket roots the bucket at dir on the local disk.
func NewOSBucket(dir string) (*Bucket, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage.NewOSBucket: %w", err)
	}
	return New(afero.NewBasePathFs(afero.NewOsFs(), dir)), nil
}

func NewMemBucket() *Bucket {
	return New(afero.NewMemMapFs())
}

func cleanPath(p string) (string, error) {
	cleaned := path.Clean("/" + p)
	if cleaned == "/" || strings.Contains(p, "..") {
		return "", ErrInvalidPath
	}
	return strings.TrimPrefix(cleaned, "/"), nil
}

// Write streams r into the object at p and returns the bytes written. The
// object only appears once the copy has completed.
func (b *Bucket) Write(ctx context.Context, p string, r io.Reader) (int64, error) {
	const op = "storage.Write"

	name, err := cleanPath(p)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if err := b.fs.MkdirAll(path.Dir(name), 0o755); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	tmp := name + ".part-" + uuid.NewString()
	f, err := b.fs.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	n, copyErr := io.Copy(f, contextReader{ctx: ctx, r: r})
	closeErr := f.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		_ = b.fs.Remove(tmp)
		return 0, fmt.Errorf("%s: %w", op, copyErr)
	}

	if err := b.fs.Rename(tmp, name); err != nil {
		_ = b.fs.Remove(tmp)
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

func (b *Bucket) Size(ctx context.Context, p string) (int64, error) {
	const op = "storage.Size"

	if err := ctx.Err(); err != nil {
		return 0, err
	}
	name, err := cleanPath(p)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	info, err := b.fs.Stat(name)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%s: %w", op, ErrObjectNotFound)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return info.Size(), nil
}

func (b *Bucket) Exists(ctx context.Context, p string) (bool, error) {
	_, err := b.Size(ctx, p)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrObjectNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (b *Bucket) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	const op = "storage.Open"

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, err := cleanPath(p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	f, err := b.fs.Open(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", op, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return f, nil
}

// Delete removes the object at p. A missing object is not an error.
func (b *Bucket) Delete(ctx context.Context, p string) error {
	const op = "storage.Delete"

	if err := ctx.Err(); err != nil {
		return err
	}
	name, err := cleanPath(p)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := b.fs.Remove(name); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// HealthCheck writes a small probe object.
func (b *Bucket) HealthCheck(ctx context.Context) error {
	_, err := b.Write(ctx, healthCheckObject, strings.NewReader("ok"))
	return err
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
