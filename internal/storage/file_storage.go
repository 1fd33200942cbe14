package storage

import (
	"context"
	"github.com/pkg/errors"
	"github.com/prhdev222/med-file-case/internal/types"
	"io"
	"os"
	"path/filepath"
)

type fileStorage struct {
	root string
}

// NewFileStorage keeps copies under root, typically a mounted network share.
func NewFileStorage(root string) Storage {
	return &fileStorage{root: root}
}

// Save writes to a temporary name next to the target and renames it, so a
// half written copy never carries the artifact's name.
func (f fileStorage) Save(ctx context.Context, location string, file types.File) error {
	target := filepath.Join(f.root, filepath.FromSlash(location))
	if err := os.MkdirAll(filepath.Dir(target), 0o700); err != nil {
		return errors.Wrap(err, "failed to create offsite directory")
	}

	tmp := target + ".tmp"
	fi, err := os.Create(tmp)
	if err != nil {
		return errors.Wrap(err, "failed to create "+tmp)
	}

	_, err = io.Copy(fi, &contextReader{ctx: ctx, r: file.Content})
	if err == nil {
		err = fi.Sync()
	}
	if cerr := fi.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "failed to write "+location)
	}

	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "failed to save "+location)
	}
	return nil
}

func (f fileStorage) Ping(ctx context.Context) error {
	info, err := os.Stat(f.root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return errors.New(f.root + " is not a directory")
	}
	return nil
}

func (f fileStorage) Type() Type {
	return TypeFile
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
