package backup

import (
	"context"
	"github.com/pkg/errors"
	"github.com/prhdev222/med-file-case/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

const copyWorkers = 4

type (
	treeStats struct {
		Files  int
		Bytes  int64
		Failed int
	}

	// sourceError marks a failure reading the source side of a copy. In a
	// lenient tree copy these are counted and skipped; anything else aborts.
	sourceError struct {
		path string
		err  error
	}

	sourceReader struct {
		path string
		r    io.Reader
	}

	treeCopier struct {
		strict  bool
		group   *errgroup.Group
		files   atomic.Int64
		bytes   atomic.Int64
		failed  atomic.Int64
		visited sync.Map
	}
)

func (e *sourceError) Error() string {
	return "read " + e.path + ": " + e.err.Error()
}

func (e *sourceError) Unwrap() error {
	return e.err
}

func isSourceError(err error) bool {
	var se *sourceError
	return errors.As(err, &se)
}

func (s sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && err != io.EOF {
		err = &sourceError{path: s.path, err: err}
	}
	return n, err
}

// copyFile copies src to a new file dst and fsyncs it. dst must not exist.
func copyFile(src, dst string, perm os.FileMode, modTime time.Time) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, &sourceError{path: src, err: err}
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return 0, errors.Wrap(err, "failed to create "+dst)
	}

	n, err := io.Copy(out, sourceReader{path: src, r: in})
	if err == nil {
		err = out.Sync()
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dst)
		if isSourceError(err) {
			return 0, err
		}
		return 0, errors.Wrap(err, "failed to write "+dst)
	}

	if !modTime.IsZero() {
		_ = os.Chtimes(dst, modTime, modTime)
	}
	return n, nil
}

// copyTree copies the directory src into dst, following symlinks. A strict
// copy fails on the first unreadable entry; a lenient one logs and counts
// such entries and only fails when they are not outnumbered by the files
// that were copied. Failures writing dst always abort.
func copyTree(ctx context.Context, src, dst string, strict bool) (treeStats, error) {
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(copyWorkers)

	c := &treeCopier{strict: strict, group: group}
	walkErr := c.walk(gctx, src, dst)
	waitErr := group.Wait()

	stats := treeStats{
		Files:  int(c.files.Load()),
		Bytes:  c.bytes.Load(),
		Failed: int(c.failed.Load()),
	}

	for _, err := range []error{waitErr, walkErr} {
		if err != nil {
			return stats, err
		}
	}
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	if stats.Failed > 0 && stats.Files <= stats.Failed {
		return stats, errors.Errorf("%d of %d entries could not be read", stats.Failed, stats.Files+stats.Failed)
	}
	return stats, nil
}

func (c *treeCopier) walk(ctx context.Context, srcDir, dstDir string) error {
	if real, err := filepath.EvalSymlinks(srcDir); err == nil {
		if _, seen := c.visited.LoadOrStore(real, true); seen {
			logger.Warn("skipping directory loop", zap.String("path", srcDir))
			return nil
		}
	}

	entries, err := os.ReadDir(srcDir)
	if err != nil {
		if ferr := c.sourceFailure(srcDir, err); ferr != nil {
			return ferr
		}
	}

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create "+dstDir)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		src := filepath.Join(srcDir, entry.Name())
		dst := filepath.Join(dstDir, entry.Name())

		info, err := os.Stat(src)
		if err != nil {
			if ferr := c.sourceFailure(src, err); ferr != nil {
				return ferr
			}
			continue
		}

		switch {
		case info.IsDir():
			if err := c.walk(ctx, src, dst); err != nil {
				return err
			}
		case info.Mode().IsRegular():
			c.group.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				n, err := copyFile(src, dst, info.Mode().Perm(), info.ModTime())
				if err != nil {
					if isSourceError(err) {
						return c.sourceFailure(src, err)
					}
					return err
				}
				c.files.Add(1)
				c.bytes.Add(n)
				return nil
			})
		default:
			logger.Warn("skipping special file", zap.String("path", src))
		}
	}
	return nil
}

func (c *treeCopier) sourceFailure(path string, err error) error {
	if !isSourceError(err) {
		err = &sourceError{path: path, err: err}
	}
	if c.strict {
		return err
	}
	c.failed.Add(1)
	logger.Warn("failed to copy entry",
		zap.String("path", path),
		zap.Error(err))
	return nil
}

// replaceFile copies src next to dst and renames it over dst.
func replaceFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return errors.Wrap(err, "failed to stat "+src)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.Wrap(err, "failed to create live directory")
	}

	tmp := dst + ".restoring"
	_ = os.Remove(tmp)
	if _, err := copyFile(src, tmp, info.Mode().Perm()|0o200, time.Time{}); err != nil {
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "failed to move restored file into place")
	}
	return nil
}

func syncFile(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func treeSize(root string) (files int, size int64, err error) {
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			files++
			size += info.Size()
		}
		return nil
	})
	return files, size, err
}
