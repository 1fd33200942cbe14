package backup

import (
	"archive/tar"
	"context"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"io"
	"os"
	"path/filepath"
)

// writeTarGz streams the tree at root as a gzip compressed tar archive with
// every entry placed under prefix/.
func writeTarGz(ctx context.Context, w io.Writer, root, prefix string) error {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.IsDir() && !info.Mode().IsRegular() {
			return nil
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(filepath.Join(prefix, rel))
		if info.IsDir() {
			header.Name += "/"
		}

		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		return errors.Wrap(err, "failed to archive "+root)
	}

	if err := tw.Close(); err != nil {
		return errors.Wrap(err, "failed to finish tar stream")
	}
	if err := gz.Close(); err != nil {
		return errors.Wrap(err, "failed to finish gzip stream")
	}
	return nil
}
