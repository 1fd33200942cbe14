package backup

import (
	"context"
	"github.com/pkg/errors"
	"github.com/prhdev222/med-file-case/internal/types"
	"github.com/prhdev222/med-file-case/logger"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"io"
	"os"
	"sort"
	"strings"
)

type (
	Catalog interface {
		List(ctx context.Context) ([]*types.Artifact, error)
		Get(ctx context.Context, kind types.ArtifactKind, name string) (*types.Artifact, error)
		Open(ctx context.Context, kind types.ArtifactKind, name string) (*types.File, error)
		Delete(ctx context.Context, kind types.ArtifactKind, name string) error
		Usage(ctx context.Context) (*types.DiskUsage, error)
	}

	catalog struct {
		layout Layout
		locks  *Locks
	}
)

func NewCatalog(opts Options) Catalog {
	opts = opts.withDefaults()
	return &catalog{
		layout: Layout{Root: opts.Root},
		locks:  opts.Locks,
	}
}

// List returns every complete artifact, newest first. Partial artifacts and
// foreign files in the backup root are left out.
func (c *catalog) List(ctx context.Context) ([]*types.Artifact, error) {
	var all []*types.Artifact
	for _, kind := range Kinds {
		dir := c.layout.Dir(kind)
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, newError(KindIOFailure, "list", dir, err)
		}

		artifacts := lo.FilterMap(entries, func(entry os.DirEntry, _ int) (*types.Artifact, bool) {
			if strings.HasPrefix(entry.Name(), PartialPrefix) {
				return nil, false
			}
			if (kind == types.ArtifactKindUploads) != entry.IsDir() {
				return nil, false
			}
			artifact, err := describe(kind, entry.Name(), c.layout.Path(kind, entry.Name()))
			if err != nil {
				if !errors.Is(err, errInvalidName) {
					logger.Warn("skipping unreadable artifact",
						zap.String("artifact", entry.Name()),
						zap.Error(err))
				}
				return nil, false
			}
			return artifact, true
		})
		all = append(all, artifacts...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].Name > all[j].Name
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return all, nil
}

func (c *catalog) Get(ctx context.Context, kind types.ArtifactKind, name string) (*types.Artifact, error) {
	const op = "get artifact"
	if err := validateRef(op, kind, name); err != nil {
		return nil, err
	}

	path := c.layout.Path(kind, name)
	info, err := os.Lstat(path)
	if err != nil || (kind == types.ArtifactKindUploads) != info.IsDir() {
		return nil, newError(KindNotFound, op, path, errors.Errorf("%s artifact %s does not exist", kind, name))
	}

	artifact, err := describe(kind, name, path)
	if err != nil {
		return nil, newError(KindIOFailure, op, path, err)
	}
	return artifact, nil
}

// Open returns a stream of the artifact. Database artifacts are streamed as
// is; uploads trees are archived on the fly as tar.gz, so their size is
// unknown.
func (c *catalog) Open(ctx context.Context, kind types.ArtifactKind, name string) (*types.File, error) {
	const op = "open artifact"
	artifact, err := c.Get(ctx, kind, name)
	if err != nil {
		return nil, err
	}

	if kind == types.ArtifactKindDatabase {
		f, err := os.Open(artifact.Path)
		if err != nil {
			return nil, newError(KindIOFailure, op, artifact.Path, err)
		}
		info, err := f.Stat()
		if err != nil {
			_ = f.Close()
			return nil, newError(KindIOFailure, op, artifact.Path, err)
		}
		return &types.File{
			Content: f,
			Stat: types.FileStat{
				Size:        info.Size(),
				Name:        name,
				Mode:        info.Mode(),
				ModTime:     info.ModTime(),
				ContentType: "application/vnd.sqlite3",
			},
		}, nil
	}

	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(writeTarGz(ctx, pw, artifact.Path, name))
	}()

	return &types.File{
		Content: pr,
		Stat: types.FileStat{
			Size:        -1,
			Name:        name + ".tar.gz",
			ModTime:     artifact.CreatedAt,
			ContentType: "application/gzip",
		},
	}, nil
}

// Delete removes one artifact. It waits for any snapshot or restore of the
// same kind to finish first.
func (c *catalog) Delete(ctx context.Context, kind types.ArtifactKind, name string) error {
	const op = "delete artifact"
	if err := validateRef(op, kind, name); err != nil {
		return err
	}

	lock := c.locks.For(kind)
	lock.Lock()
	defer lock.Unlock()

	path := c.layout.Path(kind, name)
	info, err := os.Lstat(path)
	if err != nil || (kind == types.ArtifactKindUploads) != info.IsDir() {
		return newError(KindNotFound, op, path, errors.Errorf("%s artifact %s does not exist", kind, name))
	}

	if info.IsDir() {
		err = os.RemoveAll(path)
	} else {
		err = os.Remove(path)
	}
	if err != nil {
		return newError(KindIOFailure, op, path, err)
	}

	logger.Info("artifact deleted",
		zap.String("kind", kind.String()),
		zap.String("artifact", name))
	return nil
}

func (c *catalog) Usage(ctx context.Context) (*types.DiskUsage, error) {
	usage, err := DiskUsage(ctx, c.layout.Root)
	if err != nil {
		return nil, newError(KindIOFailure, "usage", c.layout.Root, err)
	}
	return usage, nil
}
