package backup

import (
	"context"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/prhdev222/med-file-case/internal/types"
	"github.com/prhdev222/med-file-case/logger"
	"go.uber.org/zap"
	"os"
	"time"
)

type (
	// DatabaseSource produces consistent copies of the live database.
	DatabaseSource interface {
		Path() string
		SnapshotTo(ctx context.Context, dst string) error
	}

	// Verifier checks a database artifact before it is restored.
	Verifier func(ctx context.Context, path string) error

	Options struct {
		Root           string
		Database       DatabaseSource
		UploadsDir     string
		UploadsTimeout time.Duration
		Locks          *Locks
		Clock          clockwork.Clock
		Verify         Verifier
	}

	Snapshotter interface {
		SnapshotDatabase(ctx context.Context) (*types.Artifact, error)
		SnapshotUploads(ctx context.Context) (*types.Artifact, error)
		Run(ctx context.Context, sel types.Selection) types.BackupOutcome
	}

	snapshotter struct {
		layout         Layout
		source         DatabaseSource
		uploadsDir     string
		uploadsTimeout time.Duration
		locks          *Locks
		clock          clockwork.Clock
	}
)

func (o Options) withDefaults() Options {
	if o.Locks == nil {
		o.Locks = &Locks{}
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	return o
}

func NewSnapshotter(opts Options) Snapshotter {
	return newSnapshotter(opts.withDefaults())
}

func newSnapshotter(opts Options) *snapshotter {
	return &snapshotter{
		layout:         Layout{Root: opts.Root},
		source:         opts.Database,
		uploadsDir:     opts.UploadsDir,
		uploadsTimeout: opts.UploadsTimeout,
		locks:          opts.Locks,
		clock:          opts.Clock,
	}
}

func (s *snapshotter) SnapshotDatabase(ctx context.Context) (*types.Artifact, error) {
	lock := s.locks.For(types.ArtifactKindDatabase)
	lock.Lock()
	defer lock.Unlock()

	return s.snapshotDatabase(ctx, false)
}

func (s *snapshotter) SnapshotUploads(ctx context.Context) (*types.Artifact, error) {
	lock := s.locks.For(types.ArtifactKindUploads)
	lock.Lock()
	defer lock.Unlock()

	return s.snapshotUploads(ctx, false, false)
}

// Run snapshots the selected live paths, database first. Each half is
// attempted regardless of how the other one went.
func (s *snapshotter) Run(ctx context.Context, sel types.Selection) types.BackupOutcome {
	logger.Info("backup started",
		zap.Bool("database", sel.Database),
		zap.Bool("uploads", sel.Uploads))

	var outcome types.BackupOutcome
	if sel.Database {
		artifact, err := s.SnapshotDatabase(ctx)
		if err != nil {
			outcome.DatabaseError = err.Error()
		} else {
			outcome.DatabaseOK = true
			outcome.Database = artifact
		}
	}

	if sel.Uploads {
		artifact, err := s.SnapshotUploads(ctx)
		if err != nil {
			outcome.UploadsError = err.Error()
		} else {
			outcome.UploadsOK = true
			outcome.Uploads = artifact
		}
	}

	fields := []zap.Field{
		zap.Bool("database_ok", outcome.DatabaseOK),
		zap.Bool("uploads_ok", outcome.UploadsOK),
	}
	switch {
	case outcome.Failed(sel):
		logger.Warn("backup failed", fields...)
	case (sel.Database && !outcome.DatabaseOK) || (sel.Uploads && !outcome.UploadsOK):
		logger.Warn("backup partially failed", fields...)
	default:
		logger.Info("backup completed", fields...)
	}
	return outcome
}

// snapshotDatabase expects the database lock to be held.
func (s *snapshotter) snapshotDatabase(ctx context.Context, safety bool) (*types.Artifact, error) {
	const op = "snapshot database"
	kind := types.ArtifactKindDatabase
	live := s.source.Path()

	info, err := os.Stat(live)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Error("live database not found", zap.String("path", live))
			return nil, newError(KindSourceMissing, op, live, err)
		}
		return nil, newError(KindIOFailure, op, live, err)
	}
	if !info.Mode().IsRegular() {
		return nil, newError(KindSourceMissing, op, live, errors.New("not a regular file"))
	}

	dir := s.layout.Dir(kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, newError(KindIOFailure, op, dir, err)
	}
	if err := ensureFreeSpace(ctx, dir, info.Size()); err != nil {
		return nil, newError(KindIOFailure, op, dir, err)
	}

	name := s.layout.nextName(kind, safety, s.clock.Now())
	final := s.layout.Path(kind, name)
	partial := s.layout.Path(kind, PartialPrefix+name)

	if err := s.source.SnapshotTo(ctx, partial); err != nil {
		_ = os.Remove(partial)
		logger.Error("database snapshot failed",
			zap.String("artifact", name),
			zap.Error(err))
		if _, statErr := os.Stat(live); os.IsNotExist(statErr) {
			return nil, newError(KindSourceMissing, op, live, err)
		}
		return nil, newError(KindIOFailure, op, final, err)
	}

	if err := syncFile(partial); err != nil {
		_ = os.Remove(partial)
		return nil, newError(KindIOFailure, op, final, err)
	}
	if err := os.Rename(partial, final); err != nil {
		_ = os.Remove(partial)
		return nil, newError(KindIOFailure, op, final, err)
	}

	artifact, err := describe(kind, name, final)
	if err != nil {
		return nil, newError(KindIOFailure, op, final, err)
	}

	logger.Info("database snapshot written",
		zap.String("artifact", name),
		zap.String("path", final),
		zap.Int64("size", artifact.Size))
	return artifact, nil
}

// snapshotUploads expects the uploads lock to be held.
func (s *snapshotter) snapshotUploads(ctx context.Context, safety, strict bool) (*types.Artifact, error) {
	const op = "snapshot uploads"
	kind := types.ArtifactKindUploads
	live := s.uploadsDir

	info, err := os.Stat(live)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Error("live uploads directory not found", zap.String("path", live))
			return nil, newError(KindSourceMissing, op, live, err)
		}
		return nil, newError(KindIOFailure, op, live, err)
	}
	if !info.IsDir() {
		return nil, newError(KindSourceMissing, op, live, errors.New("not a directory"))
	}

	dir := s.layout.Dir(kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, newError(KindIOFailure, op, dir, err)
	}

	name := s.layout.nextName(kind, safety, s.clock.Now())
	final := s.layout.Path(kind, name)
	partial := s.layout.Path(kind, PartialPrefix+name)

	if s.uploadsTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.uploadsTimeout)
		defer cancel()
	}

	stats, err := copyTree(ctx, live, partial, strict)
	if err != nil {
		_ = os.RemoveAll(partial)
		if errors.Is(err, context.DeadlineExceeded) {
			err = errors.Wrapf(err, "uploads copy exceeded %s", s.uploadsTimeout)
		}
		logger.Error("uploads snapshot failed",
			zap.String("artifact", name),
			zap.Int("copied", stats.Files),
			zap.Int("failed", stats.Failed),
			zap.Error(err))
		return nil, newError(KindIOFailure, op, final, err)
	}

	if err := os.Rename(partial, final); err != nil {
		_ = os.RemoveAll(partial)
		return nil, newError(KindIOFailure, op, final, err)
	}

	created, _, _ := ParseName(kind, name)
	artifact := &types.Artifact{
		Kind:       kind,
		Name:       name,
		Path:       final,
		CreatedAt:  created,
		Size:       stats.Bytes,
		FileCount:  stats.Files,
		SafetyCopy: safety,
	}

	if stats.Failed > 0 {
		logger.Warn("uploads snapshot written with skipped entries",
			zap.String("artifact", name),
			zap.Int("files", stats.Files),
			zap.Int("failed", stats.Failed))
	} else {
		logger.Info("uploads snapshot written",
			zap.String("artifact", name),
			zap.String("path", final),
			zap.Int("files", stats.Files))
	}
	return artifact, nil
}

// describe builds the artifact metadata for a completed artifact on disk.
func describe(kind types.ArtifactKind, name, path string) (*types.Artifact, error) {
	created, safety, err := ParseName(kind, name)
	if err != nil {
		return nil, err
	}

	artifact := &types.Artifact{
		Kind:       kind,
		Name:       name,
		Path:       path,
		CreatedAt:  created,
		SafetyCopy: safety,
	}

	if kind == types.ArtifactKindDatabase {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		artifact.Size = info.Size()
		return artifact, nil
	}

	files, size, err := treeSize(path)
	if err != nil {
		return nil, err
	}
	artifact.FileCount = files
	artifact.Size = size
	return artifact, nil
}
