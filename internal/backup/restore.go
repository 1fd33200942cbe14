package backup

import (
	"context"
	"github.com/pkg/errors"
	"github.com/prhdev222/med-file-case/internal/types"
	"github.com/prhdev222/med-file-case/logger"
	"go.uber.org/zap"
	"os"
	"path/filepath"
)

type (
	Restorer interface {
		RestoreDatabase(ctx context.Context, name string) (types.RestoreResult, error)
		RestoreUploads(ctx context.Context, name string) (types.RestoreResult, error)
	}

	restorer struct {
		snap   *snapshotter
		layout Layout
		locks  *Locks
		verify Verifier
	}
)

var sqliteSidecars = []string{"-wal", "-shm", "-journal"}

func NewRestorer(opts Options) Restorer {
	opts = opts.withDefaults()
	return &restorer{
		snap:   newSnapshotter(opts),
		layout: Layout{Root: opts.Root},
		locks:  opts.Locks,
		verify: opts.Verify,
	}
}

// RestoreDatabase replaces the live database with the named artifact. The
// current live file is saved as a pre_restore_backup_ safety copy first; the
// live file is not touched unless that copy was written.
func (r *restorer) RestoreDatabase(ctx context.Context, name string) (types.RestoreResult, error) {
	const op = "restore database"
	kind := types.ArtifactKindDatabase

	lock := r.locks.For(kind)
	lock.Lock()
	defer lock.Unlock()

	result := types.RestoreResult{Artifact: types.ArtifactRef{Kind: kind, Name: name}}

	path, err := r.precondition(op, kind, name)
	if err != nil {
		return result, err
	}
	if r.verify != nil {
		if err := r.verify(ctx, path); err != nil {
			logger.Error("database artifact failed verification",
				zap.String("artifact", name),
				zap.Error(err))
			return result, newError(KindRestorePrecondition, op, path, err)
		}
	}

	live := r.snap.source.Path()
	liveExists, err := pathExists(live)
	if err != nil {
		return result, newError(KindSafetyCopyFailure, op, live, err)
	}

	if liveExists {
		safety, err := r.snap.snapshotDatabase(ctx, true)
		if err != nil {
			logger.Error("safety copy failed, live database left untouched",
				zap.String("artifact", name),
				zap.Error(err))
			return result, newError(KindSafetyCopyFailure, op, live, err)
		}
		ref := safety.Ref()
		result.SafetyCopy = &ref
		result.SafetyCopyPath = safety.Path
	}

	if err := replaceFile(path, live); err != nil {
		logger.Error("database restore failed after safety copy",
			zap.String("artifact", name),
			zap.String("safety_copy", result.SafetyCopyPath),
			zap.Error(err))
		return result, &Error{Kind: KindPostCopyFailure, Op: op, Path: live, SafetyCopy: result.SafetyCopyPath, Err: err}
	}

	for _, suffix := range sqliteSidecars {
		if err := os.Remove(live + suffix); err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to remove stale database sidecar",
				zap.String("path", live+suffix),
				zap.Error(err))
		}
	}

	logger.Info("database restored",
		zap.String("artifact", name),
		zap.String("safety_copy", result.SafetyCopyPath))
	return result, nil
}

// RestoreUploads replaces the live uploads tree with the named artifact. The
// artifact is staged next to the live directory and swapped in by rename.
func (r *restorer) RestoreUploads(ctx context.Context, name string) (types.RestoreResult, error) {
	const op = "restore uploads"
	kind := types.ArtifactKindUploads

	lock := r.locks.For(kind)
	lock.Lock()
	defer lock.Unlock()

	result := types.RestoreResult{Artifact: types.ArtifactRef{Kind: kind, Name: name}}

	path, err := r.precondition(op, kind, name)
	if err != nil {
		return result, err
	}

	live := filepath.Clean(r.snap.uploadsDir)
	liveExists, err := pathExists(live)
	if err != nil {
		return result, newError(KindSafetyCopyFailure, op, live, err)
	}

	if liveExists {
		safety, err := r.snap.snapshotUploads(ctx, true, true)
		if err != nil {
			logger.Error("safety copy failed, live uploads left untouched",
				zap.String("artifact", name),
				zap.Error(err))
			return result, newError(KindSafetyCopyFailure, op, live, err)
		}
		ref := safety.Ref()
		result.SafetyCopy = &ref
		result.SafetyCopyPath = safety.Path
	}

	if err := swapTree(ctx, path, live, liveExists); err != nil {
		logger.Error("uploads restore failed after safety copy",
			zap.String("artifact", name),
			zap.String("safety_copy", result.SafetyCopyPath),
			zap.Error(err))
		return result, &Error{Kind: KindPostCopyFailure, Op: op, Path: live, SafetyCopy: result.SafetyCopyPath, Err: err}
	}

	logger.Info("uploads restored",
		zap.String("artifact", name),
		zap.String("safety_copy", result.SafetyCopyPath))
	return result, nil
}

func (r *restorer) precondition(op string, kind types.ArtifactKind, name string) (string, error) {
	if _, _, err := ParseName(kind, name); err != nil {
		return "", newError(KindRestorePrecondition, op, "", errors.Wrap(err, name))
	}

	path := r.layout.Path(kind, name)
	info, err := os.Lstat(path)
	if err != nil {
		return "", newError(KindRestorePrecondition, op, path, err)
	}

	if kind == types.ArtifactKindDatabase && !info.Mode().IsRegular() {
		return "", newError(KindRestorePrecondition, op, path, errors.New("database artifact is not a regular file"))
	}
	if kind == types.ArtifactKindUploads && !info.IsDir() {
		return "", newError(KindRestorePrecondition, op, path, errors.New("uploads artifact is not a directory"))
	}
	return path, nil
}

// swapTree copies src into a staging sibling of live and renames it into
// place. When the swap fails the previous live tree is put back.
func swapTree(ctx context.Context, src, live string, liveExists bool) error {
	if err := os.MkdirAll(filepath.Dir(live), 0o755); err != nil {
		return errors.Wrap(err, "failed to create uploads parent directory")
	}

	staging := live + ".restoring"
	old := live + ".old"
	if err := os.RemoveAll(staging); err != nil {
		return errors.Wrap(err, "failed to clear staging directory")
	}

	if _, err := copyTree(ctx, src, staging, true); err != nil {
		_ = os.RemoveAll(staging)
		return errors.Wrap(err, "failed to stage uploads")
	}

	if liveExists {
		if err := os.RemoveAll(old); err != nil {
			_ = os.RemoveAll(staging)
			return errors.Wrap(err, "failed to clear previous uploads")
		}
		if err := os.Rename(live, old); err != nil {
			_ = os.RemoveAll(staging)
			return errors.Wrap(err, "failed to move live uploads aside")
		}
	}

	if err := os.Rename(staging, live); err != nil {
		if liveExists {
			if rerr := os.Rename(old, live); rerr != nil {
				logger.Error("failed to roll back uploads swap",
					zap.String("path", live),
					zap.Error(rerr))
			}
		}
		_ = os.RemoveAll(staging)
		return errors.Wrap(err, "failed to move restored uploads into place")
	}

	if liveExists {
		if err := os.RemoveAll(old); err != nil {
			logger.Warn("failed to remove previous uploads tree",
				zap.String("path", old),
				zap.Error(err))
		}
	}
	return nil
}

func pathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
