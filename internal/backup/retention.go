package backup

import (
	"context"
	"fmt"
	"github.com/jonboulle/clockwork"
	"github.com/prhdev222/med-file-case/internal/types"
	"github.com/prhdev222/med-file-case/logger"
	"go.uber.org/zap"
	"os"
	"strings"
	"time"
)

type (
	Retention interface {
		Cleanup(ctx context.Context, keepDays int) (types.CleanupReport, error)
	}

	retention struct {
		layout Layout
		locks  *Locks
		clock  clockwork.Clock
	}
)

func NewRetention(opts Options) Retention {
	opts = opts.withDefaults()
	return &retention{
		layout: Layout{Root: opts.Root},
		locks:  opts.Locks,
		clock:  opts.Clock,
	}
}

// Cleanup deletes every artifact, safety copies and abandoned partial
// artifacts included, whose name timestamp is more than keepDays days old.
// Names that do not parse are never touched. A missing or unreadable kind
// directory counts as empty.
func (r *retention) Cleanup(ctx context.Context, keepDays int) (types.CleanupReport, error) {
	report := types.CleanupReport{
		KeepDays: keepDays,
		Deleted:  []types.ArtifactRef{},
		Failures: []types.DeletionFailure{},
	}
	if keepDays < 1 {
		return report, newError(KindInvalidArgument, "cleanup", "", fmt.Errorf("keep days must be positive, got %d", keepDays))
	}

	horizon := time.Duration(keepDays) * 24 * time.Hour
	now := r.clock.Now()

	for _, kind := range Kinds {
		r.sweep(kind, now, horizon, &report)
	}

	logger.Info("retention sweep completed",
		zap.Int("keep_days", keepDays),
		zap.Int("scanned", report.Scanned),
		zap.Int("deleted", len(report.Deleted)),
		zap.Int("failures", len(report.Failures)))
	return report, nil
}

func (r *retention) sweep(kind types.ArtifactKind, now time.Time, horizon time.Duration, report *types.CleanupReport) {
	lock := r.locks.For(kind)
	lock.Lock()
	defer lock.Unlock()

	dir := r.layout.Dir(kind)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("retention scan skipped",
				zap.String("kind", kind.String()),
				zap.String("path", dir),
				zap.Error(newError(KindRetentionScanFailure, "cleanup", dir, err)))
		}
		return
	}

	for _, entry := range entries {
		name := strings.TrimPrefix(entry.Name(), PartialPrefix)
		created, _, err := ParseName(kind, name)
		if err != nil {
			continue
		}
		isDir := entry.IsDir()
		if (kind == types.ArtifactKindUploads) != isDir {
			continue
		}

		report.Scanned++
		if now.Sub(created) <= horizon {
			continue
		}

		ref := types.ArtifactRef{Kind: kind, Name: entry.Name()}
		path := r.layout.Path(kind, entry.Name())
		if isDir {
			err = os.RemoveAll(path)
		} else {
			err = os.Remove(path)
		}

		if err != nil {
			logger.Error("failed to delete expired artifact",
				zap.String("kind", kind.String()),
				zap.String("artifact", entry.Name()),
				zap.Error(err))
			report.Failures = append(report.Failures, types.DeletionFailure{Artifact: ref, Error: err.Error()})
			continue
		}

		logger.Info("deleted expired artifact",
			zap.String("kind", kind.String()),
			zap.String("artifact", entry.Name()),
			zap.Duration("age", now.Sub(created)))
		report.Deleted = append(report.Deleted, ref)
	}
}
