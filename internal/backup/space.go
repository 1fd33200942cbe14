package backup

import (
	"context"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/prhdev222/med-file-case/internal/types"
	"github.com/prhdev222/med-file-case/logger"
	"github.com/shirou/gopsutil/v4/disk"
	"go.uber.org/zap"
	"os"
	"path/filepath"
)

// DiskUsage reports usage of the volume holding path. Missing trailing
// components are skipped so the root does not need to exist yet.
func DiskUsage(ctx context.Context, path string) (*types.DiskUsage, error) {
	target := nearestExisting(path)
	usage, err := disk.UsageWithContext(ctx, target)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read disk usage for "+target)
	}

	return &types.DiskUsage{
		Path:        path,
		Total:       usage.Total,
		Free:        usage.Free,
		Used:        usage.Used,
		UsedPercent: usage.UsedPercent,
	}, nil
}

// ensureFreeSpace fails when the volume holding dir has less than need bytes
// free. An unreadable volume is logged and not treated as full.
func ensureFreeSpace(ctx context.Context, dir string, need int64) error {
	usage, err := DiskUsage(ctx, dir)
	if err != nil {
		logger.Warn("free space check skipped",
			zap.String("path", dir),
			zap.Error(err))
		return nil
	}

	if need > 0 && usage.Free < uint64(need) {
		return errors.Errorf("not enough free space on %s: need %s, have %s",
			dir, humanize.IBytes(uint64(need)), humanize.IBytes(usage.Free))
	}
	return nil
}

func nearestExisting(path string) string {
	current := filepath.Clean(path)
	for {
		if _, err := os.Stat(current); err == nil {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return current
		}
		current = parent
	}
}
