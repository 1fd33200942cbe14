package backup

import (
	"fmt"
	"github.com/pkg/errors"
	"github.com/prhdev222/med-file-case/internal/types"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	DatabasePrefix   = "hospital_db_backup_"
	UploadsPrefix    = "uploads_backup_"
	SafetyCopyPrefix = "pre_restore_backup_"
	DatabaseExt      = ".db"
	PartialPrefix    = ".partial-"
	TimestampLayout  = "20060102_150405"
)

var (
	Kinds = []types.ArtifactKind{types.ArtifactKindDatabase, types.ArtifactKindUploads}

	errInvalidName = errors.New("not a backup artifact name")
)

type (
	// Layout maps artifacts to paths under the backup root:
	//   <root>/database/hospital_db_backup_<ts>.db
	//   <root>/uploads/uploads_backup_<ts>/
	Layout struct {
		Root string
	}

	// Locks serializes operations on one live path kind. A database restore
	// does not wait for an uploads snapshot.
	Locks struct {
		database sync.Mutex
		uploads  sync.Mutex
	}
)

func (l Layout) Dir(kind types.ArtifactKind) string {
	return filepath.Join(l.Root, kind.String())
}

func (l Layout) Path(kind types.ArtifactKind, name string) string {
	return filepath.Join(l.Dir(kind), name)
}

// nextName returns the artifact name for now, advancing the timestamp a
// second at a time until neither the name nor its partial form is taken.
func (l Layout) nextName(kind types.ArtifactKind, safety bool, now time.Time) string {
	ts := now.Local().Truncate(time.Second)
	for {
		name := ArtifactName(kind, safety, ts)
		if !exists(l.Path(kind, name)) && !exists(l.Path(kind, PartialPrefix+name)) {
			return name
		}
		ts = ts.Add(time.Second)
	}
}

func ArtifactName(kind types.ArtifactKind, safety bool, ts time.Time) string {
	prefix := UploadsPrefix
	if kind == types.ArtifactKindDatabase {
		prefix = DatabasePrefix
	}
	if safety {
		prefix = SafetyCopyPrefix
	}

	name := prefix + ts.Local().Format(TimestampLayout)
	if kind == types.ArtifactKindDatabase {
		name += DatabaseExt
	}
	return name
}

// ParseName validates name against the naming scheme of kind and returns the
// embedded timestamp, read in local time. Names that pass contain no path
// separators.
func ParseName(kind types.ArtifactKind, name string) (time.Time, bool, error) {
	rest := name
	if kind == types.ArtifactKindDatabase {
		if !strings.HasSuffix(rest, DatabaseExt) {
			return time.Time{}, false, errInvalidName
		}
		rest = strings.TrimSuffix(rest, DatabaseExt)
	}

	safety := false
	switch {
	case strings.HasPrefix(rest, SafetyCopyPrefix):
		rest = strings.TrimPrefix(rest, SafetyCopyPrefix)
		safety = true
	case kind == types.ArtifactKindDatabase && strings.HasPrefix(rest, DatabasePrefix):
		rest = strings.TrimPrefix(rest, DatabasePrefix)
	case kind == types.ArtifactKindUploads && strings.HasPrefix(rest, UploadsPrefix):
		rest = strings.TrimPrefix(rest, UploadsPrefix)
	default:
		return time.Time{}, false, errInvalidName
	}

	if len(rest) != len(TimestampLayout) {
		return time.Time{}, false, errInvalidName
	}

	ts, err := time.ParseInLocation(TimestampLayout, rest, time.Local)
	if err != nil {
		return time.Time{}, false, errInvalidName
	}
	return ts, safety, nil
}

func validateRef(op string, kind types.ArtifactKind, name string) error {
	if !kind.Valid() {
		return newError(KindInvalidArgument, op, "", fmt.Errorf("unknown artifact kind %q", kind))
	}
	if _, _, err := ParseName(kind, name); err != nil {
		return newError(KindInvalidArgument, op, "", errors.Wrap(err, name))
	}
	return nil
}

func (l *Locks) For(kind types.ArtifactKind) *sync.Mutex {
	if kind == types.ArtifactKindDatabase {
		return &l.database
	}
	return &l.uploads
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
