package backup

import (
	"github.com/prhdev222/med-file-case/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"path/filepath"
	"testing"
	"time"
)

func TestArtifactName(t *testing.T) {
	ts := time.Date(2025, time.January, 2, 3, 4, 5, 0, time.Local)

	assert.Equal(t, "hospital_db_backup_20250102_030405.db", ArtifactName(types.ArtifactKindDatabase, false, ts))
	assert.Equal(t, "uploads_backup_20250102_030405", ArtifactName(types.ArtifactKindUploads, false, ts))
	assert.Equal(t, "pre_restore_backup_20250102_030405.db", ArtifactName(types.ArtifactKindDatabase, true, ts))
	assert.Equal(t, "pre_restore_backup_20250102_030405", ArtifactName(types.ArtifactKindUploads, true, ts))
}

func TestParseName(t *testing.T) {
	ts := time.Date(2025, time.January, 2, 3, 4, 5, 0, time.Local)

	tests := []struct {
		name   string
		kind   types.ArtifactKind
		input  string
		safety bool
		valid  bool
	}{
		{name: "database artifact", kind: types.ArtifactKindDatabase, input: "hospital_db_backup_20250102_030405.db", valid: true},
		{name: "database safety copy", kind: types.ArtifactKindDatabase, input: "pre_restore_backup_20250102_030405.db", safety: true, valid: true},
		{name: "uploads artifact", kind: types.ArtifactKindUploads, input: "uploads_backup_20250102_030405", valid: true},
		{name: "uploads safety copy", kind: types.ArtifactKindUploads, input: "pre_restore_backup_20250102_030405", safety: true, valid: true},
		{name: "uploads name for database", kind: types.ArtifactKindDatabase, input: "uploads_backup_20250102_030405", valid: false},
		{name: "database name for uploads", kind: types.ArtifactKindUploads, input: "hospital_db_backup_20250102_030405.db", valid: false},
		{name: "missing extension", kind: types.ArtifactKindDatabase, input: "hospital_db_backup_20250102_030405", valid: false},
		{name: "impossible date", kind: types.ArtifactKindDatabase, input: "hospital_db_backup_20251340_030405.db", valid: false},
		{name: "path traversal", kind: types.ArtifactKindDatabase, input: "../hospital_db_backup_20250102_030405.db", valid: false},
		{name: "nested path", kind: types.ArtifactKindUploads, input: "uploads_backup_20250102_030405/../../etc", valid: false},
		{name: "partial artifact", kind: types.ArtifactKindUploads, input: ".partial-uploads_backup_20250102_030405", valid: false},
		{name: "foreign file", kind: types.ArtifactKindDatabase, input: "notes.db", valid: false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, safety, err := ParseName(test.kind, test.input)
			if !test.valid {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, ts.Equal(got))
			assert.Equal(t, test.safety, safety)
		})
	}
}

func TestLayout_NextNameSkipsTakenTimestamps(t *testing.T) {
	layout := Layout{Root: t.TempDir()}
	ts := time.Date(2025, time.January, 2, 3, 4, 5, 0, time.Local)

	writeFile(t, layout.Path(types.ArtifactKindDatabase, "hospital_db_backup_20250102_030405.db"), "first")
	writeFile(t, layout.Path(types.ArtifactKindDatabase, ".partial-hospital_db_backup_20250102_030406.db"), "in progress")

	assert.Equal(t, "hospital_db_backup_20250102_030407.db", layout.nextName(types.ArtifactKindDatabase, false, ts))
	assert.Equal(t, "pre_restore_backup_20250102_030405.db", layout.nextName(types.ArtifactKindDatabase, true, ts))
	assert.Equal(t, filepath.Join(layout.Root, "uploads", "x"), layout.Path(types.ArtifactKindUploads, "x"))
}

func TestLocks_PerKind(t *testing.T) {
	locks := &Locks{}
	locks.For(types.ArtifactKindDatabase).Lock()
	defer locks.For(types.ArtifactKindDatabase).Unlock()

	assert.True(t, locks.For(types.ArtifactKindUploads).TryLock())
	locks.For(types.ArtifactKindUploads).Unlock()
	assert.False(t, locks.For(types.ArtifactKindDatabase).TryLock())
}

func TestKindOf(t *testing.T) {
	err := &Error{Kind: KindPostCopyFailure, Op: "restore database", SafetyCopy: "/b/pre.db"}

	assert.Equal(t, KindPostCopyFailure, KindOf(err))
	assert.Equal(t, "/b/pre.db", SafetyCopyOf(err))
	assert.Equal(t, ErrorKind(""), KindOf(assert.AnError))
	assert.Contains(t, err.Error(), "safety copy kept at /b/pre.db")
}
