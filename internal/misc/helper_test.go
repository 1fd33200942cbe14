package misc

import (
	"github.com/prhdev222/med-file-case/internal/types"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestParseArtifactRef(t *testing.T) {
	tests := []struct {
		name     string
		kind     string
		artifact string
		expected types.ArtifactRef
		wantErr  bool
	}{
		{
			name:     "database",
			kind:     "database",
			artifact: "hospital_db_backup_20250301_093000.db",
			expected: types.ArtifactRef{Kind: types.ArtifactKindDatabase, Name: "hospital_db_backup_20250301_093000.db"},
		},
		{
			name:     "uploads with padding",
			kind:     " Uploads ",
			artifact: " uploads_backup_20250301_093000 ",
			expected: types.ArtifactRef{Kind: types.ArtifactKindUploads, Name: "uploads_backup_20250301_093000"},
		},
		{name: "unknown kind", kind: "logs", artifact: "x", wantErr: true},
		{name: "empty name", kind: "database", artifact: "  ", wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := ParseArtifactRef(test.kind, test.artifact)
			if test.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, test.expected, got)
		})
	}
}

func TestHumanSize(t *testing.T) {
	assert.Equal(t, "unknown", HumanSize(-1))
	assert.Equal(t, "0 B", HumanSize(0))
	assert.Equal(t, "1.5 KiB", HumanSize(1536))
}

func TestStrContains(t *testing.T) {
	assert.True(t, StrContains("y", []string{"Yes", "yes", "y"}))
	assert.False(t, StrContains("no", []string{"Yes", "yes", "y"}))
}
