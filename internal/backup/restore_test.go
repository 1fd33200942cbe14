package backup

import (
	"context"
	"github.com/pkg/errors"
	"github.com/prhdev222/med-file-case/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRestorer_RestoreDatabase(t *testing.T) {
	f := newFixture(t)
	snap := NewSnapshotter(f.opts)

	artifact, err := snap.SnapshotDatabase(context.Background())
	require.NoError(t, err)

	writeFile(t, f.live, "live database v2")
	writeFile(t, f.live+"-wal", "stale wal")
	f.clock.Advance(time.Minute)

	result, err := NewRestorer(f.opts).RestoreDatabase(context.Background(), artifact.Name)
	require.NoError(t, err)

	assert.Equal(t, readFile(t, artifact.Path), readFile(t, f.live))
	assert.NoFileExists(t, f.live+"-wal")
	assert.NoFileExists(t, f.live+".restoring")

	require.NotNil(t, result.SafetyCopy)
	assert.Equal(t, "pre_restore_backup_20250301_093100.db", result.SafetyCopy.Name)
	assert.Equal(t, "live database v2", readFile(t, result.SafetyCopyPath))
	assert.Equal(t, types.ArtifactRef{Kind: types.ArtifactKindDatabase, Name: artifact.Name}, result.Artifact)
}

func TestRestorer_RestoreDatabase_MissingArtifact(t *testing.T) {
	f := newFixture(t)
	restorer := NewRestorer(f.opts)

	for _, name := range []string{"hospital_db_backup_20240101_000000.db", "../../instance/hospital.db"} {
		_, err := restorer.RestoreDatabase(context.Background(), name)
		assert.Equal(t, KindRestorePrecondition, KindOf(err))
	}

	assert.Equal(t, "live database v1", readFile(t, f.live))
	assert.Empty(t, listNames(t, filepath.Join(f.root, "database")))
}

func TestRestorer_RestoreDatabase_WrongKind(t *testing.T) {
	f := newFixture(t)
	name := ArtifactName(types.ArtifactKindDatabase, false, start)
	require.NoError(t, os.MkdirAll(Layout{Root: f.root}.Path(types.ArtifactKindDatabase, name), 0o755))

	_, err := NewRestorer(f.opts).RestoreDatabase(context.Background(), name)
	assert.Equal(t, KindRestorePrecondition, KindOf(err))
	assert.Equal(t, "live database v1", readFile(t, f.live))
}

func TestRestorer_RestoreDatabase_FailedVerification(t *testing.T) {
	f := newFixture(t)
	artifact, err := NewSnapshotter(f.opts).SnapshotDatabase(context.Background())
	require.NoError(t, err)

	f.opts.Verify = func(ctx context.Context, path string) error {
		return errors.New("database disk image is malformed")
	}
	_, err = NewRestorer(f.opts).RestoreDatabase(context.Background(), artifact.Name)

	assert.Equal(t, KindRestorePrecondition, KindOf(err))
	assert.Equal(t, []string{artifact.Name}, listNames(t, filepath.Join(f.root, "database")))
}

func TestRestorer_RestoreDatabase_SafetyCopyFailureKeepsLive(t *testing.T) {
	f := newFixture(t)
	artifact, err := NewSnapshotter(f.opts).SnapshotDatabase(context.Background())
	require.NoError(t, err)

	writeFile(t, f.live, "live database v2")
	f.source.fail(errors.New("disk I/O error"))
	f.clock.Advance(time.Minute)

	result, err := NewRestorer(f.opts).RestoreDatabase(context.Background(), artifact.Name)

	assert.Equal(t, KindSafetyCopyFailure, KindOf(err))
	assert.Nil(t, result.SafetyCopy)
	assert.Equal(t, "live database v2", readFile(t, f.live))
	assert.Equal(t, []string{artifact.Name}, listNames(t, filepath.Join(f.root, "database")))
}

func TestRestorer_RestoreDatabase_PostCopyFailureReportsSafetyCopy(t *testing.T) {
	f := newFixture(t)
	artifact, err := NewSnapshotter(f.opts).SnapshotDatabase(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(f.live+".restoring", 0o755))
	writeFile(t, filepath.Join(f.live+".restoring", "blocker"), "x")
	f.clock.Advance(time.Minute)

	result, err := NewRestorer(f.opts).RestoreDatabase(context.Background(), artifact.Name)

	assert.Equal(t, KindPostCopyFailure, KindOf(err))
	require.NotNil(t, result.SafetyCopy)
	assert.Equal(t, result.SafetyCopyPath, SafetyCopyOf(err))
	assert.Equal(t, "live database v1", readFile(t, result.SafetyCopyPath))
}

func TestRestorer_RestoreDatabase_NoLiveDatabase(t *testing.T) {
	f := newFixture(t)
	artifact, err := NewSnapshotter(f.opts).SnapshotDatabase(context.Background())
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(filepath.Dir(f.live)))

	result, err := NewRestorer(f.opts).RestoreDatabase(context.Background(), artifact.Name)
	require.NoError(t, err)

	assert.Nil(t, result.SafetyCopy)
	assert.Equal(t, "live database v1", readFile(t, f.live))
}

func TestRestorer_RestoreUploads(t *testing.T) {
	f := newFixture(t)
	artifact, err := NewSnapshotter(f.opts).SnapshotUploads(context.Background())
	require.NoError(t, err)
	want := readTree(t, f.uploads)

	writeFile(t, filepath.Join(f.uploads, "cases", "xray-002.png"), "added after backup")
	require.NoError(t, os.Remove(filepath.Join(f.uploads, "logo.png")))
	before := readTree(t, f.uploads)
	f.clock.Advance(time.Minute)

	result, err := NewRestorer(f.opts).RestoreUploads(context.Background(), artifact.Name)
	require.NoError(t, err)

	assert.Equal(t, want, readTree(t, f.uploads))
	require.NotNil(t, result.SafetyCopy)
	assert.Equal(t, "pre_restore_backup_20250301_093100", result.SafetyCopy.Name)
	assert.Equal(t, before, readTree(t, result.SafetyCopyPath))
	assert.NoDirExists(t, f.uploads+".restoring")
	assert.NoDirExists(t, f.uploads+".old")
}

func TestRestorer_RestoreUploads_SafetyCopyFailureKeepsLive(t *testing.T) {
	f := newFixture(t)
	artifact, err := NewSnapshotter(f.opts).SnapshotUploads(context.Background())
	require.NoError(t, err)

	dangling := filepath.Join(f.uploads, "cases", "dangling.png")
	require.NoError(t, os.Symlink(filepath.Join(f.uploads, "gone.png"), dangling))
	writeFile(t, filepath.Join(f.uploads, "cases", "xray-002.png"), "added after backup")
	before := readTree(t, f.uploads)
	f.clock.Advance(time.Minute)

	result, err := NewRestorer(f.opts).RestoreUploads(context.Background(), artifact.Name)

	assert.Equal(t, KindSafetyCopyFailure, KindOf(err))
	assert.Nil(t, result.SafetyCopy)
	assert.Equal(t, before, readTree(t, f.uploads))
	_, err = os.Lstat(dangling)
	assert.NoError(t, err)
	assert.Equal(t, []string{artifact.Name}, listNames(t, filepath.Join(f.root, "uploads")))
}

func TestRestorer_RestoreUploads_NoLiveDirectory(t *testing.T) {
	f := newFixture(t)
	artifact, err := NewSnapshotter(f.opts).SnapshotUploads(context.Background())
	require.NoError(t, err)
	want := readTree(t, f.uploads)
	require.NoError(t, os.RemoveAll(f.uploads))

	result, err := NewRestorer(f.opts).RestoreUploads(context.Background(), artifact.Name)
	require.NoError(t, err)

	assert.Nil(t, result.SafetyCopy)
	assert.Equal(t, want, readTree(t, f.uploads))
}

func TestRestorer_RestoreUploads_MissingArtifact(t *testing.T) {
	f := newFixture(t)
	before := readTree(t, f.uploads)

	_, err := NewRestorer(f.opts).RestoreUploads(context.Background(), "uploads_backup_20240101_000000")

	assert.Equal(t, KindRestorePrecondition, KindOf(err))
	assert.Equal(t, before, readTree(t, f.uploads))
	assert.Empty(t, listNames(t, filepath.Join(f.root, "uploads")))
}

func TestRestorer_SerializesWithSnapshotsOfSameKind(t *testing.T) {
	f := newFixture(t)
	snap := NewSnapshotter(f.opts)
	artifact, err := snap.SnapshotDatabase(context.Background())
	require.NoError(t, err)

	writeFile(t, f.live, "live database v2")
	f.clock.Advance(time.Minute)

	release := f.source.hold()
	restored := make(chan error, 1)
	go func() {
		_, err := NewRestorer(f.opts).RestoreDatabase(context.Background(), artifact.Name)
		restored <- err
	}()
	// the restore is now inside its safety copy with the database lock held
	<-f.source.entered

	snapshotted := make(chan *types.Artifact, 1)
	go func() {
		next, err := snap.SnapshotDatabase(context.Background())
		assert.NoError(t, err)
		snapshotted <- next
	}()

	uploads, err := snap.SnapshotUploads(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "uploads_backup_20250301_093100", uploads.Name)

	select {
	case <-snapshotted:
		t.Fatal("database snapshot ran during a database restore")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-restored)
	next := <-snapshotted
	require.NotNil(t, next)
	assert.Equal(t, "live database v1", readFile(t, next.Path))
}
