package backup

import (
	"context"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

var start = time.Date(2025, time.March, 1, 9, 30, 0, 0, time.UTC)

// Artifact names carry local wall clock time; pin it so day arithmetic in
// tests does not cross a DST change.
func TestMain(m *testing.M) {
	time.Local = time.UTC
	os.Exit(m.Run())
}

// fileSource stands in for the live sqlite database by copying its bytes.
type fileSource struct {
	path string

	lock    sync.Mutex
	err     error
	gate    chan struct{}
	entered chan struct{}
}

func (f *fileSource) Path() string {
	return f.path
}

func (f *fileSource) SnapshotTo(_ context.Context, dst string) error {
	f.lock.Lock()
	err, gate, entered := f.err, f.gate, f.entered
	f.lock.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}

// hold parks every SnapshotTo call until the returned channel is closed.
// Each call signals on f.entered as it reaches the gate.
func (f *fileSource) hold() chan struct{} {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.gate = make(chan struct{})
	f.entered = make(chan struct{}, 4)
	return f.gate
}

func (f *fileSource) fail(err error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.err = err
}

type fixture struct {
	opts    Options
	clock   clockwork.FakeClock
	source  *fileSource
	live    string
	uploads string
	root    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	live := filepath.Join(dir, "instance", "hospital.db")
	uploads := filepath.Join(dir, "storage", "uploads")
	writeFile(t, live, "live database v1")
	writeFile(t, filepath.Join(uploads, "cases", "xray-001.png"), "xray")
	writeFile(t, filepath.Join(uploads, "guidelines", "sepsis.pdf"), "sepsis protocol")
	writeFile(t, filepath.Join(uploads, "logo.png"), "logo")

	fc := clockwork.NewFakeClockAt(start)
	source := &fileSource{path: live}
	root := filepath.Join(dir, "storage", "backups")

	return &fixture{
		opts: Options{
			Root:           root,
			Database:       source,
			UploadsDir:     uploads,
			UploadsTimeout: time.Minute,
			Locks:          &Locks{},
			Clock:          fc,
		},
		clock:   fc,
		source:  source,
		live:    live,
		uploads: uploads,
		root:    root,
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// readTree returns the regular files under root keyed by slash separated
// relative path.
func readTree(t *testing.T, root string) map[string]string {
	t.Helper()
	files := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = readFile(t, path)
		return nil
	})
	require.NoError(t, err)
	return files
}

func listNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
