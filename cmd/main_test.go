package main

import (
	"encoding/json"
	"github.com/prhdev222/med-file-case/internal/config"
	"github.com/prhdev222/med-file-case/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetup(t *testing.T) {
	dir := t.TempDir()
	live := filepath.Join(dir, "hospital.db")
	db, err := database.Open(live, false)
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE TABLE cases (id INTEGER PRIMARY KEY, title TEXT)").Error)
	require.NoError(t, db.Exec("INSERT INTO cases (title) VALUES ('sepsis')").Error)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	uploads := filepath.Join(dir, "uploads")
	require.NoError(t, os.MkdirAll(uploads, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(uploads, "xray.png"), []byte("xray"), 0o644))

	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(strings.Join([]string{
		"BACKUP_DIR=" + filepath.Join(dir, "backups"),
		"DATABASE_URL=sqlite:///" + live,
		"UPLOAD_FOLDER=" + uploads,
		"BACKUP_INTERVAL_HOURS=24",
		"OFFSITE_DIR=" + filepath.Join(dir, "offsite"),
	}, "\n")), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "offsite"), 0o755))

	cfg, err := config.Load(envFile)
	require.NoError(t, err)

	srv, teardown, err := setup(cfg)
	require.NoError(t, err)
	defer teardown()

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/backups", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/backups", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		Data struct {
			Artifacts []struct {
				Kind string `json:"kind"`
				Name string `json:"name"`
			} `json:"artifacts"`
			Schedule struct {
				State string `json:"state"`
			} `json:"schedule"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Len(t, res.Data.Artifacts, 2)
	assert.Equal(t, "scheduled", res.Data.Schedule.State)

	offsite, err := os.ReadDir(filepath.Join(dir, "offsite", "database"))
	require.NoError(t, err)
	assert.Len(t, offsite, 1)
}
