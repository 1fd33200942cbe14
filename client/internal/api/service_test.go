package api

import (
	"context"
	"encoding/json"
	"github.com/prhdev222/med-file-case/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestService(t *testing.T, handler http.HandlerFunc) Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewService(NewClient(srv.URL))
}

func TestRunBackup(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/backups", r.URL.Path)

		var sel types.Selection
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sel))
		assert.Equal(t, types.Selection{Database: true}, sel)

		_, _ = w.Write([]byte(`{"error":false,"message":"Backup completed","data":{"database_ok":true,"database":{"kind":"database","name":"hospital_db_backup_20250301_093000.db"}}}`))
	})

	message, outcome, err := svc.RunBackup(context.Background(), types.Selection{Database: true})
	require.NoError(t, err)
	assert.Equal(t, "Backup completed", message)
	assert.True(t, outcome.DatabaseOK)
	assert.Equal(t, "hospital_db_backup_20250301_093000.db", outcome.Database.Name)
}

func TestErrorEnvelope(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/v1/backups/uploads/uploads_backup_20250301_093000", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":true,"code":"not_found","message":"Backup not found"}`))
	})

	_, err := svc.DeleteBackup(context.Background(), types.ArtifactRef{Kind: types.ArtifactKindUploads, Name: "uploads_backup_20250301_093000"})
	require.Error(t, err)
	assert.Equal(t, "Backup not found", err.Error())

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "not_found", apiErr.Code)
}

func TestDownloadBackup(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="uploads_backup_20250301_093000.tar.gz"`)
		_, _ = w.Write([]byte("archive"))
	})

	download, err := svc.DownloadBackup(context.Background(), types.ArtifactRef{Kind: types.ArtifactKindUploads, Name: "uploads_backup_20250301_093000"})
	require.NoError(t, err)
	defer download.Content.Close()

	assert.Equal(t, "uploads_backup_20250301_093000.tar.gz", download.FileName)
	data, err := io.ReadAll(download.Content)
	require.NoError(t, err)
	assert.Equal(t, "archive", string(data))
}

func TestEvents(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/backups/events", r.URL.Path)
		_, _ = w.Write([]byte("{\"type\":\"info\",\"message\":\"backup started\"}\nnot json\n{\"type\":\"success\",\"message\":\"backup finished\"}\n"))
	})

	ch, err := svc.Events(context.Background())
	require.NoError(t, err)

	var messages []string
	for ev := range ch {
		messages = append(messages, ev.Message)
	}
	assert.Equal(t, []string{"backup started", "backup finished"}, messages)
}
