package api

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"github.com/prhdev222/med-file-case/internal/types"
	"net/url"
)

type (
	Service interface {
		Ping(ctx context.Context) error
		RunBackup(ctx context.Context, sel types.Selection) (string, BackupOutcome, error)
		ListBackups(ctx context.Context) (BackupListing, error)
		DownloadBackup(ctx context.Context, ref types.ArtifactRef) (*Download, error)
		RestoreBackup(ctx context.Context, ref types.ArtifactRef) (string, RestoreResult, error)
		DeleteBackup(ctx context.Context, ref types.ArtifactRef) (string, error)
		ScheduleStatus(ctx context.Context) (ScheduleStatus, error)
		UpdateSchedule(ctx context.Context, settings types.ScheduleSettings) (string, ScheduleStatus, error)
		Events(ctx context.Context) (<-chan Event, error)
	}

	service struct {
		apiClient Client
	}
)

func NewService(apiClient Client) Service {
	return service{apiClient: apiClient}
}

func (s service) Ping(ctx context.Context) error {
	return s.apiClient.Do(ctx, Params{
		Method: "GET",
		Path:   "h",
	})
}

func (s service) RunBackup(ctx context.Context, sel types.Selection) (string, BackupOutcome, error) {
	var response struct {
		Message string        `json:"message"`
		Data    BackupOutcome `json:"data"`
	}

	err := s.apiClient.Do(ctx, Params{
		Method:   "POST",
		Path:     "backups",
		Body:     sel,
		Response: &response,
	})
	return response.Message, response.Data, err
}

func (s service) ListBackups(ctx context.Context) (BackupListing, error) {
	var response struct {
		Data BackupListing `json:"data"`
	}

	err := s.apiClient.Do(ctx, Params{
		Method:   "GET",
		Path:     "backups",
		Response: &response,
	})
	return response.Data, err
}

func (s service) DownloadBackup(ctx context.Context, ref types.ArtifactRef) (*Download, error) {
	return s.apiClient.Download(ctx, Params{
		Method: "GET",
		Path:   artifactPath(ref) + "/download",
	})
}

func (s service) RestoreBackup(ctx context.Context, ref types.ArtifactRef) (string, RestoreResult, error) {
	var response struct {
		Message string        `json:"message"`
		Data    RestoreResult `json:"data"`
	}

	err := s.apiClient.Do(ctx, Params{
		Method:   "POST",
		Path:     artifactPath(ref) + "/restore",
		Response: &response,
	})
	return response.Message, response.Data, err
}

func (s service) DeleteBackup(ctx context.Context, ref types.ArtifactRef) (string, error) {
	var response struct {
		Message string `json:"message"`
	}

	err := s.apiClient.Do(ctx, Params{
		Method:   "DELETE",
		Path:     artifactPath(ref),
		Response: &response,
	})
	return response.Message, err
}

func (s service) ScheduleStatus(ctx context.Context) (ScheduleStatus, error) {
	var response struct {
		Data ScheduleStatus `json:"data"`
	}

	err := s.apiClient.Do(ctx, Params{
		Method:   "GET",
		Path:     "backups/settings",
		Response: &response,
	})
	return response.Data, err
}

func (s service) UpdateSchedule(ctx context.Context, settings types.ScheduleSettings) (string, ScheduleStatus, error) {
	var response struct {
		Message string         `json:"message"`
		Data    ScheduleStatus `json:"data"`
	}

	err := s.apiClient.Do(ctx, Params{
		Method:   "PUT",
		Path:     "backups/settings",
		Body:     settings,
		Response: &response,
	})
	return response.Message, response.Data, err
}

// Events follows the server's backup event stream until ctx is done or the
// server closes it.
func (s service) Events(ctx context.Context) (<-chan Event, error) {
	body, err := s.apiClient.Stream(ctx, Params{
		Method: "GET",
		Path:   "backups/events",
	})
	if err != nil {
		return nil, err
	}

	ch := make(chan Event, 100)
	go func() {
		defer close(ch)
		defer body.Close()

		sc := bufio.NewScanner(body)
		for sc.Scan() {
			ev := Event{}
			if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
				continue
			}

			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

func artifactPath(ref types.ArtifactRef) string {
	return fmt.Sprintf("backups/%s/%s", ref.Kind, url.PathEscape(ref.Name))
}
