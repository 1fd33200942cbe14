package httphandlers

import (
	"encoding/json"
	"fmt"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/prhdev222/med-file-case/internal/eventbus"
	"github.com/prhdev222/med-file-case/internal/misc"
	"github.com/prhdev222/med-file-case/internal/service"
	"github.com/prhdev222/med-file-case/internal/types"
	"go.uber.org/zap"
	"io"
	"net/http"
	"strconv"
)

const downloadBufferSize = 1 << 20 // 1MB

type (
	ApiHandler struct {
		svc    service.BackupService
		eb     eventbus.Bus
		logger *zap.Logger
	}
)

func NewApiHandler(svc service.BackupService, eb eventbus.Bus, l *zap.Logger) *ApiHandler {
	return &ApiHandler{svc: svc, eb: eb, logger: l}
}

// CreateBackup runs a manual backup. An empty body backs up both the
// database and the uploads.
func (handler *ApiHandler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	sel := types.Selection{Database: true, Uploads: true}
	if err := json.NewDecoder(r.Body).Decode(&sel); err != nil && err != io.EOF {
		badRequest(w, errors.Wrap(err, "invalid backup selection"))
		return
	}

	writeOutcome(w, handler.svc.TriggerBackup(r.Context(), sel))
}

func (handler *ApiHandler) ListBackups(w http.ResponseWriter, r *http.Request) {
	writeOutcome(w, handler.svc.ListBackups(r.Context()))
}

func (handler *ApiHandler) DownloadBackup(w http.ResponseWriter, r *http.Request) {
	ref, err := misc.ParseArtifactRef(chi.URLParam(r, "kind"), chi.URLParam(r, "name"))
	if err != nil {
		badRequest(w, err)
		return
	}

	result, outcome := handler.svc.Download(r.Context(), ref.Kind, ref.Name)
	if !outcome.Success {
		writeOutcome(w, outcome)
		return
	}
	defer result.Content.Close()

	if result.SizeKnown() {
		w.Header().Add("Content-Length", strconv.FormatInt(result.Stat.Size, 10))
	}
	w.Header().Add("Content-Type", result.GetContentType())
	w.Header().Add("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Stat.Name))
	w.WriteHeader(http.StatusOK)

	buf := make([]byte, downloadBufferSize)
	for {
		n, err := result.Content.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				handler.logger.Warn("download aborted by client",
					zap.String("artifact", ref.Name),
					zap.Error(werr))
				return
			}
		}

		if err == io.EOF {
			return
		}
		if err != nil {
			// headers are gone; dropping the connection is all that is left
			handler.logger.Error("failed to stream backup",
				zap.String("artifact", ref.Name),
				zap.Error(err))
			panic(http.ErrAbortHandler)
		}
	}
}

func (handler *ApiHandler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	ref, err := misc.ParseArtifactRef(chi.URLParam(r, "kind"), chi.URLParam(r, "name"))
	if err != nil {
		badRequest(w, err)
		return
	}

	writeOutcome(w, handler.svc.RestoreBackup(r.Context(), ref.Kind, ref.Name))
}

func (handler *ApiHandler) DeleteBackup(w http.ResponseWriter, r *http.Request) {
	ref, err := misc.ParseArtifactRef(chi.URLParam(r, "kind"), chi.URLParam(r, "name"))
	if err != nil {
		badRequest(w, err)
		return
	}

	writeOutcome(w, handler.svc.DeleteBackup(r.Context(), ref.Kind, ref.Name))
}

func (handler *ApiHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeOutcome(w, handler.svc.ScheduleStatus())
}

func (handler *ApiHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var params types.ScheduleSettings
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		badRequest(w, errors.Wrap(err, "invalid schedule settings"))
		return
	}

	writeOutcome(w, handler.svc.UpdateScheduleSettings(r.Context(), params.IntervalHours, params.KeepDays))
}

// StreamEvents writes recent backup events, then live ones, as newline
// delimited JSON until the client goes away.
func (handler *ApiHandler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	ch, recent := handler.eb.Subscribe(service.EventsTopic)
	defer handler.eb.Unregister(service.EventsTopic, ch)
	handler.logger.Info("registered client for backup events", zap.Int("replayed", len(recent)))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	for _, ev := range recent {
		_ = writeSSELine(w, ev)
	}

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := writeSSELine(w, ev); err != nil {
				handler.logger.Warn("failed to write backup event", zap.Error(err))
			}
		case <-r.Context().Done():
			handler.logger.Info("client disconnected from backup events")
			return
		}
	}
}
