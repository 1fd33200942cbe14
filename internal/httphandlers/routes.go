package httphandlers

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"net/http"
)

func Routes(h *ApiHandler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Route("/v1", func(rr chi.Router) {
		rr.Post("/backups", h.CreateBackup)
		rr.Get("/backups", h.ListBackups)
		rr.Get("/backups/settings", h.GetSettings)
		rr.Put("/backups/settings", h.UpdateSettings)
		rr.Get("/backups/events", h.StreamEvents)
		rr.Get("/backups/{kind}/{name}/download", h.DownloadBackup)
		rr.Post("/backups/{kind}/{name}/restore", h.RestoreBackup)
		rr.Delete("/backups/{kind}/{name}", h.DeleteBackup)

		rr.Get("/h", func(writer http.ResponseWriter, request *http.Request) {
			ok(writer, "Hoi, backups are live!", struct{}{})
		})
	})
	return r
}
