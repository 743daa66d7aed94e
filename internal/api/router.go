package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/session", h.Session)
	r.Post("/session", h.Login)
	r.Delete("/session", h.Logout)

	r.Get("/days/{date}", h.Day)
	r.Get("/days/{date}/timeline", h.Timeline)

	r.Post("/records/{category}", h.AddRecord)

	r.Patch("/memos/{id}", h.UpdateMemo)
	r.Post("/memos/{id}/toggle", h.ToggleMemo)
	r.Delete("/memos/{id}", h.DeleteMemo)

	r.Get("/settings", h.Settings)
	r.Put("/settings", h.SaveSettings)
	r.Post("/settings/inbody", h.ApplyInBody)

	r.Post("/analyze/{kind}", h.Analyze)

	r.Get("/writes", h.Writes)
	r.Post("/writes/drain", h.DrainWrites)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
