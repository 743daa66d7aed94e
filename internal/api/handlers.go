package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/lifeos/internal/dates"
	"github.com/starford/lifeos/internal/dayview"
	"github.com/starford/lifeos/internal/models"
	"github.com/starford/lifeos/internal/session"
	"github.com/starford/lifeos/internal/sse"
)

const maxDrainWait = 10 * time.Second

// Handler holds API route handlers.
type Handler struct {
	sess   *session.Controller
	agg    *dayview.Aggregator
	events *sse.Broker
}

// NewHandler creates a new Handler. events may be nil.
func NewHandler(sess *session.Controller, events *sse.Broker) *Handler {
	return &Handler{sess: sess, agg: dayview.New(sess.Normalizer()), events: events}
}

func (h *Handler) norm() *dates.Normalizer { return h.sess.Normalizer() }

// dayParam resolves the {date} URL parameter. "today" and escaped
// slashes (2024%2F03%2F07) are accepted.
func (h *Handler) dayParam(r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "date")
	if decoded, err := url.PathUnescape(raw); err == nil {
		raw = decoded
	}
	if raw == "" || strings.EqualFold(raw, "today") {
		return h.norm().Today(), true
	}
	if _, ok := h.norm().Parse(raw); !ok {
		return "", false
	}
	return h.norm().Normalize(raw), true
}

// Login handles POST /session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if err := h.sess.Login(r.Context(), req.UserID); err != nil {
		writeError(w, "login", err)
		return
	}
	writeJSON(w, http.StatusOK, h.sessionBody())
}

// Logout handles DELETE /session.
func (h *Handler) Logout(w http.ResponseWriter, _ *http.Request) {
	h.sess.Logout()
	w.WriteHeader(http.StatusNoContent)
}

// Session handles GET /session.
func (h *Handler) Session(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.sessionBody())
}

func (h *Handler) sessionBody() SessionResponse {
	return SessionResponse{
		State:   h.sess.State().String(),
		UserID:  h.sess.UserID(),
		Pending: h.sess.Pending(),
	}
}

// Day handles GET /days/{date}.
func (h *Handler) Day(w http.ResponseWriter, r *http.Request) {
	day, ok := h.dayParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid date"))
		return
	}
	writeJSON(w, http.StatusOK, h.agg.Summarize(h.sess.Snapshot(), day))
}

// Timeline handles GET /days/{date}/timeline.
func (h *Handler) Timeline(w http.ResponseWriter, r *http.Request) {
	day, ok := h.dayParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid date"))
		return
	}
	entries := dayview.Timeline(h.agg.ForDate(h.sess.Snapshot(), day))
	if entries == nil {
		entries = []dayview.Entry{}
	}
	writeJSON(w, http.StatusOK, TimelineResponse{Date: day, Entries: entries})
}

// AddRecord handles POST /records/{category}.
func (h *Handler) AddRecord(w http.ResponseWriter, r *http.Request) {
	category, err := models.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
		return
	}
	raw, ok := decodeObject(w, r)
	if !ok {
		return
	}
	rec, _ := models.Decode(category, raw, h.norm().Normalize)
	if err := validation.Validate(rec); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	saved, err := h.sess.Add(rec)
	if err != nil {
		writeError(w, "add record", err)
		return
	}
	writeJSON(w, http.StatusCreated, RecordResponse{Category: category, Record: saved})
}

// UpdateMemo handles PATCH /memos/{id}.
func (h *Handler) UpdateMemo(w http.ResponseWriter, r *http.Request) {
	raw, ok := decodeObject(w, r)
	if !ok {
		return
	}
	patch := models.DecodeMemoPatch(raw)
	if patch.Content != nil && strings.TrimSpace(*patch.Content) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("content: cannot be blank."))
		return
	}
	m, err := h.sess.UpdateMemo(chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, "update memo", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// ToggleMemo handles POST /memos/{id}/toggle.
func (h *Handler) ToggleMemo(w http.ResponseWriter, r *http.Request) {
	m, err := h.sess.ToggleMemo(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "toggle memo", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// DeleteMemo handles DELETE /memos/{id}.
func (h *Handler) DeleteMemo(w http.ResponseWriter, r *http.Request) {
	if err := h.sess.DeleteMemo(chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete memo", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Settings handles GET /settings.
func (h *Handler) Settings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.sess.Settings())
}

// SaveSettings handles PUT /settings.
func (h *Handler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	raw, ok := decodeObject(w, r)
	if !ok {
		return
	}
	patch := models.DecodeSettingsPatch(raw)
	if patch.Empty() {
		writeJSON(w, http.StatusBadRequest, errorBody("no settings fields given"))
		return
	}
	s, err := h.sess.SaveSettings(patch)
	if err != nil {
		writeError(w, "save settings", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// ApplyInBody handles POST /settings/inbody.
func (h *Handler) ApplyInBody(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req InBodyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	s, err := h.sess.ApplyInBody(req.Target)
	if err != nil {
		writeError(w, "apply inbody", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// Writes handles GET /writes.
func (h *Handler) Writes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, WritesResponse{Pending: h.sess.Pending()})
}

// DrainWrites handles POST /writes/drain. It waits for in-flight writes
// for at most ten seconds.
func (h *Handler) DrainWrites(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), maxDrainWait)
	defer cancel()
	if err := h.sess.Drain(ctx); err != nil {
		status := http.StatusGatewayTimeout
		if errors.Is(err, context.Canceled) {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, WritesResponse{Pending: h.sess.Pending()})
		return
	}
	writeJSON(w, http.StatusOK, WritesResponse{Pending: 0})
}
