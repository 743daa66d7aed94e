package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/lifeos/internal/apperr"
	"github.com/starford/lifeos/internal/gateway"
	"github.com/starford/lifeos/internal/sse"
)

const maxUploadBytes = 10 << 20 // 10 MB

// Analyze handles POST /analyze/{kind} (multipart/form-data, field "file").
//
// For kind "food" the response is a diet draft; with form field save=true
// the draft is also recorded. For kind "inbody" the response carries the
// suggested calorie target; apply=true saves it.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	kind := gateway.Kind(chi.URLParam(r, "kind"))
	if kind != gateway.KindFood && kind != gateway.KindInBody {
		writeJSON(w, http.StatusNotFound, errorBody("unknown analysis kind"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil || len(data) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("empty upload"))
		return
	}
	image := gateway.DataURL(data)
	commit := formBool(r, "save") || formBool(r, "apply")

	switch kind {
	case gateway.KindFood:
		draft, err := h.sess.AnalyzeFood(r.Context(), image)
		if err != nil {
			h.analysisFailed(w, kind, header.Filename, err)
			return
		}
		if commit {
			if draft, err = h.sess.AddDiet(draft); err != nil {
				writeError(w, "save food analysis", err)
				return
			}
		}
		writeJSON(w, http.StatusOK, FoodAnalysisResponse{Draft: draft, Saved: commit})

	case gateway.KindInBody:
		ib, err := h.sess.AnalyzeInBody(r.Context(), image)
		if err != nil {
			h.analysisFailed(w, kind, header.Filename, err)
			return
		}
		if commit {
			if _, err := h.sess.ApplyInBody(ib.Target); err != nil {
				writeError(w, "apply inbody analysis", err)
				return
			}
		}
		writeJSON(w, http.StatusOK, ib)
	}
}

func (h *Handler) analysisFailed(w http.ResponseWriter, kind gateway.Kind, file string, err error) {
	if h.events != nil && errors.Is(err, apperr.ErrAnalysisFailed) {
		h.events.Publish(sse.Event{
			Type: sse.TypeAnalysisFailed,
			Data: map[string]string{"kind": string(kind), "file": file},
		})
	}
	writeError(w, "analyze", err)
}

func formBool(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.FormValue(key))
	return b
}
