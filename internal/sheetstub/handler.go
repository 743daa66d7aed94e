package sheetstub

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const maxRequestSize = 20 << 20 // 20 MB, room for base64 photos

// Sheets the stub accepts, keyed by their wire name.
var sheets = map[string]string{
	"Diet":    "diet",
	"Workout": "workout",
	"Finance": "finance",
	"Coffee":  "coffee",
	"Memo":    "memo",
}

// CannedAnalysis returns the classifier payloads the stub answers with.
func CannedAnalysis() map[string]map[string]any {
	return map[string]map[string]any{
		"food":   {"name": "Chicken salad", "calories": 420, "protein": 35},
		"inbody": {"weight": 70, "pbf": 20},
	}
}

type request struct {
	Action string         `json:"action"`
	Sheet  *string        `json:"sheet"`
	Data   map[string]any `json:"data"`
	UserID string         `json:"userId"`
	Image  string         `json:"image"`
	Type   string         `json:"type"`
}

type response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Handler serves the wire protocol on GET / and POST /.
type Handler struct {
	db       *DB
	logger   *slog.Logger
	analysis map[string]map[string]any
}

// NewHandler creates a Handler backed by db.
func NewHandler(db *DB, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{db: db, logger: logger, analysis: CannedAnalysis()}
}

// Router mounts the endpoint at / and at /exec, the path deployed
// spreadsheet scripts answer on.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	for _, p := range []string{"/", "/exec"} {
		r.Get(p, h.get)
		r.Post(p, h.post)
	}
	return r
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("action") != "getAllData" {
		fail(w, "unknown action")
		return
	}
	userID := q.Get("userId")

	rows, err := h.db.Rows(userID)
	if err != nil {
		h.logger.Error("sheetstub: read rows", slog.String("error", err.Error()))
		fail(w, "read failed")
		return
	}
	data := map[string]any{}
	for wire, key := range sheets {
		list := rows[wire]
		if list == nil {
			list = []json.RawMessage{}
		}
		data[key] = list
	}
	settings, err := h.db.Settings(userID)
	if err != nil {
		h.logger.Error("sheetstub: read settings", slog.String("error", err.Error()))
		fail(w, "read failed")
		return
	}
	if settings != nil {
		data["settings"] = settings
	}
	succeed(w, data)
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestSize))
	if err != nil {
		fail(w, "read body failed")
		return
	}
	var req request
	if err := json.Unmarshal(body, &req); err != nil {
		fail(w, "invalid json")
		return
	}
	h.logger.Debug("sheetstub: request",
		slog.String("action", req.Action),
		slog.String("user_id", req.UserID))

	switch req.Action {
	case "add":
		sheet, valid := sheetOf(req.Sheet)
		if !valid {
			fail(w, "unknown sheet")
			return
		}
		if err := h.db.Append(req.UserID, sheet, req.Data); err != nil {
			h.logger.Error("sheetstub: append", slog.String("error", err.Error()))
			fail(w, "write failed")
			return
		}
	case "update":
		sheet, valid := sheetOf(req.Sheet)
		if !valid {
			fail(w, "unknown sheet")
			return
		}
		if _, err := h.db.Update(req.UserID, sheet, req.Data); err != nil {
			h.logger.Error("sheetstub: update", slog.String("error", err.Error()))
			fail(w, "write failed")
			return
		}
	case "delete":
		sheet, valid := sheetOf(req.Sheet)
		if !valid {
			fail(w, "unknown sheet")
			return
		}
		if _, err := h.db.Delete(req.UserID, sheet, idOf(req.Data)); err != nil {
			h.logger.Error("sheetstub: delete", slog.String("error", err.Error()))
			fail(w, "write failed")
			return
		}
	case "saveSettings":
		if err := h.db.MergeSettings(req.UserID, req.Data); err != nil {
			h.logger.Error("sheetstub: settings", slog.String("error", err.Error()))
			fail(w, "write failed")
			return
		}
	case "analyzeImage":
		if !strings.HasPrefix(req.Image, "data:") {
			fail(w, "image must be a data url")
			return
		}
		res, found := h.analysis[req.Type]
		if !found {
			fail(w, "unknown analysis type")
			return
		}
		succeed(w, res)
		return
	default:
		fail(w, "unknown action")
		return
	}
	succeed(w, nil)
}

func sheetOf(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	_, found := sheets[*s]
	return *s, found
}

// Errors travel in the body with 200, as they do from a deployed script.
func succeed(w http.ResponseWriter, data any) {
	writeJSON(w, response{Status: "success", Data: data})
}

func fail(w http.ResponseWriter, msg string) {
	writeJSON(w, response{Status: "error", Message: msg})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}
