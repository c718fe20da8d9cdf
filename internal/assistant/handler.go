package assistant

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Vovarama1992/hr-assistant/internal/query"
)

type Handler struct {
	svc Service
	log *zap.Logger
}

func NewHandler(svc Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// HandleQuery: one question from the portal
func (h *Handler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Question   string `json:"question"`
		EmployeeID string `json:"employee_id"`
		Role       string `json:"role"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	payload.Question = strings.TrimSpace(payload.Question)
	if payload.Question == "" {
		http.Error(w, "missing question", http.StatusBadRequest)
		return
	}

	role, err := query.ParseRole(payload.Role)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	q := query.Query{
		Text:     payload.Question,
		CallerID: strings.TrimSpace(payload.EmployeeID),
		Role:     role,
	}
	if q.CallerID == "" && !query.MayMutate(role) {
		http.Error(w, "missing employee_id", http.StatusBadRequest)
		return
	}

	h.writeJSON(w, h.svc.Handle(r.Context(), q))
}

func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.svc.Status(r.Context()))
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("write response", zap.Error(err))
	}
}
