package handlers

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"elevmaint/backend/services/maintenance-service/internal/report"
	"elevmaint/backend/services/maintenance-service/internal/service"
)

// SessionsHandlers serves the technician session workflow and session views.
type SessionsHandlers struct {
	svc    *service.MaintenanceService
	logger *zap.Logger
}

// NewSessionsHandlers builds handler set.
func NewSessionsHandlers(svc *service.MaintenanceService, logger *zap.Logger) *SessionsHandlers {
	return &SessionsHandlers{svc: svc, logger: logger}
}

type startRequest struct {
	ElevatorID string `json:"elevatorId"`
	Floor      int    `json:"floor"`
}

type issueRequest struct {
	Description string `json:"description"`
}

type floorRequest struct {
	Floor int `json:"floor"`
}

// Start handles POST /sessions/start.
func (h *SessionsHandlers) Start(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req startRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Floor == 0 {
		req.Floor = 1
	}

	session, err := h.svc.StartSession(r.Context(), service.Technician{
		ID:   id.TechnicianID,
		Name: id.Name,
		Role: id.Role,
	}, req.ElevatorID, req.Floor)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// Current handles GET /sessions/current.
func (h *SessionsHandlers) Current(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	session, err := h.svc.CurrentSession(id.TechnicianID)
	if err != nil {
		writeError(w, http.StatusNotFound, "no active session")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// AddIssue handles POST /sessions/current/issues.
func (h *SessionsHandlers) AddIssue(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req issueRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	issue, err := h.svc.AddIssue(r.Context(), id.TechnicianID, req.Description)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, issue)
}

// ToggleIssue handles POST /sessions/current/issues/{issueId}/toggle.
func (h *SessionsHandlers) ToggleIssue(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	issue, err := h.svc.ToggleIssue(r.Context(), id.TechnicianID, r.PathValue("issueId"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

// ChangeFloor handles POST /sessions/current/floor.
func (h *SessionsHandlers) ChangeFloor(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req floorRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	session, err := h.svc.ChangeFloor(r.Context(), id.TechnicianID, req.Floor)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// End handles POST /sessions/current/end.
func (h *SessionsHandlers) End(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	session, err := h.svc.EndSession(r.Context(), id.TechnicianID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// List handles GET /sessions with optional elevator_id and floor filters.
func (h *SessionsHandlers) List(w http.ResponseWriter, r *http.Request) {
	floor, _, err := queryInt(r, "floor")
	if err != nil || floor < 0 {
		writeError(w, http.StatusBadRequest, "invalid floor")
		return
	}
	sessions := h.svc.ListSessions(r.Context(), service.SessionFilter{
		ElevatorID: r.URL.Query().Get("elevator_id"),
		Floor:      floor,
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": sessions,
	})
}

// Get handles GET /sessions/{id}.
func (h *SessionsHandlers) Get(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// HeatMap handles GET /sessions/{id}/heatmap?floor=n.
func (h *SessionsHandlers) HeatMap(w http.ResponseWriter, r *http.Request) {
	floor, present, err := queryInt(r, "floor")
	if err != nil || !present {
		writeError(w, http.StatusBadRequest, "floor is required")
		return
	}
	hm, err := h.svc.HeatMap(r.Context(), r.PathValue("id"), floor)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, hm)
}

// Vertical handles GET /sessions/{id}/vertical.
func (h *SessionsHandlers) Vertical(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	levels, err := h.svc.VerticalProfile(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessionId": sessionID,
		"levels":    levels,
	})
}

// Report handles GET /sessions/{id}/report and returns the text export.
func (h *SessionsHandlers) Report(w http.ResponseWriter, r *http.Request) {
	text, session, err := h.svc.Report(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName(&session)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}
