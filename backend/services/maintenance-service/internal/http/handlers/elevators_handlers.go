package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"elevmaint/backend/services/maintenance-service/internal/models"
	"elevmaint/backend/services/maintenance-service/internal/service"
)

// ElevatorsHandlers serves the fleet and per-elevator history.
type ElevatorsHandlers struct {
	elevators *service.ElevatorService
	sessions  *service.MaintenanceService
	logger    *zap.Logger
}

// NewElevatorsHandlers builds handler set.
func NewElevatorsHandlers(elevators *service.ElevatorService, sessions *service.MaintenanceService, logger *zap.Logger) *ElevatorsHandlers {
	return &ElevatorsHandlers{elevators: elevators, sessions: sessions, logger: logger}
}

// List handles GET /elevators.
func (h *ElevatorsHandlers) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"elevators": h.elevators.List(r.Context()),
	})
}

// Add handles POST /elevators.
func (h *ElevatorsHandlers) Add(w http.ResponseWriter, r *http.Request) {
	var req models.Elevator
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Status == "" {
		req.Status = models.ElevatorStatusActive
	}
	elevator, err := h.elevators.Add(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, elevator)
}

// Sessions handles GET /elevators/{id}/sessions.
func (h *ElevatorsHandlers) Sessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": h.sessions.ElevatorSessions(r.Context(), r.PathValue("id")),
	})
}

// Stats handles GET /elevators/{id}/stats.
func (h *ElevatorsHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sessions.ElevatorStats(r.Context(), r.PathValue("id")))
}
