package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"elevmaint/backend/services/maintenance-service/internal/http/middleware"
	"elevmaint/backend/services/maintenance-service/internal/report"
	"elevmaint/backend/services/maintenance-service/internal/service"
)

const maxBodyBytes = 64 << 10

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

func identity(w http.ResponseWriter, r *http.Request) (middleware.Identity, bool) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
	}
	return id, ok
}

func queryInt(r *http.Request, name string) (int, bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(raw)
	return v, true, err
}

// writeServiceError maps domain errors to status codes.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrNoActiveSession):
		writeError(w, http.StatusConflict, "no active session")
	case errors.Is(err, service.ErrSessionActive):
		writeError(w, http.StatusConflict, "session already active")
	case errors.Is(err, service.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrIssueNotFound):
		writeError(w, http.StatusNotFound, "issue not found")
	case errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, service.ErrElevatorNotFound):
		writeError(w, http.StatusNotFound, "elevator not found")
	case errors.Is(err, service.ErrElevatorExists):
		writeError(w, http.StatusConflict, "elevator already exists")
	case errors.Is(err, report.ErrIncompleteSession):
		writeError(w, http.StatusConflict, "session has not ended")
	case errors.Is(err, service.ErrInvalidIssue),
		errors.Is(err, service.ErrInvalidFloor),
		errors.Is(err, service.ErrInvalidElevator):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
