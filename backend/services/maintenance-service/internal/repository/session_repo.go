package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"elevmaint/backend/services/maintenance-service/internal/kvstore"
	"elevmaint/backend/services/maintenance-service/internal/models"
)

const sessionKeyPrefix = "session:"

// ErrSessionNotFound indicates a missing session record.
var ErrSessionNotFound = errors.New("session not found")

// SessionKey returns the store key of a session.
func SessionKey(id string) string {
	return sessionKeyPrefix + id
}

// SessionRepository handles persistence of maintenance sessions.
type SessionRepository struct {
	store kvstore.Store
}

// NewSessionRepository returns repository.
func NewSessionRepository(store kvstore.Store) *SessionRepository {
	return &SessionRepository{store: store}
}

// Save writes the full session record.
func (r *SessionRepository) Save(ctx context.Context, session *models.MaintenanceSession) error {
	snapshot := session.Clone()
	data, err := json.Marshal(&snapshot)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.ID, err)
	}
	return r.store.Put(ctx, SessionKey(session.ID), data)
}

// Get loads one session.
func (r *SessionRepository) Get(ctx context.Context, id string) (*models.MaintenanceSession, error) {
	data, err := r.store.Get(ctx, SessionKey(id))
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var session models.MaintenanceSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &session, nil
}

// List returns all sessions, newest first. Undecodable records are skipped.
func (r *SessionRepository) List(ctx context.Context) ([]models.MaintenanceSession, error) {
	raw, err := r.store.GetByPrefix(ctx, sessionKeyPrefix)
	if err != nil {
		return nil, err
	}
	sessions := make([]models.MaintenanceSession, 0, len(raw))
	for _, data := range raw {
		var s models.MaintenanceSession
		if err := json.Unmarshal(data, &s); err != nil || s.ID == "" {
			continue
		}
		sessions = append(sessions, s)
	}
	SortNewestFirst(sessions)
	return sessions, nil
}

// ListByElevator returns the elevator's sessions, newest first.
func (r *SessionRepository) ListByElevator(ctx context.Context, elevatorID string) ([]models.MaintenanceSession, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	filtered := all[:0]
	for _, s := range all {
		if s.ElevatorID == elevatorID {
			filtered = append(filtered, s)
		}
	}
	return filtered, nil
}

// SortNewestFirst orders sessions by start time descending, id as tiebreak.
func SortNewestFirst(sessions []models.MaintenanceSession) {
	sort.SliceStable(sessions, func(i, j int) bool {
		if sessions[i].StartTime != sessions[j].StartTime {
			return sessions[i].StartTime > sessions[j].StartTime
		}
		return sessions[i].ID < sessions[j].ID
	})
}
