package service

import (
	"sync"

	"elevmaint/backend/services/maintenance-service/internal/models"
	"elevmaint/backend/services/maintenance-service/internal/repository"
)

// Registry owns one SessionMachine per technician and the local archive of
// ended sessions. The archive is authoritative for this process.
type Registry struct {
	mu         sync.RWMutex
	machines   map[string]*SessionMachine
	archive    map[string]models.MaintenanceSession
	newMachine func() *SessionMachine
}

// NewRegistry returns an empty registry. factory builds machines on first use.
func NewRegistry(factory func() *SessionMachine) *Registry {
	if factory == nil {
		factory = func() *SessionMachine { return NewSessionMachine() }
	}
	return &Registry{
		machines:   make(map[string]*SessionMachine),
		archive:    make(map[string]models.MaintenanceSession),
		newMachine: factory,
	}
}

// Machine returns the technician's machine, creating it when missing.
func (r *Registry) Machine(technicianID string) *SessionMachine {
	r.mu.RLock()
	m, ok := r.machines[technicianID]
	r.mu.RUnlock()
	if ok {
		return m
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.machines[technicianID]; ok {
		return m
	}
	m = r.newMachine()
	r.machines[technicianID] = m
	return m
}

// Lookup returns an existing machine.
func (r *Registry) Lookup(technicianID string) (*SessionMachine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.machines[technicianID]
	return m, ok
}

// Archive stores a copy of an ended session.
func (r *Registry) Archive(session models.MaintenanceSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.archive[session.ID] = session.Clone()
}

// Archived returns a copy of an ended session.
func (r *Registry) Archived(id string) (models.MaintenanceSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.archive[id]
	if !ok {
		return models.MaintenanceSession{}, false
	}
	return s.Clone(), true
}

// ArchivedSessions returns copies of all ended sessions, newest first.
func (r *Registry) ArchivedSessions() []models.MaintenanceSession {
	r.mu.RLock()
	result := make([]models.MaintenanceSession, 0, len(r.archive))
	for _, s := range r.archive {
		result = append(result, s.Clone())
	}
	r.mu.RUnlock()

	repository.SortNewestFirst(result)
	return result
}

// ActiveSessions returns snapshots of every running session.
func (r *Registry) ActiveSessions() []models.MaintenanceSession {
	r.mu.RLock()
	machines := make([]*SessionMachine, 0, len(r.machines))
	for _, m := range r.machines {
		machines = append(machines, m)
	}
	r.mu.RUnlock()

	result := make([]models.MaintenanceSession, 0)
	for _, m := range machines {
		if s, ok := m.Current(); ok {
			result = append(result, s)
		}
	}
	repository.SortNewestFirst(result)
	return result
}

// Close tears down every running session and returns what was dropped.
func (r *Registry) Close() []models.MaintenanceSession {
	r.mu.RLock()
	machines := make([]*SessionMachine, 0, len(r.machines))
	for _, m := range r.machines {
		machines = append(machines, m)
	}
	r.mu.RUnlock()

	var dropped []models.MaintenanceSession
	for _, m := range machines {
		if s, ok := m.Teardown(); ok {
			dropped = append(dropped, s)
		}
	}
	return dropped
}
