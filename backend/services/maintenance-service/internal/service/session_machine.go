package service

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"elevmaint/backend/services/maintenance-service/internal/analytics"
	"elevmaint/backend/services/maintenance-service/internal/models"
	"elevmaint/backend/services/maintenance-service/internal/sampler"
)

// MovementListener observes samples appended to the active session.
type MovementListener func(sessionID, elevatorID, technicianID string, point models.MovementPoint)

// SessionMachine holds zero or one current session: Idle, or Active until End.
// Ended sessions are handed back to the caller and no longer referenced.
type SessionMachine struct {
	mu      sync.Mutex
	current *models.MaintenanceSession
	handle  *sampler.Handle
	floor   atomic.Int64

	sampler    *sampler.Sampler
	now        func() time.Time
	newID      func() string
	onMovement MovementListener
}

// MachineOption customises a SessionMachine.
type MachineOption func(*SessionMachine)

// WithSampler attaches the movement sampler started with each session.
func WithSampler(s *sampler.Sampler) MachineOption {
	return func(m *SessionMachine) { m.sampler = s }
}

// WithMachineClock replaces time.Now.
func WithMachineClock(now func() time.Time) MachineOption {
	return func(m *SessionMachine) {
		if now != nil {
			m.now = now
		}
	}
}

// WithIDGenerator replaces uuid generation for session and issue ids.
func WithIDGenerator(newID func() string) MachineOption {
	return func(m *SessionMachine) {
		if newID != nil {
			m.newID = newID
		}
	}
}

// WithMovementListener registers a callback run after each appended sample.
func WithMovementListener(l MovementListener) MachineOption {
	return func(m *SessionMachine) { m.onMovement = l }
}

// NewSessionMachine returns an Idle machine.
func NewSessionMachine(opts ...MachineOption) *SessionMachine {
	m := &SessionMachine{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start opens a session and begins sampling. It fails with ErrSessionActive
// and leaves the running session untouched when one exists.
func (m *SessionMachine) Start(elevatorID, technicianID, technicianName string, initialFloor int) (models.MaintenanceSession, error) {
	if initialFloor < 1 {
		return models.MaintenanceSession{}, ErrInvalidFloor
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		return models.MaintenanceSession{}, ErrSessionActive
	}

	session := &models.MaintenanceSession{
		ID:             "session-" + m.newID(),
		ElevatorID:     elevatorID,
		TechnicianID:   technicianID,
		TechnicianName: technicianName,
		StartTime:      models.UnixMillis(m.now()),
		Issues:         []models.Issue{},
		Movements:      []models.MovementPoint{},
		FloorsVisited:  []models.FloorVisit{{Floor: initialFloor, TimeSpent: 0}},
	}
	m.current = session
	m.floor.Store(int64(initialFloor))

	if m.sampler != nil {
		id := session.ID
		m.handle = m.sampler.Start(m.currentFloor, func(p models.MovementPoint) {
			m.appendSample(id, p)
		})
	}

	return session.Clone(), nil
}

// AddIssue appends an unresolved issue to the active session.
func (m *SessionMachine) AddIssue(description string) (models.Issue, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return models.Issue{}, ErrInvalidIssue
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return models.Issue{}, ErrNoActiveSession
	}
	issue := models.Issue{
		ID:          m.newID(),
		Description: description,
		Resolved:    false,
		Timestamp:   models.UnixMillis(m.now()),
	}
	m.current.Issues = append(m.current.Issues, issue)
	return issue, nil
}

// ToggleIssue flips the resolved flag of an issue in the active session.
func (m *SessionMachine) ToggleIssue(issueID string) (models.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return models.Issue{}, ErrNoActiveSession
	}
	for i := range m.current.Issues {
		if m.current.Issues[i].ID == issueID {
			m.current.Issues[i].Resolved = !m.current.Issues[i].Resolved
			return m.current.Issues[i], nil
		}
	}
	return models.Issue{}, ErrIssueNotFound
}

// RecordMovement appends a sample to the active session.
func (m *SessionMachine) RecordMovement(point models.MovementPoint) error {
	m.mu.Lock()
	if m.current == nil {
		m.mu.Unlock()
		return ErrNoActiveSession
	}
	m.current.Movements = append(m.current.Movements, point)
	sessionID, elevatorID, technicianID := m.current.ID, m.current.ElevatorID, m.current.TechnicianID
	m.mu.Unlock()

	m.notify(sessionID, elevatorID, technicianID, point)
	return nil
}

// ChangeFloor moves the technician; later samples carry the new floor.
func (m *SessionMachine) ChangeFloor(floor int) error {
	if floor < 1 {
		return ErrInvalidFloor
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return ErrNoActiveSession
	}
	m.floor.Store(int64(floor))
	return nil
}

// Floor returns the floor the sampler currently reports.
func (m *SessionMachine) Floor() int {
	return m.currentFloor()
}

// Current returns a snapshot of the active session.
func (m *SessionMachine) Current() (models.MaintenanceSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return models.MaintenanceSession{}, false
	}
	return m.current.Clone(), true
}

// End closes the active session. Sampling stops before End returns, and floor
// visits are recomputed from the samples; with no samples the seed floor stays.
func (m *SessionMachine) End() (models.MaintenanceSession, error) {
	session, handle := m.detach()
	if session == nil {
		return models.MaintenanceSession{}, ErrNoActiveSession
	}
	if handle != nil {
		handle.Stop()
	}

	end := models.UnixMillis(m.now())
	if end < session.StartTime {
		end = session.StartTime
	}
	session.EndTime = &end

	if len(session.Movements) > 0 {
		session.FloorsVisited = analytics.AggregateFloorTime(session.Movements)
	}
	return *session, nil
}

// Teardown stops sampling and forgets the active session without ending it.
func (m *SessionMachine) Teardown() (models.MaintenanceSession, bool) {
	session, handle := m.detach()
	if session == nil {
		return models.MaintenanceSession{}, false
	}
	if handle != nil {
		handle.Stop()
	}
	return *session, true
}

// detach removes the current session under the lock. Any sample arriving after
// this point sees a different (or no) session and is dropped.
func (m *SessionMachine) detach() (*models.MaintenanceSession, *sampler.Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, handle := m.current, m.handle
	m.current, m.handle = nil, nil
	return session, handle
}

func (m *SessionMachine) appendSample(sessionID string, point models.MovementPoint) {
	m.mu.Lock()
	if m.current == nil || m.current.ID != sessionID {
		m.mu.Unlock()
		return
	}
	m.current.Movements = append(m.current.Movements, point)
	elevatorID, technicianID := m.current.ElevatorID, m.current.TechnicianID
	m.mu.Unlock()

	m.notify(sessionID, elevatorID, technicianID, point)
}

func (m *SessionMachine) notify(sessionID, elevatorID, technicianID string, point models.MovementPoint) {
	if m.onMovement != nil {
		m.onMovement(sessionID, elevatorID, technicianID, point)
	}
}

func (m *SessionMachine) currentFloor() int {
	return int(m.floor.Load())
}
