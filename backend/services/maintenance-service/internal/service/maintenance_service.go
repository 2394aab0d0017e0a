package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"elevmaint/backend/services/maintenance-service/internal/analytics"
	"elevmaint/backend/services/maintenance-service/internal/metrics"
	"elevmaint/backend/services/maintenance-service/internal/models"
	"elevmaint/backend/services/maintenance-service/internal/report"
	"elevmaint/backend/services/maintenance-service/internal/repository"
)

// Technician identifies the caller. Role is carried as received.
type Technician struct {
	ID   string
	Name string
	Role string
}

// EventPublisher receives live session events. Publish must not block.
type EventPublisher interface {
	Publish(event models.Event)
}

// SessionFilter narrows session listings. Zero values match everything.
type SessionFilter struct {
	ElevatorID string
	Floor      int
}

// MaintenanceService ties the session registry, replication and analytics.
type MaintenanceService struct {
	registry   *Registry
	sessions   *repository.SessionRepository
	elevators  *ElevatorService
	replicator *Replicator
	events     EventPublisher
	metrics    *metrics.Metrics
	logger     *zap.Logger
	location   *time.Location
	now        func() time.Time
}

// Deps groups MaintenanceService collaborators.
type Deps struct {
	Registry   *Registry
	Sessions   *repository.SessionRepository
	Elevators  *ElevatorService
	Replicator *Replicator
	Events     EventPublisher
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
	Location   *time.Location
}

// NewMaintenanceService builds service.
func NewMaintenanceService(deps Deps) *MaintenanceService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	return &MaintenanceService{
		registry:   deps.Registry,
		sessions:   deps.Sessions,
		elevators:  deps.Elevators,
		replicator: deps.Replicator,
		events:     deps.Events,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		location:   deps.Location,
		now:        time.Now,
	}
}

// MovementListener returns the hook machines should call for each sample.
func (s *MaintenanceService) MovementListener() MovementListener {
	return func(sessionID, elevatorID, technicianID string, point models.MovementPoint) {
		s.metrics.MovementRecorded()
		p := point
		s.publish(models.Event{
			Type:         models.EventMovement,
			SessionID:    sessionID,
			ElevatorID:   elevatorID,
			TechnicianID: technicianID,
			Floor:        point.Floor,
			Point:        &p,
		})
	}
}

// StartSession opens a session for the technician on a known elevator.
func (s *MaintenanceService) StartSession(ctx context.Context, tech Technician, elevatorID string, floor int) (models.MaintenanceSession, error) {
	elevatorID = strings.TrimSpace(elevatorID)
	if elevatorID == "" {
		return models.MaintenanceSession{}, ErrInvalidElevator
	}
	elevator, err := s.elevators.Find(ctx, elevatorID)
	if err != nil {
		return models.MaintenanceSession{}, err
	}
	if !elevator.HasFloor(floor) {
		return models.MaintenanceSession{}, ErrInvalidFloor
	}

	session, err := s.registry.Machine(tech.ID).Start(elevatorID, tech.ID, tech.Name, floor)
	if err != nil {
		return models.MaintenanceSession{}, err
	}

	s.metrics.SessionStarted()
	s.logger.Info("maintenance session started",
		zap.String("session_id", session.ID),
		zap.String("elevator_id", elevatorID),
		zap.String("technician_id", tech.ID),
		zap.String("role", tech.Role),
		zap.Int("floor", floor),
	)
	s.replicator.ReplicateSession(session)
	s.publish(models.Event{
		Type:         models.EventSessionStarted,
		SessionID:    session.ID,
		ElevatorID:   elevatorID,
		TechnicianID: tech.ID,
		Floor:        floor,
	})
	return session, nil
}

// CurrentSession returns the technician's active session.
func (s *MaintenanceService) CurrentSession(technicianID string) (models.MaintenanceSession, error) {
	m, ok := s.registry.Lookup(technicianID)
	if !ok {
		return models.MaintenanceSession{}, ErrNoActiveSession
	}
	session, ok := m.Current()
	if !ok {
		return models.MaintenanceSession{}, ErrNoActiveSession
	}
	return session, nil
}

// AddIssue logs an issue in the technician's active session.
func (s *MaintenanceService) AddIssue(ctx context.Context, technicianID, description string) (models.Issue, error) {
	m := s.registry.Machine(technicianID)
	issue, err := m.AddIssue(description)
	if err != nil {
		return models.Issue{}, err
	}
	s.metrics.IssueAdded()
	s.afterMutation(m, models.EventIssueAdded, &issue)
	return issue, nil
}

// ToggleIssue flips an issue's resolved flag.
func (s *MaintenanceService) ToggleIssue(ctx context.Context, technicianID, issueID string) (models.Issue, error) {
	m := s.registry.Machine(technicianID)
	issue, err := m.ToggleIssue(issueID)
	if err != nil {
		return models.Issue{}, err
	}
	s.afterMutation(m, models.EventIssueToggled, &issue)
	return issue, nil
}

// ChangeFloor moves the technician to another floor of the same elevator.
func (s *MaintenanceService) ChangeFloor(ctx context.Context, technicianID string, floor int) (models.MaintenanceSession, error) {
	current, err := s.CurrentSession(technicianID)
	if err != nil {
		return models.MaintenanceSession{}, err
	}
	if elevator, err := s.elevators.Find(ctx, current.ElevatorID); err == nil && !elevator.HasFloor(floor) {
		return models.MaintenanceSession{}, ErrInvalidFloor
	}

	m := s.registry.Machine(technicianID)
	if err := m.ChangeFloor(floor); err != nil {
		return models.MaintenanceSession{}, err
	}
	s.logger.Info("technician changed floor",
		zap.String("session_id", current.ID),
		zap.String("technician_id", technicianID),
		zap.Int("floor", floor),
	)
	s.publish(models.Event{
		Type:         models.EventFloorChanged,
		SessionID:    current.ID,
		ElevatorID:   current.ElevatorID,
		TechnicianID: technicianID,
		Floor:        floor,
	})
	current, _ = m.Current()
	return current, nil
}

// EndSession closes the technician's session, archives it locally and
// replicates it.
func (s *MaintenanceService) EndSession(ctx context.Context, technicianID string) (models.MaintenanceSession, error) {
	m, ok := s.registry.Lookup(technicianID)
	if !ok {
		return models.MaintenanceSession{}, ErrNoActiveSession
	}
	session, err := m.End()
	if err != nil {
		return models.MaintenanceSession{}, err
	}

	s.registry.Archive(session)
	s.metrics.SessionEnded(session.Duration().Seconds())
	s.logger.Info("maintenance session ended",
		zap.String("session_id", session.ID),
		zap.String("elevator_id", session.ElevatorID),
		zap.String("technician_id", technicianID),
		zap.Int("movements", len(session.Movements)),
		zap.Int("issues", len(session.Issues)),
		zap.Duration("duration", session.Duration()),
	)
	s.replicator.ReplicateSession(session)
	s.publish(models.Event{
		Type:         models.EventSessionEnded,
		SessionID:    session.ID,
		ElevatorID:   session.ElevatorID,
		TechnicianID: technicianID,
	})
	return session, nil
}

// GetSession resolves a session from the local archive, running sessions, then the store.
func (s *MaintenanceService) GetSession(ctx context.Context, id string) (models.MaintenanceSession, error) {
	if session, ok := s.registry.Archived(id); ok {
		return session, nil
	}
	for _, session := range s.registry.ActiveSessions() {
		if session.ID == id {
			return session, nil
		}
	}
	stored, err := s.sessions.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, repository.ErrSessionNotFound) {
			s.logger.Warn("failed to read session from store", zap.String("session_id", id), zap.Error(err))
		}
		return models.MaintenanceSession{}, ErrSessionNotFound
	}
	return *stored, nil
}

// ListSessions merges local and stored sessions, newest first.
func (s *MaintenanceService) ListSessions(ctx context.Context, filter SessionFilter) []models.MaintenanceSession {
	merged := make(map[string]models.MaintenanceSession)

	stored, err := s.sessions.List(ctx)
	if err != nil {
		s.logger.Warn("failed to list sessions from store, serving local sessions", zap.Error(err))
	}
	for _, session := range stored {
		merged[session.ID] = session
	}
	for _, session := range s.registry.ActiveSessions() {
		merged[session.ID] = session
	}
	for _, session := range s.registry.ArchivedSessions() {
		merged[session.ID] = session
	}

	result := make([]models.MaintenanceSession, 0, len(merged))
	for _, session := range merged {
		if filter.ElevatorID != "" && session.ElevatorID != filter.ElevatorID {
			continue
		}
		if filter.Floor > 0 && !session.VisitedFloor(filter.Floor) {
			continue
		}
		result = append(result, session)
	}
	repository.SortNewestFirst(result)
	return result
}

// ElevatorSessions returns the elevator's session history, newest first.
func (s *MaintenanceService) ElevatorSessions(ctx context.Context, elevatorID string) []models.MaintenanceSession {
	return s.ListSessions(ctx, SessionFilter{ElevatorID: elevatorID})
}

// ElevatorStats computes movement statistics over the elevator's ended sessions.
func (s *MaintenanceService) ElevatorStats(ctx context.Context, elevatorID string) analytics.MovementStats {
	var ended []models.MaintenanceSession
	for _, session := range s.ElevatorSessions(ctx, elevatorID) {
		if !session.Active() {
			ended = append(ended, session)
		}
	}
	return analytics.ComputeMovementStats(elevatorID, ended)
}

// HeatMap clusters one floor of a session.
func (s *MaintenanceService) HeatMap(ctx context.Context, sessionID string, floor int) (analytics.HeatMap, error) {
	if floor < 1 {
		return analytics.HeatMap{}, ErrInvalidFloor
	}
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return analytics.HeatMap{}, err
	}
	return analytics.BuildHeatMap(&session, floor), nil
}

// VerticalProfile returns per-floor dwell levels. Running sessions are
// aggregated from their samples so far.
func (s *MaintenanceService) VerticalProfile(ctx context.Context, sessionID string) ([]analytics.FloorLevel, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	visits := session.FloorsVisited
	if session.Active() && len(session.Movements) > 0 {
		visits = analytics.AggregateFloorTime(session.Movements)
	}
	return analytics.VerticalProfile(visits), nil
}

// Report renders the text export of an ended session.
func (s *MaintenanceService) Report(ctx context.Context, sessionID string) (string, models.MaintenanceSession, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return "", models.MaintenanceSession{}, err
	}
	text, err := report.Build(&session, s.location)
	if err != nil {
		return "", session, err
	}
	return text, session, nil
}

// Close tears down running samplers. Dropped sessions stay active in the store.
func (s *MaintenanceService) Close() {
	for _, session := range s.registry.Close() {
		s.metrics.SessionDropped()
		s.logger.Warn("active session torn down on shutdown",
			zap.String("session_id", session.ID),
			zap.String("technician_id", session.TechnicianID),
			zap.Int("movements", len(session.Movements)),
		)
	}
}

func (s *MaintenanceService) afterMutation(m *SessionMachine, eventType string, issue *models.Issue) {
	session, ok := m.Current()
	if !ok {
		return
	}
	s.replicator.ReplicateSession(session)
	s.publish(models.Event{
		Type:         eventType,
		SessionID:    session.ID,
		ElevatorID:   session.ElevatorID,
		TechnicianID: session.TechnicianID,
		Issue:        issue,
	})
}

func (s *MaintenanceService) publish(event models.Event) {
	if s.events == nil {
		return
	}
	if event.Timestamp == 0 {
		event.Timestamp = models.UnixMillis(s.now())
	}
	s.events.Publish(event)
}
