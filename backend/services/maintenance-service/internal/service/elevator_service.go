package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"elevmaint/backend/services/maintenance-service/internal/models"
	"elevmaint/backend/services/maintenance-service/internal/repository"
)

// DefaultElevators seeds an empty fleet.
func DefaultElevators() []models.Elevator {
	return []models.Elevator{
		{ID: "ELV-001", Building: "Tower A", Location: "Helsinki Central", Status: models.ElevatorStatusActive, TotalFloors: 10},
		{ID: "ELV-002", Building: "Tower A", Location: "Helsinki Central", Status: models.ElevatorStatusInactive, TotalFloors: 8},
		{ID: "ELV-003", Building: "Office Building B", Location: "Espoo Campus", Status: models.ElevatorStatusActive, TotalFloors: 12},
		{ID: "ELV-004", Building: "Residential C", Location: "Tampere North", Status: models.ElevatorStatusActive, TotalFloors: 6},
		{ID: "ELV-005", Building: "Shopping Mall D", Location: "Vantaa District", Status: models.ElevatorStatusInactive, TotalFloors: 4},
	}
}

// ElevatorService keeps the local elevator list and mirrors it to the store.
type ElevatorService struct {
	mu         sync.RWMutex
	local      map[string]models.Elevator
	repo       *repository.ElevatorRepository
	replicator *Replicator
	logger     *zap.Logger
}

// NewElevatorService builds service.
func NewElevatorService(repo *repository.ElevatorRepository, replicator *Replicator, logger *zap.Logger) *ElevatorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ElevatorService{
		local:      make(map[string]models.Elevator),
		repo:       repo,
		replicator: replicator,
		logger:     logger,
	}
}

// Bootstrap loads the fleet from the store, seeding defaults when the store is
// empty or unreachable.
func (s *ElevatorService) Bootstrap(ctx context.Context) {
	stored, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Warn("failed to load elevators from store, using defaults", zap.Error(err))
	}
	if len(stored) > 0 {
		s.merge(stored)
		s.logger.Info("loaded elevators from store", zap.Int("count", len(stored)))
		return
	}

	defaults := DefaultElevators()
	s.merge(defaults)
	for _, e := range defaults {
		s.replicator.ReplicateElevator(e)
	}
	s.logger.Info("initialized default elevators", zap.Int("count", len(defaults)))
}

// List returns the fleet ordered by id, refreshed from the store when reachable.
func (s *ElevatorService) List(ctx context.Context) []models.Elevator {
	stored, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Warn("failed to refresh elevators, serving local list", zap.Error(err))
	} else {
		s.merge(stored)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]models.Elevator, 0, len(s.local))
	for _, e := range s.local {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Find returns one elevator, falling back to the store for unknown ids.
func (s *ElevatorService) Find(ctx context.Context, id string) (models.Elevator, error) {
	s.mu.RLock()
	e, ok := s.local[id]
	s.mu.RUnlock()
	if ok {
		return e, nil
	}

	stored, err := s.repo.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, repository.ErrElevatorNotFound) {
			s.logger.Warn("failed to read elevator from store", zap.String("elevator_id", id), zap.Error(err))
		}
		return models.Elevator{}, ErrElevatorNotFound
	}
	s.merge([]models.Elevator{*stored})
	return *stored, nil
}

// Add registers a new elevator locally and replicates it.
func (s *ElevatorService) Add(ctx context.Context, elevator models.Elevator) (models.Elevator, error) {
	if err := elevator.Validate(); err != nil {
		return models.Elevator{}, fmt.Errorf("%w: %s", ErrInvalidElevator, err.Error())
	}
	if _, err := s.Find(ctx, elevator.ID); err == nil {
		return models.Elevator{}, ErrElevatorExists
	}

	s.mu.Lock()
	if _, ok := s.local[elevator.ID]; ok {
		s.mu.Unlock()
		return models.Elevator{}, ErrElevatorExists
	}
	s.local[elevator.ID] = elevator
	s.mu.Unlock()

	s.replicator.ReplicateElevator(elevator)
	s.logger.Info("elevator added", zap.String("elevator_id", elevator.ID))
	return elevator, nil
}

func (s *ElevatorService) merge(elevators []models.Elevator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range elevators {
		if e.ID == "" {
			continue
		}
		s.local[e.ID] = e
	}
}
