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

const elevatorKeyPrefix = "elevator:"

// ErrElevatorNotFound indicates a missing elevator record.
var ErrElevatorNotFound = errors.New("elevator not found")

// ElevatorKey returns the store key of an elevator.
func ElevatorKey(id string) string {
	return elevatorKeyPrefix + id
}

// ElevatorRepository stores elevator metadata.
type ElevatorRepository struct {
	store kvstore.Store
}

// NewElevatorRepository returns repository.
func NewElevatorRepository(store kvstore.Store) *ElevatorRepository {
	return &ElevatorRepository{store: store}
}

// Save writes the elevator record.
func (r *ElevatorRepository) Save(ctx context.Context, elevator *models.Elevator) error {
	data, err := json.Marshal(elevator)
	if err != nil {
		return fmt.Errorf("encode elevator %s: %w", elevator.ID, err)
	}
	return r.store.Put(ctx, ElevatorKey(elevator.ID), data)
}

// Get loads one elevator.
func (r *ElevatorRepository) Get(ctx context.Context, id string) (*models.Elevator, error) {
	data, err := r.store.Get(ctx, ElevatorKey(id))
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, ErrElevatorNotFound
	}
	if err != nil {
		return nil, err
	}
	var elevator models.Elevator
	if err := json.Unmarshal(data, &elevator); err != nil {
		return nil, fmt.Errorf("decode elevator %s: %w", id, err)
	}
	return &elevator, nil
}

// List returns all elevators ordered by id.
func (r *ElevatorRepository) List(ctx context.Context) ([]models.Elevator, error) {
	raw, err := r.store.GetByPrefix(ctx, elevatorKeyPrefix)
	if err != nil {
		return nil, err
	}
	elevators := make([]models.Elevator, 0, len(raw))
	for _, data := range raw {
		var e models.Elevator
		if err := json.Unmarshal(data, &e); err != nil || e.ID == "" {
			continue
		}
		elevators = append(elevators, e)
	}
	sort.Slice(elevators, func(i, j int) bool { return elevators[i].ID < elevators[j].ID })
	return elevators, nil
}
