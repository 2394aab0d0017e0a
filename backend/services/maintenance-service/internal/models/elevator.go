package models

import (
	"errors"
	"strings"
)

// Elevator statuses.
const (
	ElevatorStatusActive   = "active"
	ElevatorStatusInactive = "inactive"
)

// Elevator is a maintained car. Immutable once created except Status.
type Elevator struct {
	ID          string `json:"id"`
	Building    string `json:"building"`
	Location    string `json:"location"`
	Status      string `json:"status"`
	TotalFloors int    `json:"totalFloors"`
}

// Validate checks required fields.
func (e Elevator) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return errors.New("elevator id is required")
	}
	if strings.TrimSpace(e.Building) == "" {
		return errors.New("building is required")
	}
	if strings.TrimSpace(e.Location) == "" {
		return errors.New("location is required")
	}
	if e.Status != ElevatorStatusActive && e.Status != ElevatorStatusInactive {
		return errors.New("status must be active or inactive")
	}
	if e.TotalFloors < 1 {
		return errors.New("totalFloors must be at least 1")
	}
	return nil
}

// HasFloor reports whether floor lies within the building.
func (e Elevator) HasFloor(floor int) bool {
	return floor >= 1 && floor <= e.TotalFloors
}
