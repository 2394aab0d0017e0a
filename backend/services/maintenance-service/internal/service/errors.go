package service

import (
	"errors"
	"fmt"

	"elevmaint/backend/services/maintenance-service/internal/repository"
)

var (
	// ErrInvalidTransition is the root of every lifecycle misuse.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrSessionActive is returned by Start while a session is running.
	ErrSessionActive = fmt.Errorf("%w: session already active", ErrInvalidTransition)
	// ErrNoActiveSession is returned by operations that need a running session.
	ErrNoActiveSession = fmt.Errorf("%w: no active session", ErrInvalidTransition)

	ErrIssueNotFound    = errors.New("issue not found")
	ErrInvalidIssue     = errors.New("issue description is required")
	ErrInvalidFloor     = errors.New("invalid floor")
	ErrInvalidElevator  = errors.New("invalid elevator")
	ErrElevatorExists   = errors.New("elevator already exists")
	ErrElevatorNotFound = repository.ErrElevatorNotFound
	ErrSessionNotFound  = repository.ErrSessionNotFound
)
