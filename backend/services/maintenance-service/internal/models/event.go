package models

// Live feed event types.
const (
	EventSessionStarted = "session_started"
	EventMovement       = "movement"
	EventIssueAdded     = "issue_added"
	EventIssueToggled   = "issue_toggled"
	EventFloorChanged   = "floor_changed"
	EventSessionEnded   = "session_ended"
)

// Event is pushed to live feed subscribers.
type Event struct {
	Type         string         `json:"type"`
	SessionID    string         `json:"sessionId"`
	ElevatorID   string         `json:"elevatorId"`
	TechnicianID string         `json:"technicianId"`
	Timestamp    int64          `json:"timestamp"`
	Floor        int            `json:"floor,omitempty"`
	Point        *MovementPoint `json:"point,omitempty"`
	Issue        *Issue         `json:"issue,omitempty"`
}
