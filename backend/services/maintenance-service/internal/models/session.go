package models

import "time"

const (
	// SampleIntervalSeconds is the fixed movement sampler cadence.
	SampleIntervalSeconds = 5
	// SampleInterval is SampleIntervalSeconds as a duration.
	SampleInterval = SampleIntervalSeconds * time.Second
	// FloorHeightMeters converts floors to vertical position.
	FloorHeightMeters = 3.0
	// CarFootprintMeters bounds in-car x and y.
	CarFootprintMeters = 1.5
)

// Issue found or resolved during a session.
type Issue struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Resolved    bool   `json:"resolved"`
	Timestamp   int64  `json:"timestamp"`
}

// MovementPoint is one position sample. Timestamp is milliseconds since epoch.
type MovementPoint struct {
	Timestamp int64   `json:"timestamp"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         float64 `json:"z"`
	Floor     int     `json:"floor"`
}

// FloorVisit is the dwell time on one floor in seconds.
type FloorVisit struct {
	Floor     int `json:"floor"`
	TimeSpent int `json:"timeSpent"`
}

// MaintenanceSession is one technician engagement on one elevator.
// EndTime is nil while the session is active.
type MaintenanceSession struct {
	ID             string          `json:"id"`
	ElevatorID     string          `json:"elevatorId"`
	TechnicianID   string          `json:"technicianId"`
	TechnicianName string          `json:"technicianName"`
	StartTime      int64           `json:"startTime"`
	EndTime        *int64          `json:"endTime"`
	Issues         []Issue         `json:"issues"`
	Movements      []MovementPoint `json:"movements"`
	FloorsVisited  []FloorVisit    `json:"floorsVisited"`
}

// Active reports whether the session has not ended yet.
func (s *MaintenanceSession) Active() bool {
	return s.EndTime == nil
}

// ResolvedIssues counts resolved issues.
func (s *MaintenanceSession) ResolvedIssues() int {
	n := 0
	for _, issue := range s.Issues {
		if issue.Resolved {
			n++
		}
	}
	return n
}

// Duration is endTime - startTime, zero while active.
func (s *MaintenanceSession) Duration() time.Duration {
	if s.EndTime == nil {
		return 0
	}
	return time.Duration(*s.EndTime-s.StartTime) * time.Millisecond
}

// VisitedFloor reports whether floor appears in FloorsVisited.
func (s *MaintenanceSession) VisitedFloor(floor int) bool {
	for _, fv := range s.FloorsVisited {
		if fv.Floor == floor {
			return true
		}
	}
	return false
}

// Clone returns a deep copy that is safe to hand out while the session keeps changing.
// Slices are never nil in the copy so JSON always carries arrays.
func (s *MaintenanceSession) Clone() MaintenanceSession {
	out := *s
	if s.EndTime != nil {
		end := *s.EndTime
		out.EndTime = &end
	}
	out.Issues = append(make([]Issue, 0, len(s.Issues)), s.Issues...)
	out.Movements = append(make([]MovementPoint, 0, len(s.Movements)), s.Movements...)
	out.FloorsVisited = append(make([]FloorVisit, 0, len(s.FloorsVisited)), s.FloorsVisited...)
	return out
}

// UnixMillis converts t to the timestamp unit used by sessions.
func UnixMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis converts a session timestamp back to time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}
