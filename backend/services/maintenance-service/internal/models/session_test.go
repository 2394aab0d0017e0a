package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionJSONKeepsNullEndTime(t *testing.T) {
	s := MaintenanceSession{ID: "s-1", ElevatorID: "ELV-001", StartTime: 1700000000000}
	clone := s.Clone()

	data, err := json.Marshal(clone)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	value, present := raw["endTime"]
	assert.True(t, present)
	assert.Nil(t, value)
	assert.Equal(t, []any{}, raw["movements"])
	assert.Equal(t, float64(1700000000000), raw["startTime"])
}

func TestCloneDoesNotAlias(t *testing.T) {
	end := int64(10)
	s := MaintenanceSession{
		EndTime: &end,
		Issues:  []Issue{{ID: "1", Description: "door"}},
	}
	c := s.Clone()
	c.Issues[0].Resolved = true
	*c.EndTime = 99

	assert.False(t, s.Issues[0].Resolved)
	assert.Equal(t, int64(10), *s.EndTime)
}

func TestSessionHelpers(t *testing.T) {
	end := int64(65_000)
	s := MaintenanceSession{
		StartTime:     0,
		EndTime:       &end,
		Issues:        []Issue{{Resolved: true}, {}},
		FloorsVisited: []FloorVisit{{Floor: 2, TimeSpent: 5}},
	}
	assert.False(t, s.Active())
	assert.Equal(t, 1, s.ResolvedIssues())
	assert.Equal(t, 65*time.Second, s.Duration())
	assert.True(t, s.VisitedFloor(2))
	assert.False(t, s.VisitedFloor(3))
}

func TestElevatorValidate(t *testing.T) {
	ok := Elevator{ID: "ELV-001", Building: "Tower A", Location: "Helsinki Central", Status: ElevatorStatusActive, TotalFloors: 10}
	require.NoError(t, ok.Validate())
	assert.True(t, ok.HasFloor(10))
	assert.False(t, ok.HasFloor(0))

	bad := ok
	bad.TotalFloors = 0
	assert.Error(t, bad.Validate())

	bad = ok
	bad.Status = "broken"
	assert.Error(t, bad.Validate())
}
