package analytics

import (
	"math"
	"sort"

	"elevmaint/backend/services/maintenance-service/internal/models"
)

// MovementStats summarises technician movement across an elevator's sessions.
type MovementStats struct {
	ElevatorID              string  `json:"elevatorId"`
	TotalSessions           int     `json:"totalSessions"`
	FloorsVisited           []int   `json:"floorsVisited"`
	TotalMovements          int     `json:"totalMovements"`
	TotalVerticalDistance   float64 `json:"totalVerticalDistance"`
	TotalHorizontalDistance float64 `json:"totalHorizontalDistance"`
	AvgVerticalMovement     float64 `json:"avgVerticalMovement"`
	AvgHorizontalMovement   float64 `json:"avgHorizontalMovement"`
}

// ComputeMovementStats walks consecutive sample pairs of every session.
// Averages are per pair; with no pairs every metric is zero.
func ComputeMovementStats(elevatorID string, sessions []models.MaintenanceSession) MovementStats {
	stats := MovementStats{
		ElevatorID:    elevatorID,
		TotalSessions: len(sessions),
		FloorsVisited: []int{},
	}

	floors := make(map[int]struct{})
	for i := range sessions {
		s := &sessions[i]
		for _, fv := range s.FloorsVisited {
			floors[fv.Floor] = struct{}{}
		}
		for j, p := range s.Movements {
			floors[p.Floor] = struct{}{}
			if j == 0 {
				continue
			}
			prev := s.Movements[j-1]
			stats.TotalVerticalDistance += math.Abs(float64(p.Floor-prev.Floor)) * models.FloorHeightMeters
			stats.TotalHorizontalDistance += math.Hypot(p.X-prev.X, p.Y-prev.Y)
			stats.TotalMovements++
		}
	}

	for f := range floors {
		stats.FloorsVisited = append(stats.FloorsVisited, f)
	}
	sort.Ints(stats.FloorsVisited)

	if stats.TotalMovements > 0 {
		n := float64(stats.TotalMovements)
		stats.AvgVerticalMovement = stats.TotalVerticalDistance / n
		stats.AvgHorizontalMovement = stats.TotalHorizontalDistance / n
	}
	return stats
}
