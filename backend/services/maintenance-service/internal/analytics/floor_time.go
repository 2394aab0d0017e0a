package analytics

import (
	"sort"

	"elevmaint/backend/services/maintenance-service/internal/models"
)

// AggregateFloorTime collapses samples into per-floor dwell time. Each sample
// accounts for one sampler interval; gaps between samples are not measured.
// The result is sorted by floor.
func AggregateFloorTime(points []models.MovementPoint) []models.FloorVisit {
	counts := make(map[int]int)
	for _, p := range points {
		counts[p.Floor]++
	}

	visits := make([]models.FloorVisit, 0, len(counts))
	for floor, n := range counts {
		visits = append(visits, models.FloorVisit{
			Floor:     floor,
			TimeSpent: n * models.SampleIntervalSeconds,
		})
	}
	SortFloorVisits(visits)
	return visits
}

// SortFloorVisits orders visits by floor ascending in place.
func SortFloorVisits(visits []models.FloorVisit) {
	sort.Slice(visits, func(i, j int) bool { return visits[i].Floor < visits[j].Floor })
}

// TotalTimeSpent sums TimeSpent over visits.
func TotalTimeSpent(visits []models.FloorVisit) int {
	total := 0
	for _, v := range visits {
		total += v.TimeSpent
	}
	return total
}

// FloorLevel is one bar of the vertical heat map.
type FloorLevel struct {
	Floor     int     `json:"floor"`
	TimeSpent int     `json:"timeSpent"`
	HeightM   float64 `json:"heightMeters"`
	Intensity float64 `json:"intensity"`
}

// VerticalProfile turns floor visits into levels with intensity relative to the
// busiest floor. The max is floored at 1 so an all-zero profile stays zero.
func VerticalProfile(visits []models.FloorVisit) []FloorLevel {
	maxTime := 1
	for _, v := range visits {
		if v.TimeSpent > maxTime {
			maxTime = v.TimeSpent
		}
	}

	levels := make([]FloorLevel, 0, len(visits))
	for _, v := range visits {
		levels = append(levels, FloorLevel{
			Floor:     v.Floor,
			TimeSpent: v.TimeSpent,
			HeightM:   float64(v.Floor-1) * models.FloorHeightMeters,
			Intensity: float64(v.TimeSpent) / float64(maxTime),
		})
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].Floor < levels[j].Floor })
	return levels
}
