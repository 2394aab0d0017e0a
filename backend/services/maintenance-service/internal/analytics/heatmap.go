package analytics

import (
	"fmt"
	"math"
	"sort"

	"elevmaint/backend/services/maintenance-service/internal/models"
)

// GridCellMeters is the edge of one heat map cell.
const GridCellMeters = 0.3

type cell struct {
	gx, gy int
}

// ClusterHeatZones bins the floor's samples into a 0.3 m grid and returns one
// zone per occupied cell. Grouping makes the result independent of input order;
// zones are sorted by cell (x, then y).
func ClusterHeatZones(points []models.MovementPoint, floor int) []models.HeatZone {
	counts := make(map[cell]int)
	for _, p := range points {
		if p.Floor != floor {
			continue
		}
		c := cell{
			gx: int(math.Floor(p.X / GridCellMeters)),
			gy: int(math.Floor(p.Y / GridCellMeters)),
		}
		counts[c]++
	}

	cells := make([]cell, 0, len(counts))
	for c := range counts {
		cells = append(cells, c)
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].gx != cells[j].gx {
			return cells[i].gx < cells[j].gx
		}
		return cells[i].gy < cells[j].gy
	})

	zones := make([]models.HeatZone, 0, len(cells))
	for _, c := range cells {
		cx := float64(c.gx)*GridCellMeters + GridCellMeters/2
		cy := float64(c.gy)*GridCellMeters + GridCellMeters/2
		zones = append(zones, models.HeatZone{
			X:        cx,
			Y:        cy,
			Duration: counts[c] * models.SampleIntervalSeconds,
			Label:    fmt.Sprintf("Zone (%dcm, %dcm)", int(math.Round(cx*100)), int(math.Round(cy*100))),
		})
	}
	return zones
}

// MaxZoneDuration returns the largest zone duration, never below 1.
func MaxZoneDuration(zones []models.HeatZone) int {
	maxDuration := 1
	for _, z := range zones {
		if z.Duration > maxDuration {
			maxDuration = z.Duration
		}
	}
	return maxDuration
}

// RatedZone is a heat zone with its presentation intensity in [0, 1].
type RatedZone struct {
	models.HeatZone
	Intensity float64 `json:"intensity"`
}

// HeatMap is the per-request view of one floor of one session.
type HeatMap struct {
	SessionID   string      `json:"sessionId"`
	Floor       int         `json:"floor"`
	SampleCount int         `json:"sampleCount"`
	MaxDuration int         `json:"maxDuration"`
	Zones       []RatedZone `json:"zones"`
}

// BuildHeatMap clusters the session's samples for floor and rates every zone.
func BuildHeatMap(session *models.MaintenanceSession, floor int) HeatMap {
	zones := ClusterHeatZones(session.Movements, floor)
	maxDuration := MaxZoneDuration(zones)

	hm := HeatMap{
		SessionID:   session.ID,
		Floor:       floor,
		MaxDuration: maxDuration,
		Zones:       make([]RatedZone, 0, len(zones)),
	}
	for _, z := range zones {
		hm.SampleCount += z.Duration / models.SampleIntervalSeconds
		hm.Zones = append(hm.Zones, RatedZone{
			HeatZone:  z,
			Intensity: float64(z.Duration) / float64(maxDuration),
		})
	}
	return hm
}
