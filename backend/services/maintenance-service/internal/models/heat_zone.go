package models

// HeatZone is one occupied grid cell of the car floor. Derived, never persisted.
type HeatZone struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Duration int     `json:"duration"`
	Label    string  `json:"label"`
}
