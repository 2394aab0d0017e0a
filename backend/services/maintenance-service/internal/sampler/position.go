package sampler

import (
	"math/rand/v2"
	"sync"

	"elevmaint/backend/services/maintenance-service/internal/models"
)

// PositionSource yields the technician's in-car position in meters.
type PositionSource interface {
	Position() (x, y float64)
}

// RandomPositionSource draws x and y uniformly from [0, 1.5).
// It stands in for a real indoor-positioning feed.
type RandomPositionSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomPositionSource seeds a source. Equal seeds give equal sequences.
func NewRandomPositionSource(seed1, seed2 uint64) *RandomPositionSource {
	return &RandomPositionSource{rng: rand.New(rand.NewPCG(seed1, seed2))}
}

// Position implements PositionSource.
func (r *RandomPositionSource) Position() (float64, float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64() * models.CarFootprintMeters, r.rng.Float64() * models.CarFootprintMeters
}

// PositionFunc adapts a function to PositionSource.
type PositionFunc func() (float64, float64)

// Position implements PositionSource.
func (f PositionFunc) Position() (float64, float64) {
	return f()
}

// NewPoint builds a sample, clamping x and y to the car footprint.
func NewPoint(timestampMs int64, x, y float64, floor int) models.MovementPoint {
	return models.MovementPoint{
		Timestamp: timestampMs,
		X:         clamp(x),
		Y:         clamp(y),
		Z:         float64(floor-1) * models.FloorHeightMeters,
		Floor:     floor,
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > models.CarFootprintMeters {
		return models.CarFootprintMeters
	}
	return v
}
