package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"elevmaint/backend/services/maintenance-service/internal/metrics"
	"elevmaint/backend/services/maintenance-service/internal/models"
	"elevmaint/backend/services/maintenance-service/internal/repository"
)

func TestReplicatorWritesInOrder(t *testing.T) {
	store := newFlakyStore()
	r := newTestReplicator(t, store)

	session := models.MaintenanceSession{ID: "s-1", ElevatorID: "ELV-001", StartTime: 1000, FloorsVisited: []models.FloorVisit{{Floor: 1}}}
	r.ReplicateSession(session)
	end := int64(2000)
	session.EndTime = &end
	r.ReplicateSession(session)
	flush(t, r)

	got, err := repository.NewSessionRepository(store).Get(context.Background(), "s-1")
	require.NoError(t, err)
	require.NotNil(t, got.EndTime)
	assert.Equal(t, int64(2000), *got.EndTime)
	assert.Equal(t, []string{"session:s-1", "session:s-1"}, store.putKeys())
}

func TestReplicatorSnapshotsRecord(t *testing.T) {
	store := newFlakyStore()
	r := newTestReplicator(t, store)

	session := models.MaintenanceSession{ID: "s-1", Issues: []models.Issue{{ID: "i-1", Description: "door"}}}
	r.ReplicateSession(session)
	session.Issues[0].Resolved = true
	flush(t, r)

	got, err := repository.NewSessionRepository(store).Get(context.Background(), "s-1")
	require.NoError(t, err)
	assert.False(t, got.Issues[0].Resolved)
}

func TestReplicatorRetriesOnce(t *testing.T) {
	store := newFlakyStore()
	store.failPuts = 1
	r := newTestReplicator(t, store)

	r.ReplicateElevator(models.Elevator{ID: "ELV-009", Building: "B", Location: "L", Status: "active", TotalFloors: 3})
	flush(t, r)

	assert.Len(t, store.putKeys(), 2)
	_, err := repository.NewElevatorRepository(store).Get(context.Background(), "ELV-009")
	assert.NoError(t, err)
}

func TestReplicatorDropsAfterRetry(t *testing.T) {
	store := newFlakyStore()
	store.failAll = true
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	r := NewReplicator(
		repository.NewSessionRepository(store),
		repository.NewElevatorRepository(store),
		ReplicatorConfig{Timeout: time.Second, RetryBackoff: -1},
		zap.NewNop(),
		m,
	)
	defer r.Close(context.Background())

	r.ReplicateSession(models.MaintenanceSession{ID: "s-1"})
	flush(t, r)

	assert.Len(t, store.putKeys(), 2)
	assert.Equal(t, 1.0, counterValue(t, reg, "elevmaint_replication_dropped_total"))
}

func TestReplicatorCloseRejectsNewWork(t *testing.T) {
	store := newFlakyStore()
	r := newTestReplicator(t, store)
	require.NoError(t, r.Close(context.Background()))

	r.ReplicateSession(models.MaintenanceSession{ID: "late"})
	assert.Empty(t, store.putKeys())
	assert.NoError(t, r.Flush(context.Background()))
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	total := 0.0
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, metric := range f.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
	}
	return total
}
