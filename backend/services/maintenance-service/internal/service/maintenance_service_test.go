package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"elevmaint/backend/services/maintenance-service/internal/models"
	"elevmaint/backend/services/maintenance-service/internal/report"
	"elevmaint/backend/services/maintenance-service/internal/repository"
	"elevmaint/backend/services/maintenance-service/internal/sampler"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.Event
}

func (p *recordingPublisher) Publish(e models.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type serviceFixture struct {
	svc        *MaintenanceService
	store      *flakyStore
	replicator *Replicator
	events     *recordingPublisher
}

var aino = Technician{ID: "MNT-1", Name: "Aino", Role: "technician"}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	store := newFlakyStore()
	replicator := newTestReplicator(t, store)
	elevators := NewElevatorService(repository.NewElevatorRepository(store), replicator, zap.NewNop())
	elevators.Bootstrap(context.Background())

	ids := sequentialIDs()
	registry := NewRegistry(func() *SessionMachine {
		clock := &stepClock{now: time.UnixMilli(1_700_000_000_000), step: time.Minute}
		return NewSessionMachine(WithMachineClock(clock.Now), WithIDGenerator(ids))
	})
	events := &recordingPublisher{}
	svc := NewMaintenanceService(Deps{
		Registry:   registry,
		Sessions:   repository.NewSessionRepository(store),
		Elevators:  elevators,
		Replicator: replicator,
		Events:     events,
		Logger:     zap.NewNop(),
	})
	return &serviceFixture{svc: svc, store: store, replicator: replicator, events: events}
}

func TestStartAndEndImmediately(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	started, err := f.svc.StartSession(ctx, aino, "ELV-001", 3)
	require.NoError(t, err)

	ended, err := f.svc.EndSession(ctx, aino.ID)
	require.NoError(t, err)
	assert.Equal(t, started.ID, ended.ID)
	require.NotNil(t, ended.EndTime)
	assert.Equal(t, []models.FloorVisit{{Floor: 3, TimeSpent: 0}}, ended.FloorsVisited)

	flush(t, f.replicator)
	stored, err := repository.NewSessionRepository(f.store).Get(ctx, ended.ID)
	require.NoError(t, err)
	assert.Equal(t, ended, *stored)

	assert.Equal(t, []string{models.EventSessionStarted, models.EventSessionEnded}, f.events.types())

	_, err = f.svc.CurrentSession(aino.ID)
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestStartValidatesElevatorAndFloor(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.StartSession(ctx, aino, "ELV-404", 1)
	assert.ErrorIs(t, err, ErrElevatorNotFound)

	_, err = f.svc.StartSession(ctx, aino, "  ", 1)
	assert.ErrorIs(t, err, ErrInvalidElevator)

	_, err = f.svc.StartSession(ctx, aino, "ELV-005", 5)
	assert.ErrorIs(t, err, ErrInvalidFloor)
}

func TestStartWhileActiveFails(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	first, err := f.svc.StartSession(ctx, aino, "ELV-001", 1)
	require.NoError(t, err)
	_, err = f.svc.StartSession(ctx, aino, "ELV-003", 2)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	current, err := f.svc.CurrentSession(aino.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, current.ID)
	assert.Equal(t, "ELV-001", current.ElevatorID)
}

func TestEndWithoutSessionIsRejected(t *testing.T) {
	f := newServiceFixture(t)
	_, err := f.svc.EndSession(context.Background(), "MNT-9")
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestStoreOutageDoesNotFailOperations(t *testing.T) {
	f := newServiceFixture(t)
	f.store.mu.Lock()
	f.store.failAll = true
	f.store.mu.Unlock()
	ctx := context.Background()

	_, err := f.svc.StartSession(ctx, aino, "ELV-001", 2)
	require.NoError(t, err)
	issue, err := f.svc.AddIssue(ctx, aino.ID, "brake pad worn")
	require.NoError(t, err)
	_, err = f.svc.ToggleIssue(ctx, aino.ID, issue.ID)
	require.NoError(t, err)
	ended, err := f.svc.EndSession(ctx, aino.ID)
	require.NoError(t, err)
	flush(t, f.replicator)

	got, err := f.svc.GetSession(ctx, ended.ID)
	require.NoError(t, err)
	require.Len(t, got.Issues, 1)
	assert.True(t, got.Issues[0].Resolved)

	assert.Len(t, f.svc.ElevatorSessions(ctx, "ELV-001"), 1)
}

func TestIssueLifecycleThroughService(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddIssue(ctx, aino.ID, "noise")
	assert.ErrorIs(t, err, ErrNoActiveSession)

	_, err = f.svc.StartSession(ctx, aino, "ELV-001", 1)
	require.NoError(t, err)
	issue, err := f.svc.AddIssue(ctx, aino.ID, "noise")
	require.NoError(t, err)
	toggled, err := f.svc.ToggleIssue(ctx, aino.ID, issue.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Resolved)

	_, err = f.svc.ToggleIssue(ctx, aino.ID, "nope")
	assert.ErrorIs(t, err, ErrIssueNotFound)

	assert.Equal(t, []string{
		models.EventSessionStarted, models.EventIssueAdded, models.EventIssueToggled,
	}, f.events.types())
}

func TestChangeFloorValidatesAgainstElevator(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	_, err := f.svc.StartSession(ctx, aino, "ELV-004", 1)
	require.NoError(t, err)

	_, err = f.svc.ChangeFloor(ctx, aino.ID, 7)
	assert.ErrorIs(t, err, ErrInvalidFloor)

	_, err = f.svc.ChangeFloor(ctx, aino.ID, 6)
	require.NoError(t, err)
	m, _ := f.svc.registry.Lookup(aino.ID)
	assert.Equal(t, 6, m.Floor())
}

func endedWithMovements(t *testing.T, f *serviceFixture, tech Technician, elevatorID string, floors ...int) models.MaintenanceSession {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.StartSession(ctx, tech, elevatorID, floors[0])
	require.NoError(t, err)
	m, _ := f.svc.registry.Lookup(tech.ID)
	for i, floor := range floors {
		require.NoError(t, m.RecordMovement(sampler.NewPoint(int64(i+1)*5000, 0.1, 0.1, floor)))
	}
	ended, err := f.svc.EndSession(ctx, tech.ID)
	require.NoError(t, err)
	return ended
}

func TestListingFiltersAndOrder(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	first := endedWithMovements(t, f, aino, "ELV-001", 1, 2)
	second := endedWithMovements(t, f, aino, "ELV-001", 4)
	other := endedWithMovements(t, f, Technician{ID: "MNT-2", Name: "Eero"}, "ELV-003", 5)

	all := f.svc.ListSessions(ctx, SessionFilter{})
	assert.Len(t, all, 3)

	byElevator := f.svc.ElevatorSessions(ctx, "ELV-001")
	require.Len(t, byElevator, 2)
	assert.Equal(t, second.ID, byElevator[0].ID)
	assert.Equal(t, first.ID, byElevator[1].ID)

	byFloor := f.svc.ListSessions(ctx, SessionFilter{Floor: 5})
	require.Len(t, byFloor, 1)
	assert.Equal(t, other.ID, byFloor[0].ID)
}

func TestListingMergesStoreRecords(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	end := int64(1_600_000_100_000)
	require.NoError(t, repository.NewSessionRepository(f.store).Save(ctx, &models.MaintenanceSession{
		ID: "remote", ElevatorID: "ELV-002", StartTime: 1_600_000_000_000, EndTime: &end,
		Issues: []models.Issue{}, Movements: []models.MovementPoint{}, FloorsVisited: []models.FloorVisit{{Floor: 1}},
	}))

	local := endedWithMovements(t, f, aino, "ELV-002", 1)

	list := f.svc.ElevatorSessions(ctx, "ELV-002")
	require.Len(t, list, 2)
	assert.Equal(t, local.ID, list[0].ID)
	assert.Equal(t, "remote", list[1].ID)

	got, err := f.svc.GetSession(ctx, "remote")
	require.NoError(t, err)
	assert.Equal(t, "ELV-002", got.ElevatorID)

	_, err = f.svc.GetSession(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestElevatorStatsIgnoreActiveSessions(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	endedWithMovements(t, f, aino, "ELV-001", 1, 3)
	_, err := f.svc.StartSession(ctx, Technician{ID: "MNT-2", Name: "Eero"}, "ELV-001", 1)
	require.NoError(t, err)

	stats := f.svc.ElevatorStats(ctx, "ELV-001")
	assert.Equal(t, "ELV-001", stats.ElevatorID)
	assert.Equal(t, 1, stats.TotalSessions)
	assert.Equal(t, 1, stats.TotalMovements)
	assert.Equal(t, []int{1, 3}, stats.FloorsVisited)
	assert.InDelta(t, 6.0, stats.AvgVerticalMovement, 1e-9)
	assert.InDelta(t, 0.0, stats.AvgHorizontalMovement, 1e-9)
}

func TestHeatMapVerticalAndReport(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	ended := endedWithMovements(t, f, aino, "ELV-001", 2, 2, 3)

	hm, err := f.svc.HeatMap(ctx, ended.ID, 2)
	require.NoError(t, err)
	require.Len(t, hm.Zones, 1)
	assert.Equal(t, 10, hm.Zones[0].Duration)
	assert.InDelta(t, 1.0, hm.Zones[0].Intensity, 1e-9)

	_, err = f.svc.HeatMap(ctx, ended.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidFloor)

	levels, err := f.svc.VerticalProfile(ctx, ended.ID)
	require.NoError(t, err)
	require.Len(t, levels, 2)
	assert.Equal(t, 2, levels[0].Floor)
	assert.Equal(t, 10, levels[0].TimeSpent)

	text, session, err := f.svc.Report(ctx, ended.ID)
	require.NoError(t, err)
	assert.Equal(t, ended.ID, session.ID)
	assert.True(t, strings.HasPrefix(text, "Elevator ID: ELV-001\n"))
	assert.Contains(t, text, "Floor 2: 0m 10s")
}

func TestReportRejectsActiveSession(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	started, err := f.svc.StartSession(ctx, aino, "ELV-001", 1)
	require.NoError(t, err)

	_, _, err = f.svc.Report(ctx, started.ID)
	assert.ErrorIs(t, err, report.ErrIncompleteSession)

	levels, err := f.svc.VerticalProfile(ctx, started.ID)
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.Equal(t, 1, levels[0].Floor)
}

func TestCloseTearsDownActiveSessions(t *testing.T) {
	f := newServiceFixture(t)
	_, err := f.svc.StartSession(context.Background(), aino, "ELV-001", 1)
	require.NoError(t, err)

	f.svc.Close()

	_, err = f.svc.CurrentSession(aino.ID)
	assert.ErrorIs(t, err, ErrNoActiveSession)
}
