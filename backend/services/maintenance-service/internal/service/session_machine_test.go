package service

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elevmaint/backend/services/maintenance-service/internal/models"
	"elevmaint/backend/services/maintenance-service/internal/sampler"
)

type stepClock struct {
	now  time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

func sequentialIDs() func() string {
	var n atomic.Int64
	return func() string { return fmt.Sprintf("id-%d", n.Add(1)) }
}

func newTestMachine(opts ...MachineOption) *SessionMachine {
	clock := &stepClock{now: time.UnixMilli(1_700_000_000_000), step: time.Second}
	base := []MachineOption{WithMachineClock(clock.Now), WithIDGenerator(sequentialIDs())}
	return NewSessionMachine(append(base, opts...)...)
}

func TestStartSeedsInitialFloor(t *testing.T) {
	m := newTestMachine()

	session, err := m.Start("ELV-001", "MNT-1", "Aino", 3)
	require.NoError(t, err)

	assert.Equal(t, "session-id-1", session.ID)
	assert.Nil(t, session.EndTime)
	assert.Empty(t, session.Issues)
	assert.Empty(t, session.Movements)
	assert.Equal(t, []models.FloorVisit{{Floor: 3, TimeSpent: 0}}, session.FloorsVisited)
	assert.Equal(t, 3, m.Floor())
}

func TestStartWhileActiveLeavesSessionUntouched(t *testing.T) {
	m := newTestMachine()
	first, err := m.Start("ELV-001", "MNT-1", "Aino", 2)
	require.NoError(t, err)
	_, err = m.AddIssue("door sensor misaligned")
	require.NoError(t, err)
	before, _ := m.Current()

	_, err = m.Start("ELV-002", "MNT-1", "Aino", 5)
	require.ErrorIs(t, err, ErrSessionActive)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	after, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, first.ID, after.ID)
	assert.Equal(t, before, after)
	assert.Equal(t, 2, m.Floor())
}

func TestStartRejectsInvalidFloor(t *testing.T) {
	m := newTestMachine()
	_, err := m.Start("ELV-001", "MNT-1", "Aino", 0)
	assert.ErrorIs(t, err, ErrInvalidFloor)
	_, ok := m.Current()
	assert.False(t, ok)
}

func TestEndImmediatelyKeepsSeedFloor(t *testing.T) {
	m := newTestMachine()
	started, err := m.Start("ELV-001", "MNT-1", "Aino", 4)
	require.NoError(t, err)

	ended, err := m.End()
	require.NoError(t, err)

	require.NotNil(t, ended.EndTime)
	assert.GreaterOrEqual(t, *ended.EndTime, started.StartTime)
	assert.Empty(t, ended.Movements)
	assert.Equal(t, []models.FloorVisit{{Floor: 4, TimeSpent: 0}}, ended.FloorsVisited)

	_, ok := m.Current()
	assert.False(t, ok)
}

func TestEndAggregatesRecordedMovements(t *testing.T) {
	m := newTestMachine()
	_, err := m.Start("ELV-001", "MNT-1", "Aino", 3)
	require.NoError(t, err)

	for i, floor := range []int{3, 3, 4} {
		require.NoError(t, m.RecordMovement(sampler.NewPoint(int64(i)*5000, 0.5, 0.5, floor)))
	}

	ended, err := m.End()
	require.NoError(t, err)
	assert.Len(t, ended.Movements, 3)
	assert.Equal(t, []models.FloorVisit{{Floor: 3, TimeSpent: 10}, {Floor: 4, TimeSpent: 5}}, ended.FloorsVisited)
}

func TestOperationsRequireActiveSession(t *testing.T) {
	m := newTestMachine()

	_, err := m.AddIssue("noise")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = m.ToggleIssue("id-1")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, m.RecordMovement(models.MovementPoint{Floor: 1}), ErrInvalidTransition)
	assert.ErrorIs(t, m.ChangeFloor(2), ErrInvalidTransition)
	_, err = m.End()
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestIssuesToggle(t *testing.T) {
	m := newTestMachine()
	_, err := m.Start("ELV-001", "MNT-1", "Aino", 1)
	require.NoError(t, err)

	issue, err := m.AddIssue("  cable wear ")
	require.NoError(t, err)
	assert.Equal(t, "cable wear", issue.Description)
	assert.False(t, issue.Resolved)
	assert.NotZero(t, issue.Timestamp)

	_, err = m.AddIssue("   ")
	assert.ErrorIs(t, err, ErrInvalidIssue)

	toggled, err := m.ToggleIssue(issue.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Resolved)

	toggled, err = m.ToggleIssue(issue.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Resolved)

	_, err = m.ToggleIssue("missing")
	assert.ErrorIs(t, err, ErrIssueNotFound)

	current, _ := m.Current()
	require.Len(t, current.Issues, 1)
	assert.False(t, current.Issues[0].Resolved)
}

func TestCurrentReturnsSnapshot(t *testing.T) {
	m := newTestMachine()
	_, err := m.Start("ELV-001", "MNT-1", "Aino", 1)
	require.NoError(t, err)
	_, err = m.AddIssue("door")
	require.NoError(t, err)

	snapshot, _ := m.Current()
	snapshot.Issues[0].Resolved = true
	snapshot.FloorsVisited[0].Floor = 9

	current, _ := m.Current()
	assert.False(t, current.Issues[0].Resolved)
	assert.Equal(t, 1, current.FloorsVisited[0].Floor)
}

func TestSamplerFeedsMachineUntilEnd(t *testing.T) {
	s := sampler.New(
		sampler.WithInterval(5*time.Millisecond),
		sampler.WithPositionSource(sampler.PositionFunc(func() (float64, float64) { return 0.4, 0.8 })),
	)
	var notified atomic.Int64
	m := newTestMachine(
		WithSampler(s),
		WithMovementListener(func(sessionID, elevatorID, technicianID string, p models.MovementPoint) {
			notified.Add(1)
		}),
	)

	_, err := m.Start("ELV-003", "MNT-1", "Aino", 2)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		cur, _ := m.Current()
		return len(cur.Movements) >= 2
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, m.ChangeFloor(5))
	require.Eventually(t, func() bool {
		cur, _ := m.Current()
		n := len(cur.Movements)
		return n > 0 && cur.Movements[n-1].Floor == 5
	}, time.Second, 5*time.Millisecond)

	ended, err := m.End()
	require.NoError(t, err)

	total := 0
	for _, fv := range ended.FloorsVisited {
		total += fv.TimeSpent
	}
	assert.Equal(t, len(ended.Movements)*models.SampleIntervalSeconds, total)
	for _, p := range ended.Movements {
		assert.Equal(t, float64(p.Floor-1)*models.FloorHeightMeters, p.Z)
	}
	assert.Equal(t, int64(len(ended.Movements)), notified.Load())

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int64(len(ended.Movements)), notified.Load())
}

func TestTeardownDropsWithoutEnding(t *testing.T) {
	m := newTestMachine()
	_, err := m.Start("ELV-001", "MNT-1", "Aino", 1)
	require.NoError(t, err)

	dropped, ok := m.Teardown()
	require.True(t, ok)
	assert.Nil(t, dropped.EndTime)

	_, ok = m.Teardown()
	assert.False(t, ok)

	_, err = m.Start("ELV-001", "MNT-1", "Aino", 1)
	assert.NoError(t, err)
}
