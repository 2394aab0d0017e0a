package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"elevmaint/backend/services/maintenance-service/internal/metrics"
	"elevmaint/backend/services/maintenance-service/internal/models"
	"elevmaint/backend/services/maintenance-service/internal/repository"
)

const (
	defaultReplicationTimeout = 3 * time.Second
	defaultRetryBackoff       = 250 * time.Millisecond
	defaultQueueSize          = 256
)

// ReplicatorConfig tunes best-effort replication.
type ReplicatorConfig struct {
	Timeout      time.Duration
	RetryBackoff time.Duration
	QueueSize    int
}

type replicationJob struct {
	kind  string
	id    string
	write func(ctx context.Context) error
}

// Replicator copies local state to the external store in the background.
// Writes are applied in submission order by a single worker. Each write gets
// one retry; then it is dropped with a warning. Submitting never blocks: when
// the queue is full the record is dropped.
type Replicator struct {
	sessions  *repository.SessionRepository
	elevators *repository.ElevatorRepository
	cfg       ReplicatorConfig
	logger    *zap.Logger
	metrics   *metrics.Metrics

	mu       sync.Mutex
	closed   bool
	inflight int
	waiters  []chan struct{}
	queue    chan replicationJob
	done     chan struct{}
}

// NewReplicator starts the worker.
func NewReplicator(
	sessions *repository.SessionRepository,
	elevators *repository.ElevatorRepository,
	cfg ReplicatorConfig,
	logger *zap.Logger,
	m *metrics.Metrics,
) *Replicator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultReplicationTimeout
	}
	if cfg.RetryBackoff < 0 {
		cfg.RetryBackoff = 0
	} else if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Replicator{
		sessions:  sessions,
		elevators: elevators,
		cfg:       cfg,
		logger:    logger,
		metrics:   m,
		queue:     make(chan replicationJob, cfg.QueueSize),
		done:      make(chan struct{}),
	}
	go r.run()
	return r
}

// ReplicateSession schedules a write of the session snapshot.
func (r *Replicator) ReplicateSession(session models.MaintenanceSession) {
	snapshot := session.Clone()
	r.submit(replicationJob{
		kind: "session",
		id:   snapshot.ID,
		write: func(ctx context.Context) error {
			return r.sessions.Save(ctx, &snapshot)
		},
	})
}

// ReplicateElevator schedules a write of the elevator.
func (r *Replicator) ReplicateElevator(elevator models.Elevator) {
	r.submit(replicationJob{
		kind: "elevator",
		id:   elevator.ID,
		write: func(ctx context.Context) error {
			return r.elevators.Save(ctx, &elevator)
		},
	})
}

func (r *Replicator) submit(job replicationJob) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		r.logger.Warn("replicator closed, dropping record", zap.String("kind", job.kind), zap.String("id", job.id))
		r.metrics.ReplicationDropped()
		return
	}

	select {
	case r.queue <- job:
		r.inflight++
	default:
		r.logger.Warn("replication queue full, dropping record", zap.String("kind", job.kind), zap.String("id", job.id))
		r.metrics.ReplicationDropped()
	}
}

func (r *Replicator) run() {
	defer close(r.done)
	for job := range r.queue {
		r.process(job)
		r.finish()
	}
}

func (r *Replicator) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inflight--
	if r.inflight > 0 {
		return
	}
	for _, w := range r.waiters {
		close(w)
	}
	r.waiters = nil
}

func (r *Replicator) process(job replicationJob) {
	err := r.attempt(job)
	if err == nil {
		return
	}
	r.logger.Debug("replication attempt failed, retrying once",
		zap.String("kind", job.kind), zap.String("id", job.id), zap.Error(err))
	if r.cfg.RetryBackoff > 0 {
		time.Sleep(r.cfg.RetryBackoff)
	}
	if err := r.attempt(job); err != nil {
		r.metrics.ReplicationDropped()
		r.logger.Warn("replication failed, keeping local state only",
			zap.String("kind", job.kind), zap.String("id", job.id), zap.Error(err))
	}
}

func (r *Replicator) attempt(job replicationJob) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.Timeout)
	defer cancel()

	err := job.write(ctx)
	r.metrics.ReplicationAttempt(err == nil)
	return err
}

// Flush waits until every submitted record has been written or dropped.
func (r *Replicator) Flush(ctx context.Context) error {
	r.mu.Lock()
	if r.inflight == 0 {
		r.mu.Unlock()
		return nil
	}
	drained := make(chan struct{})
	r.waiters = append(r.waiters, drained)
	r.mu.Unlock()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting records and waits for the worker up to ctx.
func (r *Replicator) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return errors.Join(errors.New("replicator: pending writes abandoned"), ctx.Err())
	}
}
