package sampler

import (
	"sync"
	"time"

	"elevmaint/backend/services/maintenance-service/internal/models"
)

// FloorProvider reports the floor the technician is working on at sample time.
type FloorProvider func() int

// Sink receives produced samples.
type Sink func(models.MovementPoint)

// Sampler produces one movement sample per interval while a handle is running.
type Sampler struct {
	interval time.Duration
	source   PositionSource
	now      func() time.Time
}

// Option customises a Sampler.
type Option func(*Sampler)

// WithPositionSource replaces the random source.
func WithPositionSource(src PositionSource) Option {
	return func(s *Sampler) {
		if src != nil {
			s.source = src
		}
	}
}

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Sampler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithInterval changes the cadence. Dwell time math assumes the default,
// so only tests should use this.
func WithInterval(d time.Duration) Option {
	return func(s *Sampler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// New returns a sampler with the fixed 5 second cadence.
func New(opts ...Option) *Sampler {
	s := &Sampler{
		interval: models.SampleInterval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.source == nil {
		seed := uint64(s.now().UnixNano())
		s.source = NewRandomPositionSource(seed, seed>>1)
	}
	return s
}

// Interval returns the sampling cadence.
func (s *Sampler) Interval() time.Duration {
	return s.interval
}

// Start begins sampling until the returned handle is stopped.
func (s *Sampler) Start(floor FloorProvider, sink Sink) *Handle {
	h := &Handle{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go s.run(h, floor, sink)
	return h
}

// Stop stops the handle. See Handle.Stop.
func (s *Sampler) Stop(h *Handle) {
	if h != nil {
		h.Stop()
	}
}

func (s *Sampler) run(h *Handle, floor FloorProvider, sink Sink) {
	defer close(h.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
			if !h.deliver(func() {
				x, y := s.source.Position()
				sink(NewPoint(models.UnixMillis(s.now()), x, y, floor()))
			}) {
				return
			}
		}
	}
}

// Handle controls one running sampler.
type Handle struct {
	mu       sync.Mutex
	stopped  bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// deliver runs fn unless the handle was stopped. It reports false once stopped.
func (h *Handle) deliver(fn func()) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return false
	}
	fn()
	return true
}

// Stop cancels sampling. When Stop returns no further sample reaches the sink;
// a tick that fired concurrently either completed before Stop or is discarded.
// Stop must not be called from inside the sink.
func (h *Handle) Stop() {
	h.stopOnce.Do(func() {
		h.mu.Lock()
		h.stopped = true
		h.mu.Unlock()
		close(h.stop)
	})
}

// Stopped reports whether Stop was called.
func (h *Handle) Stopped() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stopped
}

// Done is closed when the sampling goroutine exits.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}
