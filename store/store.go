// Package store holds the most recent samples per metric type in bounded
// ring buffers. Writers (the sampler) and readers (snapshot callers,
// subscribers) run concurrently; each buffer has its own lock so unrelated
// metric types never contend, and reads always return copies.
package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/perflens/perflens/model"
)

const (
	// DefaultCapacity keeps ten minutes of history at the 1 Hz default
	// sampling cadence.
	DefaultCapacity = 600

	// subscriberBuffer is the per-subscriber channel depth; a consumer
	// further behind than this starts dropping.
	subscriberBuffer = 64
)

var (
	// ErrUnknownMetric is returned when pushing a metric type the store
	// was not constructed with. Types are never created implicitly.
	ErrUnknownMetric = errors.New("store: unknown metric type")

	// ErrClosed is returned for operations after Close.
	ErrClosed = errors.New("store: closed")
)

// ring is one bounded buffer. Insertion order is time order; when full the
// oldest sample is evicted.
type ring struct {
	mu   sync.RWMutex
	buf  []model.MetricSample
	head int
	size int
	cap  int
	last time.Time
}

func (r *ring) push(s model.MetricSample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Timestamps within a buffer are non-decreasing; clamp stale stamps
	// forward rather than violating the invariant.
	if s.Timestamp.Before(r.last) {
		s.Timestamp = r.last
	}
	r.last = s.Timestamp
	r.buf[r.head] = s
	r.head = (r.head + 1) % r.cap
	if r.size < r.cap {
		r.size++
	}
}

// snapshot copies out samples with Timestamp >= cutoff, oldest first.
// A zero cutoff copies the whole buffer.
func (r *ring) snapshot(cutoff time.Time) []model.MetricSample {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.MetricSample, 0, r.size)
	for i := 0; i < r.size; i++ {
		idx := (r.head - r.size + i + r.cap) % r.cap
		s := r.buf[idx]
		if !cutoff.IsZero() && s.Timestamp.Before(cutoff) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (r *ring) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

// Subscription receives every sample pushed after Subscribe. The channel
// is buffered; when the consumer lags, samples are dropped and counted
// rather than stalling the writer.
type Subscription struct {
	C       chan model.MetricSample
	store   *Store
	dropped int64
	mu      sync.Mutex
}

// Dropped returns how many samples were discarded because the consumer
// fell behind.
func (s *Subscription) Dropped() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close detaches the subscription from the store.
func (s *Subscription) Close() {
	s.store.unsubscribe(s)
}

// Store is a fixed-shape collection of per-metric-type ring buffers.
// Registered types and capacity are set at construction; resizing means
// recreating the store.
type Store struct {
	rings map[model.MetricType]*ring

	subMu  sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

// New creates a store for the given metric types with the given per-type
// capacity. Capacity must be positive.
func New(types []model.MetricType, capacity int) (*Store, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("store: capacity must be positive, got %d", capacity)
	}
	rings := make(map[model.MetricType]*ring, len(types))
	for _, t := range types {
		if !t.Valid() {
			return nil, fmt.Errorf("store: %w: %q", ErrUnknownMetric, t)
		}
		rings[t] = &ring{buf: make([]model.MetricSample, capacity), cap: capacity}
	}
	return &Store{
		rings: rings,
		subs:  make(map[*Subscription]struct{}),
	}, nil
}

// NewDefault creates a store covering every known metric type.
func NewDefault(capacity int) (*Store, error) {
	return New(model.AllMetricTypes(), capacity)
}

// Push appends a sample to its type's buffer, evicting the oldest sample
// at capacity, and broadcasts it to subscribers. O(1).
func (s *Store) Push(sample model.MetricSample) error {
	s.subMu.Lock()
	if s.closed {
		s.subMu.Unlock()
		return ErrClosed
	}
	s.subMu.Unlock()

	r, ok := s.rings[sample.Type]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMetric, sample.Type)
	}
	r.push(sample)
	s.broadcast(sample)
	return nil
}

// Snapshot returns an ordered copy of one type's samples within
// [now-window, now]. window <= 0 returns the whole buffer. The returned
// slice never aliases the live buffer.
func (s *Store) Snapshot(t model.MetricType, window time.Duration) []model.MetricSample {
	r, ok := s.rings[t]
	if !ok {
		return nil
	}
	var cutoff time.Time
	if window > 0 {
		cutoff = time.Now().Add(-window)
	}
	return r.snapshot(cutoff)
}

// SnapshotAll returns copies of every non-empty buffer within the window.
func (s *Store) SnapshotAll(window time.Duration) map[model.MetricType][]model.MetricSample {
	out := make(map[model.MetricType][]model.MetricSample)
	for t := range s.rings {
		if samples := s.Snapshot(t, window); len(samples) > 0 {
			out[t] = samples
		}
	}
	return out
}

// Len returns the number of buffered samples for one type.
func (s *Store) Len(t model.MetricType) int {
	r, ok := s.rings[t]
	if !ok {
		return 0
	}
	return r.len()
}

// Types returns the registered metric types in declaration order.
func (s *Store) Types() []model.MetricType {
	out := make([]model.MetricType, 0, len(s.rings))
	for _, t := range model.AllMetricTypes() {
		if _, ok := s.rings[t]; ok {
			out = append(out, t)
		}
	}
	return out
}

// Subscribe registers a new broadcast subscriber. Every subsequent push is
// offered to every subscriber.
func (s *Store) Subscribe() *Subscription {
	sub := &Subscription{
		C:     make(chan model.MetricSample, subscriberBuffer),
		store: s,
	}
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if s.closed {
		close(sub.C)
		return sub
	}
	s.subs[sub] = struct{}{}
	return sub
}

func (s *Store) unsubscribe(sub *Subscription) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if _, ok := s.subs[sub]; ok {
		delete(s.subs, sub)
		close(sub.C)
	}
}

func (s *Store) broadcast(sample model.MetricSample) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for sub := range s.subs {
		select {
		case sub.C <- sample:
		default:
			sub.mu.Lock()
			sub.dropped++
			sub.mu.Unlock()
		}
	}
}

// Close tears the store down: subsequent pushes fail with ErrClosed and
// all subscription channels are closed.
func (s *Store) Close() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for sub := range s.subs {
		delete(s.subs, sub)
		close(sub.C)
	}
}
