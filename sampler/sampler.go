// Package sampler drives periodic metric collection: on each tick it fans
// out to every provider concurrently, pushes the returned samples into the
// store, and keeps going until stopped. A failing or absent provider costs
// one family for that tick, never the whole loop.
package sampler

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/perflens/perflens/model"
	"github.com/perflens/perflens/provider"
	"github.com/perflens/perflens/store"
)

const (
	// DefaultInterval is the sampling cadence when none is configured.
	DefaultInterval = time.Second

	// MinInterval and MaxInterval bound the configured cadence. Values
	// outside the range are clamped, not rejected.
	MinInterval = 100 * time.Millisecond
	MaxInterval = 10 * time.Second
)

// ClampInterval bounds d to [MinInterval, MaxInterval]; a non-positive d
// falls back to DefaultInterval.
func ClampInterval(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return DefaultInterval
	case d < MinInterval:
		return MinInterval
	case d > MaxInterval:
		return MaxInterval
	}
	return d
}

// Options configures a Sampler.
type Options struct {
	// Interval is the tick cadence, clamped via ClampInterval.
	Interval time.Duration

	// ProviderTimeout bounds one provider's Sample call. Zero means one
	// interval: a provider may never bleed into the next tick.
	ProviderTimeout time.Duration

	// Profile is attached to the session started by Start. Optional.
	Profile *model.WorkloadProfile

	// Hardware is attached to the session started by Start. Optional.
	Hardware *model.HardwareConfig
}

// Sampler runs the collection loop for one store and one provider set.
type Sampler struct {
	registry *provider.Registry
	store    *store.Store
	interval time.Duration
	timeout  time.Duration
	profile  *model.WorkloadProfile
	hardware *model.HardwareConfig

	mu      sync.Mutex
	session *model.Session
	cancel  context.CancelFunc
	done    chan struct{}
	ticks   sync.WaitGroup

	// inFlight marks providers still busy from an earlier tick, keyed by
	// provider name. A busy provider is skipped, never run twice at once.
	inFlight map[string]*atomic.Int32
}

// New creates a sampler over the given registry and store.
func New(reg *provider.Registry, st *store.Store, opts Options) *Sampler {
	interval := ClampInterval(opts.Interval)
	timeout := opts.ProviderTimeout
	if timeout <= 0 {
		timeout = interval
	}
	inFlight := make(map[string]*atomic.Int32, len(reg.Providers()))
	for _, p := range reg.Providers() {
		inFlight[p.Name()] = new(atomic.Int32)
	}
	return &Sampler{
		registry: reg,
		store:    st,
		interval: interval,
		timeout:  timeout,
		profile:  opts.Profile,
		hardware: opts.Hardware,
		inFlight: inFlight,
	}
}

// Interval returns the effective (clamped) tick cadence.
func (s *Sampler) Interval() time.Duration { return s.interval }

// Start launches the collection loop and returns the session it feeds.
// Calling Start while a session is active returns that session unchanged.
func (s *Sampler) Start(ctx context.Context) *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session.Active() {
		return s.session
	}

	sess := model.NewSession(time.Now())
	sess.Profile = s.profile
	sess.Hardware = s.hardware

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.session = sess
	s.cancel = cancel
	s.done = done

	go s.run(ctx, done)
	return sess
}

// Stop cancels the loop and waits for it to drain. The session end time is
// set once the loop has exited. Safe to call when not running.
func (s *Sampler) Stop() {
	s.mu.Lock()
	cancel, done, sess := s.cancel, s.done, s.session
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.ticks.Wait()

	now := time.Now()
	sess.End = &now
}

// Session returns the current session, which may be ended.
func (s *Sampler) Session() *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// run is the tick loop. It samples once immediately so short recordings
// are not empty, then on every tick until ctx is cancelled. Ticks run off
// the loop goroutine: a stalled provider delays its own family only, and
// the in-flight guard keeps a tick pileup from entering it twice.
func (s *Sampler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.spawnTick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.spawnTick(ctx)
		}
	}
}

func (s *Sampler) spawnTick(ctx context.Context) {
	s.ticks.Add(1)
	go func() {
		defer s.ticks.Done()
		s.tick(ctx)
	}()
}

// tick fans out to every provider concurrently and pushes results. The
// group never returns an error: provider failures are logged and skipped
// so one bad family cannot cancel its siblings.
func (s *Sampler) tick(ctx context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	for _, p := range s.registry.Providers() {
		p := p
		g.Go(func() error {
			s.sampleOne(ctx, p)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Sampler) sampleOne(ctx context.Context, p provider.Provider) {
	busy := s.inFlight[p.Name()]
	if !busy.CompareAndSwap(0, 1) {
		return
	}
	defer busy.Store(0)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	samples, err := p.Sample(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Printf("warning: provider %s skipped: %v", p.Name(), err)
		}
		return
	}
	for _, smp := range samples {
		if err := s.store.Push(smp); err != nil {
			log.Printf("warning: dropping %s sample: %v", smp.Type, err)
		}
	}
}

// BuildRun snapshots the store's full buffers into a named run and
// attaches it to the current session when one exists.
func (s *Sampler) BuildRun(name string) *model.Run {
	run := model.NewRun(name)
	run.Streams = s.store.SnapshotAll(0)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		s.session.Runs = append(s.session.Runs, run)
	}
	return run
}
