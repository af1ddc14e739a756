package store

import (
	"errors"
	"testing"
	"time"

	"github.com/perflens/perflens/model"
)

func sampleAt(t model.MetricType, value float64, at time.Time) model.MetricSample {
	return model.NewSample(at, t, value, "test")
}

func TestPushEvictsOldest(t *testing.T) {
	const capacity = 8
	s, err := New([]model.MetricType{model.MetricCPUUtilization}, capacity)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	base := time.Now()
	for i := 0; i < capacity+3; i++ {
		err := s.Push(sampleAt(model.MetricCPUUtilization, float64(i), base.Add(time.Duration(i)*time.Second)))
		if err != nil {
			t.Fatalf("Push %d: %v", i, err)
		}
	}

	got := s.Snapshot(model.MetricCPUUtilization, 0)
	if len(got) != capacity {
		t.Fatalf("len = %d, want %d", len(got), capacity)
	}
	// Oldest three were evicted; survivors stay in insertion order.
	for i, smp := range got {
		want := float64(i + 3)
		if smp.Value != want {
			t.Errorf("got[%d].Value = %v, want %v", i, smp.Value, want)
		}
	}
}

func TestPushUnknownType(t *testing.T) {
	s, err := New([]model.MetricType{model.MetricCPUUtilization}, 4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	err = s.Push(sampleAt(model.MetricGPUUtilization, 1, time.Now()))
	if !errors.Is(err, ErrUnknownMetric) {
		t.Fatalf("err = %v, want ErrUnknownMetric", err)
	}
	if n := s.Len(model.MetricGPUUtilization); n != 0 {
		t.Errorf("Len = %d after rejected push", n)
	}
}

func TestPushAfterClose(t *testing.T) {
	s, err := NewDefault(4)
	if err != nil {
		t.Fatalf("NewDefault: %v", err)
	}
	s.Close()

	err = s.Push(sampleAt(model.MetricCPUUtilization, 1, time.Now()))
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
}

func TestSnapshotWindow(t *testing.T) {
	s, err := New([]model.MetricType{model.MetricCPUUtilization}, 16)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	now := time.Now()
	ages := []time.Duration{-90 * time.Second, -45 * time.Second, -5 * time.Second}
	for i, age := range ages {
		if err := s.Push(sampleAt(model.MetricCPUUtilization, float64(i), now.Add(age))); err != nil {
			t.Fatalf("Push: %v", err)
		}
	}

	got := s.Snapshot(model.MetricCPUUtilization, time.Minute)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Value != 1 || got[1].Value != 2 {
		t.Errorf("values = %v, %v, want 1, 2", got[0].Value, got[1].Value)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	s, err := New([]model.MetricType{model.MetricCPUUtilization}, 4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	if err := s.Push(sampleAt(model.MetricCPUUtilization, 42, time.Now())); err != nil {
		t.Fatalf("Push: %v", err)
	}
	snap := s.Snapshot(model.MetricCPUUtilization, 0)
	snap[0].Value = -1

	again := s.Snapshot(model.MetricCPUUtilization, 0)
	if again[0].Value != 42 {
		t.Errorf("mutating a snapshot changed the buffer: %v", again[0].Value)
	}
}

func TestTimestampClamp(t *testing.T) {
	s, err := New([]model.MetricType{model.MetricCPUUtilization}, 4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	now := time.Now()
	if err := s.Push(sampleAt(model.MetricCPUUtilization, 1, now)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := s.Push(sampleAt(model.MetricCPUUtilization, 2, now.Add(-time.Minute))); err != nil {
		t.Fatalf("Push: %v", err)
	}

	got := s.Snapshot(model.MetricCPUUtilization, 0)
	if got[1].Timestamp.Before(got[0].Timestamp) {
		t.Errorf("timestamps regressed: %v then %v", got[0].Timestamp, got[1].Timestamp)
	}
}

func TestSnapshotAllSkipsEmpty(t *testing.T) {
	s, err := New([]model.MetricType{model.MetricCPUUtilization, model.MetricGPUUtilization}, 4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	if err := s.Push(sampleAt(model.MetricCPUUtilization, 1, time.Now())); err != nil {
		t.Fatalf("Push: %v", err)
	}

	all := s.SnapshotAll(0)
	if len(all) != 1 {
		t.Fatalf("SnapshotAll returned %d streams, want 1", len(all))
	}
	if _, ok := all[model.MetricCPUUtilization]; !ok {
		t.Error("cpu stream missing from SnapshotAll")
	}
}

func TestSubscribeBroadcast(t *testing.T) {
	s, err := New([]model.MetricType{model.MetricCPUUtilization}, 4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	a := s.Subscribe()
	b := s.Subscribe()

	if err := s.Push(sampleAt(model.MetricCPUUtilization, 7, time.Now())); err != nil {
		t.Fatalf("Push: %v", err)
	}

	for name, sub := range map[string]*Subscription{"a": a, "b": b} {
		select {
		case got := <-sub.C:
			if got.Value != 7 {
				t.Errorf("%s received %v, want 7", name, got.Value)
			}
		case <-time.After(time.Second):
			t.Fatalf("%s received nothing", name)
		}
	}
}

func TestSubscribeDropsWhenFull(t *testing.T) {
	s, err := New([]model.MetricType{model.MetricCPUUtilization}, 1024)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	sub := s.Subscribe()
	now := time.Now()
	total := subscriberBuffer + 10
	for i := 0; i < total; i++ {
		if err := s.Push(sampleAt(model.MetricCPUUtilization, float64(i), now.Add(time.Duration(i)))); err != nil {
			t.Fatalf("Push: %v", err)
		}
	}

	if got := sub.Dropped(); got != 10 {
		t.Errorf("Dropped = %d, want 10", got)
	}
	// Store keeps everything even though the subscriber lagged.
	if n := s.Len(model.MetricCPUUtilization); n != total {
		t.Errorf("Len = %d, want %d", n, total)
	}
}

func TestCloseClosesSubscribers(t *testing.T) {
	s, err := NewDefault(4)
	if err != nil {
		t.Fatalf("NewDefault: %v", err)
	}
	sub := s.Subscribe()
	s.Close()

	select {
	case _, ok := <-sub.C:
		if ok {
			t.Error("expected closed channel, got a sample")
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber channel not closed")
	}
}
