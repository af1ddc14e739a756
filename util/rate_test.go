package util

import (
	"testing"
	"time"
)

func TestCounterRate(t *testing.T) {
	var c CounterRate
	base := time.Now()

	if _, ok := c.Observe(1000, base); ok {
		t.Error("first observation produced a rate")
	}
	if !c.Primed() {
		t.Error("not primed after first observation")
	}

	rate, ok := c.Observe(1500, base.Add(2*time.Second))
	if !ok || rate != 250 {
		t.Errorf("rate = %v, %v, want 250, true", rate, ok)
	}

	// Counter reset reports nothing but re-primes from the new value.
	if _, ok := c.Observe(100, base.Add(3*time.Second)); ok {
		t.Error("counter reset produced a rate")
	}
	rate, ok = c.Observe(200, base.Add(4*time.Second))
	if !ok || rate != 100 {
		t.Errorf("post-reset rate = %v, %v, want 100, true", rate, ok)
	}

	// Identical timestamps cannot yield a rate.
	if _, ok := c.Observe(300, base.Add(4*time.Second)); ok {
		t.Error("zero dt produced a rate")
	}
}
