// Package provider implements the metric providers: one per metric family,
// each pulling its readings from /proc or /sys and returning typed samples.
// Providers never aggregate or interpret; that is the engine's job.
package provider

import (
	"context"
	"fmt"

	"github.com/perflens/perflens/model"
)

// ErrorKind classifies provider failures. All of them are recoverable:
// the sampler logs a warning and skips the family for that tick.
type ErrorKind string

const (
	KindUnavailable ErrorKind = "unavailable" // sensor or interface absent
	KindPermission  ErrorKind = "permission"  // read denied
	KindParse       ErrorKind = "parse"       // interface present, content unexpected
)

// Error is a typed provider failure.
type Error struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// errOf wraps err as a provider error for the named provider.
func errOf(name string, kind ErrorKind, err error) *Error {
	return &Error{Provider: name, Kind: kind, Err: err}
}

// Provider pulls one metric family from the operating environment.
// Sample must honor ctx cancellation, be side-effect free beyond the read,
// and may return zero samples (e.g. a delta-based provider priming its
// counters on the first call).
type Provider interface {
	Name() string
	Sample(ctx context.Context) ([]model.MetricSample, error)
}

// Registry holds the providers for one sampling session.
type Registry struct {
	providers []Provider
}

// NewRegistry creates a registry with the default provider set. Selection
// happens once here; the sampler never type-switches on providers.
func NewRegistry() *Registry {
	return &Registry{
		providers: []Provider{
			NewCPUProvider(),
			NewMemoryProvider(),
			NewStorageProvider(),
			NewGPUProvider(),
			NewThermalProvider(),
		},
	}
}

// Add registers an additional provider.
func (r *Registry) Add(p Provider) {
	r.providers = append(r.providers, p)
}

// Providers returns the registered providers.
func (r *Registry) Providers() []Provider {
	return r.providers
}
