package app

import (
	"sync"

	"github.com/jnMetaCode/available-domains/internal/domain"
	"github.com/jnMetaCode/available-domains/internal/ports"
)

// rotation hands out providers round-robin for the confirm stage.
// A provider that returns a permanent error is failed for the rest of
// the run; the rotation skips it from then on. When every provider has
// failed, Next returns ErrProviderFailed and the confirm stage records
// candidates as api_permanent errors instead of calling anyone.
type rotation struct {
	mu        sync.Mutex
	providers []ports.Provider
	failed    map[string]bool
	next      int
}

func newRotation(providers []ports.Provider) *rotation {
	return &rotation{
		providers: providers,
		failed:    make(map[string]bool),
	}
}

// Next returns the next live provider in round-robin order.
func (r *rotation) Next() (ports.Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := 0; i < len(r.providers); i++ {
		p := r.providers[r.next%len(r.providers)]
		r.next++
		if !r.failed[p.Name()] {
			return p, nil
		}
	}
	return nil, domain.ErrProviderFailed
}

// MarkFailed removes a provider from the rotation for this run.
func (r *rotation) MarkFailed(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed[name] = true
}

// Live reports how many providers remain in the rotation.
func (r *rotation) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.providers {
		if !r.failed[p.Name()] {
			n++
		}
	}
	return n
}
