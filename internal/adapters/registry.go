package adapters

import (
	"sync"
	"time"

	"ApexPick/internal/domain/models"
	"ApexPick/internal/domain/repository"
	"ApexPick/pkg/config"
)

// AnySport registers an adapter for every sport.
const AnySport = "*"

// Registry is the static sport routing table. General adapters come first,
// then sport-specific ones, each group in registration order.
type Registry struct {
	mu      sync.RWMutex
	general []repository.SourceAdapter
	bySport map[string][]repository.SourceAdapter
}

func NewRegistry() *Registry {
	return &Registry{bySport: make(map[string][]repository.SourceAdapter)}
}

// Register adds a to the given sports. AnySport makes it general and wins
// over any specific sport listed alongside it.
func (r *Registry) Register(a repository.SourceAdapter, sports ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range sports {
		if s == AnySport {
			r.general = append(r.general, a)
			return
		}
	}
	seen := make(map[string]struct{}, len(sports))
	for _, s := range sports {
		s = models.NormalizeSport(s)
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		r.bySport[s] = append(r.bySport[s], a)
	}
}

// For returns the applicable adapters for sport in priority order.
func (r *Registry) For(sport string) []repository.SourceAdapter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specific := r.bySport[models.NormalizeSport(sport)]
	out := make([]repository.SourceAdapter, 0, len(r.general)+len(specific))
	out = append(out, r.general...)
	return append(out, specific...)
}

// Names lists adapter names per sport, for diagnostics.
func (r *Registry) Names() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string][]string, len(r.bySport)+1)
	for _, a := range r.general {
		out[AnySport] = append(out[AnySport], a.Name())
	}
	for sport, list := range r.bySport {
		for _, a := range list {
			out[sport] = append(out[sport], a.Name())
		}
	}
	return out
}

// BuildRegistry creates HTTP adapters for every enabled config entry.
func BuildRegistry(cfgs []config.AdapterConfig, defaultTimeout time.Duration) *Registry {
	r := NewRegistry()
	for _, c := range cfgs {
		if c.Disabled {
			continue
		}
		src := NewHTTPSource(c, defaultTimeout)
		r.Register(src, src.Sports()...)
	}
	return r
}

var _ repository.AdapterRouter = (*Registry)(nil)
