package stream

import (
	"slices"
	"sync"

	"github.com/Egham-7/cloudlines/internal/models"
)

// Registry is the set of connected subscribers. It is bookkeeping only;
// frames are never pushed through it.
type Registry struct {
	mu   sync.RWMutex
	subs map[string]*Subscriber
}

func NewRegistry() *Registry {
	return &Registry{
		subs: make(map[string]*Subscriber),
	}
}

func (r *Registry) Add(s *Subscriber) {
	r.mu.Lock()
	r.subs[s.ID] = s
	r.mu.Unlock()
}

// Remove deletes the subscriber and reports whether it was present
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subs[id]; !ok {
		return false
	}
	delete(r.subs, id)
	return true
}

func (r *Registry) Get(id string) (*Subscriber, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.subs[id]
	return s, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.subs)
}

// List returns subscriber snapshots, oldest connection first
func (r *Registry) List() []models.SubscriberInfo {
	r.mu.RLock()
	infos := make([]models.SubscriberInfo, 0, len(r.subs))
	for _, s := range r.subs {
		infos = append(infos, s.Info())
	}
	r.mu.RUnlock()

	slices.SortFunc(infos, func(a, b models.SubscriberInfo) int {
		return a.ConnectedAt.Compare(b.ConnectedAt)
	})
	return infos
}
