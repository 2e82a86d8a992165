package lifecycle

import (
	"path/filepath"
	"sync"
)

// Registry is the set of paths currently owned by an in-flight job. A path in
// the registry is never deleted by a timer or a sweep.
type Registry struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{active: make(map[string]struct{})}
}

func (r *Registry) Add(paths ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range paths {
		r.active[normalize(p)] = struct{}{}
	}
}

func (r *Registry) Remove(paths ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range paths {
		delete(r.active, normalize(p))
	}
}

func (r *Registry) Contains(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[normalize(path)]
	return ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

// unlessActive runs fn while holding the lock when path is not registered, so
// a concurrent Add cannot slip in between the check and the deletion.
func (r *Registry) unlessActive(path string, fn func()) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.active[normalize(path)]; ok {
		return false
	}
	fn()
	return true
}

func normalize(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
