package interview

import (
	"errors"
	"sync"
)

// ErrSessionBusy is returned when a session already has a live connection.
var ErrSessionBusy = errors.New("session already has an active connection")

// Registry tracks which sessions currently have a live connection.
type Registry struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{active: make(map[string]struct{})}
}

// Acquire claims the session id for one connection. The returned release
// func is idempotent.
func (r *Registry) Acquire(id string) (func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.active[id]; ok {
		return nil, ErrSessionBusy
	}
	r.active[id] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() { r.Release(id) })
	}, nil
}

func (r *Registry) Release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, id)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}
