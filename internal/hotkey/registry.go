package hotkey

import (
	"sort"
	"sync"
)

// Binding couples a key with the action fired on a matching key-down.
type Binding struct {
	Key    Key
	Spec   string
	Action func()
}

// Registry maps keys to bindings. It is safe for concurrent use: writes come
// from the caller goroutine and reads from the dispatcher goroutine.
type Registry struct {
	mu       sync.RWMutex
	bindings map[Key]Binding
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{bindings: make(map[Key]Binding)}
}

// Register stores b, replacing any binding with the same key.
func (r *Registry) Register(b Binding) (replaced bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, replaced = r.bindings[b.Key]
	r.bindings[b.Key] = b
	return replaced
}

// Unregister removes the binding for key and reports whether one existed.
func (r *Registry) Unregister(key Key) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bindings[key]; !ok {
		return false
	}
	delete(r.bindings, key)
	return true
}

// Clear removes every binding.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.bindings)
}

// Lookup returns the binding registered for exactly key.
func (r *Registry) Lookup(key Key) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bindings[key]
	return b, ok
}

// Len returns the number of bindings.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bindings)
}

// Bindings returns a snapshot ordered by spec.
func (r *Registry) Bindings() []Binding {
	r.mu.RLock()
	out := make([]Binding, 0, len(r.bindings))
	for _, b := range r.bindings {
		out = append(out, b)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Key.String() < out[j].Key.String()
	})
	return out
}
