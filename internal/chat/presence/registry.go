package presence

import (
	"sort"
	"sync"
)

// Handle is a live connection able to accept an outbound frame. Enqueue
// reports false when the frame was not accepted (closed or saturated peer).
// Handles must be comparable; the registry relies on identity comparison
// for its replace-if-matches rule.
type Handle interface {
	Enqueue(payload []byte) bool
}

// ChangeListener receives the fresh snapshot after every effective mutation.
// It is invoked outside the registry lock.
type ChangeListener func(online []string)

// Registry maps a user id to at most one live connection handle. It is the
// process-local source of truth for who is online; it starts empty and is
// never persisted. Instances are independent, callers own the lifecycle.
type Registry struct {
	mu       sync.RWMutex
	entries  map[string]Handle
	onChange ChangeListener
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Handle)}
}

// SetChangeListener installs the presence-changed notification target.
// Must be called before the registry is shared across goroutines.
func (r *Registry) SetChangeListener(fn ChangeListener) {
	r.onChange = fn
}

// Register installs the handle for userID, replacing any prior handle.
// The replaced handle is returned so the caller can close it.
func (r *Registry) Register(userID string, h Handle) Handle {
	r.mu.Lock()
	replaced := r.entries[userID]
	r.entries[userID] = h
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	r.notify(snapshot)
	return replaced
}

// Unregister removes the mapping only if the stored handle is the same
// handle being removed. A stale disconnect arriving after the user
// reconnected therefore cannot evict the newer connection.
func (r *Registry) Unregister(userID string, h Handle) bool {
	r.mu.Lock()
	current, ok := r.entries[userID]
	if !ok || current != h {
		r.mu.Unlock()
		return false
	}
	delete(r.entries, userID)
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	r.notify(snapshot)
	return true
}

func (r *Registry) Lookup(userID string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.entries[userID]
	return h, ok
}

func (r *Registry) IsOnline(userID string) bool {
	_, ok := r.Lookup(userID)
	return ok
}

// Snapshot returns the ids of all currently online users, sorted.
func (r *Registry) Snapshot() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

// ForEach visits every live handle. The visit runs under the read lock;
// callers must not mutate the registry from fn.
func (r *Registry) ForEach(fn func(userID string, h Handle)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, h := range r.entries {
		fn(id, h)
	}
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Registry) snapshotLocked() []string {
	online := make([]string, 0, len(r.entries))
	for id := range r.entries {
		online = append(online, id)
	}
	sort.Strings(online)
	return online
}

func (r *Registry) notify(snapshot []string) {
	if r.onChange != nil {
		r.onChange(snapshot)
	}
}
