package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// reapGrace keeps an expired entry around long enough for the next request to
// see the cleared store and redirect.
const reapGrace = time.Minute

type entry struct {
	store   *Store
	watcher *Watcher
}

// Registry owns every live Store, keyed by an opaque session id. It is bounded:
// when full, the least recently used session (by Create or Get) is evicted, and
// entries are dropped some time after their policy duration.
type Registry struct {
	policy    Policy
	storeOpts []Option
	onExpire  func(id string)
	sessions  *expirable.LRU[string, *entry]
}

type RegistryOption func(*Registry)

// WithStoreOptions applies opts to every store the registry creates
func WithStoreOptions(opts ...Option) RegistryOption {
	return func(r *Registry) { r.storeOpts = append(r.storeOpts, opts...) }
}

// WithExpireHook runs fn after a session's watcher clears it. fn must not call
// back into the registry.
func WithExpireHook(fn func(id string)) RegistryOption {
	return func(r *Registry) { r.onExpire = fn }
}

func NewRegistry(policy Policy, maxSessions int, opts ...RegistryOption) *Registry {
	r := &Registry{policy: policy}
	for _, opt := range opts {
		opt(r)
	}
	r.sessions = expirable.NewLRU[string, *entry](maxSessions, func(_ string, e *entry) {
		e.watcher.Stop()
		e.store.ClearSession()
	}, policy.Duration+reapGrace)
	return r
}

// Create registers a fresh store and starts its expiry watcher
func (r *Registry) Create() (string, *Store) {
	id := uuid.NewString()

	opts := append([]Option{WithPolicy(r.policy)}, r.storeOpts...)
	store := NewStore(opts...)

	var onExpire func()
	if r.onExpire != nil {
		hook := r.onExpire
		onExpire = func() { hook(id) }
	}

	r.sessions.Add(id, &entry{store: store, watcher: Watch(store, onExpire)})
	return id, store
}

func (r *Registry) Get(id string) (*Store, bool) {
	e, ok := r.sessions.Get(id)
	if !ok {
		return nil, false
	}
	return e.store, true
}

// Remove stops the session's watcher and clears its store
func (r *Registry) Remove(id string) {
	r.sessions.Remove(id)
}

func (r *Registry) Len() int {
	return r.sessions.Len()
}

// Close removes every session
func (r *Registry) Close() {
	r.sessions.Purge()
}
