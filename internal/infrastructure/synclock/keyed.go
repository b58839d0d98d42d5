package synclock

import (
	"sync"
)

// KeyedMutex provides non-blocking mutual exclusion per string key.
// Mutations against the same entity key are serialized; a second caller
// arriving while the key is held is rejected instead of queued, so the
// webhook path never blocks on a slow sibling request.
//
// Lock entries are removed on release, keeping the map bounded by the
// number of in-flight keys.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]struct{}
}

// NewKeyedMutex creates an empty keyed mutex
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{
		locks: make(map[string]struct{}),
	}
}

// TryAcquire attempts to take the lock for key without blocking. It
// returns a release function on success and false when the key is
// already held. The release function is idempotent.
func (m *KeyedMutex) TryAcquire(key string) (func(), bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, held := m.locks[key]; held {
		return nil, false
	}
	m.locks[key] = struct{}{}

	var once sync.Once
	release := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.locks, key)
		})
	}
	return release, true
}

// Held reports whether the key is currently locked. Intended for tests
// and diagnostics.
func (m *KeyedMutex) Held(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, held := m.locks[key]
	return held
}
