package gift

import "sync"

// KeyedMutex serializes work per string key while letting different keys
// proceed in parallel. Entries are reference counted and removed when the
// last holder unlocks, so the map never grows with the key space.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*mutexEntry
}

type mutexEntry struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{entries: make(map[string]*mutexEntry)}
}

// Lock blocks until the key's mutex is held by the caller.
func (km *KeyedMutex) Lock(key string) {
	km.mu.Lock()
	e, ok := km.entries[key]
	if !ok {
		e = &mutexEntry{}
		km.entries[key] = e
	}
	e.refs++
	km.mu.Unlock()

	e.mu.Lock()
}

// Unlock releases the key's mutex and evicts the entry once no goroutine
// holds or waits on it.
func (km *KeyedMutex) Unlock(key string) {
	km.mu.Lock()
	e, ok := km.entries[key]
	if !ok {
		km.mu.Unlock()
		panic("gift: unlock of unheld key " + key)
	}
	e.refs--
	if e.refs == 0 {
		delete(km.entries, key)
	}
	km.mu.Unlock()

	e.mu.Unlock()
}
