package app

import "sync"

// orderLocks serializes read-modify-write cycles on the same order id.
type orderLocks struct {
	mu    sync.Mutex
	locks map[string]*orderLock
}

type orderLock struct {
	mu      sync.Mutex
	waiters int
}

func newOrderLocks() *orderLocks {
	return &orderLocks{locks: make(map[string]*orderLock)}
}

// lock blocks until id is free and returns the matching unlock.
func (l *orderLocks) lock(id string) func() {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &orderLock{}
		l.locks[id] = entry
	}
	entry.waiters++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.waiters--
		if entry.waiters == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
