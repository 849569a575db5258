package queue

import "sync"

// Locker hands out one mutex per queue id. Entries are dropped once nobody
// holds or waits for them.
type Locker struct {
	mu    sync.Mutex
	locks map[uint]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func NewLocker() *Locker {
	return &Locker{locks: make(map[uint]*keyedLock)}
}

// Lock blocks until the queue's mutex is held and returns the release func.
func (l *Locker) Lock(queueID uint) func() {
	l.mu.Lock()
	kl, ok := l.locks[queueID]
	if !ok {
		kl = &keyedLock{}
		l.locks[queueID] = kl
	}
	kl.refs++
	l.mu.Unlock()

	kl.mu.Lock()

	return func() {
		kl.mu.Unlock()

		l.mu.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(l.locks, queueID)
		}
		l.mu.Unlock()
	}
}

func (l *Locker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
