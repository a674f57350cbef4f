package syncer

import "sync"

// moduleLocks hands out one mutex per module address.
type moduleLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newModuleLocks() *moduleLocks {
	return &moduleLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *moduleLocks) get(moduleAddress string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[moduleAddress]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[moduleAddress] = lock
	}
	return lock
}
