package tagmerge

import (
	"sync"

	"github.com/ajitpratap0/openclaw-tagger/internal/models"
)

// ScopeLocks serializes work per merge scope. Two goroutines working on
// the same (category, book) scope run one after the other; different
// scopes proceed in parallel. Idle entries are dropped.
type ScopeLocks struct {
	mu    sync.Mutex
	locks map[models.Scope]*scopeLock
}

type scopeLock struct {
	mu   sync.Mutex
	refs int
}

// NewScopeLocks creates an empty lock table.
func NewScopeLocks() *ScopeLocks {
	return &ScopeLocks{locks: make(map[models.Scope]*scopeLock)}
}

// Lock blocks until the scope is free and returns its unlock function.
func (l *ScopeLocks) Lock(s models.Scope) func() {
	l.mu.Lock()
	sl, ok := l.locks[s]
	if !ok {
		sl = &scopeLock{}
		l.locks[s] = sl
	}
	sl.refs++
	l.mu.Unlock()

	sl.mu.Lock()
	return func() {
		sl.mu.Unlock()
		l.mu.Lock()
		sl.refs--
		if sl.refs == 0 {
			delete(l.locks, s)
		}
		l.mu.Unlock()
	}
}

// Do runs fn while holding the scope's lock.
func (l *ScopeLocks) Do(s models.Scope, fn func() error) error {
	unlock := l.Lock(s)
	defer unlock()
	return fn()
}

// held returns how many scopes currently have holders or waiters.
func (l *ScopeLocks) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
