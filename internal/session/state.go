package session

import (
	"sync/atomic"

	"heather-backend/internal/domain"
)

// stateStore holds the current AuthState snapshot and its watchers.
// Writers must hold the controller mutex; readers never lock.
type stateStore struct {
	current  atomic.Pointer[domain.AuthState]
	watchers map[int]chan domain.AuthState
	nextID   int
}

func newStateStore() *stateStore {
	s := &stateStore{watchers: make(map[int]chan domain.AuthState)}
	s.current.Store(&domain.AuthState{IsLoading: true})
	return s
}

func (s *stateStore) load() domain.AuthState {
	return *s.current.Load()
}

// replace publishes a modified copy of the current snapshot. The user
// profile is copied so earlier snapshots are never mutated.
func (s *stateStore) replace(mutate func(*domain.AuthState)) domain.AuthState {
	next := s.load()
	if next.User != nil {
		u := *next.User
		next.User = &u
	}
	mutate(&next)
	s.current.Store(&next)

	for _, ch := range s.watchers {
		// Latest snapshot wins; a slow watcher only misses intermediate states.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- next:
		default:
		}
	}
	return next
}

func (s *stateStore) watch() (int, chan domain.AuthState) {
	id := s.nextID
	s.nextID++
	ch := make(chan domain.AuthState, 1)
	ch <- s.load()
	s.watchers[id] = ch
	return id, ch
}

func (s *stateStore) unwatch(id int) {
	if ch, ok := s.watchers[id]; ok {
		delete(s.watchers, id)
		close(ch)
	}
}

func (s *stateStore) closeAll() {
	for id := range s.watchers {
		s.unwatch(id)
	}
}
