package scheduler

import "sync"

// Store keeps the most recent finished build per owner. Readers only ever
// see a complete Result: a build is published after Build returns, never
// while it runs.
type Store struct {
	latest sync.Map // owner -> *Result
}

func NewStore() *Store {
	return &Store{}
}

// Publish replaces the owner's latest result.
func (s *Store) Publish(owner string, result *Result) {
	if result == nil {
		return
	}
	s.latest.Store(owner, result)
}

// Latest returns the owner's most recent result.
func (s *Store) Latest(owner string) (*Result, bool) {
	v, ok := s.latest.Load(owner)
	if !ok {
		return nil, false
	}
	return v.(*Result), true
}
