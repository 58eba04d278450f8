// Package memstore is the in-process backing store used when the server
// runs without a database. A single mutex serializes every operation, and
// transactions work on a copy of the state that replaces the original only
// on success.
package memstore

import (
	"sync"

	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

// State is the data held by a Store. It is only accessed from inside Do.
type State struct {
	Accounts map[string]*models.Account // by id
	Emails   map[string]string          // normalized email -> id
	Tasks    map[string][]models.Task   // by owner id
}

func newState() *State {
	return &State{
		Accounts: make(map[string]*models.Account),
		Emails:   make(map[string]string),
		Tasks:    make(map[string][]models.Task),
	}
}

func (s *State) clone() *State {
	c := newState()
	for id, a := range s.Accounts {
		c.Accounts[id] = a.Clone()
	}
	for email, id := range s.Emails {
		c.Emails[email] = id
	}
	for owner, tasks := range s.Tasks {
		c.Tasks[owner] = append([]models.Task(nil), tasks...)
	}
	return c
}

// Handle gives a repository exclusive access to the state for the duration
// of fn. fn must not leave the state half-modified when it returns an error.
type Handle interface {
	Do(fn func(*State) error) error
}

type Store struct {
	mu    sync.Mutex
	state *State
}

func New() *Store {
	return &Store{state: newState()}
}

func (s *Store) Do(fn func(*State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

// InTx runs fn against a private copy of the state and publishes the copy
// only if fn succeeds. Other callers wait until fn returns.
func (s *Store) InTx(fn func(Handle) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.state.clone()
	if err := fn(txHandle{state: draft}); err != nil {
		return err
	}
	s.state = draft
	return nil
}

type txHandle struct {
	state *State
}

func (h txHandle) Do(fn func(*State) error) error {
	return fn(h.state)
}
