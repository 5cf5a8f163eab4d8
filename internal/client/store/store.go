// Package store is the single source of truth for the signed-in user:
// the committed record, the draft edited by forms, and the loading/error
// flags shown by the front end.
//
// The Store is constructed explicitly and passed to whoever needs it.
// Every transition is applied under one lock, so readers never observe a
// half-applied change; subscribers are notified after the lock is released
// and may see snapshots of concurrent transitions out of order. State.Version
// lets them drop stale ones.
package store

import (
	"sync"
	"time"

	"github.com/frontnickson/toolrole-sub001/internal/client/models"
)

// State is an immutable snapshot of the store.
//
// IsAuthenticated is true exactly when CurrentUser is non-nil.
type State struct {
	CurrentUser     *models.UserRecord
	IsAuthenticated bool
	IsLoading       bool
	Error           string
	Draft           models.Draft
	// Version increases with every transition.
	Version uint64
}

type Store struct {
	mu    sync.RWMutex
	state State
	// generation advances every time the session changes hands
	// (a user is committed or cleared).
	generation uint64
	version    uint64

	subMu  sync.Mutex
	subs   map[int]func(State)
	nextID int

	now func() time.Time
}

func New() *Store {
	return NewWithClock(time.Now)
}

// NewWithClock is New with an injectable time source for UpdatedAt stamps.
func NewWithClock(now func() time.Time) *Store {
	return &Store{subs: make(map[int]func(State)), now: now}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() State {
	st := s.state
	st.CurrentUser = s.state.CurrentUser.Clone()
	st.Draft = s.state.Draft.Clone()
	st.Version = s.version
	return st
}

func (s *Store) CurrentUser() *models.UserRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.CurrentUser.Clone()
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.IsAuthenticated
}

func (s *Store) Draft() models.Draft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Draft.Clone()
}

// Generation identifies the current session epoch. Callers capture it before
// a long-running operation and pass it to CommitUser to detect that another
// login or logout finished in the meantime.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// SetCurrentUser commits u as the signed-in user and clears the error and
// loading flags.
func (s *Store) SetCurrentUser(u *models.UserRecord) {
	s.update(func() {
		s.setUserLocked(u)
	})
}

// CommitUser is SetCurrentUser guarded by a generation captured earlier.
// It reports false, and changes nothing, when the generation has moved on.
func (s *Store) CommitUser(gen uint64, u *models.UserRecord) bool {
	committed := false
	s.update(func() {
		if s.generation != gen {
			return
		}
		s.setUserLocked(u)
		committed = true
	})
	return committed
}

func (s *Store) setUserLocked(u *models.UserRecord) {
	if u == nil {
		s.clearUserLocked()
		return
	}
	s.state.CurrentUser = u.Clone()
	s.state.IsAuthenticated = true
	s.state.Error = ""
	s.state.IsLoading = false
	s.generation++
}

// ClearCurrentUser signs the user out of the store and also drops the draft.
func (s *Store) ClearCurrentUser() {
	s.update(s.clearUserLocked)
}

func (s *Store) clearUserLocked() {
	s.state.CurrentUser = nil
	s.state.IsAuthenticated = false
	s.state.Error = ""
	s.state.IsLoading = false
	s.state.Draft = models.Draft{}
	s.generation++
}

// UpdateProfile merges partial into the current user and refreshes
// UpdatedAt. It is a no-op, returning false, when nobody is signed in.
func (s *Store) UpdateProfile(partial models.Draft) bool {
	updated := false
	s.update(func() {
		if s.state.CurrentUser == nil {
			return
		}
		partial.ApplyTo(s.state.CurrentUser, s.now())
		updated = true
	})
	return updated
}

// SetDraft merges partial into the draft; fields absent from partial keep
// their previous values.
func (s *Store) SetDraft(partial models.Draft) {
	s.update(func() {
		s.state.Draft = s.state.Draft.Merge(partial)
	})
}

func (s *Store) ClearDraft() {
	s.update(func() {
		s.state.Draft = models.Draft{}
	})
}

func (s *Store) SetLoading(loading bool) {
	s.update(func() {
		s.state.IsLoading = loading
	})
}

// SetError records a user-visible failure message; "" clears it.
func (s *Store) SetError(msg string) {
	s.update(func() {
		s.state.Error = msg
	})
}

// Subscribe registers fn to receive a snapshot after every transition.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func(State)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) update(fn func()) {
	s.mu.Lock()
	fn()
	s.version++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.subMu.Lock()
	fns := make([]func(State), 0, len(s.subs))
	for _, f := range s.subs {
		fns = append(fns, f)
	}
	s.subMu.Unlock()

	for _, f := range fns {
		f(snap)
	}
}
