package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"cdim-evaluator/internal/models"
)

// Errors returned by view updates.
var (
	ErrNoSession    = errors.New("no evaluation is loaded")
	ErrStaleSession = errors.New("evaluation was replaced by a newer upload")
)

// Source describes where a document came from.
type Source struct {
	FileName string
	Origin   string
	Size     int64
}

// Session is one loaded evaluation. A Session is never modified after it is stored;
// view updates store a copy.
type Session struct {
	ID       string
	Document *models.Evaluation
	Source   Source
	LoadedAt time.Time
	View     ViewState
}

// Failure records a rejected load attempt.
type Failure struct {
	Source  Source
	Message string
	Details []string
	At      time.Time
}

// ChangeKind names what a store mutation did.
type ChangeKind string

const (
	ChangeLoaded    ChangeKind = "loaded"
	ChangeRejected  ChangeKind = "rejected"
	ChangeDiscarded ChangeKind = "discarded"
	ChangeReset     ChangeKind = "reset"
	ChangeView      ChangeKind = "view"
	ChangeTheme     ChangeKind = "theme"
)

// Change is passed to the change callback after every mutation.
type Change struct {
	Kind      ChangeKind `json:"kind"`
	SessionID string     `json:"session_id,omitempty"`
}

// Snapshot is a consistent read of the store.
type Snapshot struct {
	Status  UploadStatus
	Session *Session
	Failure *Failure
	Theme   Theme
}

// Store owns the single session slot. Safe for concurrent access.
//
// Transitions:
//
//	IDLE ──Load──→ SUCCESS ──Discard──→ IDLE
//	  │               │
//	  └──Reject──→ ERROR ──ResetUpload──→ IDLE
//
// Load replaces any previous session wholesale, including its view state.
type Store struct {
	mu       sync.RWMutex
	status   UploadStatus
	current  *Session
	failure  *Failure
	theme    Theme
	onChange func(Change)
	now      func() time.Time
}

// NewStore creates an empty store in IDLE state with the light theme.
func NewStore() *Store {
	return &Store{theme: ThemeLight, now: time.Now}
}

// SetChangeCallback registers fn to be called after each mutation, outside the lock.
func (s *Store) SetChangeCallback(fn func(Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Status: s.status, Session: s.current, Failure: s.failure, Theme: s.theme}
}

// Current returns the loaded session, or nil.
func (s *Store) Current() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Load installs doc as the new session and clears any previous failure.
func (s *Store) Load(doc *models.Evaluation, src Source) *Session {
	sess := &Session{
		ID:       uuid.NewString(),
		Document: doc,
		Source:   src,
		LoadedAt: s.now().UTC(),
	}
	s.mu.Lock()
	s.current = sess
	s.failure = nil
	s.status = StatusSuccess
	cb := s.onChange
	s.mu.Unlock()

	notify(cb, Change{Kind: ChangeLoaded, SessionID: sess.ID})
	return sess
}

// Reject records a failed attempt. A session already loaded stays loaded.
func (s *Store) Reject(f Failure) {
	if f.At.IsZero() {
		f.At = s.now().UTC()
	}
	s.mu.Lock()
	s.failure = &f
	s.status = StatusError
	cb := s.onChange
	s.mu.Unlock()

	notify(cb, Change{Kind: ChangeRejected})
}

// ResetUpload clears the last failure so the upload form is shown fresh.
func (s *Store) ResetUpload() {
	s.mu.Lock()
	s.failure = nil
	if s.current != nil {
		s.status = StatusSuccess
	} else {
		s.status = StatusIdle
	}
	cb := s.onChange
	s.mu.Unlock()

	notify(cb, Change{Kind: ChangeReset})
}

// Discard tears down the session and its view state.
// Returns false if nothing was loaded.
func (s *Store) Discard() bool {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return false
	}
	id := s.current.ID
	s.current = nil
	s.failure = nil
	s.status = StatusIdle
	cb := s.onChange
	s.mu.Unlock()

	notify(cb, Change{Kind: ChangeDiscarded, SessionID: id})
	return true
}

// Update applies fn to the view state of session id. Requests carrying the id of a
// session that has since been replaced are refused.
func (s *Store) Update(id string, fn func(ViewState) ViewState) (*Session, error) {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return nil, ErrNoSession
	}
	if s.current.ID != id {
		s.mu.Unlock()
		return nil, ErrStaleSession
	}
	next := *s.current
	next.View = fn(next.View)
	s.current = &next
	cb := s.onChange
	s.mu.Unlock()

	notify(cb, Change{Kind: ChangeView, SessionID: id})
	return &next, nil
}

// ToggleTheme switches between light and dark and returns the new theme.
func (s *Store) ToggleTheme() Theme {
	s.mu.Lock()
	s.theme = s.theme.Toggle()
	theme := s.theme
	cb := s.onChange
	s.mu.Unlock()

	notify(cb, Change{Kind: ChangeTheme})
	return theme
}

func notify(cb func(Change), c Change) {
	if cb != nil {
		cb(c)
	}
}
