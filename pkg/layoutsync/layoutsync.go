// Package layoutsync is the client-side save coordinator for diagram
// layouts. The server accepts whole-document overwrites with no merging, so
// a client must serialize its own saves and ignore server refreshes that
// race with unsaved local edits. The state machine here is what a polling or
// websocket client embeds: Clean (local == server), Dirty (unsaved edits),
// Saving (a save is in flight).
package layoutsync

import "sync"

type State int

const (
	Clean State = iota
	Dirty
	Saving
)

func (s State) String() string {
	switch s {
	case Clean:
		return "clean"
	case Dirty:
		return "dirty"
	case Saving:
		return "saving"
	}
	return "unknown"
}

// Syncer coordinates local edits, debounced saves and incoming remote
// refreshes for one layout document of type T.
type Syncer[T any] struct {
	mu      sync.Mutex
	state   State
	local   T
	pending bool // edits arrived while a save was in flight
}

func New[T any](initial T) *Syncer[T] {
	return &Syncer[T]{state: Clean, local: initial}
}

func (s *Syncer[T]) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Local returns the current local document.
func (s *Syncer[T]) Local() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.local
}

// Edit records a local change. In Saving it flags the edit as pending so the
// completed save is followed by another one.
func (s *Syncer[T]) Edit(doc T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.local = doc
	switch s.state {
	case Saving:
		s.pending = true
	default:
		s.state = Dirty
	}
}

// BeginSave transitions Dirty→Saving and returns the document to persist.
// It reports false when there is nothing to save.
func (s *Syncer[T]) BeginSave() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Dirty {
		var zero T
		return zero, false
	}
	s.state = Saving
	s.pending = false
	return s.local, true
}

// SaveSucceeded completes the in-flight save. If edits arrived meanwhile the
// syncer goes straight back to Dirty.
func (s *Syncer[T]) SaveSucceeded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Saving {
		return
	}
	if s.pending {
		s.state = Dirty
		s.pending = false
		return
	}
	s.state = Clean
}

// SaveFailed returns to Dirty so the save is retried with the latest local
// document.
func (s *Syncer[T]) SaveFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Saving {
		return
	}
	s.state = Dirty
	s.pending = false
}

// ApplyRemote offers a server refresh. It is accepted only in Clean; a Dirty
// or Saving syncer keeps its local document untouched, since last-writer-wins
// saves would otherwise be clobbered mid-edit. Reports whether the refresh
// was applied.
func (s *Syncer[T]) ApplyRemote(doc T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Clean {
		return false
	}
	s.local = doc
	return true
}
