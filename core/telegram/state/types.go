package state

import "maps"

// State identifies a finite-state-machine step used in conversations.
type State string

// StateIdle indicates there is no active conversation with the user.
const StateIdle State = "idle"

// Session stores conversation state and scratch data for a user.
type Session struct {
	State    State
	TempData map[string]any
}

// Idle reports whether the session has no active conversation.
func (s Session) Idle() bool {
	return s.State == "" || s.State == StateIdle
}

// Clone returns a copy whose scratch map is not shared with s.
func (s Session) Clone() Session {
	out := Session{State: s.State, TempData: make(map[string]any, len(s.TempData))}
	maps.Copy(out.TempData, s.TempData)
	if out.State == "" {
		out.State = StateIdle
	}
	return out
}

// With returns a copy of s with key set to value.
func (s Session) With(key string, value any) Session {
	out := s.Clone()
	out.TempData[key] = value
	return out
}

// Float returns a float64 scratch value.
func (s Session) Float(key string) (float64, bool) {
	v, ok := s.TempData[key].(float64)
	return v, ok
}

// Int returns an int scratch value.
func (s Session) Int(key string) (int, bool) {
	v, ok := s.TempData[key].(int)
	return v, ok
}

// String returns a string scratch value.
func (s Session) String(key string) (string, bool) {
	v, ok := s.TempData[key].(string)
	return v, ok
}

// Idle returns a fresh idle session.
func Idle() Session {
	return Session{State: StateIdle, TempData: map[string]any{}}
}

// New returns a session in st with empty scratch.
func New(st State) Session {
	return Session{State: st, TempData: map[string]any{}}
}
