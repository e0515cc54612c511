package state

import "sync"

const shardCount = 32

type shard struct {
	mu       sync.RWMutex
	sessions map[int64]Session
}

// Store is an in-memory session store. Reads and writes exchange copies,
// so callers never alias stored scratch maps.
type Store struct {
	shards [shardCount]shard
}

// NewStore constructs an empty session store.
func NewStore() *Store {
	s := &Store{}
	for i := range s.shards {
		s.shards[i].sessions = make(map[int64]Session)
	}
	return s
}

func (s *Store) shardFor(userID int64) *shard {
	idx := uint64(userID) % shardCount
	return &s.shards[idx]
}

// Get returns a copy of the user's session, or an idle session if none exists.
func (s *Store) Get(userID int64) Session {
	sh := s.shardFor(userID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	if sess, ok := sh.sessions[userID]; ok {
		return sess.Clone()
	}
	return Idle()
}

// Put stores a copy of sess. Idle sessions are removed instead of stored.
func (s *Store) Put(userID int64, sess Session) {
	sh := s.shardFor(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if sess.Idle() {
		delete(sh.sessions, userID)
		return
	}
	sh.sessions[userID] = sess.Clone()
}

// GetState returns the current state of a user, or StateIdle if none exists.
func (s *Store) GetState(userID int64) State {
	return s.Get(userID).State
}

// Clear removes the session and reports whether a conversation was active.
func (s *Store) Clear(userID int64) bool {
	sh := s.shardFor(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	_, ok := sh.sessions[userID]
	delete(sh.sessions, userID)
	return ok
}

// InProgress reports whether the user currently has an active conversation.
func (s *Store) InProgress(userID int64) bool {
	sh := s.shardFor(userID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	_, ok := sh.sessions[userID]
	return ok
}

// Active counts users with an active conversation.
func (s *Store) Active() int {
	total := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		total += len(sh.sessions)
		sh.mu.RUnlock()
	}
	return total
}
