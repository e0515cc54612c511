// Package store provides tracker.ProfileStore implementations.
package store

import (
	"context"
	"sync"

	"github.com/m3rciful/healthbot/internal/tracker"
)

const memoryShards = 32

type memoryShard struct {
	mu       sync.RWMutex
	profiles map[int64]tracker.Profile
}

// Memory keeps profiles for the lifetime of the process.
type Memory struct {
	shards [memoryShards]memoryShard
}

// NewMemory returns an empty in-memory profile store.
func NewMemory() *Memory {
	m := &Memory{}
	for i := range m.shards {
		m.shards[i].profiles = make(map[int64]tracker.Profile)
	}
	return m
}

func (m *Memory) shard(userID int64) *memoryShard {
	return &m.shards[uint64(userID)%memoryShards]
}

// Get returns a copy of the stored profile.
func (m *Memory) Get(_ context.Context, userID int64) (tracker.Profile, bool, error) {
	sh := m.shard(userID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	p, ok := sh.profiles[userID]
	return p, ok, nil
}

// Save creates or replaces the profile.
func (m *Memory) Save(_ context.Context, p tracker.Profile) error {
	sh := m.shard(p.UserID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.profiles[p.UserID] = p
	return nil
}

// Count returns the number of stored profiles.
func (m *Memory) Count(context.Context) (int, error) {
	n := 0
	for i := range m.shards {
		sh := &m.shards[i]
		sh.mu.RLock()
		n += len(sh.profiles)
		sh.mu.RUnlock()
	}
	return n, nil
}
