package tracker

import "sync"

const lockShards = 64

type userLock struct {
	mu   sync.Mutex
	refs int
}

type lockShard struct {
	mu    sync.Mutex
	users map[int64]*userLock
}

// userLocks serialises work per user. A shard mutex is held only while
// looking up the user's entry, never while the user's operation runs.
type userLocks struct {
	shards [lockShards]lockShard
}

func newUserLocks() *userLocks {
	l := &userLocks{}
	for i := range l.shards {
		l.shards[i].users = make(map[int64]*userLock)
	}
	return l
}

// lock blocks until userID is free and returns the matching unlock func.
func (l *userLocks) lock(userID int64) func() {
	sh := &l.shards[uint64(userID)%lockShards]

	sh.mu.Lock()
	ul, ok := sh.users[userID]
	if !ok {
		ul = &userLock{}
		sh.users[userID] = ul
	}
	ul.refs++
	sh.mu.Unlock()

	ul.mu.Lock()
	return func() {
		ul.mu.Unlock()
		sh.mu.Lock()
		ul.refs--
		if ul.refs == 0 {
			delete(sh.users, userID)
		}
		sh.mu.Unlock()
	}
}

func (l *userLocks) held() int {
	n := 0
	for i := range l.shards {
		sh := &l.shards[i]
		sh.mu.Lock()
		n += len(sh.users)
		sh.mu.Unlock()
	}
	return n
}
