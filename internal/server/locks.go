package server

import (
	"context"
	"sync"

	"github.com/jonathan/job-agent/internal/session"
)

// keyedMutex serializes work per session so concurrent requests cannot
// interleave updates to the same turn. Entries are dropped when unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock acquires the lock for key and returns its release function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

// lockSession serializes work on sid within this process and, when the
// session cache is shared, across processes.
func (s *Server) lockSession(ctx context.Context, sid string) (func(), error) {
	unlock := s.locks.Lock(sid)
	locker, ok := s.deps.Sessions.(session.Locker)
	if !ok {
		return unlock, nil
	}
	release, err := locker.Lock(ctx, sid)
	if err != nil {
		unlock()
		return nil, err
	}
	return func() {
		release()
		unlock()
	}, nil
}
