package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/sandevgo/piichat/internal/core"
	"github.com/sandevgo/piichat/pkg/log"
)

// Session couples a conversation state with the lock that serialises
// submissions to it.
type Session struct {
	ID    string
	State *State

	mu       sync.Mutex
	loaded   bool
	lastUsed time.Time
}

// Lock blocks until no other submission is running on this session.
func (s *Session) Lock() {
	s.mu.Lock()
}

func (s *Session) Unlock() {
	s.mu.Unlock()
}

// Loaded reports whether stored turns were already replayed. Callers must
// hold the session lock.
func (s *Session) Loaded() bool {
	return s.loaded
}

func (s *Session) MarkLoaded() {
	s.loaded = true
}

// Sessions is a registry of isolated conversations keyed by session ID.
// Sessions idle for longer than the TTL are dropped by Sweep, and once the
// configured maximum is reached the least recently used idle session makes
// room for a new one.
type Sessions struct {
	mu       sync.Mutex
	preamble []core.Turn
	sessions map[string]*Session
	ttl      time.Duration
	max      int
	now      func() time.Time
}

// NewSessions returns a registry whose sessions expire after idleTTL without
// use and which holds at most max sessions. Zero disables either limit.
func NewSessions(preamble []core.Turn, idleTTL time.Duration, max int) *Sessions {
	return &Sessions{
		preamble: cloneTurns(preamble),
		sessions: make(map[string]*Session),
		ttl:      idleTTL,
		max:      max,
		now:      time.Now,
	}
}

// Get returns the session for id, creating it on first use.
func (r *Sessions) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	s, ok := r.sessions[id]
	if !ok {
		if r.max > 0 && len(r.sessions) >= r.max {
			r.sweepLocked(now)
			r.evictOldestLocked()
		}
		preamble := r.preamble
		if len(preamble) == 0 {
			preamble = nil
		}
		s = &Session{ID: id, State: NewState(preamble)}
		r.sessions[id] = s
	}
	s.lastUsed = now
	return s
}

func (r *Sessions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle since before now minus the TTL and returns how
// many went. A session with a submission in flight is kept.
func (r *Sessions) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sweepLocked(now)
}

func (r *Sessions) sweepLocked(now time.Time) int {
	if r.ttl <= 0 {
		return 0
	}
	removed := 0
	for id, s := range r.sessions {
		if now.Sub(s.lastUsed) < r.ttl || !s.mu.TryLock() {
			continue
		}
		delete(r.sessions, id)
		s.mu.Unlock()
		removed++
	}
	return removed
}

// evictOldestLocked frees room for one session by dropping the least
// recently used one that is not busy.
func (r *Sessions) evictOldestLocked() {
	for len(r.sessions) >= r.max {
		var oldest *Session
		for _, s := range r.sessions {
			if oldest == nil || s.lastUsed.Before(oldest.lastUsed) {
				if s.mu.TryLock() {
					if oldest != nil {
						oldest.mu.Unlock()
					}
					oldest = s
				}
			}
		}
		if oldest == nil {
			// every session is busy
			return
		}
		delete(r.sessions, oldest.ID)
		oldest.mu.Unlock()
	}
}

// Run sweeps the registry every interval until ctx is done.
func (r *Sessions) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := r.Sweep(now); n > 0 {
				log.FromCtx(ctx).Debug().Int("evicted", n).Int("remaining", r.Len()).Msg("swept idle sessions")
			}
		}
	}
}
