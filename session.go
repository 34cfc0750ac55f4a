package main

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionIdleTimeout is how long a session may have nobody attached before
// it is reaped. Tests shorten it.
var SessionIdleTimeout = 5 * time.Minute

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionFull     = errors.New("session already has a tracker")
	ErrTooManySessions = errors.New("too many active sessions")
)

// Session is one running game that a tracker drives and spectators watch
type Session struct {
	ID      string
	Name    string
	Game    *Game
	Created time.Time

	emptySince time.Time // guarded by SessionManager.mu
}

// SessionManager handles creation, lookup and reaping of sessions
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	cfg      Config

	db        *DB
	analytics *Analytics
	log       *slog.Logger
}

// NewSessionManager creates a new SessionManager
func NewSessionManager(cfg Config, db *DB, analytics *Analytics, log *slog.Logger) *SessionManager {
	return &SessionManager{
		sessions:  make(map[string]*Session),
		cfg:       cfg,
		db:        db,
		analytics: analytics,
		log:       log,
	}
}

// SetConfig replaces the configuration used for sessions created from now
// on. Running sessions keep their tuning.
func (sm *SessionManager) SetConfig(cfg Config) {
	sm.mu.Lock()
	sm.cfg = cfg
	sm.mu.Unlock()
}

// CreateSession creates and starts a new session
func (sm *SessionManager) CreateSession(name string) (*Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if len(sm.sessions) >= sm.cfg.MaxSessions {
		return nil, ErrTooManySessions
	}

	id := uuid.NewString()
	game, err := NewGame(id, GameConfig{
		TickRate:      sm.cfg.TickRate,
		BroadcastRate: sm.cfg.BroadcastRate,
		Tuning:        sm.cfg.Sim,
		Seed:          time.Now().UnixNano(),
	}, sm.db, sm.analytics, sm.log)
	if err != nil {
		return nil, err
	}
	sess := &Session{ID: id, Name: name, Game: game, Created: time.Now()}
	sm.sessions[id] = sess
	go game.Run()

	sm.log.Info("session created", "session", id, "name", name)
	sm.analytics.Track(EvtSessionStart, 0, id, "")
	return sess, nil
}

// GetSession returns a session by ID, or nil
func (sm *SessionManager) GetSession(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// Lookup is GetSession with an error for protocol handlers
func (sm *SessionManager) Lookup(id string) (*Session, error) {
	if sess := sm.GetSession(id); sess != nil {
		return sess, nil
	}
	return nil, ErrSessionNotFound
}

// Count returns the number of live sessions
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// TrackerCount returns how many sessions currently have a tracker
func (sm *SessionManager) TrackerCount() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	n := 0
	for _, sess := range sm.sessions {
		if sess.Game.HasTracker() {
			n++
		}
	}
	return n
}

// ListSessions returns info about all active sessions
func (sm *SessionManager) ListSessions() []SessionInfo {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	list := make([]SessionInfo, 0, len(sm.sessions))
	for _, sess := range sm.sessions {
		wave, stage := sess.Game.Progress()
		list = append(list, SessionInfo{
			ID:         sess.ID,
			Name:       sess.Name,
			Tracker:    sess.Game.HasTracker(),
			Spectators: sess.Game.SpectatorCount(),
			Wave:       wave,
			Stage:      stage,
		})
	}
	return list
}

// RunReaper removes sessions that nobody has been attached to for
// SessionIdleTimeout. It returns when ctx is done.
func (sm *SessionManager) RunReaper(ctx context.Context) {
	every := SessionIdleTimeout / 3
	if every < 10*time.Millisecond {
		every = 10 * time.Millisecond
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			sm.reap(now)
		}
	}
}

func (sm *SessionManager) reap(now time.Time) {
	var dead []*Session
	sm.mu.Lock()
	for id, sess := range sm.sessions {
		if sess.Game.Attached() {
			sess.emptySince = time.Time{}
			continue
		}
		if sess.emptySince.IsZero() {
			sess.emptySince = now
			continue
		}
		if now.Sub(sess.emptySince) >= SessionIdleTimeout {
			delete(sm.sessions, id)
			dead = append(dead, sess)
		}
	}
	sm.mu.Unlock()

	for _, sess := range dead {
		sess.Game.Stop()
		sm.log.Info("session reaped", "session", sess.ID)
		sm.analytics.Track(EvtSessionEnd, 0, sess.ID, "")
	}
}

// StopAll stops every session, recording unfinished runs
func (sm *SessionManager) StopAll() {
	sm.mu.Lock()
	all := sm.sessions
	sm.sessions = make(map[string]*Session)
	sm.mu.Unlock()
	for _, sess := range all {
		sess.Game.Stop()
	}
}
