package main

import (
	"log/slog"
	"sync"
)

const (
	maxConnsPerIP = 8
	maxTotalConns = 1000
)

// Hub manages all connected clients and routes them to sessions
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	sessions   *SessionManager
	log        *slog.Logger

	// slots per remote IP, taken in the /ws handler before upgrading
	connMu     sync.Mutex
	ipConns    map[string]int
	totalConns int

	// Auth & DB; both nil when running without a database
	db        *DB
	auth      *Auth
	analytics *Analytics

	cfgMu     sync.RWMutex
	publicURL string
}

// NewHub creates a new Hub. db may be nil.
func NewHub(cfg Config, db *DB, log *slog.Logger) *Hub {
	analytics := NewAnalytics(db, log)
	h := &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		sessions:   NewSessionManager(cfg, db, analytics, log),
		log:        log,
		ipConns:    make(map[string]int),
		db:         db,
		analytics:  analytics,
		publicURL:  cfg.PublicURL,
	}
	if db != nil {
		h.auth = NewAuth(db, log)
	}
	return h
}

// ApplyConfig takes a reloaded configuration
func (h *Hub) ApplyConfig(cfg Config) {
	h.sessions.SetConfig(cfg)
	h.cfgMu.Lock()
	h.publicURL = cfg.PublicURL
	h.cfgMu.Unlock()
	SetLogLevel(cfg.LogLevel)
}

// PublicURL returns the configured external base URL, if any
func (h *Hub) PublicURL() string {
	h.cfgMu.RLock()
	defer h.cfgMu.RUnlock()
	return h.publicURL
}

// Admit reserves a connection slot for ip. Every admitted connection must
// be paired with a Release.
func (h *Hub) Admit(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.totalConns >= maxTotalConns || h.ipConns[ip] >= maxConnsPerIP {
		return false
	}
	h.ipConns[ip]++
	h.totalConns++
	return true
}

// Release frees a slot taken by Admit
func (h *Hub) Release(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if n := h.ipConns[ip] - 1; n > 0 {
		h.ipConns[ip] = n
	} else {
		delete(h.ipConns, ip)
	}
	if h.totalConns > 0 {
		h.totalConns--
	}
}

// Run processes register/unregister events
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			client.detach()
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TotalConns returns the tracked connection count
func (h *Hub) TotalConns() int {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	return h.totalConns
}

// Shutdown stops every session and flushes analytics
func (h *Hub) Shutdown() {
	h.sessions.StopAll()
	h.analytics.Stop()
}
