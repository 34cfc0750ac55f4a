package main

import (
	"database/sql"
	"log/slog"
	"sync"
	"time"
)

// Analytics event types. Game events reuse their sim event names.
const (
	EvtRunStart        = "run_start"
	EvtRunEnd          = "run_end"
	EvtBossDefeated    = "boss_defeated"
	EvtDimensionEnter  = "dimension_entered"
	EvtPlayerEaten     = "player_eaten"
	EvtVictory         = "victory"
	EvtAchievement     = "achievement"
	EvtSessionStart    = "session_start"
	EvtSessionEnd      = "session_end"
	analyticsBatchSize = 50
)

// AnalyticsEvent is one row of analytics_events
type AnalyticsEvent struct {
	Type      string
	PlayerID  int64
	SessionID string
	Data      string // JSON, may be empty
	Timestamp time.Time
}

// Analytics queues events and writes them in batches from one goroutine
type Analytics struct {
	db     *DB
	log    *slog.Logger
	events chan AnalyticsEvent
	stop   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once

	flushEvery time.Duration
}

// NewAnalytics creates and starts the analytics background writer. With a
// nil db events are discarded.
func NewAnalytics(db *DB, log *slog.Logger) *Analytics {
	return newAnalytics(db, log, 5*time.Second)
}

func newAnalytics(db *DB, log *slog.Logger, flushEvery time.Duration) *Analytics {
	a := &Analytics{
		db:         db,
		log:        log.With("component", "analytics"),
		events:     make(chan AnalyticsEvent, 1024),
		stop:       make(chan struct{}),
		flushEvery: flushEvery,
	}
	a.wg.Add(1)
	go a.writer()
	return a
}

// Track queues an event without blocking the caller
func (a *Analytics) Track(evtType string, playerID int64, sessionID string, data string) {
	select {
	case a.events <- AnalyticsEvent{
		Type:      evtType,
		PlayerID:  playerID,
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}:
	default:
		// full: drop rather than stall a game loop
	}
}

// Stop flushes pending events and shuts the writer down
func (a *Analytics) Stop() {
	a.once.Do(func() {
		close(a.stop)
		a.wg.Wait()
	})
}

func (a *Analytics) writer() {
	defer a.wg.Done()

	batch := make([]AnalyticsEvent, 0, 64)
	ticker := time.NewTicker(a.flushEvery)
	defer ticker.Stop()

	for {
		select {
		case evt := <-a.events:
			batch = append(batch, evt)
			if len(batch) >= analyticsBatchSize {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-a.stop:
			for drained := false; !drained; {
				select {
				case evt := <-a.events:
					batch = append(batch, evt)
				default:
					drained = true
				}
			}
			a.flush(batch)
			return
		}
	}
}

func (a *Analytics) flush(events []AnalyticsEvent) {
	if a.db == nil || len(events) == 0 {
		return
	}
	tx, err := a.db.conn.Begin()
	if err != nil {
		a.log.Error("begin tx", "err", err)
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO analytics_events (event_type, player_id, session_id, data, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		a.log.Error("prepare insert", "err", err)
		return
	}
	defer stmt.Close()

	for _, evt := range events {
		pid := sql.NullInt64{Int64: evt.PlayerID, Valid: evt.PlayerID > 0}
		sid := sql.NullString{String: evt.SessionID, Valid: evt.SessionID != ""}
		data := sql.NullString{String: evt.Data, Valid: evt.Data != ""}
		if _, err := stmt.Exec(evt.Type, pid, sid, data, evt.Timestamp.Format(time.RFC3339)); err != nil {
			a.log.Error("insert event", "type", evt.Type, "err", err)
		}
	}
	if err := tx.Commit(); err != nil {
		a.log.Error("commit", "err", err)
		return
	}
	a.log.Debug("flushed", "events", len(events))
}

// StatsReport is the /api/stats response
type StatsReport struct {
	Days   int            `json:"days"`
	Events map[string]int `json:"events"`
	Bosses map[string]int `json:"bosses"`
}

// Report gathers event and boss tallies for the last N days
func (a *Analytics) Report(days int) (StatsReport, error) {
	rep := StatsReport{Days: days}
	var err error
	if rep.Events, err = a.EventCounts(days); err != nil {
		return rep, err
	}
	rep.Bosses, err = a.BossKills(days)
	return rep, err
}

// EventCounts returns counts of each event type for the last N days
func (a *Analytics) EventCounts(days int) (map[string]int, error) {
	return a.tally(`
		SELECT event_type, COUNT(*) FROM analytics_events
		WHERE created_at >= date('now', '-' || ? || ' days')
		GROUP BY event_type`, days)
}

// BossKills returns how often each boss kind was defeated in the last N days
func (a *Analytics) BossKills(days int) (map[string]int, error) {
	return a.tally(`
		SELECT COALESCE(json_extract(data, '$.kind'), 'unknown') AS kind, COUNT(*)
		FROM analytics_events
		WHERE event_type = ? AND json_valid(data) AND created_at >= date('now', '-' || ? || ' days')
		GROUP BY kind`, EvtBossDefeated, days)
}

// tally runs a two-column (key, count) query into a map
func (a *Analytics) tally(query string, args ...interface{}) (map[string]int, error) {
	out := make(map[string]int)
	if a.db == nil {
		return out, nil
	}
	rows, err := a.db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		out[key] = n
	}
	return out, rows.Err()
}
