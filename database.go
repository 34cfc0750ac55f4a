package main

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// PlayerRow represents a player record in the database
type PlayerRow struct {
	ID        int64
	Username  string
	PassHash  string
	CreatedAt time.Time
}

// StatsRow represents lifetime stats of an account
type StatsRow struct {
	PlayerID  int64
	Runs      int
	Kills     int
	BestWave  int
	Bosses    int
	Victories int
	Playtime  float64 // seconds
	XP        int
	Level     int
}

// RunRow is one finished (or abandoned) run of a session
type RunRow struct {
	ID         int64
	PlayerID   int64 // 0 for anonymous trackers
	SessionID  string
	Duration   float64
	Wave       int
	Kills      int
	Bosses     int
	LivesLost  int
	Dungeon    bool
	Elder      bool
	Victory    bool
	XPEarned   int
	FinishedAt time.Time
}

// LeaderboardEntry represents one row in the leaderboard
type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	Username  string `json:"username"`
	Level     int    `json:"level"`
	XP        int    `json:"xp"`
	Kills     int    `json:"kills"`
	BestWave  int    `json:"best_wave"`
	Bosses    int    `json:"bosses"`
	Victories int    `json:"victories"`
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer; sqlite serializes anyway and this avoids SQLITE_BUSY.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS players (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		pass_hash TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS stats (
		player_id INTEGER PRIMARY KEY REFERENCES players(id),
		runs INTEGER NOT NULL DEFAULT 0,
		kills INTEGER NOT NULL DEFAULT 0,
		best_wave INTEGER NOT NULL DEFAULT 0,
		bosses INTEGER NOT NULL DEFAULT 0,
		victories INTEGER NOT NULL DEFAULT 0,
		playtime REAL NOT NULL DEFAULT 0,
		xp INTEGER NOT NULL DEFAULT 0,
		level INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		player_id INTEGER REFERENCES players(id),
		session_id TEXT NOT NULL,
		duration REAL NOT NULL DEFAULT 0,
		wave INTEGER NOT NULL DEFAULT 0,
		kills INTEGER NOT NULL DEFAULT 0,
		bosses INTEGER NOT NULL DEFAULT 0,
		lives_lost INTEGER NOT NULL DEFAULT 0,
		dungeon INTEGER NOT NULL DEFAULT 0,
		elder INTEGER NOT NULL DEFAULT 0,
		victory INTEGER NOT NULL DEFAULT 0,
		xp_earned INTEGER NOT NULL DEFAULT 0,
		finished_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS analytics_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		player_id INTEGER,
		session_id TEXT,
		data TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS achievements (
		player_id INTEGER NOT NULL REFERENCES players(id),
		achievement_id TEXT NOT NULL,
		unlocked_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (player_id, achievement_id)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_player ON runs(player_id);
	CREATE INDEX IF NOT EXISTS idx_analytics_type ON analytics_events(event_type, created_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// CreatePlayer creates a new account and its stats row
func (db *DB) CreatePlayer(username, passHash string) (int64, error) {
	res, err := db.conn.Exec(
		"INSERT INTO players (username, pass_hash) VALUES (?, ?)",
		username, passHash,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	_, err = db.conn.Exec("INSERT INTO stats (player_id) VALUES (?)", id)
	return id, err
}

// GetPlayerByUsername returns a player by username, or nil
func (db *DB) GetPlayerByUsername(username string) (*PlayerRow, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, pass_hash, created_at FROM players WHERE username = ?",
		username,
	)
	p := &PlayerRow{}
	err := row.Scan(&p.ID, &p.Username, &p.PassHash, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

// GetPlayerByID returns a player by ID, or nil
func (db *DB) GetPlayerByID(id int64) (*PlayerRow, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, pass_hash, created_at FROM players WHERE id = ?",
		id,
	)
	p := &PlayerRow{}
	err := row.Scan(&p.ID, &p.Username, &p.PassHash, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

// UsernameExists checks if a username is taken
func (db *DB) UsernameExists(username string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM players WHERE username = ?", username).Scan(&count)
	return count > 0, err
}

// GetStats returns lifetime stats, or nil for an unknown player
func (db *DB) GetStats(playerID int64) (*StatsRow, error) {
	row := db.conn.QueryRow(
		`SELECT player_id, runs, kills, best_wave, bosses, victories, playtime, xp, level
		 FROM stats WHERE player_id = ?`,
		playerID,
	)
	s := &StatsRow{}
	err := row.Scan(&s.PlayerID, &s.Runs, &s.Kills, &s.BestWave, &s.Bosses, &s.Victories, &s.Playtime, &s.XP, &s.Level)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// XPForLevel returns the total XP required to reach a given level.
// Formula: sum of 100 * i^1.5 for i in 1..level-1
func XPForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	total := 0.0
	for i := 1; i < level; i++ {
		total += 100.0 * math.Pow(float64(i), 1.5)
	}
	return int(total)
}

// CalculateLevel returns the level for a given total XP amount
func CalculateLevel(totalXP int) int {
	level := 1
	for {
		if totalXP < XPForLevel(level+1) {
			return level
		}
		level++
		if level >= 100 {
			return 100
		}
	}
}

// RunXP is the experience a run is worth: one per kill, 10 per wave
// reached, 50 per boss and 500 for a victory.
func RunXP(r RunRow) int {
	xp := r.Kills + 10*r.Wave + 50*r.Bosses
	if r.Victory {
		xp += 500
	}
	return xp
}

// RecordRun stores a run and, for a signed-in tracker, folds it into the
// account's stats. It returns the account's new (xp, level); both are zero
// for anonymous runs.
func (db *DB) RecordRun(r RunRow) (int, int, error) {
	r.XPEarned = RunXP(r)
	pid := sql.NullInt64{Int64: r.PlayerID, Valid: r.PlayerID > 0}

	tx, err := db.conn.Begin()
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (player_id, session_id, duration, wave, kills, bosses, lives_lost, dungeon, elder, victory, xp_earned)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pid, r.SessionID, r.Duration, r.Wave, r.Kills, r.Bosses, r.LivesLost,
		boolInt(r.Dungeon), boolInt(r.Elder), boolInt(r.Victory), r.XPEarned,
	)
	if err != nil {
		return 0, 0, fmt.Errorf("insert run: %w", err)
	}
	if !pid.Valid {
		return 0, 0, tx.Commit()
	}

	_, err = tx.Exec(`
		UPDATE stats SET
			runs = runs + 1,
			kills = kills + ?,
			best_wave = MAX(best_wave, ?),
			bosses = bosses + ?,
			victories = victories + ?,
			playtime = playtime + ?,
			xp = xp + ?
		WHERE player_id = ?`,
		r.Kills, r.Wave, r.Bosses, boolInt(r.Victory), r.Duration, r.XPEarned, r.PlayerID,
	)
	if err != nil {
		return 0, 0, fmt.Errorf("update stats: %w", err)
	}

	var totalXP int
	if err := tx.QueryRow("SELECT xp FROM stats WHERE player_id = ?", r.PlayerID).Scan(&totalXP); err != nil {
		return 0, 0, err
	}
	level := CalculateLevel(totalXP)
	if _, err := tx.Exec("UPDATE stats SET level = ? WHERE player_id = ?", level, r.PlayerID); err != nil {
		return 0, 0, err
	}
	return totalXP, level, tx.Commit()
}

// GetRuns returns the most recent runs of a player
func (db *DB) GetRuns(playerID int64, limit int) ([]RunRow, error) {
	rows, err := db.conn.Query(`
		SELECT id, session_id, duration, wave, kills, bosses, lives_lost, dungeon, elder, victory, xp_earned, finished_at
		FROM runs WHERE player_id = ?
		ORDER BY id DESC LIMIT ?`,
		playerID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []RunRow
	for rows.Next() {
		r := RunRow{PlayerID: playerID}
		var dungeon, elder, victory int
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Duration, &r.Wave, &r.Kills, &r.Bosses, &r.LivesLost,
			&dungeon, &elder, &victory, &r.XPEarned, &r.FinishedAt); err != nil {
			return nil, err
		}
		r.Dungeon, r.Elder, r.Victory = dungeon != 0, elder != 0, victory != 0
		result = append(result, r)
	}
	return result, rows.Err()
}

// GetLeaderboard returns top players sorted by the given field
func (db *DB) GetLeaderboard(orderBy string, limit int) ([]LeaderboardEntry, error) {
	validCols := map[string]string{
		"xp": "s.xp", "kills": "s.kills", "wave": "s.best_wave",
		"bosses": "s.bosses", "victories": "s.victories",
	}
	col, ok := validCols[orderBy]
	if !ok {
		col = "s.xp"
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := `SELECT p.username, s.level, s.xp, s.kills, s.best_wave, s.bosses, s.victories
		FROM stats s JOIN players p ON p.id = s.player_id
		ORDER BY ` + col + ` DESC, p.id ASC LIMIT ?`

	rows, err := db.conn.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []LeaderboardEntry
	rank := 1
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.Level, &e.XP, &e.Kills, &e.BestWave, &e.Bosses, &e.Victories); err != nil {
			return nil, err
		}
		e.Rank = rank
		rank++
		result = append(result, e)
	}
	return result, rows.Err()
}

// GetSetting returns a stored setting, or "" when missing
func (db *DB) GetSetting(key string) string {
	var v string
	if err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&v); err != nil {
		return ""
	}
	return v
}

// SetSetting stores a setting, replacing any previous value
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

// GetAchievements returns the IDs a player has unlocked
func (db *DB) GetAchievements(playerID int64) ([]string, error) {
	rows, err := db.conn.Query(
		"SELECT achievement_id FROM achievements WHERE player_id = ? ORDER BY unlocked_at, achievement_id",
		playerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UnlockAchievement records an achievement. It reports false when the
// player already had it.
func (db *DB) UnlockAchievement(playerID int64, id string) (bool, error) {
	res, err := db.conn.Exec(
		"INSERT OR IGNORE INTO achievements (player_id, achievement_id) VALUES (?, ?)",
		playerID, id,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
