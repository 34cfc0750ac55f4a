package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	jwtExpiry        = 7 * 24 * time.Hour
	minPasswordLen   = 4
	minUsernameLen   = 2
	maxUsernameLen   = 16
	loginRateWindow  = 60 * time.Second
	maxLoginAttempts = 10
	signupRateWindow = time.Hour
	maxSignups       = 20
	rateMaxKeys      = 4096 // prune expired entries past this many IPs
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrRateLimited        = errors.New("too many attempts, try again later")
	ErrInvalidToken       = errors.New("invalid token")
	ErrBadAccount         = errors.New("invalid account details")
)

// bcryptCost is a variable so tests can use the minimum cost.
var bcryptCost = 12

// Auth handles authentication
type Auth struct {
	db        *DB
	jwtSecret []byte
	log       *slog.Logger

	logins  *rateLimiter
	signups *rateLimiter
}

// rateLimiter counts attempts per IP in fixed windows
type rateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	entries map[string]*rateEntry
}

type rateEntry struct {
	Count   int
	ResetAt time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{limit: limit, window: window, entries: make(map[string]*rateEntry)}
}

// allow records an attempt from ip and reports whether it is within the limit
func (r *rateLimiter) allow(ip string, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.entries) >= rateMaxKeys {
		for k, e := range r.entries {
			if now.After(e.ResetAt) {
				delete(r.entries, k)
			}
		}
	}
	e, ok := r.entries[ip]
	if !ok || now.After(e.ResetAt) {
		r.entries[ip] = &rateEntry{Count: 1, ResetAt: now.Add(r.window)}
		return true
	}
	e.Count++
	return e.Count <= r.limit
}

// NewAuth creates a new Auth handler
func NewAuth(db *DB, log *slog.Logger) *Auth {
	a := &Auth{
		db:      db,
		log:     log.With("component", "auth"),
		logins:  newRateLimiter(maxLoginAttempts, loginRateWindow),
		signups: newRateLimiter(maxSignups, signupRateWindow),
	}
	a.jwtSecret = a.loadOrCreateSecret()
	return a
}

// loadOrCreateSecret loads the JWT secret from the database, or generates
// and persists a new one if none exists.
func (a *Auth) loadOrCreateSecret() []byte {
	if h := a.db.GetSetting("jwt_secret"); h != "" {
		if b, err := hex.DecodeString(h); err == nil && len(b) == 32 {
			return b
		}
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic("failed to generate JWT secret: " + err.Error())
	}
	if err := a.db.SetSetting("jwt_secret", hex.EncodeToString(secret)); err != nil {
		a.log.Warn("could not persist JWT secret", "err", err)
	}
	return secret
}

// Register creates a new account for a tracker connecting from ip
func (a *Auth) Register(username, password, ip string) (int64, string, error) {
	if !a.signups.allow(ip, time.Now()) {
		return 0, "", ErrRateLimited
	}
	username = strings.TrimSpace(username)

	if len(username) < minUsernameLen || len(username) > maxUsernameLen {
		return 0, "", fmt.Errorf("%w: username must be %d-%d characters", ErrBadAccount, minUsernameLen, maxUsernameLen)
	}
	if len(password) < minPasswordLen {
		return 0, "", fmt.Errorf("%w: password must be at least %d characters", ErrBadAccount, minPasswordLen)
	}

	exists, err := a.db.UsernameExists(username)
	if err != nil {
		return 0, "", fmt.Errorf("register: %w", err)
	}
	if exists {
		return 0, "", ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return 0, "", fmt.Errorf("register: %w", err)
	}

	id, err := a.db.CreatePlayer(username, string(hash))
	if err != nil {
		return 0, "", fmt.Errorf("register: %w", err)
	}

	token, err := a.generateToken(id, username)
	if err != nil {
		return 0, "", fmt.Errorf("register: %w", err)
	}
	a.log.Info("account created", "player", id, "username", username)
	return id, token, nil
}

// Login authenticates a user and returns a JWT
func (a *Auth) Login(username, password, ip string) (int64, string, error) {
	if !a.logins.allow(ip, time.Now()) {
		return 0, "", ErrRateLimited
	}

	player, err := a.db.GetPlayerByUsername(strings.TrimSpace(username))
	if err != nil {
		return 0, "", fmt.Errorf("login: %w", err)
	}
	if player == nil || player.PassHash == "" {
		return 0, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(player.PassHash), []byte(password)); err != nil {
		return 0, "", ErrInvalidCredentials
	}

	token, err := a.generateToken(player.ID, player.Username)
	if err != nil {
		return 0, "", fmt.Errorf("login: %w", err)
	}
	return player.ID, token, nil
}

// ValidateToken validates a JWT and returns (playerID, username, error)
func (a *Auth) ValidateToken(tokenStr string) (int64, string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return 0, "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, "", ErrInvalidToken
	}
	pid, ok := claims["pid"].(float64)
	if !ok {
		return 0, "", ErrInvalidToken
	}
	username, ok := claims["usr"].(string)
	if !ok {
		return 0, "", ErrInvalidToken
	}
	return int64(pid), username, nil
}

func (a *Auth) generateToken(playerID int64, username string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"pid": playerID,
		"usr": username,
		"exp": now.Add(jwtExpiry).Unix(),
		"iat": now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.jwtSecret)
}
