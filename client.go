package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/toddllm/face-controls/internal/sim"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 64 << 10 // a full landmark frame for eight faces
	sendBufSize       = 256
	maxMessagesPerSec = 120 // video frames plus audio chunks
	maxNameLen        = 16
	maxSessionNameLen = 30
)

type role uint8

const (
	roleNone role = iota
	roleTracker
	roleSpectator
)

// Client represents a WebSocket connection
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	log        *slog.Logger
	remoteAddr string
	sessionID  string
	role       role
	msgCount   int
	msgResetAt time.Time
	// Auth state
	authPlayerID int64  // 0 = anonymous
	authUsername string // "" = anonymous
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		log:        hub.log.With("client", remoteAddr),
		remoteAddr: remoteAddr,
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Release(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("ws error", "err", err)
			}
			break
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			c.log.Warn("rate limit exceeded, disconnecting")
			break
		}

		if msgType == websocket.BinaryMessage {
			c.handleBinary(message)
		} else {
			c.handleMessage(message)
		}
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// 0xFF marks binary frames queued by SendBinary
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.log.Error("marshal failed", "err", err)
		return
	}
	c.SendRaw(data)
}

// SendRaw sends pre-marshaled bytes as a text message to the client
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }() // send on a closed channel after unregister
	select {
	case c.send <- data:
	default:
		// Client too slow, drop message
	}
}

// SendBinary sends pre-marshaled bytes as a binary WebSocket message.
// Prefixes with 0xFF marker byte so WritePump can distinguish from text
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
	}
}

func (c *Client) sendError(msg string) {
	c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: msg}})
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.log.Debug("unmarshal failed", "err", err)
		return
	}

	switch env.T {
	case MsgList:
		c.handleList()
	case MsgCreate:
		c.handleCreate(env.D)
	case MsgJoin:
		c.handleJoin(env.D)
	case MsgSpectate:
		c.handleSpectate(env.D)
	case MsgLeave:
		c.detach()
	case MsgCheck:
		c.handleCheck(env.D)
	case MsgFrame:
		c.handleFrame(env.D)
	case MsgPause:
		c.command(sim.Command{Type: sim.CmdTogglePause})
	case MsgPortal:
		c.handlePortal(env.D)
	case MsgNormal:
		c.command(sim.Command{Type: sim.CmdReturnNormal})
	case MsgRestart:
		c.command(sim.Command{Type: sim.CmdRestart})
	case MsgRegister:
		c.handleRegister(env.D)
	case MsgLogin:
		c.handleLogin(env.D)
	case MsgAuth:
		c.handleAuth(env.D)
	case MsgProfile:
		c.handleProfile()
	case MsgBoard:
		c.handleLeaderboard(env.D)
	}
}

// handleBinary routes tagged tracker frames
func (c *Client) handleBinary(msg []byte) {
	game := c.trackedGame()
	if game == nil || len(msg) == 0 {
		return
	}
	var err error
	switch msg[0] {
	case binAudio:
		err = game.HandleAudio(msg[1:])
	case binLandmarks:
		err = game.HandleLandmarks(msg[1:])
	default:
		return
	}
	if err != nil {
		c.log.Debug("bad binary frame", "tag", msg[0], "err", err)
	}
}

// trackedGame returns the game this client drives, or nil for spectators
// and unattached clients.
func (c *Client) trackedGame() *Game {
	if c.role != roleTracker {
		return nil
	}
	sess := c.hub.sessions.GetSession(c.sessionID)
	if sess == nil {
		return nil
	}
	return sess.Game
}

// detach leaves the current session, if any
func (c *Client) detach() {
	if c.sessionID == "" {
		return
	}
	if sess := c.hub.sessions.GetSession(c.sessionID); sess != nil {
		switch c.role {
		case roleTracker:
			sess.Game.DetachTracker(c)
		case roleSpectator:
			sess.Game.RemoveSpectator(c)
		}
	}
	c.sessionID = ""
	c.role = roleNone
}

func (c *Client) handleList() {
	c.SendJSON(Envelope{T: MsgSessions, Data: c.hub.sessions.ListSessions()})
}

func (c *Client) handleCreate(data json.RawMessage) {
	var msg CreateMsg
	if len(data) > 0 {
		if err := json.Unmarshal(data, &msg); err != nil {
			return
		}
	}
	sname := clipName(msg.SessionName, "Face Arena", maxSessionNameLen)
	sess, err := c.hub.sessions.CreateSession(sname)
	if err != nil {
		c.log.Warn("create session failed", "err", err)
		c.sendError(err.Error())
		return
	}
	c.SendJSON(Envelope{T: MsgCreated, Data: map[string]string{"sid": sess.ID}})
}

func (c *Client) handleJoin(data json.RawMessage) {
	var msg JoinMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sess, err := c.hub.sessions.Lookup(msg.SessionID)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.detach()
	if err := sess.Game.AttachTracker(c, c.authPlayerID); err != nil {
		c.sendError(err.Error())
		return
	}
	c.sessionID = sess.ID
	c.role = roleTracker
	c.log.Info("tracker joined", "session", sess.ID, "name", clipName(msg.Name, "Player", maxNameLen))

	w, h := sess.Game.Canvas()
	c.SendJSON(Envelope{T: MsgJoined, Data: map[string]string{"sid": sess.ID}})
	c.SendJSON(Envelope{T: MsgWelcome, Data: WelcomeMsg{
		SessionID: sess.ID,
		Width:     w,
		Height:    h,
		Tick:      sess.Game.tickRate,
		MaxFaces:  sess.Game.MaxFaces(),
	}})
}

func (c *Client) handleSpectate(data json.RawMessage) {
	var msg SpectateMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sess, err := c.hub.sessions.Lookup(msg.SessionID)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.detach()
	sess.Game.AddSpectator(c)
	c.sessionID = sess.ID
	c.role = roleSpectator
	c.SendJSON(Envelope{T: MsgJoined, Data: map[string]string{"sid": sess.ID, "role": "spectator"}})
}

func (c *Client) handleCheck(data json.RawMessage) {
	var msg CheckMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sess := c.hub.sessions.GetSession(msg.SID)
	if sess == nil {
		c.SendJSON(Envelope{T: MsgChecked, Data: CheckedMsg{SID: msg.SID, Exists: false}})
		return
	}
	c.SendJSON(Envelope{T: MsgChecked, Data: CheckedMsg{
		SID:        msg.SID,
		Exists:     true,
		Name:       sess.Name,
		Tracker:    sess.Game.HasTracker(),
		Spectators: sess.Game.SpectatorCount(),
	}})
}

func (c *Client) handleFrame(data json.RawMessage) {
	game := c.trackedGame()
	if game == nil {
		return
	}
	var msg FrameMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	game.HandleInput(msg.Input())
}

func (c *Client) handlePortal(data json.RawMessage) {
	var msg PortalMsg
	if len(data) > 0 {
		if err := json.Unmarshal(data, &msg); err != nil {
			return
		}
	}
	if msg.Dimension == "" {
		msg.Dimension = "elder"
	}
	dim, ok := sim.ParseDimension(msg.Dimension)
	if !ok || dim == sim.DimNormal {
		c.sendError("unknown dimension")
		return
	}
	c.command(sim.Command{Type: sim.CmdCreatePortal, Dimension: dim})
}

// command forwards a discrete command; only the tracker may steer a run.
func (c *Client) command(cmd sim.Command) {
	if game := c.trackedGame(); game != nil {
		game.HandleCommand(cmd)
	}
}

func (c *Client) handleRegister(data json.RawMessage) {
	if c.hub.auth == nil {
		c.sendError("accounts are disabled")
		return
	}
	var msg RegisterMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, token, err := c.hub.auth.Register(msg.Username, msg.Password, c.remoteAddr)
	if err != nil {
		c.sendError(authError(err))
		return
	}
	c.authenticated(id, msg.Username, token)
}

func (c *Client) handleLogin(data json.RawMessage) {
	if c.hub.auth == nil {
		c.sendError("accounts are disabled")
		return
	}
	var msg LoginMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, token, err := c.hub.auth.Login(msg.Username, msg.Password, c.remoteAddr)
	if err != nil {
		c.sendError(authError(err))
		return
	}
	c.authenticated(id, msg.Username, token)
}

func (c *Client) handleAuth(data json.RawMessage) {
	if c.hub.auth == nil {
		c.sendError("accounts are disabled")
		return
	}
	var msg AuthMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, username, err := c.hub.auth.ValidateToken(msg.Token)
	if err != nil {
		c.sendError(ErrInvalidToken.Error())
		return
	}
	c.authenticated(id, username, msg.Token)
}

func (c *Client) authenticated(id int64, username, token string) {
	c.authPlayerID = id
	c.authUsername = username
	c.log = c.log.With("player", id)
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{
		Token:    token,
		Username: username,
		PlayerID: id,
	}})
}

// authError hides internal failures behind a generic message
func authError(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrUsernameTaken),
		errors.Is(err, ErrRateLimited), errors.Is(err, ErrBadAccount):
		return err.Error()
	}
	return "internal error"
}

func (c *Client) handleProfile() {
	if c.hub.db == nil || c.authPlayerID == 0 {
		c.sendError("not authenticated")
		return
	}
	stats, err := c.hub.db.GetStats(c.authPlayerID)
	if err != nil || stats == nil {
		c.sendError("profile not found")
		return
	}
	achievements, err := c.hub.db.GetAchievements(c.authPlayerID)
	if err != nil {
		c.log.Error("load achievements", "err", err)
	}
	if achievements == nil {
		achievements = []string{}
	}
	c.SendJSON(Envelope{T: MsgProfileData, Data: ProfileDataMsg{
		Username:     c.authUsername,
		Level:        stats.Level,
		XP:           stats.XP,
		Runs:         stats.Runs,
		Kills:        stats.Kills,
		BestWave:     stats.BestWave,
		Bosses:       stats.Bosses,
		Victories:    stats.Victories,
		Playtime:     stats.Playtime,
		Achievements: achievements,
	}})
}

func (c *Client) handleLeaderboard(data json.RawMessage) {
	if c.hub.db == nil {
		c.sendError("leaderboard unavailable")
		return
	}
	var msg BoardMsg
	if len(data) > 0 {
		json.Unmarshal(data, &msg)
	}
	board, err := c.hub.db.GetLeaderboard(msg.By, msg.Limit)
	if err != nil {
		c.log.Error("leaderboard query", "err", err)
		c.sendError("leaderboard unavailable")
		return
	}
	if board == nil {
		board = []LeaderboardEntry{}
	}
	c.SendJSON(Envelope{T: MsgBoardData, Data: board})
}
