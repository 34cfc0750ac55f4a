package main

import (
	"encoding/json"

	"github.com/toddllm/face-controls/internal/sim"
)

// Client -> Server message types
const (
	MsgList      = "list"      // list sessions
	MsgCreate    = "create"    // create session
	MsgJoin      = "join"      // attach as the session's tracker
	MsgSpectate  = "spectate"  // attach read-only
	MsgLeave     = "leave"
	MsgCheck     = "check"     // check if session exists
	MsgFrame     = "frame"     // tracker input snapshot
	MsgPause     = "pause"
	MsgPortal    = "portal"    // open a rift to another dimension
	MsgNormal    = "normal"    // return to the normal dimension
	MsgRestart   = "restart"
	MsgRegister  = "register"
	MsgLogin     = "login"
	MsgAuth      = "auth"
	MsgProfile   = "profile"
	MsgBoard     = "leaderboard"
)

// Server -> Client message types
const (
	MsgWelcome     = "welcome"
	MsgSessions    = "sessions"
	MsgJoined      = "joined"
	MsgCreated     = "created"
	MsgError       = "error"
	MsgChecked     = "checked"
	MsgEvent       = "event"
	MsgAuthOK      = "auth_ok"
	MsgProfileData = "profile"
	MsgBoardData   = "leaderboard"
)

// Binary tracker messages carry a one byte tag.
const (
	binAudio     = 0x02 // little-endian int16 mono PCM
	binLandmarks = 0x03 // tracking.Encode layout
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages; json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// CreateMsg is sent when a tracker wants a new session
type CreateMsg struct {
	Name        string `json:"name"`
	SessionName string `json:"sname"`
}

// JoinMsg attaches the sender as the tracker of a session
type JoinMsg struct {
	Name      string `json:"name"`
	SessionID string `json:"sid"`
}

// SpectateMsg attaches the sender as a read-only viewer
type SpectateMsg struct {
	SessionID string `json:"sid"`
}

// FrameMsg is the JSON form of one tracker frame. Trackers that compute
// face metrics in the browser send this; others send binary landmarks.
type FrameMsg struct {
	Faces     []sim.Face `json:"faces"`
	Hands     []sim.Vec  `json:"hands"`
	Amplitude float64    `json:"amp"`
	Width     float64    `json:"w,omitempty"`
	Height    float64    `json:"h,omitempty"`
}

// Input converts the frame into a simulation input.
func (f FrameMsg) Input() sim.Input {
	return sim.Input{
		Faces:     f.Faces,
		Hands:     f.Hands,
		Amplitude: f.Amplitude,
		Width:     f.Width,
		Height:    f.Height,
	}
}

// PortalMsg asks for a rift to a dimension ("dungeon" or "elder").
type PortalMsg struct {
	Dimension string `json:"dim"`
}

// WelcomeMsg is sent to a tracker when it joins
type WelcomeMsg struct {
	SessionID string  `json:"sid"`
	Width     float64 `json:"w"`
	Height    float64 `json:"h"`
	Tick      int     `json:"tick"`
	MaxFaces  int     `json:"max_faces"`
}

// SessionInfo is used in the session list
type SessionInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Tracker    bool   `json:"tracker"`
	Spectators int    `json:"spectators"`
	Wave       int    `json:"wave"`
	Stage      string `json:"stage"`
}

// ErrorMsg sends error to client
type ErrorMsg struct {
	Msg string `json:"msg"`
}

// CheckMsg is sent by client to check if a session exists
type CheckMsg struct {
	SID string `json:"sid"`
}

// CheckedMsg is the response to a session check
type CheckedMsg struct {
	SID        string `json:"sid"`
	Exists     bool   `json:"exists"`
	Name       string `json:"name,omitempty"`
	Tracker    bool   `json:"tracker,omitempty"`
	Spectators int    `json:"spectators,omitempty"`
}

// EventMsg forwards a simulation or service event to every client of a
// session. Achievement unlocks use Type "achievement" with the ID in Kind.
type EventMsg struct {
	Type   string  `json:"type"`
	Frame  uint64  `json:"frame"`
	Kind   string  `json:"kind,omitempty"`
	Player int     `json:"player"`
	Wave   int     `json:"wave"`
	Value  float64 `json:"value,omitempty"`
}

func eventMsg(ev sim.Event) EventMsg {
	return EventMsg{
		Type:   string(ev.Type),
		Frame:  ev.Frame,
		Kind:   ev.KindName,
		Player: ev.Player,
		Wave:   ev.Wave,
		Value:  ev.Value,
	}
}

// RegisterMsg creates an account
type RegisterMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginMsg authenticates with a password
type LoginMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthMsg resumes a login with a stored token
type AuthMsg struct {
	Token string `json:"token"`
}

// AuthOKMsg confirms authentication
type AuthOKMsg struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	PlayerID int64  `json:"pid"`
}

// ProfileDataMsg carries an account's lifetime stats
type ProfileDataMsg struct {
	Username     string   `json:"username"`
	Level        int      `json:"level"`
	XP           int      `json:"xp"`
	Runs         int      `json:"runs"`
	Kills        int      `json:"kills"`
	BestWave     int      `json:"best_wave"`
	Bosses       int      `json:"bosses"`
	Victories    int      `json:"victories"`
	Playtime     float64  `json:"playtime"`
	Achievements []string `json:"achievements"`
}

// BoardMsg asks for the leaderboard ordered by one stat
type BoardMsg struct {
	By    string `json:"by"`
	Limit int    `json:"limit"`
}
