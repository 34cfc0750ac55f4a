// Package spectate is the read-only side of the websocket protocol: it
// attaches to a running session and decodes the snapshots it broadcasts.
package spectate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/toddllm/face-controls/internal/sim"
)

const (
	msgSpectate = "spectate"
	msgError    = "error"

	readWait = 10 * time.Second
)

// ErrRejected is returned when the server answers the attach request with
// an error envelope.
var ErrRejected = errors.New("spectate: rejected by server")

// Message is a JSON envelope pushed by the server alongside snapshots.
type Message struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// Update is one decoded server message. Exactly one field is set.
type Update struct {
	Snapshot *sim.Snapshot
	Message  *Message
}

// Client is a spectator connection.
type Client struct {
	conn *websocket.Conn
	log  *slog.Logger
}

// Dial connects to the server's websocket endpoint and attaches to session
// sid as a spectator.
func Dial(ctx context.Context, url, sid string, log *slog.Logger) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("spectate: dial %s: %w", url, err)
	}
	c := &Client{conn: conn, log: log.With("component", "spectate", "session", sid)}
	req, _ := json.Marshal(map[string]any{"t": msgSpectate, "d": map[string]string{"sid": sid}})
	if err := conn.WriteMessage(websocket.TextMessage, req); err != nil {
		conn.Close()
		return nil, fmt.Errorf("spectate: attach: %w", err)
	}
	return c, nil
}

// Next blocks for the next server message.
func (c *Client) Next() (Update, error) {
	c.conn.SetReadDeadline(time.Now().Add(readWait))
	typ, raw, err := c.conn.ReadMessage()
	if err != nil {
		return Update{}, err
	}
	if typ == websocket.BinaryMessage {
		var snap sim.Snapshot
		if err := msgpack.Unmarshal(raw, &snap); err != nil {
			return Update{}, fmt.Errorf("spectate: decode snapshot: %w", err)
		}
		return Update{Snapshot: &snap}, nil
	}
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return Update{}, fmt.Errorf("spectate: decode message: %w", err)
	}
	if m.T == msgError {
		var e struct {
			Msg string `json:"msg"`
		}
		json.Unmarshal(m.D, &e)
		return Update{Message: &m}, fmt.Errorf("%w: %s", ErrRejected, e.Msg)
	}
	return Update{Message: &m}, nil
}

// Run calls fn for every update until ctx is done or the connection fails.
// A cancelled context is not reported as an error.
func (c *Client) Run(ctx context.Context, fn func(Update)) error {
	go func() {
		<-ctx.Done()
		c.conn.Close()
	}()
	for {
		u, err := c.Next()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Debug("spectator stopped", "err", err)
			return err
		}
		fn(u)
	}
}

// Close says goodbye and closes the connection.
func (c *Client) Close() error {
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return c.conn.Close()
}
