package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/toddllm/face-controls/internal/sim"
)

// ---------- helpers ----------

// msgSnapshot labels binary frames decoded by readEnvelope
const msgSnapshot = "snapshot"

var uuidRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// startTestServer spins up an httptest.Server with a Hub and returns
// the server, its WebSocket URL, the hub and a cleanup func. withDB
// attaches a throwaway SQLite database.
func startTestServer(t *testing.T, withDB bool) (*httptest.Server, string, *Hub, func()) {
	t.Helper()

	prevIdleTimeout := SessionIdleTimeout
	SessionIdleTimeout = 150 * time.Millisecond

	// Create a temp client dir with a minimal index.html
	tmpDir := t.TempDir()
	jsDir := filepath.Join(tmpDir, "js")
	os.MkdirAll(jsDir, 0o755)
	os.WriteFile(filepath.Join(tmpDir, "index.html"), []byte("<html>test</html>"), 0o644)
	os.WriteFile(filepath.Join(jsDir, "main.js"), []byte("// test"), 0o644)

	var db *DB
	if withDB {
		var err error
		db, err = OpenDB(filepath.Join(tmpDir, "test.db"))
		if err != nil {
			t.Fatalf("OpenDB: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(DefaultConfig(), db, testLogger())
	go hub.Run()
	go hub.sessions.RunReaper(ctx)

	mux := SetupRoutes(hub, tmpDir)
	srv := httptest.NewServer(mux)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	return srv, wsURL, hub, func() {
		srv.Close()
		cancel()
		hub.Shutdown()
		if db != nil {
			db.Close()
		}
		SessionIdleTimeout = prevIdleTimeout
	}
}

// dialWS opens a WebSocket connection to the test server.
func dialWS(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial WS: %v", err)
	}
	return conn
}

// readEnvelope reads one message from the WebSocket. Binary frames are
// decoded as snapshots.
func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read WS: %v", err)
	}
	if msgType == websocket.BinaryMessage {
		var snap sim.Snapshot
		if err := msgpack.Unmarshal(raw, &snap); err != nil {
			t.Fatalf("msgpack unmarshal: %v", err)
		}
		return Envelope{T: msgSnapshot, Data: snap}
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return env
}

// readText reads until the next JSON message, skipping snapshots that the
// game loop interleaves.
func readText(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	for i := 0; i < 500; i++ {
		if env := readEnvelope(t, conn); env.T != msgSnapshot {
			return env
		}
	}
	t.Fatal("no text message among 500 frames")
	return Envelope{}
}

// readUntil reads until a message of type typ arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) Envelope {
	t.Helper()
	for i := 0; i < 500; i++ {
		if env := readEnvelope(t, conn); env.T == typ {
			return env
		}
	}
	t.Fatalf("no %s message among 500 frames", typ)
	return Envelope{}
}

// sendMsg sends a typed message over the WebSocket.
func sendMsg(t *testing.T, conn *websocket.Conn, msgType string, data interface{}) {
	t.Helper()
	env := Envelope{T: msgType, Data: data}
	raw, _ := json.Marshal(env)
	if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		t.Fatalf("write WS: %v", err)
	}
}

// dataMap extracts the Data field as map[string]interface{}.
func dataMap(t *testing.T, env Envelope) map[string]interface{} {
	t.Helper()
	raw, _ := json.Marshal(env.Data)
	var m map[string]interface{}
	json.Unmarshal(raw, &m)
	return m
}

// createAndJoin creates a session then joins it as the tracker. Returns
// the session ID.
func createAndJoin(t *testing.T, conn *websocket.Conn, name, sname string) string {
	t.Helper()
	sendMsg(t, conn, "create", map[string]string{"name": name, "sname": sname})
	created := readText(t, conn)
	if created.T != MsgCreated {
		t.Fatalf("expected created, got %s", created.T)
	}
	sid := dataMap(t, created)["sid"].(string)

	sendMsg(t, conn, "join", map[string]string{"name": name, "sid": sid})
	joined := readText(t, conn)
	if joined.T != MsgJoined {
		t.Fatalf("expected joined, got %s", joined.T)
	}
	if welcome := readText(t, conn); welcome.T != MsgWelcome {
		t.Fatalf("expected welcome, got %s", welcome.T)
	}
	return sid
}

func checkSession(t *testing.T, conn *websocket.Conn, sid string) map[string]interface{} {
	t.Helper()
	sendMsg(t, conn, "check", map[string]string{"sid": sid})
	checked := readText(t, conn)
	if checked.T != MsgChecked {
		t.Fatalf("expected checked, got %s", checked.T)
	}
	return dataMap(t, checked)
}

// ---------- Session manager ----------

func TestSessionIDIsUUID(t *testing.T) {
	log := testLogger()
	sm := NewSessionManager(DefaultConfig(), nil, newAnalytics(nil, log, time.Hour), log)
	defer sm.StopAll()
	sess, err := sm.CreateSession("TestArena")
	if err != nil {
		t.Fatal(err)
	}
	if !uuidRegex.MatchString(sess.ID) {
		t.Errorf("session ID %q is not a valid UUID v4", sess.ID)
	}
	if sm.GetSession(sess.ID) != sess {
		t.Error("GetSession did not return the created session")
	}
	if _, err := sm.Lookup(uuid.NewString()); err != ErrSessionNotFound {
		t.Errorf("Lookup unknown = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionManagerLimit(t *testing.T) {
	log := testLogger()
	cfg := DefaultConfig()
	cfg.MaxSessions = 2
	sm := NewSessionManager(cfg, nil, newAnalytics(nil, log, time.Hour), log)
	defer sm.StopAll()
	for i := 0; i < 2; i++ {
		if _, err := sm.CreateSession("A"); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := sm.CreateSession("B"); err != ErrTooManySessions {
		t.Fatalf("third session err = %v, want ErrTooManySessions", err)
	}
}

func TestSessionManagerReap(t *testing.T) {
	prev := SessionIdleTimeout
	SessionIdleTimeout = time.Minute
	defer func() { SessionIdleTimeout = prev }()

	log := testLogger()
	sm := NewSessionManager(DefaultConfig(), nil, newAnalytics(nil, log, time.Hour), log)
	defer sm.StopAll()
	idle, _ := sm.CreateSession("idle")
	busy, _ := sm.CreateSession("busy")
	busy.Game.AddSpectator(&mockBroadcaster{})

	now := time.Now()
	sm.reap(now) // marks idle as empty
	sm.reap(now.Add(30 * time.Second))
	if sm.GetSession(idle.ID) == nil {
		t.Fatal("reaped before the idle timeout")
	}
	sm.reap(now.Add(time.Minute))
	if sm.GetSession(idle.ID) != nil {
		t.Fatal("idle session survived the timeout")
	}
	if sm.GetSession(busy.ID) == nil {
		t.Fatal("attached session was reaped")
	}
}

// ---------- SPA routing ----------

func TestSPARoutingRoot(t *testing.T) {
	srv, _, _, cleanup := startTestServer(t, false)
	defer cleanup()

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("GET / status = %d, want 200", resp.StatusCode)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("expected Cache-Control: no-cache, got %q", cc)
	}
}

func TestSPARoutingUUIDPath(t *testing.T) {
	srv, _, _, cleanup := startTestServer(t, false)
	defer cleanup()

	id := uuid.NewString()
	resp, err := http.Get(srv.URL + "/" + id)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("GET /%s status = %d, want 200", id, resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "<html>") {
		t.Errorf("UUID path should serve index.html, got %q", body)
	}
}

func TestSPARoutingStaticFiles(t *testing.T) {
	srv, _, _, cleanup := startTestServer(t, false)
	defer cleanup()

	resp, err := http.Get(srv.URL + "/js/main.js")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("GET /js/main.js status = %d, want 200", resp.StatusCode)
	}
}

func TestSPARoutingNonUUIDPath(t *testing.T) {
	srv, _, _, cleanup := startTestServer(t, false)
	defer cleanup()

	resp, err := http.Get(srv.URL + "/not-a-uuid")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("GET /not-a-uuid status = %d, want 404", resp.StatusCode)
	}
}

// ---------- Session protocol ----------

func TestCheckSessionExists(t *testing.T) {
	_, wsURL, _, cleanup := startTestServer(t, false)
	defer cleanup()

	c1 := dialWS(t, wsURL)
	defer c1.Close()
	sid := createAndJoin(t, c1, "Pilot", "Arena")

	c2 := dialWS(t, wsURL)
	defer c2.Close()
	d := checkSession(t, c2, sid)
	if d["exists"] != true {
		t.Error("expected exists=true")
	}
	if d["sid"] != sid {
		t.Errorf("expected sid=%s, got %v", sid, d["sid"])
	}
	if d["name"] != "Arena" {
		t.Errorf("expected name=Arena, got %v", d["name"])
	}
	if d["tracker"] != true {
		t.Errorf("expected tracker=true, got %v", d["tracker"])
	}
}

func TestCheckSessionNotExists(t *testing.T) {
	_, wsURL, _, cleanup := startTestServer(t, false)
	defer cleanup()

	c := dialWS(t, wsURL)
	defer c.Close()

	fakeSID := uuid.NewString()
	d := checkSession(t, c, fakeSID)
	if d["exists"] != false {
		t.Error("expected exists=false for non-existent session")
	}
	if d["sid"] != fakeSID {
		t.Errorf("expected sid=%s, got %v", fakeSID, d["sid"])
	}
}

func TestJoinNonExistentSession(t *testing.T) {
	_, wsURL, _, cleanup := startTestServer(t, false)
	defer cleanup()

	c := dialWS(t, wsURL)
	defer c.Close()

	sendMsg(t, c, "join", map[string]string{"name": "Lost", "sid": uuid.NewString()})
	errMsg := readText(t, c)
	if errMsg.T != MsgError {
		t.Fatalf("expected error, got %s", errMsg.T)
	}
	if got := dataMap(t, errMsg)["msg"]; got != ErrSessionNotFound.Error() {
		t.Errorf("error = %v", got)
	}
}

func TestSecondTrackerRejected(t *testing.T) {
	_, wsURL, _, cleanup := startTestServer(t, false)
	defer cleanup()

	c1 := dialWS(t, wsURL)
	defer c1.Close()
	sid := createAndJoin(t, c1, "Alice", "Duel")

	c2 := dialWS(t, wsURL)
	defer c2.Close()
	sendMsg(t, c2, "join", map[string]string{"name": "Bob", "sid": sid})
	errMsg := readText(t, c2)
	if errMsg.T != MsgError {
		t.Fatalf("expected error, got %s", errMsg.T)
	}
	if got := dataMap(t, errMsg)["msg"]; got != ErrSessionFull.Error() {
		t.Errorf("error = %v, want %q", got, ErrSessionFull.Error())
	}
}

func TestSpectatorReceivesSnapshots(t *testing.T) {
	_, wsURL, _, cleanup := startTestServer(t, false)
	defer cleanup()

	c1 := dialWS(t, wsURL)
	defer c1.Close()
	sid := createAndJoin(t, c1, "Alice", "Show")

	c2 := dialWS(t, wsURL)
	defer c2.Close()
	sendMsg(t, c2, "spectate", map[string]string{"sid": sid})
	joined := readText(t, c2)
	if joined.T != MsgJoined {
		t.Fatalf("expected joined, got %s", joined.T)
	}
	if role := dataMap(t, joined)["role"]; role != "spectator" {
		t.Errorf("role = %v, want spectator", role)
	}

	snap := readUntil(t, c2, msgSnapshot).Data.(sim.Snapshot)
	if snap.Stage != "minions" {
		t.Errorf("stage = %q, want minions", snap.Stage)
	}
	if len(snap.Players) != 0 {
		t.Errorf("players = %d before any face was seen", len(snap.Players))
	}

	d := checkSession(t, c1, sid)
	if d["spectators"].(float64) != 1 {
		t.Errorf("spectators = %v, want 1", d["spectators"])
	}
}

func TestTrackerReceivesSnapshots(t *testing.T) {
	_, wsURL, _, cleanup := startTestServer(t, false)
	defer cleanup()

	c := dialWS(t, wsURL)
	defer c.Close()
	createAndJoin(t, c, "Tester", "StateTest")

	first := readUntil(t, c, msgSnapshot).Data.(sim.Snapshot)
	second := readUntil(t, c, msgSnapshot).Data.(sim.Snapshot)
	if second.Frame <= first.Frame {
		t.Errorf("frames did not advance: %d then %d", first.Frame, second.Frame)
	}
}

func TestFrameCreatesPlayerSlot(t *testing.T) {
	_, wsURL, _, cleanup := startTestServer(t, false)
	defer cleanup()

	c := dialWS(t, wsURL)
	defer c.Close()
	createAndJoin(t, c, "Tester", "Faces")

	sendMsg(t, c, "frame", map[string]interface{}{
		"faces": []map[string]interface{}{{"m": 0.1, "p": map[string]float64{"x": 320, "y": 240}}},
		"amp":   0.0,
	})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		env := readEnvelope(t, c)
		if env.T != msgSnapshot {
			continue
		}
		if snap := env.Data.(sim.Snapshot); len(snap.Players) == 1 {
			return
		}
	}
	t.Fatal("no snapshot with one player after a frame")
}

func TestPauseForwardedAsEvent(t *testing.T) {
	_, wsURL, _, cleanup := startTestServer(t, false)
	defer cleanup()

	c := dialWS(t, wsURL)
	defer c.Close()
	createAndJoin(t, c, "Tester", "Pause")

	sendMsg(t, c, "pause", nil)
	ev := readUntil(t, c, MsgEvent)
	if typ := dataMap(t, ev)["type"]; typ != string(sim.EvtPaused) {
		t.Fatalf("event type = %v, want paused", typ)
	}
}

func TestSpectatorCannotSteer(t *testing.T) {
	_, wsURL, hub, cleanup := startTestServer(t, false)
	defer cleanup()

	c1 := dialWS(t, wsURL)
	defer c1.Close()
	sid := createAndJoin(t, c1, "Alice", "Locked")

	c2 := dialWS(t, wsURL)
	defer c2.Close()
	sendMsg(t, c2, "spectate", map[string]string{"sid": sid})
	readUntil(t, c2, MsgJoined)
	sendMsg(t, c2, "pause", nil)

	// the list round trip orders after the pause on the same connection
	sendMsg(t, c2, "list", nil)
	readUntil(t, c2, MsgSessions)
	time.Sleep(50 * time.Millisecond)

	g := hub.sessions.GetSession(sid).Game
	g.mu.Lock()
	paused := g.state.Paused
	g.mu.Unlock()
	if paused {
		t.Fatal("spectator paused the run")
	}
}

func TestPortalUnknownDimension(t *testing.T) {
	_, wsURL, _, cleanup := startTestServer(t, false)
	defer cleanup()

	c := dialWS(t, wsURL)
	defer c.Close()
	createAndJoin(t, c, "Tester", "Portal")

	sendMsg(t, c, "portal", map[string]string{"dim": "nowhere"})
	errMsg := readText(t, c)
	if errMsg.T != MsgError {
		t.Fatalf("expected error, got %s", errMsg.T)
	}
	if got := dataMap(t, errMsg)["msg"]; got != "unknown dimension" {
		t.Errorf("error = %v", got)
	}
}

func TestListSessions(t *testing.T) {
	_, wsURL, _, cleanup := startTestServer(t, false)
	defer cleanup()

	c := dialWS(t, wsURL)
	defer c.Close()

	sendMsg(t, c, "list", nil)
	listMsg := readText(t, c)
	if listMsg.T != MsgSessions {
		t.Fatalf("expected sessions, got %s", listMsg.T)
	}
	raw, _ := json.Marshal(listMsg.Data)
	var sessions []SessionInfo
	json.Unmarshal(raw, &sessions)
	if len(sessions) != 0 {
		t.Errorf("expected 0 sessions, got %d", len(sessions))
	}

	c2 := dialWS(t, wsURL)
	defer c2.Close()
	createAndJoin(t, c2, "P1", "Arena1")

	sendMsg(t, c, "list", nil)
	listMsg2 := readText(t, c)
	raw2, _ := json.Marshal(listMsg2.Data)
	var sessions2 []SessionInfo
	json.Unmarshal(raw2, &sessions2)
	if len(sessions2) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions2))
	}
	if sessions2[0].Name != "Arena1" {
		t.Errorf("expected session name Arena1, got %s", sessions2[0].Name)
	}
	if !sessions2[0].Tracker {
		t.Error("expected tracker=true")
	}
	if sessions2[0].Stage != "minions" {
		t.Errorf("stage = %q, want minions", sessions2[0].Stage)
	}
}

func TestDefaultSessionName(t *testing.T) {
	_, wsURL, _, cleanup := startTestServer(t, false)
	defer cleanup()

	c := dialWS(t, wsURL)
	defer c.Close()
	sid := createAndJoin(t, c, "", "")
	if name := checkSession(t, c, sid)["name"]; name != "Face Arena" {
		t.Errorf("name = %v, want Face Arena", name)
	}
}

func TestLeaveWithoutJoining(t *testing.T) {
	_, wsURL, _, cleanup := startTestServer(t, false)
	defer cleanup()

	c := dialWS(t, wsURL)
	defer c.Close()

	sendMsg(t, c, "leave", nil)
	sendMsg(t, c, "list", nil)
	if env := readText(t, c); env.T != MsgSessions {
		t.Fatalf("expected sessions, got %s", env.T)
	}
}

func TestLeaveFreesTrackerSlot(t *testing.T) {
	_, wsURL, _, cleanup := startTestServer(t, false)
	defer cleanup()

	c1 := dialWS(t, wsURL)
	defer c1.Close()
	sid := createAndJoin(t, c1, "Alice", "Swap")
	sendMsg(t, c1, "leave", nil)

	c2 := dialWS(t, wsURL)
	defer c2.Close()
	deadline := time.Now().Add(time.Second)
	for checkSession(t, c2, sid)["tracker"] == true {
		if time.Now().After(deadline) {
			t.Fatal("tracker slot not released")
		}
		time.Sleep(10 * time.Millisecond)
	}

	sendMsg(t, c2, "join", map[string]string{"name": "Bob", "sid": sid})
	if joined := readText(t, c2); joined.T != MsgJoined {
		t.Fatalf("expected joined, got %s", joined.T)
	}
}

func TestDisconnectReapsSession(t *testing.T) {
	_, wsURL, _, cleanup := startTestServer(t, false)
	defer cleanup()

	c1 := dialWS(t, wsURL)
	sid := createAndJoin(t, c1, "Temp", "TempArena")
	c1.Close()

	time.Sleep(3*SessionIdleTimeout + 100*time.Millisecond)

	c2 := dialWS(t, wsURL)
	defer c2.Close()
	if checkSession(t, c2, sid)["exists"] != false {
		t.Error("session should be reaped after the tracker disconnects")
	}
}

// ---------- HTTP endpoints ----------

func TestHealthEndpoint(t *testing.T) {
	srv, wsURL, _, cleanup := startTestServer(t, false)
	defer cleanup()

	c := dialWS(t, wsURL)
	defer c.Close()
	createAndJoin(t, c, "Tester", "Health")

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var h HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		t.Fatal(err)
	}
	if h.Status != "ok" || h.Sessions != 1 || h.Trackers != 1 || h.Clients != 1 {
		t.Errorf("health = %+v", h)
	}
}

func TestJoinQREndpoint(t *testing.T) {
	srv, wsURL, _, cleanup := startTestServer(t, false)
	defer cleanup()

	c := dialWS(t, wsURL)
	defer c.Close()
	sid := createAndJoin(t, c, "Tester", "QR")

	resp, err := http.Get(srv.URL + "/join/" + sid + ".png?size=128")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if !bytes.HasPrefix(body, []byte("\x89PNG")) {
		t.Error("body is not a PNG")
	}

	resp2, err := http.Get(srv.URL + "/join/" + uuid.NewString() + ".png")
	if err != nil {
		t.Fatal(err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != 404 {
		t.Errorf("unknown session status = %d, want 404", resp2.StatusCode)
	}
}

func TestLeaderboardWithoutDB(t *testing.T) {
	srv, _, _, cleanup := startTestServer(t, false)
	defer cleanup()

	resp, err := http.Get(srv.URL + "/api/leaderboard")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestLeaderboardEndpoint(t *testing.T) {
	srv, _, hub, cleanup := startTestServer(t, true)
	defer cleanup()

	resp, err := http.Get(srv.URL + "/api/leaderboard")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if strings.TrimSpace(string(body)) != "[]" {
		t.Errorf("empty board = %s, want []", body)
	}

	id, _ := hub.db.CreatePlayer("ace", "x")
	hub.db.RecordRun(RunRow{PlayerID: id, Kills: 5, Wave: 1, Duration: 10})

	resp, err = http.Get(srv.URL + "/api/leaderboard?by=kills")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var board []LeaderboardEntry
	if err := json.NewDecoder(resp.Body).Decode(&board); err != nil {
		t.Fatal(err)
	}
	if len(board) != 1 || board[0].Username != "ace" || board[0].Kills != 5 || board[0].Rank != 1 {
		t.Errorf("board = %+v", board)
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv, _, hub, cleanup := startTestServer(t, true)
	defer cleanup()

	hub.analytics.Track(EvtBossDefeated, 0, "s", `{"type":"boss_defeated","kind":"snake"}`)
	hub.analytics.Track(EvtVictory, 0, "s", "")
	hub.analytics.Stop() // flush

	resp, err := http.Get(srv.URL + "/api/stats?days=1")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var rep StatsReport
	if err := json.NewDecoder(resp.Body).Decode(&rep); err != nil {
		t.Fatal(err)
	}
	if rep.Days != 1 || rep.Events[EvtBossDefeated] != 1 || rep.Events[EvtVictory] != 1 {
		t.Errorf("report = %+v", rep)
	}
	if rep.Bosses["snake"] != 1 {
		t.Errorf("boss kills = %v", rep.Bosses)
	}
}

// ---------- Accounts ----------

func TestAccountsDisabledWithoutDB(t *testing.T) {
	_, wsURL, _, cleanup := startTestServer(t, false)
	defer cleanup()

	c := dialWS(t, wsURL)
	defer c.Close()
	sendMsg(t, c, "register", map[string]string{"username": "alice", "password": "secret"})
	env := readText(t, c)
	if env.T != MsgError || dataMap(t, env)["msg"] != "accounts are disabled" {
		t.Fatalf("got %s %v", env.T, dataMap(t, env))
	}
}

func TestAccountFlow(t *testing.T) {
	prevCost := bcryptCost
	bcryptCost = bcrypt.MinCost
	defer func() { bcryptCost = prevCost }()

	_, wsURL, _, cleanup := startTestServer(t, true)
	defer cleanup()

	c := dialWS(t, wsURL)
	defer c.Close()

	sendMsg(t, c, "register", map[string]string{"username": "alice", "password": "secret"})
	ok := readText(t, c)
	if ok.T != MsgAuthOK {
		t.Fatalf("expected auth_ok, got %s %v", ok.T, dataMap(t, ok))
	}
	token, _ := dataMap(t, ok)["token"].(string)
	if token == "" {
		t.Fatal("no token issued")
	}

	sendMsg(t, c, "profile", nil)
	prof := readText(t, c)
	if prof.T != MsgProfileData {
		t.Fatalf("expected profile, got %s", prof.T)
	}
	pd := dataMap(t, prof)
	if pd["username"] != "alice" || pd["level"].(float64) != 1 {
		t.Errorf("profile = %v", pd)
	}

	c2 := dialWS(t, wsURL)
	defer c2.Close()
	sendMsg(t, c2, "auth", map[string]string{"token": token})
	if env := readText(t, c2); env.T != MsgAuthOK || dataMap(t, env)["username"] != "alice" {
		t.Fatalf("token auth failed: %s %v", env.T, dataMap(t, env))
	}

	sendMsg(t, c2, "login", map[string]string{"username": "alice", "password": "wrong"})
	env := readText(t, c2)
	if env.T != MsgError || dataMap(t, env)["msg"] != ErrInvalidCredentials.Error() {
		t.Fatalf("bad login: %s %v", env.T, dataMap(t, env))
	}

	sendMsg(t, c2, "register", map[string]string{"username": "alice", "password": "other"})
	env = readText(t, c2)
	if env.T != MsgError || dataMap(t, env)["msg"] != ErrUsernameTaken.Error() {
		t.Fatalf("duplicate register: %s %v", env.T, dataMap(t, env))
	}
}

func TestProfileRequiresAuth(t *testing.T) {
	_, wsURL, _, cleanup := startTestServer(t, true)
	defer cleanup()

	c := dialWS(t, wsURL)
	defer c.Close()
	sendMsg(t, c, "profile", nil)
	env := readText(t, c)
	if env.T != MsgError || dataMap(t, env)["msg"] != "not authenticated" {
		t.Fatalf("got %s %v", env.T, dataMap(t, env))
	}
}

// ---------- Hub ----------

func TestHubConnectionTracking(t *testing.T) {
	_, wsURL, hub, cleanup := startTestServer(t, false)
	defer cleanup()

	c := dialWS(t, wsURL)
	sendMsg(t, c, "list", nil)
	readText(t, c)
	deadline := time.Now().Add(time.Second)
	for hub.TotalConns() != 1 || hub.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("conns=%d clients=%d, want 1/1", hub.TotalConns(), hub.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}

	c.Close()
	deadline = time.Now().Add(time.Second)
	for hub.TotalConns() != 0 || hub.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("conns=%d clients=%d after close", hub.TotalConns(), hub.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHubPerIPLimit(t *testing.T) {
	hub := NewHub(DefaultConfig(), nil, testLogger())
	defer hub.Shutdown()
	for i := 0; i < maxConnsPerIP; i++ {
		if !hub.Admit("10.0.0.1") {
			t.Fatalf("rejected connection %d", i)
		}
	}
	if hub.Admit("10.0.0.1") {
		t.Fatal("admitted past the per-IP limit")
	}
	if !hub.Admit("10.0.0.2") {
		t.Fatal("limit leaked to another IP")
	}
	hub.Release("10.0.0.1")
	if !hub.Admit("10.0.0.1") {
		t.Fatal("slot not freed on release")
	}
	if got := hub.TotalConns(); got != maxConnsPerIP+1 {
		t.Fatalf("total conns = %d, want %d", got, maxConnsPerIP+1)
	}
}
