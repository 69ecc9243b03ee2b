package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"cputempwidget/internal/models"
	"cputempwidget/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	u.Scheme = "ws"
	u.Path = "/ws"

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) (string, models.Snapshot) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}
	var env struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	var snap models.Snapshot
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &snap); err != nil {
			t.Fatalf("decode snapshot: %v", err)
		}
	}
	return env.Type, snap
}

func TestWebSocket_StreamsInitialAndPushedSnapshots(t *testing.T) {
	mon := &mockMonitor{snapshot: models.Snapshot{
		Sample:     models.Sample{ValueC: 55.5, Valid: true, Source: "hwmon", TakenAt: time.Now().UTC()},
		ThresholdC: 70,
		Running:    true,
	}}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(&service.Service{Monitor: mon}, nil)
	r.GET("/ws", h.wsConnect)

	srv := httptest.NewServer(r)
	defer srv.Close()

	conn := dialWS(t, srv)

	// The current snapshot arrives without waiting for a tick.
	typ, snap := readEnvelope(t, conn)
	if typ != "state" {
		t.Fatalf("envelope type: want state, got %q", typ)
	}
	if snap.Sample.ValueC != 55.5 || !snap.Running {
		t.Fatalf("unexpected initial snapshot: %+v", snap)
	}

	// A newly published snapshot is pushed to the open connection.
	mon.push(models.Snapshot{
		Sample:     models.Sample{ValueC: 72.0, Valid: true, Source: "hwmon", TakenAt: time.Now().UTC()},
		ThresholdC: 70,
		Warning:    true,
		Running:    true,
	})
	typ, snap = readEnvelope(t, conn)
	if typ != "state" {
		t.Fatalf("envelope type: want state, got %q", typ)
	}
	if snap.Sample.ValueC != 72.0 || !snap.Warning {
		t.Fatalf("unexpected pushed snapshot: %+v", snap)
	}
}

func TestWebSocket_RejectsPlainHTTP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(&service.Service{Monitor: &mockMonitor{}}, nil)
	r.GET("/ws", h.wsConnect)

	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/ws")
	if err != nil {
		t.Fatalf("GET /ws: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 400 {
		t.Fatalf("plain GET on /ws: want 400, got %d", resp.StatusCode)
	}
}
