package observer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"cogsarena.ai/internal/observerproto"
	"cogsarena.ai/internal/sim/arena"
	"cogsarena.ai/internal/sim/tuning"
)

func startArena(t *testing.T) (*arena.World, *httptest.Server) {
	t.Helper()
	tune := tuning.Defaults()
	tune.TickRateHz = 50
	cfg, err := arena.ConfigFromTuning("observer_test", 4, tune)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	w, err := arena.New(cfg)
	if err != nil {
		t.Fatalf("arena: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = w.Run(ctx) }()
	t.Cleanup(cancel)

	s := NewServer(w, nil)
	mux := http.NewServeMux()
	mux.HandleFunc("/bootstrap", s.BootstrapHandler())
	mux.HandleFunc("/ws", s.WSHandler())
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return w, srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func TestBootstrap(t *testing.T) {
	w, srv := startArena(t)
	resp, err := http.Get(srv.URL + "/bootstrap")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	var b observerproto.BootstrapResponse
	if err := json.NewDecoder(resp.Body).Decode(&b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	cfg := w.Config()
	if b.ArenaID != "observer_test" || b.ArenaParams.Targets != cfg.Targets || b.ArenaParams.HalfSize != cfg.HalfSize {
		t.Fatalf("bootstrap=%+v", b)
	}
	if b.ArenaParams.Bases[0][2] >= 0 || b.ArenaParams.Bases[1][2] <= 0 {
		t.Fatalf("bases=%v", b.ArenaParams.Bases)
	}
}

func TestWS_StreamsTicksWithAgents(t *testing.T) {
	w, srv := startArena(t)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if err := conn.WriteJSON(observerproto.SubscribeMsg{Type: observerproto.TypeSubscribe, ProtocolVersion: observerproto.Version}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	resp := make(chan arena.JoinResponse, 1)
	w.Join() <- arena.JoinRequest{Name: "watched", Team: 1, Resp: resp}
	<-resp

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		_ = conn.SetReadDeadline(deadline)
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var m observerproto.TickMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if m.Type != observerproto.TypeTick {
			t.Fatalf("type=%q", m.Type)
		}
		if len(m.Agents) == 1 && m.Agents[0].Name == "watched" {
			if len(m.Targets) == 0 {
				t.Fatalf("frame without targets")
			}
			return
		}
	}
	t.Fatalf("no frame with the joined agent")
}

func TestWS_RejectsBadSubscribe(t *testing.T) {
	_, srv := startArena(t)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if err := conn.WriteJSON(observerproto.SubscribeMsg{Type: observerproto.TypeSubscribe, ProtocolVersion: "9.9"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, _, err = conn.ReadMessage()
	var ce *websocket.CloseError
	if !errors.As(err, &ce) || ce.Code != websocket.ClosePolicyViolation {
		t.Fatalf("err=%v", err)
	}
}

func TestParseSubscribe_ClampsStride(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{{0, 1}, {-3, 1}, {5, 5}, {1000, maxEveryTicks}}
	for _, tc := range cases {
		raw, _ := json.Marshal(observerproto.SubscribeMsg{Type: observerproto.TypeSubscribe, ProtocolVersion: observerproto.Version, EveryTicks: tc.in})
		sub, ok := parseSubscribe(raw)
		if !ok || sub.EveryTicks != tc.want {
			t.Fatalf("every_ticks %d: got %d ok=%v", tc.in, sub.EveryTicks, ok)
		}
	}
	if _, ok := parseSubscribe([]byte(`{"type":"HELLO","protocol_version":"0.1"}`)); ok {
		t.Fatalf("HELLO accepted as SUBSCRIBE")
	}
}

func TestIsLoopbackRemote(t *testing.T) {
	if !isLoopbackRemote("127.0.0.1:1234") || !isLoopbackRemote("[::1]:80") {
		t.Fatalf("loopback rejected")
	}
	if isLoopbackRemote("10.0.0.2:80") || isLoopbackRemote("garbage") {
		t.Fatalf("non-loopback accepted")
	}
}
