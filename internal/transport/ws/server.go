package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"cogsarena.ai/internal/protocol"
	"cogsarena.ai/internal/sim/arena"
	"cogsarena.ai/schemas"
)

// DefaultStaleTicks is how far behind the arena clock an ACT may be before
// it is rejected with E_STALE.
const DefaultStaleTicks = 40

type Server struct {
	arena *arena.World
	log   *log.Logger

	// StaleTicks overrides DefaultStaleTicks when > 0.
	StaleTicks uint64

	upgrader  websocket.Upgrader
	actSchema *jsonschema.Schema
}

func NewServer(w *arena.World, logger *log.Logger) *Server {
	return &Server{
		arena: w,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		actSchema: schemas.MustCompile("act.schema.json"),
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		agentID, out := s.handshake(r.Context(), conn)
		if agentID == "" {
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine; the only writer on conn after the handshake.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			act, code, detail := s.decodeAct(agentID, msg)
			if code != "" {
				s.debugf("reject frame", "agent", agentID, "code", code, "detail", detail)
				s.ack(out, code, detail)
				continue
			}
			select {
			case s.arena.Inbox() <- arena.ActionEnvelope{AgentID: agentID, Act: act}:
			case <-s.arena.Done():
			case <-ctx.Done():
			}
		}

		select {
		case s.arena.Leave() <- agentID:
			s.infof("agent left", "agent", agentID)
		case <-s.arena.Done():
		case <-r.Context().Done():
		}
	}
}

// decodeAct validates one client frame. A non-empty code means the frame is
// rejected and must be answered with an ACK.
func (s *Server) decodeAct(agentID string, msg []byte) (protocol.ActMsg, string, string) {
	var act protocol.ActMsg
	var doc any
	if err := json.Unmarshal(msg, &doc); err != nil {
		return act, protocol.ErrProtoBadRequest, "invalid json"
	}
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return act, protocol.ErrProtoBadRequest, "invalid json"
	}
	if base.Type != protocol.TypeAct {
		return act, protocol.ErrProtoBadRequest, "unexpected type " + base.Type
	}
	if base.ProtocolVersion != protocol.Version {
		return act, protocol.ErrProtoVersion, "bad protocol_version"
	}
	if err := s.actSchema.Validate(doc); err != nil {
		return act, protocol.ErrBadAction, err.Error()
	}
	if err := json.Unmarshal(msg, &act); err != nil {
		return act, protocol.ErrBadAction, err.Error()
	}
	if act.AgentID != "" && act.AgentID != agentID {
		return act, protocol.ErrBadAction, "agent_id mismatch"
	}
	if act.Tick > 0 {
		window := s.StaleTicks
		if window == 0 {
			window = DefaultStaleTicks
		}
		if now := s.arena.CurrentTick(); act.Tick+window < now {
			return act, protocol.ErrStale, "act too old"
		}
	}
	return act, "", ""
}

func (s *Server) ack(out chan []byte, code, message string) {
	b, err := json.Marshal(protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          protocol.TypeAct,
		Accepted:        false,
		Code:            code,
		Message:         message,
		ServerTick:      s.arena.CurrentTick(),
	})
	if err != nil {
		return
	}
	sendLatest(out, b)
}

func (s *Server) handshake(ctx context.Context, conn *websocket.Conn) (agentID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, websocket.ClosePolicyViolation, protocol.ErrProtoBadRequest, "expected HELLO")
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		closeWith(conn, websocket.ClosePolicyViolation, protocol.ErrProtoBadRequest, "bad HELLO")
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		closeWith(conn, websocket.ClosePolicyViolation, protocol.ErrProtoVersion, "bad protocol_version")
		return "", nil
	}
	if hello.Team < 0 || hello.Team > 2 {
		closeWith(conn, websocket.ClosePolicyViolation, protocol.ErrProtoBadRequest, "team must be 0, 1 or 2")
		return "", nil
	}
	if hello.AgentName == "" {
		hello.AgentName = "agent"
	}

	maxQ := hello.Capabilities.MaxQueue
	if maxQ <= 0 {
		maxQ = 8
	}
	if maxQ > 64 {
		maxQ = 64
	}
	out = make(chan []byte, maxQ)

	respCh := make(chan arena.JoinResponse, 1)
	select {
	case s.arena.Join() <- arena.JoinRequest{
		Name: hello.AgentName,
		Team: hello.Team,
		Out:  out,
		Resp: respCh,
	}:
	case <-s.arena.Done():
		closeWith(conn, websocket.CloseTryAgainLater, protocol.ErrArenaClosed, "arena stopped")
		return "", nil
	case <-ctx.Done():
		return "", nil
	}
	var resp arena.JoinResponse
	select {
	case resp = <-respCh:
	case <-s.arena.Done():
		closeWith(conn, websocket.CloseTryAgainLater, protocol.ErrArenaClosed, "arena stopped")
		return "", nil
	case <-ctx.Done():
		return "", nil
	}
	if resp.Code != "" {
		s.infof("join rejected", "name", hello.AgentName, "code", resp.Code)
		closeWith(conn, websocket.CloseTryAgainLater, resp.Code, resp.Message)
		return "", nil
	}

	welcome := resp.Welcome
	welcome.SessionID = uuid.NewString()
	if err := writeJSON(conn, welcome); err != nil {
		s.arena.Leave() <- welcome.AgentID
		return "", nil
	}
	s.infof("agent joined", "agent", welcome.AgentID, "name", hello.AgentName, "team", welcome.Team, "session", welcome.SessionID)
	return welcome.AgentID, out
}

func (s *Server) infof(msg string, kv ...any) {
	if s.log != nil {
		s.log.Info(msg, kv...)
	}
}

func (s *Server) debugf(msg string, kv ...any) {
	if s.log != nil {
		s.log.Debug(msg, kv...)
	}
}

// closeWith sends a close frame whose reason is "<code>: <message>".
func closeWith(conn *websocket.Conn, status int, code, message string) {
	reason := code
	if message != "" {
		reason += ": " + message
	}
	if len(reason) > 120 {
		reason = reason[:120]
	}
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(status, reason), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
