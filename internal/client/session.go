// Package client is the policy side of the arena protocol: it joins over
// websocket, surfaces the newest OBS and sends ACT frames.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"cogsarena.ai/internal/agent"
	"cogsarena.ai/internal/protocol"
)

type Config struct {
	URL  string
	Name string
	// Team is the preferred team; 0 lets the arena balance.
	Team     int
	MaxQueue int
	Logger   *log.Logger
}

// RejectedError is returned when the server refuses the join.
type RejectedError struct {
	Code    string
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return "join rejected: " + e.Code
	}
	return "join rejected: " + e.Code + ": " + e.Message
}

var ErrClosed = errors.New("session closed")

type Session struct {
	cfg     Config
	conn    *websocket.Conn
	writeMu sync.Mutex
	welcome protocol.WelcomeMsg

	mu       sync.Mutex
	lastObs  *protocol.ObsMsg
	lastAck  protocol.AckMsg
	acks     uint64
	dropped  uint64
	readErr  error
	closed   bool
	obsReady chan struct{}
	done     chan struct{}

	closeOnce sync.Once
}

// Dial connects, sends HELLO and waits for WELCOME.
func Dial(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.MaxQueue <= 0 {
		cfg.MaxQueue = 8
	}
	d := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, resp, err := d.DialContext(ctx, cfg.URL, http.Header{})
	if err != nil {
		return nil, err
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		AgentName:       cfg.Name,
		Team:            cfg.Team,
		Capabilities:    protocol.HelloCapabilities{MaxQueue: cfg.MaxQueue},
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteJSON(hello); err != nil {
		_ = conn.Close()
		return nil, err
	}

	welcome, err := awaitWelcome(conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	s := &Session{
		cfg:      cfg,
		conn:     conn,
		welcome:  welcome,
		obsReady: make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

func awaitWelcome(conn *websocket.Conn) (protocol.WelcomeMsg, error) {
	var w protocol.WelcomeMsg
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				return w, parseReject(ce.Text)
			}
			return w, err
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil || base.Type != protocol.TypeWelcome {
			continue
		}
		if err := json.Unmarshal(msg, &w); err != nil {
			return w, fmt.Errorf("welcome: %w", err)
		}
		if w.ProtocolVersion != protocol.Version {
			return w, &RejectedError{Code: protocol.ErrProtoVersion, Message: "server speaks " + w.ProtocolVersion}
		}
		return w, nil
	}
}

// parseReject splits a close reason of the form "<code>: <message>".
func parseReject(reason string) error {
	code, msg, _ := strings.Cut(reason, ": ")
	if !strings.HasPrefix(code, "E_") {
		return &RejectedError{Code: protocol.ErrInternal, Message: reason}
	}
	return &RejectedError{Code: code, Message: msg}
}

func (s *Session) Welcome() protocol.WelcomeMsg { return s.welcome }
func (s *Session) AgentID() string              { return s.welcome.AgentID }

func (s *Session) readLoop() {
	defer close(s.done)
	for {
		_ = s.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			if s.closed {
				err = ErrClosed
			}
			s.readErr = err
			s.mu.Unlock()
			s.notify()
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeObs:
			var o protocol.ObsMsg
			if err := json.Unmarshal(msg, &o); err != nil {
				continue
			}
			s.mu.Lock()
			if s.lastObs != nil {
				s.dropped++
			}
			s.lastObs = &o
			s.mu.Unlock()
			s.notify()
		case protocol.TypeAck:
			var a protocol.AckMsg
			if err := json.Unmarshal(msg, &a); err != nil {
				continue
			}
			s.mu.Lock()
			s.lastAck = a
			s.acks++
			s.mu.Unlock()
			if s.cfg.Logger != nil {
				s.cfg.Logger.Debug("ack", "accepted", a.Accepted, "code", a.Code, "message", a.Message)
			}
		}
	}
}

func (s *Session) notify() {
	select {
	case s.obsReady <- struct{}{}:
	default:
	}
}

// Next blocks until an OBS newer than the previous call arrives. Older
// observations that were never consumed are skipped.
func (s *Session) Next(ctx context.Context) (protocol.ObsMsg, error) {
	for {
		s.mu.Lock()
		obs := s.lastObs
		s.lastObs = nil
		err := s.readErr
		s.mu.Unlock()
		if obs != nil {
			return *obs, nil
		}
		if err != nil {
			return protocol.ObsMsg{}, err
		}
		select {
		case <-ctx.Done():
			return protocol.ObsMsg{}, ctx.Err()
		case <-s.obsReady:
		}
	}
}

// Act sends one action for the given tick.
func (s *Session) Act(tick uint64, a agent.ActionVector) error {
	act := protocol.ActMsg{
		Type:            protocol.TypeAct,
		ProtocolVersion: protocol.Version,
		Tick:            tick,
		AgentID:         s.welcome.AgentID,
		Action:          a[:],
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return s.conn.WriteJSON(act)
}

// LastAck returns the newest ACK and how many have arrived in total.
func (s *Session) LastAck() (protocol.AckMsg, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAck, s.acks
}

// Skipped counts observations replaced before Next consumed them.
func (s *Session) Skipped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		s.writeMu.Unlock()
		err = s.conn.Close()
		<-s.done
	})
	return err
}
