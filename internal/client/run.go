package client

import (
	"context"
	"errors"
	"time"

	"cogsarena.ai/internal/agent"
	"cogsarena.ai/internal/protocol"
)

// Decide picks the action for one observation.
type Decide func(obs protocol.ObsMsg) agent.ActionVector

// Loop answers every observation with an action until ctx is done or the
// connection fails. onObs, if set, sees each observation after it was
// answered.
func (s *Session) Loop(ctx context.Context, decide Decide, onObs func(protocol.ObsMsg, agent.ActionVector)) error {
	for {
		obs, err := s.Next(ctx)
		if err != nil {
			return err
		}
		a := decide(obs)
		if err := s.Act(obs.Tick, a); err != nil {
			return err
		}
		if onObs != nil {
			onObs(obs, a)
		}
	}
}

// RunWithRetry dials, runs Loop and redials with capped backoff until ctx
// is done. A rejected join is not retried.
func RunWithRetry(ctx context.Context, cfg Config, decide Decide, onObs func(protocol.ObsMsg, agent.ActionVector)) error {
	backoff := 200 * time.Millisecond
	for {
		s, err := Dial(ctx, cfg)
		if err == nil {
			backoff = 200 * time.Millisecond
			if cfg.Logger != nil {
				w := s.Welcome()
				cfg.Logger.Info("joined", "agent", w.AgentID, "team", w.Team, "session", w.SessionID, "arena", w.ArenaParams.ArenaID)
			}
			err = s.Loop(ctx, decide, onObs)
			_ = s.Close()
		}
		var rej *RejectedError
		if errors.As(err, &rej) {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
		if cfg.Logger != nil {
			cfg.Logger.Warn("disconnected", "err", err, "retry_in", backoff)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		if backoff < 5*time.Second {
			backoff *= 2
			if backoff > 5*time.Second {
				backoff = 5 * time.Second
			}
		}
	}
}
