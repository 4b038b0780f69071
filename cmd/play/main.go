package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gdamore/tcell/v2"

	"cogsarena.ai/internal/agent"
	"cogsarena.ai/internal/client"
	"cogsarena.ai/internal/input"
	"cogsarena.ai/internal/protocol"
)

func main() {
	var (
		url     = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name    = flag.String("name", "human", "agent name")
		team    = flag.Int("team", 0, "preferred team (0 = any)")
		hold    = flag.Duration("hold", input.DefaultHold, "how long a key counts as held after a press")
		logFile = flag.String("log_file", "", "write logs here (the terminal is taken by the HUD)")
	)
	flag.Parse()

	var logOut io.Writer = io.Discard
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintln(os.Stderr, "log file:", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	logger := log.NewWithOptions(logOut, log.Options{Prefix: "play", ReportTimestamp: true, TimeFormat: time.StampMicro})

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintln(os.Stderr, "screen:", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintln(os.Stderr, "screen:", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var mu sync.Mutex
	kb := input.NewKeyboard(*hold)

	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			if _, ok := ev.(*tcell.EventResize); ok {
				screen.Sync()
				continue
			}
			mu.Lock()
			quit := kb.Handle(ev)
			mu.Unlock()
			if quit {
				cancel()
				return
			}
		}
	}()

	decide := func(protocol.ObsMsg) agent.ActionVector {
		mu.Lock()
		defer mu.Unlock()
		return kb.Action()
	}
	hud := &hud{screen: screen}

	cfg := client.Config{URL: *url, Name: *name, Team: *team, MaxQueue: 4, Logger: logger}
	err = client.RunWithRetry(ctx, cfg, decide, hud.draw)
	screen.Fini()
	if err != nil {
		fmt.Fprintln(os.Stderr, "play:", err)
		os.Exit(1)
	}
}

type hud struct {
	screen tcell.Screen
}

func (h *hud) draw(obs protocol.ObsMsg, a agent.ActionVector) {
	s := h.screen
	s.Clear()
	style := tcell.StyleDefault
	if obs.Self.Frozen {
		style = style.Foreground(tcell.ColorBlue)
	}

	lines := []string{
		fmt.Sprintf("agent %s  team %d  match %d  tick %d  %.0fs left", obs.AgentID, obs.Self.Team, obs.Match, obs.Tick, obs.TimeRemaining),
		fmt.Sprintf("score %d : %d", obs.Score[0], obs.Score[1]),
		fmt.Sprintf("pos (%.1f, %.1f)  yaw %.0f  carrying %d  frozen %v  laser %v", obs.Self.Pos[0], obs.Self.Pos[2], obs.Self.Yaw, obs.Self.Carrying, obs.Self.Frozen, obs.Self.Laser),
		fmt.Sprintf("reward %+.2f  total %.2f", obs.Reward, obs.CumulativeReward),
		fmt.Sprintf("action %v", a),
		"",
		"arrows move/turn  space shoot  a seek target  z seek base  q quit",
	}
	for y, line := range lines {
		drawText(s, 0, y, style, line)
	}
	s.Show()
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for i, r := range text {
		s.SetContent(x+i, y, r, nil, style)
	}
}
