package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"cogsarena.ai/internal/agent"
	"cogsarena.ai/internal/client"
	"cogsarena.ai/internal/policy"
	"cogsarena.ai/internal/protocol"
)

func main() {
	var (
		url       = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name      = flag.String("name", "bot", "agent name")
		team      = flag.Int("team", 0, "preferred team (0 = any)")
		kind      = flag.String("policy", "scripted", "policy: scripted or linear")
		weights   = flag.String("weights", "", "linear policy weights (yaml)")
		carryGoal = flag.Int("carry", 2, "scripted: targets to collect before heading home")
		logLevel  = flag.String("log_level", "info", "log level (debug, info, warn, error)")
	)
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "bot", ReportTimestamp: true, TimeFormat: time.StampMicro})
	if lvl, err := log.ParseLevel(*logLevel); err == nil {
		logger.SetLevel(lvl)
	}

	p, err := buildPolicy(*kind, *weights, *carryGoal)
	if err != nil {
		logger.Fatalf("policy: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := client.Config{URL: *url, Name: *name, Team: *team, MaxQueue: 8, Logger: logger}
	if err := client.RunWithRetry(ctx, cfg, p.Act, matchReporter(logger)); err != nil {
		logger.Fatalf("run: %v", err)
	}
}

func buildPolicy(kind, weights string, carryGoal int) (policy.Policy, error) {
	switch kind {
	case "linear":
		if weights == "" {
			return nil, errMissingWeights
		}
		return policy.LoadLinear(weights)
	default:
		s := policy.DefaultScripted()
		s.CarryGoal = carryGoal
		return s, nil
	}
}

var errMissingWeights = errors.New("-policy=linear needs -weights")

// matchReporter logs the reward total whenever a match ends.
func matchReporter(logger *log.Logger) func(protocol.ObsMsg, agent.ActionVector) {
	return func(obs protocol.ObsMsg, _ agent.ActionVector) {
		if obs.Reward != 0 {
			logger.Debug("reward", "tick", obs.Tick, "delta", obs.Reward, "total", obs.CumulativeReward)
		}
		if obs.Done {
			logger.Info("match done", "match", obs.Match, "reward", obs.CumulativeReward, "score", obs.Score)
		}
	}
}
