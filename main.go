package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fernwick/aviary/config"
	"github.com/fernwick/aviary/sim"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	watchConfig := flag.Bool("watch-config", false, "Hot-reload the config file on change")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int64("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	realtime := flag.Bool("realtime", false, "Pace the loop at one tick per sim dt instead of flat out")

	flag.Parse()

	// JSON to stdout for structured logging.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	if *watchConfig {
		if *configPath == "" {
			slog.Error("-watch-config requires -config")
			os.Exit(1)
		}
		stop, err := config.Watch(*configPath)
		if err != nil {
			slog.Error("failed to watch config", "error", err)
			os.Exit(1)
		}
		defer stop()
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = cfg.Sim.Seed
	}
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	s, err := sim.New(sim.Options{
		Seed:           rngSeed,
		OutputDir:      *outputDir,
		StatsWindowSec: *statsWindow,
		LogStats:       *logStats,
	})
	if err != nil {
		slog.Error("failed to create simulation", "error", err)
		os.Exit(1)
	}
	defer s.Close()

	slog.Info("starting simulation",
		"seed", rngSeed,
		"max_ticks", *maxTicks,
		"realtime", *realtime,
	)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	var ticker *time.Ticker
	if *realtime {
		ticker = time.NewTicker(time.Duration(cfg.Sim.DT * float64(time.Second)))
		defer ticker.Stop()
	}

	for {
		select {
		case sig := <-sigs:
			slog.Info("shutting down", "signal", sig.String())
			return
		default:
		}

		s.Step()

		if *maxTicks > 0 && s.Tick() >= *maxTicks {
			slog.Info("max ticks reached", "tick", s.Tick())
			return
		}
		if ticker != nil {
			<-ticker.C
		}
	}
}
