package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/pthm-cable/selkie/config"
	"github.com/pthm-cable/selkie/env"
	"github.com/pthm-cable/selkie/persistence"
	"github.com/pthm-cable/selkie/sim"
	"github.com/pthm-cable/selkie/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config value, time-based if that is also 0)")
	days := flag.Int("days", 0, "Simulation length in days (0 = use config)")
	agents := flag.Int("agents", 0, "Initial population size (0 = use config)")
	workers := flag.Int("workers", 0, "Parallel workers (0 = use config / GOMAXPROCS)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	dbPath := flag.String("db", "", "SQLite checkpoint database path (overrides config)")
	resume := flag.Bool("resume", false, "Resume from the checkpoint in the database")
	start := flag.String("start", "", "Simulation start time, RFC3339 (overrides config)")
	lat := flag.Float64("lat", 0, "Spawn origin latitude (0 = use config)")
	lon := flag.Float64("lon", 0, "Spawn origin longitude (0 = use config)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	o := overrides{
		seed:      *seed,
		days:      *days,
		agents:    *agents,
		workers:   *workers,
		outputDir: *outputDir,
		dbPath:    *dbPath,
		resume:    *resume,
		start:     *start,
		lat:       *lat,
		lon:       *lon,
	}
	if err := run(*configPath, o, logger); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

type overrides struct {
	seed      int64
	days      int
	agents    int
	workers   int
	outputDir string
	dbPath    string
	resume    bool
	start     string
	lat       float64
	lon       float64
}

func run(configPath string, o overrides, logger *slog.Logger) error {
	if err := config.Init(configPath); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := config.Cfg()

	// CLI overrides
	if o.seed != 0 {
		cfg.Simulation.Seed = o.seed
	}
	if cfg.Simulation.Seed == 0 {
		cfg.Simulation.Seed = time.Now().UnixNano()
	}
	if o.days > 0 {
		cfg.Simulation.Days = o.days
	}
	if o.agents > 0 {
		cfg.Simulation.Agents = o.agents
	}
	if o.workers > 0 {
		cfg.Simulation.Workers = o.workers
	}
	if o.outputDir != "" {
		cfg.Telemetry.OutputDir = o.outputDir
	}
	if o.dbPath != "" {
		cfg.Persistence.DBPath = o.dbPath
	}
	if o.start != "" {
		startTime, err := time.Parse(time.RFC3339, o.start)
		if err != nil {
			return fmt.Errorf("parsing -start: %w", err)
		}
		cfg.Simulation.Start = o.start
		cfg.Derived.StartTime = startTime
	}
	if o.lat != 0 {
		cfg.Simulation.OriginLat = o.lat
	}
	if o.lon != 0 {
		cfg.Simulation.OriginLon = o.lon
	}
	cfg.Derived.TotalTicks = cfg.Simulation.Days * 24


	source := env.NewSyntheticSource(env.DefaultSyntheticConfig(cfg.Simulation.Seed))

	output, err := telemetry.NewOutputManager(cfg.Telemetry.OutputDir)
	if err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	defer output.Close()
	if err := output.WriteConfig(cfg); err != nil {
		return fmt.Errorf("writing config snapshot: %w", err)
	}

	var db *persistence.DB
	if cfg.Persistence.DBPath != "" {
		db, err = persistence.Open(cfg.Persistence.DBPath, logger)
		if err != nil {
			return fmt.Errorf("opening checkpoint db: %w", err)
		}
		defer db.Close()
	}

	s := sim.New(cfg, source, output, db, logger)

	if o.resume {
		if db == nil {
			return errors.New("resume requested without a checkpoint database (set -db or persistence.db_path)")
		}
		pop, tick, simTime, err := db.LoadCheckpoint(cfg.AgentParams(), cfg.Simulation.Seed, logger)
		if err != nil {
			return fmt.Errorf("loading checkpoint: %w", err)
		}
		s.AdoptAgents(pop, tick, simTime)
		logger.Info("resumed from checkpoint",
			"tick", tick,
			"sim_time", simTime.Format(time.RFC3339),
			"agents", len(s.Agents()),
		)
	} else if err := s.SpawnInitial(); err != nil {
		return fmt.Errorf("spawning population: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting simulation",
		"seed", cfg.Simulation.Seed,
		"agents", len(s.Agents()),
		"days", cfg.Simulation.Days,
		"total_ticks", cfg.Derived.TotalTicks,
		"start", cfg.Derived.StartTime.Format(time.RFC3339),
		"output_dir", cfg.Telemetry.OutputDir,
		"db", cfg.Persistence.DBPath,
	)

	wallStart := time.Now()
	runErr := s.Run(ctx)
	elapsed := time.Since(wallStart)

	logger.Info("simulation finished",
		"ticks", humanize.Comma(int64(s.Tick())),
		"survivors", len(s.Agents()),
		"sim_time", s.SimTime().Format(time.RFC3339),
		"wall_time", elapsed.Round(time.Millisecond).String(),
		"sim_hours_per_second", fmt.Sprintf("%s/s", humanize.FtoaWithDigits(float64(s.Tick())/elapsed.Seconds(), 1)),
	)

	if runErr != nil && errors.Is(runErr, ctx.Err()) && ctx.Err() != nil {
		// An interrupt is an orderly stop; checkpoints cover the rest.
		return nil
	}
	return runErr
}
