package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zeusync/crowdnav/internal/core/crowd"
	"github.com/zeusync/crowdnav/internal/core/observability/log"
	"github.com/zeusync/crowdnav/internal/core/sim"
	"github.com/zeusync/crowdnav/internal/injector"
)

type flags struct {
	config   string
	room     string
	strategy string
	spawn    int
	ticks    int
	viewer   string
	realtime bool
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.config, "config", "", "configuration file (YAML or JSON); defaults apply when empty")
	flag.StringVar(&f.room, "room", "", "room to load; the first cataloged room when empty")
	flag.StringVar(&f.strategy, "strategy", "", "steering strategy: direct, hard-stop or deviation")
	flag.IntVar(&f.spawn, "spawn", -1, "number of agents spawned at random; overrides simulation.spawn_count")
	flag.IntVar(&f.ticks, "ticks", -1, "stop after this many ticks; overrides simulation.max_ticks")
	flag.StringVar(&f.viewer, "viewer", "", "serve the websocket viewer feed on this address")
	flag.BoolVar(&f.realtime, "realtime", false, "tick at the configured rate instead of as fast as possible")
	flag.Parse()
	return f
}

func main() {
	if err := run(parseFlags()); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "crowdnav:", err)
		os.Exit(1)
	}
}

func run(f flags) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := injector.InitializeApp(injector.ConfigPath(f.config))
	if err != nil {
		return err
	}
	defer func() { _ = app.Logger.Sync() }()
	cfg := app.Config
	logger := app.Logger

	if f.strategy != "" {
		s, err := crowd.ParseStrategy(f.strategy)
		if err != nil {
			return err
		}
		app.Simulation.SetStrategy(s)
	}
	if f.spawn >= 0 {
		cfg.Simulation.SpawnCount = f.spawn
	}
	if f.ticks >= 0 {
		cfg.Simulation.MaxTicks = f.ticks
	}
	if f.viewer != "" {
		cfg.Viewer.Enabled = true
		cfg.Viewer.Address = f.viewer
	}

	if len(cfg.Rooms) == 0 {
		return errors.New("no room files configured")
	}
	if err := app.Simulation.LoadFiles(cfg.Rooms...); err != nil {
		return err
	}
	room := f.room
	if room == "" {
		room = app.Simulation.Rooms()[0]
	}
	if err := app.Simulation.LoadRoom(ctx, room); err != nil {
		return err
	}
	if _, err := app.Simulation.SpawnRandom(cfg.Simulation.SpawnCount); err != nil {
		return err
	}

	if cfg.Viewer.Enabled {
		app.Simulation.AddSink(app.Viewer)
		if err := app.Viewer.Start(cfg.Viewer.Address); err != nil {
			return fmt.Errorf("start viewer: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := app.Viewer.Stop(shutdownCtx); err != nil {
				logger.Warn("viewer shutdown", log.Error(err))
			}
		}()
	}

	logger.Info("simulation started",
		log.Room(room),
		log.Strategy(app.Simulation.Strategy()),
		log.Int("agents", app.Simulation.AgentCount()),
	)
	app.Simulation.Resume()

	start := time.Now()
	if f.realtime || cfg.Viewer.Enabled {
		interval := time.Duration(float64(time.Second) * cfg.TickDuration())
		err = app.Simulation.Run(ctx, sim.RunOptions{
			Interval:      interval,
			MaxTicks:      cfg.Simulation.MaxTicks,
			StopWhenEmpty: !cfg.Viewer.Enabled,
		})
	} else {
		err = runHeadless(ctx, app.Simulation, cfg.Simulation.MaxTicks)
	}

	m := app.Simulation.Metrics()
	logger.Info("simulation finished",
		log.Int("ticks", int(m.Ticks)),
		log.Int("exited", int(m.Exited)),
		log.Int("stranded", int(m.Stranded)),
		log.Int("left", app.Simulation.AgentCount()),
		log.Duration("average_tick", m.AverageTickTime),
		log.Duration("wall_time", time.Since(start)),
	)
	return err
}

// runHeadless steps as fast as possible until the room is empty, maxTicks
// ticks have run (when positive) or ctx is done.
func runHeadless(ctx context.Context, s *sim.Simulation, maxTicks int) error {
	for ticks := 0; maxTicks <= 0 || ticks < maxTicks; ticks++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.AgentCount() == 0 {
			return nil
		}
		s.Tick(ctx)
	}
	return nil
}
