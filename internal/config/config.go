package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeusync/crowdnav/internal/core/crowd"
	"github.com/zeusync/crowdnav/internal/core/nav"
	"github.com/zeusync/crowdnav/internal/core/observability/log"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config is the whole runtime configuration, readable from YAML or JSON.
type Config struct {
	Log        log.Config       `json:"log" yaml:"log"`
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`
	Agent      AgentConfig      `json:"agent" yaml:"agent"`
	Rooms      []string         `json:"rooms" yaml:"rooms"`
	Viewer     ViewerConfig     `json:"viewer" yaml:"viewer"`
}

type SimulationConfig struct {
	// TickRate is the number of ticks per simulated second.
	TickRate     float64        `json:"tick_rate" yaml:"tick_rate"`
	Strategy     crowd.Strategy `json:"strategy" yaml:"strategy"`
	Propagator   string         `json:"propagator" yaml:"propagator"`
	BuildWorkers int            `json:"build_workers" yaml:"build_workers"`
	// MaxTicks stops a headless run; 0 runs until interrupted or the room empties.
	MaxTicks   int   `json:"max_ticks" yaml:"max_ticks"`
	SpawnCount int   `json:"spawn_count" yaml:"spawn_count"`
	Seed       int64 `json:"seed" yaml:"seed"`
}

type AgentConfig struct {
	Radius float64 `json:"radius" yaml:"radius"`
	// Speed is in room units per second.
	Speed float64 `json:"speed" yaml:"speed"`
}

type ViewerConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Address string `json:"address" yaml:"address"`
	// FrameEvery sends one frame per this many ticks.
	FrameEvery int  `json:"frame_every" yaml:"frame_every"`
	Edges      bool `json:"edges" yaml:"edges"`
}

func Default() *Config {
	return &Config{
		Log: log.Config{Level: log.LevelInfo, Encoding: "json"},
		Simulation: SimulationConfig{
			TickRate:     60,
			Strategy:     crowd.StrategyLateralDeviation,
			Propagator:   nav.PropagatorDijkstra.String(),
			BuildWorkers: 0,
			SpawnCount:   10,
			Seed:         1,
		},
		Agent: AgentConfig{Radius: 5, Speed: 100},
		Viewer: ViewerConfig{
			Address:    "127.0.0.1:8080",
			FrameEvery: 2,
		},
	}
}

// Load reads path as JSON when it has a .json extension and as YAML otherwise.
// Unset values keep their defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var cfg *Config
	if strings.EqualFold(filepath.Ext(path), ".json") {
		cfg, err = LoadJSON(f)
	} else {
		cfg, err = LoadYAML(f)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	// room paths are relative to the config file
	dir := filepath.Dir(path)
	for i, room := range cfg.Rooms {
		if !filepath.IsAbs(room) {
			cfg.Rooms[i] = filepath.Join(dir, room)
		}
	}
	return cfg, nil
}

func LoadJSON(r io.Reader) (*Config, error) {
	c := Default()
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return c, c.Validate()
}

func LoadYAML(r io.Reader) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return c, c.Validate()
}

func (c *Config) Validate() error {
	var errs []error
	if !(c.Simulation.TickRate > 0) {
		errs = append(errs, fmt.Errorf("simulation.tick_rate must be positive, got %g", c.Simulation.TickRate))
	}
	if _, err := nav.ParsePropagator(c.Simulation.Propagator); err != nil {
		errs = append(errs, fmt.Errorf("simulation.propagator: %w", err))
	}
	if c.Simulation.SpawnCount < 0 {
		errs = append(errs, fmt.Errorf("simulation.spawn_count must not be negative"))
	}
	if c.Simulation.MaxTicks < 0 {
		errs = append(errs, fmt.Errorf("simulation.max_ticks must not be negative"))
	}
	if !(c.Agent.Speed > 0) {
		errs = append(errs, fmt.Errorf("agent.speed must be positive, got %g", c.Agent.Speed))
	}
	if c.Agent.Radius < 0 {
		errs = append(errs, fmt.Errorf("agent.radius must not be negative, got %g", c.Agent.Radius))
	}
	switch c.Log.Encoding {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.encoding must be json or console, got %q", c.Log.Encoding))
	}
	if c.Viewer.Enabled {
		if c.Viewer.Address == "" {
			errs = append(errs, errors.New("viewer.address is required when the viewer is enabled"))
		}
		if c.Viewer.FrameEvery < 1 {
			errs = append(errs, errors.New("viewer.frame_every must be at least 1"))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// TickDuration is the simulated time covered by one tick, in seconds.
func (c *Config) TickDuration() float64 {
	return 1 / c.Simulation.TickRate
}

// GraphOptions turns the simulation section into navigation graph options.
func (c *Config) GraphOptions() []nav.Option {
	p, _ := nav.ParsePropagator(c.Simulation.Propagator)
	return []nav.Option{nav.WithPropagator(p), nav.WithWorkers(c.Simulation.BuildWorkers)}
}
