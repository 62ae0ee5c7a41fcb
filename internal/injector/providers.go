package injector

import (
	"github.com/google/wire"
	"github.com/zeusync/crowdnav/internal/config"
	"github.com/zeusync/crowdnav/internal/core/events/bus"
	"github.com/zeusync/crowdnav/internal/core/observability/log"
	"github.com/zeusync/crowdnav/internal/core/sim"
	"github.com/zeusync/crowdnav/internal/viewer"
)

// App is the fully wired process.
type App struct {
	Config     *config.Config
	Logger     *log.Logger
	Events     bus.EventBus
	Simulation *sim.Simulation
	Viewer     *viewer.Server
}

// ConfigPath names the configuration file; empty means defaults.
type ConfigPath string

var ProviderSet = wire.NewSet(
	ProvideConfig,
	ProvideLogger,
	bus.New,
	sim.New,
	viewer.New,
	wire.Bind(new(log.Log), new(*log.Logger)),
	wire.Bind(new(viewer.Source), new(*sim.Simulation)),
	wire.Struct(new(App), "*"),
)

func ProvideConfig(path ConfigPath) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(string(path))
}

func ProvideLogger(cfg *config.Config) (*log.Logger, error) {
	return log.New(cfg.Log)
}
