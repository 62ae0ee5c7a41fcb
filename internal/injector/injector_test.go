package injector

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/crowdnav/internal/config"
)

func TestInitializeAppWithDefaults(t *testing.T) {
	app, err := InitializeApp("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), app.Config)
	assert.NotNil(t, app.Logger)
	assert.NotNil(t, app.Events)
	assert.NotNil(t, app.Simulation)
	assert.NotNil(t, app.Viewer)
	assert.Empty(t, app.Simulation.Rooms())
}

func TestInitializeAppFromFile(t *testing.T) {
	app, err := InitializeApp(ConfigPath(filepath.Join("..", "..", "configs", "crowdnav.yaml")))
	require.NoError(t, err)
	require.Len(t, app.Config.Rooms, 3)
	require.NoError(t, app.Simulation.LoadFiles(app.Config.Rooms...))
	assert.Equal(t, []string{"simple", "classroom", "mall"}, app.Simulation.Rooms())
}

func TestInitializeAppMissingFile(t *testing.T) {
	_, err := InitializeApp("does-not-exist.yaml")
	assert.Error(t, err)
}
