package roomfile

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/crowdnav/internal/core/nav"
	"github.com/zeusync/crowdnav/pkg/geom"
)

func TestLoadSVG(t *testing.T) {
	f, err := Load(filepath.Join("testdata", "lobby.svg"))
	require.NoError(t, err)

	assert.Equal(t, "lobby", f.Name)
	assert.Equal(t, 200.0, f.Width)
	assert.Equal(t, 100.0, f.Height)
	require.Len(t, f.Obstacles, 3)
	assert.Equal(t, []Point{{10, 10}, {10, 40}, {40, 40}, {40, 10}}, f.Obstacles[0].Vertices)
	// relative commands, closing vertex dropped
	assert.Equal(t, []Point{{100, 20}, {100, 40}, {120, 40}, {120, 20}}, f.Obstacles[1].Vertices)
	assert.Equal(t, []Point{{150, 60}, {150, 70}, {170, 70}, {170, 60}}, f.Obstacles[2].Vertices)
	assert.Empty(t, f.Exits)
}

func TestLoadJSON(t *testing.T) {
	f, err := Load(filepath.Join("testdata", "corridor.json"))
	require.NoError(t, err)
	assert.Equal(t, "corridor", f.Name)
	require.Len(t, f.Obstacles, 2)
	assert.Len(t, f.Obstacles[0].Vertices, 4)
	assert.Len(t, f.Obstacles[1].Vertices, 2)

	obstacles, exits, err := f.Geometry()
	require.NoError(t, err)
	assert.True(t, obstacles[0].Closed)
	assert.False(t, obstacles[1].Closed)
	assert.Equal(t, []nav.Exit{{P1: geom.V(100, 0), P2: geom.V(100, 20)}}, exits)
}

func TestLoadBundledRooms(t *testing.T) {
	for name, obstacles := range map[string]int{"simple": 9, "classroom": 9, "mall": 19} {
		t.Run(name, func(t *testing.T) {
			f, err := Load(filepath.Join("..", "..", "configs", "rooms", name+".yaml"))
			require.NoError(t, err)
			assert.Equal(t, name, f.Name)
			assert.Len(t, f.Obstacles, obstacles)
			_, _, err = f.Geometry()
			require.NoError(t, err)
		})
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"no size", "obstacles: []\n"},
		{"unknown field", "width: 10\nheight: 10\nwalls: []\n"},
		{"bad point", "width: 10\nheight: 10\nobstacles:\n  - vertices: [[1, 2, 3]]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeYAML(strings.NewReader(tt.doc))
			assert.ErrorIs(t, err, ErrInvalidRoom)
		})
	}

	_, err := DecodeSVG(strings.NewReader(`<svg viewBox="0 0 10"></svg>`))
	assert.ErrorIs(t, err, ErrInvalidRoom)
	_, err = DecodeSVG(strings.NewReader(`<html></html>`))
	assert.ErrorIs(t, err, ErrInvalidRoom)
	_, err = DecodeSVG(strings.NewReader(`<svg viewBox="0 0 10 10"><g id="Obstacles"><path d="M1 x"/></g></svg>`))
	assert.ErrorIs(t, err, ErrInvalidRoom)
}

func TestGeometryRejectsDegenerateObstacle(t *testing.T) {
	f, err := DecodeYAML(strings.NewReader("width: 10\nheight: 10\nobstacles:\n  - vertices: [[1, 1], [2, 2]]\n"))
	require.NoError(t, err)
	_, _, err = f.Geometry()
	assert.ErrorIs(t, err, ErrInvalidRoom)
	assert.ErrorIs(t, err, nav.ErrInvalidObstacle)
}

func TestFingerprint(t *testing.T) {
	a, err := Load(filepath.Join("..", "..", "configs", "rooms", "simple.yaml"))
	require.NoError(t, err)
	b, err := Load(filepath.Join("..", "..", "configs", "rooms", "simple.yaml"))
	require.NoError(t, err)

	b.Name = "renamed"
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	b.Obstacles[0].Vertices[0][0]++
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())

	c, err := Load(filepath.Join("..", "..", "configs", "rooms", "simple.yaml"))
	require.NoError(t, err)
	c.Exits = []ExitSpec{{From: Point{0, 0}, To: Point{1, 0}}}
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}
