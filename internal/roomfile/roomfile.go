// Package roomfile reads room descriptions: YAML or JSON documents, and SVG
// drawings whose "Obstacles" group holds the obstacle outlines.
package roomfile

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/zeusync/crowdnav/internal/core/nav"
	"github.com/zeusync/crowdnav/pkg/geom"
	"gopkg.in/yaml.v3"
)

var ErrInvalidRoom = errors.New("invalid room file")

// Point is an [x, y] pair.
type Point [2]float64

func (p Point) Vector() geom.Vector { return geom.V(p[0], p[1]) }

type ObstacleSpec struct {
	Vertices []Point `json:"vertices" yaml:"vertices"`
	// Open marks a polyline wall; obstacles are closed polygons otherwise.
	Open bool `json:"open,omitempty" yaml:"open,omitempty"`
}

type ExitSpec struct {
	From Point `json:"from" yaml:"from"`
	To   Point `json:"to" yaml:"to"`
}

// File is a room description. A file without exits uses the room's four
// boundary edges.
type File struct {
	Name      string         `json:"name" yaml:"name"`
	Width     float64        `json:"width" yaml:"width"`
	Height    float64        `json:"height" yaml:"height"`
	Obstacles []ObstacleSpec `json:"obstacles" yaml:"obstacles"`
	Exits     []ExitSpec     `json:"exits,omitempty" yaml:"exits,omitempty"`
}

// Load decodes path by extension: .json, .svg, or YAML for anything else.
// An unnamed room takes the file's base name.
func Load(path string) (*File, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open room: %w", err)
	}
	defer r.Close()

	var f *File
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		f, err = DecodeJSON(r)
	case ".svg":
		f, err = DecodeSVG(r)
	default:
		f, err = DecodeYAML(r)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if f.Name == "" {
		f.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return f, nil
}

func DecodeYAML(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRoom, err)
	}
	return f.normalize()
}

func DecodeJSON(r io.Reader) (*File, error) {
	var f File
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRoom, err)
	}
	return f.normalize()
}

// normalize drops the repeated closing vertex of closed outlines and checks
// the room size.
func (f *File) normalize() (*File, error) {
	if !(f.Width > 0) || !(f.Height > 0) {
		return nil, fmt.Errorf("%w: size %gx%g", ErrInvalidRoom, f.Width, f.Height)
	}
	for i := range f.Obstacles {
		o := &f.Obstacles[i]
		if n := len(o.Vertices); !o.Open && n > 1 && o.Vertices[0] == o.Vertices[n-1] {
			o.Vertices = o.Vertices[:n-1]
		}
	}
	return f, nil
}

// Geometry converts the file into navigation obstacles and exits.
func (f *File) Geometry() ([]*nav.Obstacle, []nav.Exit, error) {
	obstacles := make([]*nav.Obstacle, 0, len(f.Obstacles))
	for i, spec := range f.Obstacles {
		vertices := make([]geom.Vector, len(spec.Vertices))
		for j, p := range spec.Vertices {
			vertices[j] = p.Vector()
		}
		o := &nav.Obstacle{Vertices: vertices, Closed: !spec.Open}
		if err := o.Validate(); err != nil {
			return nil, nil, fmt.Errorf("%w: obstacle %d: %w", ErrInvalidRoom, i, err)
		}
		obstacles = append(obstacles, o)
	}
	exits := make([]nav.Exit, 0, len(f.Exits))
	for _, e := range f.Exits {
		exits = append(exits, nav.Exit{P1: e.From.Vector(), P2: e.To.Vector()})
	}
	return obstacles, exits, nil
}

// Fingerprint hashes the room geometry. Two files describing the same
// geometry under different names share a fingerprint.
func (f *File) Fingerprint() uint64 {
	d := xxhash.New()
	var buf [8]byte
	put := func(v float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		_, _ = d.Write(buf[:])
	}
	put(f.Width)
	put(f.Height)
	for _, o := range f.Obstacles {
		if o.Open {
			_, _ = d.WriteString("open")
		} else {
			_, _ = d.WriteString("closed")
		}
		put(float64(len(o.Vertices)))
		for _, p := range o.Vertices {
			put(p[0])
			put(p[1])
		}
	}
	_, _ = d.WriteString("exits")
	for _, e := range f.Exits {
		put(e.From[0])
		put(e.From[1])
		put(e.To[0])
		put(e.To[1])
	}
	return d.Sum64()
}
