// Package sim owns the simulation state: the room catalog, the active room and
// its agents, the tick loop and the events published along the way.
package sim

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/zeusync/crowdnav/internal/config"
	"github.com/zeusync/crowdnav/internal/core/crowd"
	"github.com/zeusync/crowdnav/internal/core/events/bus"
	"github.com/zeusync/crowdnav/internal/core/observability/log"
	"github.com/zeusync/crowdnav/internal/roomfile"
	"github.com/zeusync/crowdnav/pkg/geom"
)

const (
	source = "simulation"
	// spawnAttempts bounds rejection sampling per randomly spawned agent.
	spawnAttempts = 1000
)

type entry struct {
	name        string
	file        *roomfile.File
	fingerprint uint64
	room        *crowd.Room
}

type pendingEvent struct {
	room  string
	event bus.Event
}

// Simulation is safe for concurrent use. Event handlers and frame sinks run
// after the lock is released and may call back into the simulation.
type Simulation struct {
	mu sync.Mutex

	cfg    *config.Config
	logger log.Log
	events bus.EventBus
	rng    *rand.Rand
	sinks  []FrameSink

	catalog       []*entry
	byName        map[string]*entry
	byFingerprint map[uint64]*entry

	active   *entry
	running  bool
	strategy crowd.Strategy
	tick     uint64
	metrics  Metrics
	pending  []pendingEvent
}

func New(cfg *config.Config, logger log.Log, events bus.EventBus) *Simulation {
	return &Simulation{
		cfg:           cfg,
		logger:        logger.With(log.String("component", source)),
		events:        events,
		rng:           rand.New(rand.NewPCG(uint64(cfg.Simulation.Seed), 0)),
		byName:        make(map[string]*entry),
		byFingerprint: make(map[uint64]*entry),
		strategy:      cfg.Simulation.Strategy,
	}
}

// AddSink registers a frame receiver. Frames are produced every
// viewer.frame_every ticks.
func (s *Simulation) AddSink(sink FrameSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sinks = append(s.sinks, sink)
}

// AddRoom puts f in the catalog. A file whose geometry is already cataloged
// under another name becomes an alias of that entry.
func (s *Simulation) AddRoom(f *roomfile.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fp := f.Fingerprint()
	if e, ok := s.byName[f.Name]; ok {
		if e.fingerprint != fp {
			return fmt.Errorf("%w: %q", ErrDuplicateRoom, f.Name)
		}
		return nil
	}
	if e, ok := s.byFingerprint[fp]; ok {
		s.byName[f.Name] = e
		s.logger.Debug("room aliased", log.Room(f.Name), log.String("alias_of", e.name))
		return nil
	}

	e := &entry{name: f.Name, file: f, fingerprint: fp}
	s.catalog = append(s.catalog, e)
	s.byName[f.Name] = e
	s.byFingerprint[fp] = e
	s.logger.Debug("room cataloged", log.Room(f.Name), log.Int("obstacles", len(f.Obstacles)))
	return nil
}

// LoadFiles reads and catalogs every room file.
func (s *Simulation) LoadFiles(paths ...string) error {
	for _, path := range paths {
		f, err := roomfile.Load(path)
		if err != nil {
			return err
		}
		if err := s.AddRoom(f); err != nil {
			return err
		}
	}
	return nil
}

// Rooms lists cataloged room names in insertion order, aliases excluded.
func (s *Simulation) Rooms() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, len(s.catalog))
	for i, e := range s.catalog {
		names[i] = e.name
	}
	return names
}

// LoadRoom makes name the active room. The previous room's agents are cleared
// and the simulation is paused. Graphs are built on first load and cached.
func (s *Simulation) LoadRoom(ctx context.Context, name string) error {
	s.mu.Lock()
	err := s.loadRoomLocked(ctx, name)
	pending := s.takePendingLocked()
	s.mu.Unlock()

	s.publish(pending)
	return err
}

func (s *Simulation) loadRoomLocked(ctx context.Context, name string) error {
	e, ok := s.byName[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrRoomNotFound, name)
	}

	if e.room == nil {
		obstacles, exits, err := e.file.Geometry()
		if err != nil {
			return err
		}
		start := time.Now()
		room, err := crowd.NewRoom(ctx, e.file.Width, e.file.Height, obstacles, exits, s.cfg.GraphOptions()...)
		if err != nil {
			return fmt.Errorf("room %q: %w", e.name, err)
		}
		s.logger.Info("navigation graph built",
			log.Room(e.name),
			log.Int("nodes", len(room.Nodes())),
			log.Int("edges", room.EdgeCount()),
			log.Duration("took", time.Since(start)),
		)
		e.room = room
	}

	if s.active != nil {
		s.active.room.Clear()
		s.active.room.OnRemove = nil
		s.queueLocked(s.active.name, bus.RoomUnloaded, s.roomDataLocked(s.active))
	}

	s.active = e
	s.running = false
	e.room.Strategy = s.strategy
	e.room.OnRemove = func(a *crowd.Agent, reason crowd.RemovalReason) {
		s.onRemoveLocked(e.name, a, reason)
	}
	s.queueLocked(e.name, bus.RoomLoaded, s.roomDataLocked(e))
	s.logger.Info("room loaded", log.Room(e.name), log.Strategy(s.strategy))
	return nil
}

// ActiveRoom returns the active room's name, or "" when none is loaded.
func (s *Simulation) ActiveRoom() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return ""
	}
	return s.active.name
}

// Spawn adds an agent at p, which must be free space inside the active room.
func (s *Simulation) Spawn(p geom.Vector) (*crowd.Agent, error) {
	s.mu.Lock()
	a, err := s.spawnLocked(p)
	pending := s.takePendingLocked()
	s.mu.Unlock()

	s.publish(pending)
	return a, err
}

// SpawnRandom adds n agents at uniformly drawn free points.
func (s *Simulation) SpawnRandom(n int) ([]*crowd.Agent, error) {
	s.mu.Lock()
	agents, err := s.spawnRandomLocked(n)
	pending := s.takePendingLocked()
	s.mu.Unlock()

	s.publish(pending)
	return agents, err
}

func (s *Simulation) spawnRandomLocked(n int) ([]*crowd.Agent, error) {
	if s.active == nil {
		return nil, ErrNoActiveRoom
	}
	room := s.active.room
	agents := make([]*crowd.Agent, 0, n)
	for range n {
		placed := false
		for range spawnAttempts {
			p := geom.V(s.rng.Float64()*room.Width, s.rng.Float64()*room.Height)
			if !room.Contains(p) {
				continue
			}
			a, err := s.spawnLocked(p)
			if err != nil {
				return agents, err
			}
			agents = append(agents, a)
			placed = true
			break
		}
		if !placed {
			return agents, fmt.Errorf("%w after %d attempts", ErrNoFreeSpace, spawnAttempts)
		}
	}
	return agents, nil
}

func (s *Simulation) spawnLocked(p geom.Vector) (*crowd.Agent, error) {
	if s.active == nil {
		return nil, ErrNoActiveRoom
	}
	room := s.active.room
	if !room.Contains(p) {
		return nil, fmt.Errorf("%w: %v", ErrBlockedPoint, p)
	}
	a := crowd.NewAgent(p, s.cfg.Agent.Radius, s.cfg.Agent.Speed)
	if err := a.Validate(); err != nil {
		return nil, err
	}
	room.Add(a)
	s.metrics.Spawned++
	s.queueLocked(s.active.name, bus.AgentSpawned, bus.AgentData{
		Room:     s.active.name,
		AgentID:  a.ID,
		Position: p,
		Tick:     s.tick,
	})
	return a, nil
}

// SetStrategy changes the steering strategy of the active room and of rooms
// loaded later.
func (s *Simulation) SetStrategy(strategy crowd.Strategy) {
	s.mu.Lock()
	s.strategy = strategy
	room := ""
	if s.active != nil {
		s.active.room.Strategy = strategy
		room = s.active.name
	}
	s.queueLocked(room, bus.StrategyChanged, bus.StrategyData{Room: room, Strategy: strategy.String()})
	s.logger.Info("strategy changed", log.Strategy(strategy))
	pending := s.takePendingLocked()
	s.mu.Unlock()

	s.publish(pending)
}

func (s *Simulation) Strategy() crowd.Strategy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strategy
}

func (s *Simulation) Pause() {
	s.setRunning(false, bus.SimPaused)
}

func (s *Simulation) Resume() {
	s.setRunning(true, bus.SimResumed)
}

func (s *Simulation) setRunning(running bool, eventType string) {
	s.mu.Lock()
	if s.running == running {
		s.mu.Unlock()
		return
	}
	s.running = running
	room := ""
	if s.active != nil {
		room = s.active.name
	}
	s.queueLocked(room, eventType, nil)
	pending := s.takePendingLocked()
	s.mu.Unlock()

	s.publish(pending)
}

func (s *Simulation) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Clear pauses the simulation and removes every agent of the active room.
func (s *Simulation) Clear() {
	s.mu.Lock()
	s.running = false
	if s.active != nil {
		s.active.room.Clear()
	}
	pending := s.takePendingLocked()
	s.mu.Unlock()

	s.publish(pending)
}

// Tick advances the active room by one tick if the simulation is running. It
// reports whether a tick was performed.
func (s *Simulation) Tick(ctx context.Context) bool {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()
	return s.Step(ctx)
}

// Step advances the active room by one tick whether or not the simulation is
// running.
func (s *Simulation) Step(ctx context.Context) bool {
	s.mu.Lock()
	if s.active == nil {
		s.mu.Unlock()
		return false
	}

	start := time.Now()
	s.tick++
	s.active.room.Update(s.cfg.TickDuration())
	s.metrics.record(time.Since(start), s.active.room.Agents.Len())

	var frame *Frame
	if len(s.sinks) > 0 && s.tick%uint64(max(s.cfg.Viewer.FrameEvery, 1)) == 0 {
		f := s.frameLocked()
		frame = &f
	}
	sinks := s.sinks
	pending := s.takePendingLocked()
	tick := s.tick
	s.mu.Unlock()

	if len(pending) > 0 {
		s.logger.WithContext(log.ContextWithTick(ctx, tick)).Debug("agents removed", log.Int("count", len(pending)))
	}
	s.publish(pending)
	if frame != nil {
		for _, sink := range sinks {
			sink.Publish(*frame)
		}
	}
	return true
}

// RunOptions controls Run.
type RunOptions struct {
	Interval time.Duration
	// MaxTicks stops the run after that many performed ticks when positive.
	MaxTicks int
	// StopWhenEmpty stops the run once a tick leaves the active room empty.
	StopWhenEmpty bool
}

// Run ticks every interval until ctx is done or a stop condition of opts is
// met. Paused periods do not count towards MaxTicks.
func (s *Simulation) Run(ctx context.Context, opts RunOptions) error {
	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	performed := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !s.Tick(ctx) {
				continue
			}
			performed++
			left := s.AgentCount()
			if (opts.MaxTicks > 0 && performed >= opts.MaxTicks) || (opts.StopWhenEmpty && left == 0) {
				s.logger.Info("run finished", log.Int("ticks", performed), log.Int("agents_left", left))
				return nil
			}
		}
	}
}

// AgentCount is the number of live agents in the active room.
func (s *Simulation) AgentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return 0
	}
	return s.active.room.Agents.Len()
}

// Snapshot returns the current frame of the active room.
func (s *Simulation) Snapshot() (Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return Frame{}, ErrNoActiveRoom
	}
	return s.frameLocked(), nil
}

func (s *Simulation) Metrics() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metrics
}

func (s *Simulation) frameLocked() Frame {
	room := s.active.room
	f := Frame{
		Tick:     s.tick,
		Room:     s.active.name,
		Width:    room.Width,
		Height:   room.Height,
		Running:  s.running,
		Strategy: s.strategy.String(),
		Agents:   make([]AgentState, 0, room.Agents.Len()),
	}
	for a := range room.Agents.All() {
		f.Agents = append(f.Agents, AgentState{ID: a.ID, Position: a.Position, Radius: a.Radius})
	}
	if s.cfg.Viewer.Edges {
		f.Edges = room.Edges()
	}
	return f
}

func (s *Simulation) onRemoveLocked(room string, a *crowd.Agent, reason crowd.RemovalReason) {
	var eventType string
	switch reason {
	case crowd.RemovedExited:
		s.metrics.Exited++
		eventType = bus.AgentExited
	case crowd.RemovedStranded:
		s.metrics.Stranded++
		eventType = bus.AgentStranded
		s.logger.Warn("agent stranded", log.Room(room), log.AgentID(a.ID), log.Vector("position", a.Position))
	default:
		s.metrics.Cleared++
		eventType = bus.AgentCleared
	}
	s.queueLocked(room, eventType, bus.AgentData{Room: room, AgentID: a.ID, Position: a.Position, Tick: s.tick})
}

func (s *Simulation) roomDataLocked(e *entry) bus.RoomData {
	return bus.RoomData{
		Room:        e.name,
		Fingerprint: e.fingerprint,
		Obstacles:   len(e.room.Obstacles()),
		Nodes:       len(e.room.Nodes()),
		Edges:       e.room.EdgeCount(),
	}
}

func (s *Simulation) queueLocked(room, eventType string, data any) {
	if s.events == nil {
		return
	}
	s.pending = append(s.pending, pendingEvent{room: room, event: bus.NewEvent(eventType, source, data)})
}

func (s *Simulation) takePendingLocked() []pendingEvent {
	pending := s.pending
	s.pending = nil
	return pending
}

// publish sends events on the room's topic and mirrors them on the default
// topic.
func (s *Simulation) publish(pending []pendingEvent) {
	for _, p := range pending {
		if p.room != "" {
			if err := s.events.PublishToTopic(p.room, p.event); err != nil {
				s.logger.Error("event handler failed", log.String("event", p.event.Type()), log.Error(err))
			}
		}
		if err := s.events.Publish(p.event); err != nil {
			s.logger.Error("event handler failed", log.String("event", p.event.Type()), log.Error(err))
		}
	}
}
