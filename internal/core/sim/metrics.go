package sim

import "time"

// Metrics counts agent lifecycle events and tick timings since start.
type Metrics struct {
	Ticks    uint64
	Spawned  uint64
	Exited   uint64
	Stranded uint64
	Cleared  uint64

	TotalTickTime   time.Duration
	AverageTickTime time.Duration
	MaxTickTime     time.Duration
	MinTickTime     time.Duration
	LastTickAt      time.Time
	AgentsProcessed uint64
}

func (m *Metrics) record(took time.Duration, agents int) {
	m.Ticks++
	m.TotalTickTime += took
	m.AverageTickTime = m.TotalTickTime / time.Duration(m.Ticks)
	if took > m.MaxTickTime {
		m.MaxTickTime = took
	}
	if m.Ticks == 1 || took < m.MinTickTime {
		m.MinTickTime = took
	}
	m.LastTickAt = time.Now()
	m.AgentsProcessed += uint64(agents)
}
