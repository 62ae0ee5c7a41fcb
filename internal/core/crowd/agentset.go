package crowd

import (
	"iter"

	"github.com/google/uuid"
)

// AgentSet is the insertion-ordered set of live agents. Agents may be added or
// removed while the set is being ranged over: removed agents are not visited
// again and the remaining agents are each visited exactly once.
type AgentSet struct {
	agents    []*Agent
	index     map[uuid.UUID]int
	iterating int
	holes     int
}

func NewAgentSet() *AgentSet {
	return &AgentSet{index: make(map[uuid.UUID]int)}
}

// Add appends a to the set. It returns false if a is already a member.
func (s *AgentSet) Add(a *Agent) bool {
	if _, ok := s.index[a.ID]; ok {
		return false
	}
	s.index[a.ID] = len(s.agents)
	s.agents = append(s.agents, a)
	return true
}

// Remove deletes a from the set. It returns false if a was not a member.
func (s *AgentSet) Remove(a *Agent) bool {
	i, ok := s.index[a.ID]
	if !ok {
		return false
	}
	delete(s.index, a.ID)
	s.agents[i] = nil
	s.holes++
	s.compact()
	return true
}

func (s *AgentSet) Contains(a *Agent) bool {
	_, ok := s.index[a.ID]
	return ok
}

func (s *AgentSet) Get(id uuid.UUID) (*Agent, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.agents[i], true
}

func (s *AgentSet) Len() int { return len(s.index) }

func (s *AgentSet) Clear() {
	for i := range s.agents {
		s.agents[i] = nil
	}
	s.holes = len(s.agents)
	clear(s.index)
	s.compact()
}

// All yields live agents in insertion order.
func (s *AgentSet) All() iter.Seq[*Agent] {
	return func(yield func(*Agent) bool) {
		s.iterating++
		defer func() {
			s.iterating--
			s.compact()
		}()
		for i := 0; i < len(s.agents); i++ {
			a := s.agents[i]
			if a == nil {
				continue
			}
			if !yield(a) {
				return
			}
		}
	}
}

// Snapshot copies the live agents in insertion order.
func (s *AgentSet) Snapshot() []*Agent {
	out := make([]*Agent, 0, s.Len())
	for _, a := range s.agents {
		if a != nil {
			out = append(out, a)
		}
	}
	return out
}

// compact squeezes out removed slots once no iteration is in progress.
func (s *AgentSet) compact() {
	if s.iterating > 0 || s.holes == 0 {
		return
	}
	live := s.agents[:0]
	for _, a := range s.agents {
		if a != nil {
			s.index[a.ID] = len(live)
			live = append(live, a)
		}
	}
	for i := len(live); i < len(s.agents); i++ {
		s.agents[i] = nil
	}
	s.agents = live
	s.holes = 0
}
