package dag

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session carries state across repeated incremental executions of one
// pipeline. Nodes that are not ready in a cycle keep their previous output,
// so dependents keep seeing it.
type Session struct {
	// ID is the session identifier.
	ID string
	// State is the shared state across execution cycles.
	State *State

	now       func() time.Time
	mu        sync.Mutex
	schedules map[string]*scheduleState
}

// NewSession creates a new incremental session. An empty id is replaced by
// a random one.
func NewSession(id string) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	return &Session{
		ID:        id,
		State:     NewState(),
		now:       time.Now,
		schedules: make(map[string]*scheduleState),
	}
}

type scheduleState struct {
	lastRun   time.Time
	firstSeen time.Time
}

// ConditionFunc evaluates whether a node should run based on state.
type ConditionFunc func(state *State) bool

// ReadyFilter returns a NodeFilter that checks schedule + conditions.
// A node is ready when its condition (if any) holds and, if it has a
// schedule, its min_buffer has passed since it was first seen and its
// interval has passed since its last run. Nodes the pipeline does not
// declare are always ready.
func (s *Session) ReadyFilter(pipeline *Pipeline, conditions map[string]ConditionFunc) NodeFilter {
	nodeDefs := make(map[string]NodeDef, len(pipeline.Nodes))
	for _, def := range pipeline.Nodes {
		nodeDefs[def.Component] = def
	}

	return func(nodeName string, state *State) bool {
		s.mu.Lock()
		defer s.mu.Unlock()

		def, ok := nodeDefs[nodeName]
		if !ok {
			return true
		}

		if def.Condition != "" {
			if condFn, exists := conditions[def.Condition]; exists && !condFn(state) {
				return false
			}
		}

		if def.Schedule == nil {
			return true
		}

		now := s.now()
		sched, exists := s.schedules[nodeName]
		if !exists {
			sched = &scheduleState{firstSeen: now}
			s.schedules[nodeName] = sched
		}

		if def.Schedule.MinBuffer > 0 && now.Sub(sched.firstSeen) < def.Schedule.MinBuffer {
			return false
		}
		if def.Schedule.Interval > 0 && !sched.lastRun.IsZero() && now.Sub(sched.lastRun) < def.Schedule.Interval {
			return false
		}

		sched.lastRun = now
		return true
	}
}

// Execute runs one incremental cycle of g over the session state.
func (s *Session) Execute(ctx context.Context, e *Engine, g *Graph, pipeline *Pipeline, conditions map[string]ConditionFunc) (*Result, error) {
	return e.ExecuteFiltered(ctx, g, s.State, s.ReadyFilter(pipeline, conditions))
}
