package dag

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/rulekit/provider"
)

// fakeClock is a manually advanced time source for sessions.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestSession(t *testing.T) (*Session, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	sess := NewSession("test")
	sess.now = clock.Now
	return sess, clock
}

func TestNewSession_GeneratesID(t *testing.T) {
	if NewSession("").ID == "" {
		t.Fatal("expected a generated session id")
	}
}

func TestSession_ReadyFilter_NoSchedule(t *testing.T) {
	sess, _ := newTestSession(t)
	pipeline := &Pipeline{Nodes: []NodeDef{{Component: "always-run"}}}

	filter := sess.ReadyFilter(pipeline, nil)
	if !filter("always-run", sess.State) {
		t.Fatal("expected node with no schedule to be ready")
	}
	if !filter("undeclared", sess.State) {
		t.Fatal("expected undeclared node to be ready")
	}
}

func TestSession_ReadyFilter_Interval(t *testing.T) {
	sess, clock := newTestSession(t)
	pipeline := &Pipeline{
		Nodes: []NodeDef{
			{Component: "periodic", Schedule: &ScheduleConfig{Interval: 100 * time.Millisecond}},
		},
	}

	filter := sess.ReadyFilter(pipeline, nil)
	if !filter("periodic", sess.State) {
		t.Fatal("expected first call to be ready")
	}
	if filter("periodic", sess.State) {
		t.Fatal("expected immediate re-call to be skipped")
	}

	clock.Advance(110 * time.Millisecond)
	if !filter("periodic", sess.State) {
		t.Fatal("expected call after interval to be ready")
	}
}

func TestSession_ReadyFilter_MinBuffer(t *testing.T) {
	sess, clock := newTestSession(t)
	pipeline := &Pipeline{
		Nodes: []NodeDef{
			{Component: "buffered", Schedule: &ScheduleConfig{MinBuffer: 50 * time.Millisecond}},
		},
	}

	filter := sess.ReadyFilter(pipeline, nil)
	if filter("buffered", sess.State) {
		t.Fatal("expected not ready before min_buffer")
	}

	clock.Advance(60 * time.Millisecond)
	if !filter("buffered", sess.State) {
		t.Fatal("expected ready after min_buffer")
	}
}

func TestSession_ReadyFilter_Condition(t *testing.T) {
	sess, _ := newTestSession(t)
	pipeline := &Pipeline{Nodes: []NodeDef{{Component: "conditional", Condition: "has-sources"}}}
	conditions := map[string]ConditionFunc{
		"has-sources": func(state *State) bool { return state.Has("sources") },
	}

	filter := sess.ReadyFilter(pipeline, conditions)
	if filter("conditional", sess.State) {
		t.Fatal("expected not ready without sources")
	}

	if _, err := sess.State.Set("sources", provider.MustBuild(sourceSet{})); err != nil {
		t.Fatal(err)
	}
	if !filter("conditional", sess.State) {
		t.Fatal("expected ready with sources")
	}
}

func TestSession_Execute(t *testing.T) {
	sess, clock := newTestSession(t)
	var sourceRuns, compileRuns atomic.Int32

	sources := Func("sources", func(context.Context, *Inputs) (*provider.Map, error) {
		sourceRuns.Add(1)
		return provider.Build(sourceSet{Files: []string{"a.go"}})
	})
	g := NewGraph(sources, compileNode(&compileRuns)).Connect("sources", "compile")
	pipeline := &Pipeline{
		Name: "watch",
		Mode: ModeIncremental,
		Nodes: []NodeDef{
			{Component: "sources", Schedule: &ScheduleConfig{Interval: time.Second}},
			{Component: "compile", DependsOn: []string{"sources"}},
		},
	}
	engine := &Engine{}

	for range 4 {
		result, err := sess.Execute(context.Background(), engine, g, pipeline, nil)
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if got := result.NodeResults["compile"].Status; got != StatusCompleted {
			t.Fatalf("compile: expected completed, got %s", got)
		}
		clock.Advance(400 * time.Millisecond)
	}

	// sources ran at t=0 and t=1.2s; compile reused its output in between.
	if sourceRuns.Load() != 2 {
		t.Fatalf("sources ran %d times, want 2", sourceRuns.Load())
	}
	if compileRuns.Load() != 4 {
		t.Fatalf("compile ran %d times, want 4", compileRuns.Load())
	}
}
