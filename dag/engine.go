package dag

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/rulekit/cas"
	"github.com/kbukum/rulekit/digest"
	"github.com/kbukum/rulekit/logger"
	"github.com/kbukum/rulekit/provider"
)

// errFailFast marks nodes skipped after another node failed under FailFast.
var errFailFast = errors.New("dag: skipped after an earlier failure")

// Engine executes a graph in dependency order.
type Engine struct {
	// MaxParallel limits concurrent nodes per level (0 = unlimited).
	MaxParallel int
	// FailFast cancels running nodes and skips the rest of the graph after
	// the first failure.
	FailFast bool
	// Cache, when set, memoizes node outputs by node identity and the
	// digests of the node's inputs.
	Cache cas.Backend
	// Log receives execution summaries and cache warnings. Nil discards.
	Log *logger.Logger
}

// NewEngine creates an Engine from configuration. cache and log may be nil.
func NewEngine(cfg EngineConfig, cache cas.Backend, log *logger.Logger) *Engine {
	return &Engine{
		MaxParallel: cfg.MaxParallel,
		FailFast:    cfg.FailFast,
		Cache:       cache,
		Log:         log,
	}
}

// ExecuteBatch runs ALL nodes in dependency order, one-shot.
func (e *Engine) ExecuteBatch(ctx context.Context, g *Graph, state *State) (*Result, error) {
	return e.execute(ctx, g, state, nil)
}

// ExecuteFiltered runs only nodes that pass the filter. Nodes that don't
// pass are marked as skipped and keep whatever output state already holds
// for them.
func (e *Engine) ExecuteFiltered(ctx context.Context, g *Graph, state *State, filter NodeFilter) (*Result, error) {
	return e.execute(ctx, g, state, filter)
}

// NodeFilter returns true if a node should execute in this cycle.
type NodeFilter func(nodeName string, state *State) bool

func (e *Engine) execute(ctx context.Context, g *Graph, state *State, filter NodeFilter) (*Result, error) {
	start := time.Now()

	levels, err := BuildLevels(g)
	if err != nil {
		return nil, err
	}
	deps := g.Dependencies()

	result := &Result{
		ExecutionID: uuid.NewString(),
		NodeResults: make(map[string]NodeResult, len(g.Nodes)),
	}
	ctx = logger.ContextWithExecutionID(ctx, result.ExecutionID)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var failed atomic.Bool
	for _, level := range levels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var toRun []string
		for _, name := range level {
			switch {
			case e.FailFast && failed.Load():
				result.NodeResults[name] = skipped(name, errFailFast)
			case filter != nil && !filter(name, state):
				result.NodeResults[name] = skipped(name, nil)
			default:
				if missing := missingInputs(deps[name], state); len(missing) > 0 {
					state.Delete(name)
					result.NodeResults[name] = skipped(name, fmt.Errorf("%w: %v", ErrDependencyFailed, missing))
					continue
				}
				toRun = append(toRun, name)
			}
		}

		if len(toRun) == 0 {
			continue
		}

		e.executeLevel(runCtx, g, deps, state, toRun, result, func() {
			failed.Store(true)
			if e.FailFast {
				cancel()
			}
		})
	}

	result.Duration = time.Since(start)
	e.logger().WithContext(ctx).Info("Execution finished", logger.Fields(
		"nodes", len(result.NodeResults),
		"failed", len(result.Failed()),
		"cached", result.CacheHits(),
		logger.FieldDuration, result.Duration.Milliseconds(),
	))
	return result, nil
}

func skipped(name string, err error) NodeResult {
	return NodeResult{Name: name, Status: StatusSkipped, Error: err}
}

func missingInputs(deps []string, state *State) []string {
	var missing []string
	for _, dep := range deps {
		if !state.Has(dep) {
			missing = append(missing, dep)
		}
	}
	return missing
}

func (e *Engine) executeLevel(ctx context.Context, g *Graph, deps map[string][]string, state *State, names []string, result *Result, onFailure func()) {
	var mu sync.Mutex
	var wg sync.WaitGroup

	sem := make(chan struct{}, e.concurrency(len(names)))

	for _, name := range names {
		wg.Add(1)
		go func(nodeName string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			var nr NodeResult
			if e.FailFast && ctx.Err() != nil {
				nr = skipped(nodeName, errFailFast)
			} else {
				nr = e.executeNode(ctx, g.Nodes[nodeName], deps[nodeName], state)
			}
			if nr.Status == StatusFailed {
				onFailure()
			}
			mu.Lock()
			result.NodeResults[nodeName] = nr
			mu.Unlock()
		}(name)
	}

	wg.Wait()
}

func (e *Engine) executeNode(ctx context.Context, node Node, deps []string, state *State) NodeResult {
	start := time.Now()
	name := node.Name()
	fail := func(err error) NodeResult {
		state.Delete(name)
		return NodeResult{Name: name, Status: StatusFailed, Duration: time.Since(start), Error: err}
	}

	in, inputDigests, err := gatherInputs(deps, state)
	if err != nil {
		return fail(err)
	}

	var key digest.Digest
	if e.Cache != nil {
		key, err = actionKey(node, inputDigests)
		if err != nil {
			return fail(err)
		}
		if out, ok := e.lookup(ctx, name, key); ok {
			d, err := state.Set(name, out)
			if err != nil {
				return fail(err)
			}
			return NodeResult{Name: name, Status: StatusCompleted, Duration: time.Since(start), Output: out, Digest: d, Cached: true}
		}
	}

	out, err := node.Run(ctx, in)
	if err != nil {
		return fail(err)
	}
	if out == nil {
		out = provider.MustBuild()
	}

	d, err := state.Set(name, out)
	if err != nil {
		return fail(err)
	}
	if e.Cache != nil {
		e.store(ctx, name, key, out)
	}

	return NodeResult{Name: name, Status: StatusCompleted, Duration: time.Since(start), Output: out, Digest: d}
}

func gatherInputs(deps []string, state *State) (*Inputs, []inputDigest, error) {
	maps := make(map[string]*provider.Map, len(deps))
	digests := make([]inputDigest, 0, len(deps))
	for _, dep := range deps {
		m, ok, err := state.Get(dep)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrDependencyFailed, dep)
		}
		d, _ := state.Digest(dep)
		maps[dep] = m
		digests = append(digests, inputDigest{Name: dep, Digest: d})
	}
	return NewInputs(maps), digests, nil
}

func (e *Engine) concurrency(levelSize int) int {
	if e.MaxParallel <= 0 || e.MaxParallel > levelSize {
		return levelSize
	}
	return e.MaxParallel
}

func (e *Engine) logger() *logger.Logger {
	if e.Log == nil {
		return logger.Nop()
	}
	return e.Log
}
