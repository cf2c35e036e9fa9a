package dag

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/kbukum/rulekit/digest"
	"github.com/kbukum/rulekit/provider"
)

// Node statuses.
const (
	StatusCompleted = "completed"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// ErrDependencyFailed marks nodes skipped because a dependency produced no
// output in this execution.
var ErrDependencyFailed = errors.New("dag: dependency failed")

// Result holds the outcome of a graph execution.
type Result struct {
	ExecutionID string
	NodeResults map[string]NodeResult
	Duration    time.Duration
}

// NodeResult holds the outcome of a single node execution.
type NodeResult struct {
	Name     string
	Status   string
	Duration time.Duration
	Output   *provider.Map
	Digest   digest.Digest
	// Cached is set when Output came from the result cache instead of Run.
	Cached bool
	Error  error
}

// Failed returns the names of failed nodes, sorted.
func (r *Result) Failed() []string {
	var names []string
	for name, nr := range r.NodeResults {
		if nr.Status == StatusFailed {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// Err joins the errors of every failed node, or returns nil.
func (r *Result) Err() error {
	var errs []error
	for _, name := range r.Failed() {
		errs = append(errs, fmt.Errorf("node %q: %w", name, r.NodeResults[name].Error))
	}
	return errors.Join(errs...)
}

// CacheHits counts nodes served from the result cache.
func (r *Result) CacheHits() int {
	n := 0
	for _, nr := range r.NodeResults {
		if nr.Cached {
			n++
		}
	}
	return n
}
