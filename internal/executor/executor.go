// Package executor walks a step graph in dependency order, invoking each
// kind's handler once all referenced results are available, caching results
// by step name, and recovering from per-step failures by skipping the failed
// step's transitive dependents while independent branches keep running.
package executor

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/vk/stepflow/internal/cache"
	"github.com/vk/stepflow/internal/ctxlog"
	"github.com/vk/stepflow/internal/dag"
	"github.com/vk/stepflow/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Executor runs one graph. It is built per run and not reused.
type Executor struct {
	graph   *dag.Graph
	reg     *registry.Registry
	cache   cache.Cache
	fps     map[string]string
	workers int

	// results maps step name -> cty.Value. The control loop is the only
	// writer; worker goroutines read dependency results concurrently, which
	// is the access pattern sync.Map is built for.
	results sync.Map
}

// Options configures an Executor.
type Options struct {
	// Workers caps the number of steps executing concurrently. Zero or
	// negative means 1, which also makes execution order fully
	// deterministic.
	Workers int
	// Cache receives and serves step results. Nil disables caching.
	Cache cache.Cache
	// Fingerprints maps step name -> argument fingerprint, as produced by
	// the fingerprint package.
	Fingerprints map[string]string
}

// New creates an Executor for a validated graph.
func New(graph *dag.Graph, reg *registry.Registry, opts Options) *Executor {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	return &Executor{
		graph:   graph,
		reg:     reg,
		cache:   opts.Cache,
		fps:     opts.Fingerprints,
		workers: workers,
	}
}

// completion is the message a worker sends back to the control loop.
type completion struct {
	node  *dag.Node
	state State
	value cty.Value
	err   error
	// fatal carries an InternalConsistencyError that must abort the run.
	fatal error
}

// Run executes the graph and returns a summary of every step's outcome. The
// returned error is non-nil only for internal invariant violations; per-step
// failures are reported through the summary.
//
// Cancellation: in-flight steps observe ctx and are waited for; steps that
// never started stay Pending so a later run can resume from the cache.
func (e *Executor) Run(ctx context.Context) (*Summary, error) {
	runID := uuid.NewString()
	logger := ctxlog.FromContext(ctx).With("run_id", runID)

	states := make(map[string]State, e.graph.Len())
	stepErrs := make(map[string]error)
	indegree := make(map[string]int, e.graph.Len())

	var ready []*dag.Node
	for _, node := range e.graph.Ordered() {
		states[node.Name] = Pending
		indegree[node.Name] = len(node.Deps)
		if len(node.Deps) == 0 {
			ready = append(ready, node)
		}
	}
	logger.Debug("Executor initialized.", "steps", e.graph.Len(), "roots", len(ready), "workers", e.workers)

	compCh := make(chan completion, e.graph.Len())
	inFlight := 0

	for {
		for inFlight < e.workers && len(ready) > 0 && ctx.Err() == nil {
			node := ready[0]
			ready = ready[1:]
			states[node.Name] = Running
			inFlight++
			logger.Debug("Dispatching step.", "step", node.Name, "kind", node.Spec.Kind)
			go e.runStep(ctx, node, compCh)
		}
		if inFlight == 0 {
			break
		}

		c := <-compCh
		inFlight--

		if c.fatal != nil {
			logger.Error("Aborting run on internal consistency error.", "step", c.node.Name, "error", c.fatal)
			return nil, c.fatal
		}

		switch c.state {
		case Succeeded, Cached:
			states[c.node.Name] = c.state
			if _, loaded := e.results.LoadOrStore(c.node.Name, c.value); loaded {
				return nil, internalErrf("step %q completed twice", c.node.Name)
			}
			logger.Info("Step finished.", "step", c.node.Name, "state", c.state.String())
			for _, depName := range e.graph.DependentsOf(c.node.Name) {
				indegree[depName]--
				if indegree[depName] == 0 && states[depName] == Pending {
					ready = insertByDeclOrder(ready, e.graph.Step(depName))
				}
			}
		case Failed:
			states[c.node.Name] = Failed
			stepErrs[c.node.Name] = c.err
			logger.Error("Step failed.", "step", c.node.Name, "error", c.err)
			if errors.Is(c.err, context.Canceled) || errors.Is(c.err, context.DeadlineExceeded) {
				// Interrupted rather than broken: leave dependents Pending so
				// a resumed run can still execute them.
				continue
			}
			for _, name := range e.graph.TransitiveDependentsOf(c.node.Name) {
				if states[name] == Pending {
					logger.Warn("Skipping step due to upstream failure.", "step", name, "failed_ancestor", c.node.Name)
					states[name] = Skipped
					stepErrs[name] = errors.New("skipped due to upstream failure of '" + c.node.Name + "'")
				}
			}
		default:
			return nil, internalErrf("step %q reported unexpected state %s", c.node.Name, c.state)
		}
	}

	summary := e.buildSummary(runID, states, stepErrs)
	logger.Info("Run complete.",
		"succeeded", len(summary.Succeeded),
		"cached", len(summary.Cached),
		"failed", len(summary.Failed),
		"skipped", len(summary.Skipped),
		"pending", len(summary.Pending),
	)
	return summary, nil
}

// runStep executes a single step: cache probe, materialization, handler
// invocation, cache store.
func (e *Executor) runStep(ctx context.Context, node *dag.Node, compCh chan<- completion) {
	logger := ctxlog.FromContext(ctx).With("step", node.Name)
	step := node.Spec

	key := cache.Key{Step: step.Name, Fingerprint: e.fps[step.Name]}
	if e.cache != nil && step.Cacheable {
		val, hit, err := e.cache.Get(ctx, key)
		if err != nil {
			logger.Warn("Cache probe failed, executing step anyway.", "error", err)
		} else if hit {
			logger.Debug("Cache hit.", "fingerprint", key.Fingerprint)
			compCh <- completion{node: node, state: Cached, value: val}
			return
		}
	}

	kind := e.reg.Kind(step.Kind)
	if kind == nil {
		compCh <- completion{node: node, fatal: internalErrf("step %q was scheduled with unregistered kind %q", step.Name, step.Kind)}
		return
	}

	args, err := e.materialize(step, kind)
	if err != nil {
		var ice *InternalConsistencyError
		if errors.As(err, &ice) {
			compCh <- completion{node: node, fatal: err}
			return
		}
		compCh <- completion{node: node, state: Failed, err: &StepExecutionError{Step: step.Name, Err: err}}
		return
	}

	logger.Debug("Invoking kind handler.", "kind", step.Kind)
	val, err := e.invoke(ctx, step, kind, args)
	if err != nil {
		compCh <- completion{node: node, state: Failed, err: &StepExecutionError{Step: step.Name, Err: err}}
		return
	}

	if e.cache != nil && step.Cacheable {
		if err := e.cache.Put(ctx, key, val); err != nil {
			logger.Warn("Failed to store step result in cache.", "error", err)
		}
	}
	compCh <- completion{node: node, state: Succeeded, value: val}
}

// insertByDeclOrder keeps the ready queue sorted by declaration order so the
// dispatch sequence is reproducible.
func insertByDeclOrder(ready []*dag.Node, node *dag.Node) []*dag.Node {
	i := 0
	for i < len(ready) && ready[i].Spec.DeclIndex() < node.Spec.DeclIndex() {
		i++
	}
	ready = append(ready, nil)
	copy(ready[i+1:], ready[i:])
	ready[i] = node
	return ready
}
