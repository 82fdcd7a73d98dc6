package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/stepflow/internal/registry"
)

// ExecutionRecord holds the start and end times for a single step's execution.
type ExecutionRecord struct {
	Start time.Time
	End   time.Time
}

// MockSleeperModule is a shared, self-contained module for concurrency tests.
// It registers a "sleeper" kind and records the execution time of each step
// that uses it.
type MockSleeperModule struct {
	ExecutionTimes map[string]*ExecutionRecord
	mu             sync.Mutex
	sleepDuration  time.Duration
	completionChan chan<- string
}

// NewMockSleeperModule creates a new sleeper module for testing.
func NewMockSleeperModule(completionChan chan<- string, sleep time.Duration) *MockSleeperModule {
	return &MockSleeperModule{
		ExecutionTimes: make(map[string]*ExecutionRecord),
		sleepDuration:  sleep,
		completionChan: completionChan,
	}
}

// Record returns the execution record for an id, or nil.
func (m *MockSleeperModule) Record(id string) *ExecutionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ExecutionTimes[id]
}

// Register registers the "sleeper" kind.
func (m *MockSleeperModule) Register(r *registry.Registry) {
	type sleeperInput struct {
		ID string `cty:"id"`
		// After exists only to let documents draw an edge into a sleeper.
		After cty.Value `cty:"after"`
	}

	r.RegisterKind(&registry.KindDefinition{
		Name:    "sleeper",
		Version: "1",
		Inputs: map[string]*registry.InputDefinition{
			"id":    {Type: cty.String, Required: true},
			"after": {Type: cty.DynamicPseudoType},
		},
	}, &registry.RegisteredKind{
		NewInput: func() any { return new(sleeperInput) },
		Fn: func(ctx context.Context, input *sleeperInput) (cty.Value, error) {
			startTime := time.Now()
			select {
			case <-time.After(m.sleepDuration):
			case <-ctx.Done():
				return cty.NilVal, ctx.Err()
			}
			endTime := time.Now()

			m.mu.Lock()
			m.ExecutionTimes[input.ID] = &ExecutionRecord{Start: startTime, End: endTime}
			m.mu.Unlock()

			if m.completionChan != nil {
				m.completionChan <- input.ID
			}
			return cty.StringVal(input.ID), nil
		},
	})
}
