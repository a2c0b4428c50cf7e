package bridge

import (
	"context"

	"github.com/compozy/scenario-mcp/engine/automation"
	"github.com/compozy/scenario-mcp/engine/results"
	"github.com/compozy/scenario-mcp/engine/scenario"
)

// Catalog is the slice of the automation platform the bridge depends on.
type Catalog interface {
	ListScenarios(ctx context.Context, teamID int64) ([]scenario.Scenario, error)
	GetInterface(ctx context.Context, scenarioID int64) (*scenario.Interface, error)
	RunScenario(ctx context.Context, scenarioID int64, args map[string]any) (*scenario.Execution, error)
}

// Results fetches the stored outcome of an execution.
type Results interface {
	Retrieve(ctx context.Context, executionID string) (*results.Payload, error)
}

var (
	_ Catalog = (*automation.Client)(nil)
	_ Results = (*results.Client)(nil)
)

// Bridge turns on-demand scenarios into tools and runs them.
type Bridge struct {
	catalog        Catalog
	results        Results
	metrics        *Metrics
	maxConcurrency int
}

type Option func(*Bridge)

// WithMaxConcurrency bounds the interface fetches in flight during discovery.
// Zero or less means unbounded.
func WithMaxConcurrency(n int) Option {
	return func(b *Bridge) {
		b.maxConcurrency = n
	}
}

func WithMetrics(m *Metrics) Option {
	return func(b *Bridge) {
		if m != nil {
			b.metrics = m
		}
	}
}

func New(catalog Catalog, res Results, opts ...Option) *Bridge {
	b := &Bridge{catalog: catalog, results: res}
	for _, opt := range opts {
		opt(b)
	}
	if b.metrics == nil {
		b.metrics = NewMetrics()
	}
	return b
}

// Metrics returns the collector the bridge records into.
func (b *Bridge) Metrics() *Metrics {
	return b.metrics
}
