package bridge

import (
	"context"
	"time"

	"github.com/compozy/scenario-mcp/engine/core"
	"github.com/compozy/scenario-mcp/engine/scenario"
	"github.com/compozy/scenario-mcp/engine/toolschema"
	"github.com/compozy/scenario-mcp/pkg/logger"
	"github.com/invopop/jsonschema"
	"golang.org/x/sync/errgroup"
)

// DiscoverTools lists the team's scenarios and returns one tool per
// on-demand scenario whose interface could be loaded and remapped, in
// listing order. Scenarios that fail are logged and left out.
func (b *Bridge) DiscoverTools(ctx context.Context, teamID int64) ([]Tool, error) {
	log := logger.FromContext(ctx).With("team_id", teamID)
	start := time.Now()
	all, err := b.catalog.ListScenarios(ctx, teamID)
	if err != nil {
		b.metrics.discoveryFinished(outcomeError, 0)
		log.Error("Failed to list scenarios", "error", core.RedactError(err))
		return nil, core.Internal("failed to list scenarios", err)
	}
	candidates := scenario.FilterOnDemand(all)
	slots := make([]*Tool, len(candidates))
	// Plain group: a failed branch must not cancel its siblings.
	var group errgroup.Group
	if b.maxConcurrency > 0 {
		group.SetLimit(b.maxConcurrency)
	}
	for i := range candidates {
		sc := &candidates[i]
		group.Go(func() error {
			tool, err := b.buildTool(ctx, sc)
			if err != nil {
				b.metrics.scenarioDropped()
				log.Warn("Skipping scenario",
					"scenario_id", sc.ID,
					"scenario_name", sc.Name,
					"error", core.RedactError(err))
				return nil
			}
			slots[i] = tool
			return nil
		})
	}
	_ = group.Wait()
	tools := make([]Tool, 0, len(slots))
	for _, tool := range slots {
		if tool != nil {
			tools = append(tools, *tool)
		}
	}
	b.metrics.discoveryFinished(outcomeSuccess, len(tools))
	log.Info("Discovered tools",
		"scenarios", len(all),
		"on_demand", len(candidates),
		"tools", len(tools),
		"duration", time.Since(start))
	return tools, nil
}

func (b *Bridge) buildTool(ctx context.Context, sc *scenario.Scenario) (*Tool, error) {
	schema, err := b.loadSchema(ctx, sc.ID)
	if err != nil {
		return nil, err
	}
	return &Tool{
		Name:        ToolName(sc.ID),
		Description: Describe(sc),
		ScenarioID:  sc.ID,
		InputSchema: schema,
	}, nil
}

// InputSchema loads and remaps the input schema of a single tool.
func (b *Bridge) InputSchema(ctx context.Context, toolName string) (*jsonschema.Schema, error) {
	id, err := ParseToolName(toolName)
	if err != nil {
		return nil, err
	}
	return b.loadSchema(ctx, id)
}

func (b *Bridge) loadSchema(ctx context.Context, scenarioID int64) (*jsonschema.Schema, error) {
	iface, err := b.catalog.GetInterface(ctx, scenarioID)
	if err != nil {
		return nil, core.Internal("failed to fetch scenario interface", err).WithScenario(scenarioID)
	}
	schema, err := toolschema.RemapInterface(iface.Input)
	if err != nil {
		return nil, core.Internal("failed to remap scenario interface", err).WithScenario(scenarioID)
	}
	return schema, nil
}
