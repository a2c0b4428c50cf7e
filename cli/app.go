package cli

import (
	"fmt"

	"github.com/compozy/scenario-mcp/engine/automation"
	"github.com/compozy/scenario-mcp/engine/bridge"
	"github.com/compozy/scenario-mcp/engine/results"
	"github.com/compozy/scenario-mcp/pkg/config"
	"github.com/compozy/scenario-mcp/pkg/mcpserver"
)

// app wires the remote clients, the bridge and the protocol dispatcher from
// one loaded configuration.
type app struct {
	config     *config.Config
	bridge     *bridge.Bridge
	metrics    *bridge.Metrics
	dispatcher *mcpserver.Dispatcher
}

func newApp(cfg *config.Config) (*app, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	catalog, err := automation.New(automation.OptionsFromConfig(&cfg.Automation))
	if err != nil {
		return nil, fmt.Errorf("failed to create automation client: %w", err)
	}
	store, err := results.New(results.OptionsFromConfig(&cfg.Results))
	if err != nil {
		return nil, fmt.Errorf("failed to create results client: %w", err)
	}
	metrics := bridge.NewMetrics()
	b := bridge.New(catalog, store,
		bridge.WithMaxConcurrency(cfg.Discovery.MaxConcurrency),
		bridge.WithMetrics(metrics),
	)
	dispatcher := mcpserver.NewDispatcher(b, mcpserver.Options{
		TeamID:            cfg.Automation.TeamID,
		ValidateArguments: cfg.Server.ValidateArguments,
	})
	return &app{config: cfg, bridge: b, metrics: metrics, dispatcher: dispatcher}, nil
}
