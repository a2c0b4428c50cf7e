package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/compozy/scenario-mcp/pkg/config"
	"github.com/compozy/scenario-mcp/pkg/logger"
	"github.com/compozy/scenario-mcp/pkg/mcpserver"
	"github.com/spf13/cobra"
)

const (
	transportStdio = "stdio"
	transportHTTP  = "http"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		Long:  "Serve on-demand scenarios as MCP tools over stdio (default) or HTTP.",
		Args:  cobra.NoArgs,
		RunE:  handleServeCmd,
	}
	addServeFlags(cmd)
	return cmd
}

// addServeFlags registers the serve flags on cmd. The root command carries
// them too since serving is its default action.
func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().String("transport", transportStdio, "Transport to serve on (stdio, http)")
	cmd.Flags().String("host", "", "Host to bind the HTTP transport to")
	cmd.Flags().Int("port", 0, "Port for the HTTP transport")
	cmd.Flags().Bool("validate-arguments", false, "Validate call arguments against the tool schema")
	cmd.Flags().Int("max-concurrency", 0, "Maximum interface fetches in flight during discovery (0 = unbounded)")
}

func handleServeCmd(cmd *cobra.Command, _ []string) error {
	cfg := config.FromContext(cmd.Context())
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	log := logger.FromContext(ctx)
	log.Info("Starting scenario MCP server",
		"transport", cfg.Server.Transport,
		"team_id", cfg.Automation.TeamID,
		"zone", cfg.Automation.Zone)
	return serve(ctx, a)
}

func serve(ctx context.Context, a *app) error {
	switch a.config.Server.Transport {
	case transportStdio, "":
		return mcpserver.NewStdioTransport(a.dispatcher, os.Stdin, os.Stdout).Serve(ctx)
	case transportHTTP:
		srv := mcpserver.NewServer(mcpserver.ConfigFromServer(&a.config.Server), a.dispatcher, a.metrics.Handler())
		return srv.Start(ctx)
	default:
		return fmt.Errorf("unsupported transport %q", a.config.Server.Transport)
	}
}
