package cli

import (
	"context"
	"fmt"

	"github.com/compozy/scenario-mcp/pkg/config"
	"github.com/compozy/scenario-mcp/pkg/logger"
	"github.com/spf13/cobra"
)

// skipConfigAnnotation marks commands that run without loading configuration.
const skipConfigAnnotation = "skip-config"

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "scenario-mcp",
		Short:         "Expose on-demand automation scenarios as MCP tools",
		Long:          "Expose on-demand automation scenarios as MCP tools.\nWithout a subcommand the server is started, as with serve.",
		Args:          cobra.NoArgs,
		RunE:          handleServeCmd,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[skipConfigAnnotation] == "true" {
				return nil
			}
			return SetupGlobalConfig(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "Path to a YAML configuration file")
	flags.String("env-file", ".env", "Path to the environment variables file")
	flags.String("log-level", "", "Log level (debug, info, warn, error, disabled)")
	flags.Bool("log-json", false, "Output logs in JSON format")
	flags.Bool("log-source", false, "Include source file and line in logs")
	flags.Bool("debug", false, "Enable debug mode (sets log level to debug)")
	flags.String("zone", "", "Automation platform zone host, e.g. eu1.make.com")
	flags.Int64("team", 0, "Team whose scenarios are exposed")
	flags.String("results-url", "", "Base URL of the results service")
	addServeFlags(root)

	root.AddCommand(
		ServeCmd(),
		ToolsCmd(),
		ConfigCmd(),
		VersionCmd(),
	)
	return root
}

// SetupGlobalConfig loads the env file and every configuration source, then
// installs the resulting config and logger on the command context.
func SetupGlobalConfig(cmd *cobra.Command) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := logger.SetupLogger(logger.LogLevel(cfg.Runtime.LogLevel), cfg.Runtime.LogJSON, cfg.Runtime.LogSource)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logger.ContextWithLogger(ctx, log)
	ctx = config.ContextWithConfig(ctx, cfg)
	cmd.SetContext(ctx)
	log.Debug("Configuration loaded", "team_id", cfg.Automation.TeamID, "zone", cfg.Automation.Zone)
	return nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, *config.Loader, error) {
	if _, err := loadEnvFile(cmd); err != nil {
		return nil, nil, err
	}
	var sources []config.Source
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	if configFile != "" {
		sources = append(sources, config.NewYAMLProvider(configFile))
	}
	sources = append(sources, config.NewCLIProvider(extractCLIFlags(cmd)))
	loader := config.NewLoader()
	cfg, err := loader.Load(cmd.Context(), sources...)
	if err != nil {
		return nil, nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, loader, nil
}
