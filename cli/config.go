package cli

import (
	"fmt"
	"io"
	"reflect"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/compozy/scenario-mcp/pkg/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const OutputFormatYAML = "yaml"

// ConfigCmd returns the config command group
func ConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}
	cmd.AddCommand(configShowCmd(), configEnvCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	var format string
	var showSources bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, loader, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			flat := flattenConfig(cfg)
			var sources map[string]config.SourceType
			if showSources {
				sources = make(map[string]config.SourceType, len(flat))
				for key := range flat {
					sources[key] = loader.SourceOf(key)
				}
			}
			return formatConfigOutput(cmd.OutOrStdout(), format, flat, sources)
		},
	}
	cmd.Flags().StringVar(&format, "format", OutputFormatTable, "Output format (table, json, yaml)")
	cmd.Flags().BoolVar(&showSources, "sources", false, "Show which layer supplied each value")
	return cmd
}

func configEnvCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "env",
		Short:       "List the environment variables the server reads",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ENV VAR\tCONFIG KEY\tSENSITIVE")
			for _, m := range config.GenerateEnvMappings() {
				fmt.Fprintf(tw, "%s\t%s\t%t\n", m.EnvVar, m.ConfigPath, m.Sensitive)
			}
			return tw.Flush()
		},
	}
}

func formatConfigOutput(w io.Writer, format string, flat map[string]string, sources map[string]config.SourceType) error {
	switch format {
	case OutputFormatJSON:
		out := map[string]any{"config": flat}
		if sources != nil {
			out["sources"] = sources
		}
		return writeJSON(w, out)
	case OutputFormatYAML:
		out := map[string]any{"config": flat}
		if sources != nil {
			out["sources"] = sources
		}
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(out); err != nil {
			return err
		}
		return encoder.Close()
	case OutputFormatTable:
		return outputTable(w, flat, sources)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func outputTable(w io.Writer, flat map[string]string, sources map[string]config.SourceType) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if sources != nil {
		fmt.Fprintln(tw, "KEY\tVALUE\tSOURCE")
	} else {
		fmt.Fprintln(tw, "KEY\tVALUE")
	}
	for _, key := range keys {
		if sources != nil {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", key, flat[key], sources[key])
		} else {
			fmt.Fprintf(tw, "%s\t%s\n", key, flat[key])
		}
	}
	return tw.Flush()
}

var (
	durationType  = reflect.TypeOf(time.Duration(0))
	sensitiveType = reflect.TypeOf(config.SensitiveString(""))
)

// flattenConfig renders every leaf of cfg under its dotted koanf path.
// Sensitive values are redacted.
func flattenConfig(cfg *config.Config) map[string]string {
	result := make(map[string]string)
	flattenValue(reflect.ValueOf(cfg).Elem(), "", result)
	return result
}

func flattenValue(v reflect.Value, prefix string, result map[string]string) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("koanf")
		if !field.IsExported() || tag == "" || tag == "-" {
			continue
		}
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}
		fv := v.Field(i)
		switch {
		case field.Type == sensitiveType:
			result[key] = fv.Interface().(config.SensitiveString).String()
		case field.Type == durationType:
			result[key] = fv.Interface().(time.Duration).String()
		case fv.Kind() == reflect.Struct:
			flattenValue(fv, key, result)
		default:
			result[key] = fmt.Sprint(fv.Interface())
		}
	}
}
