package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/compozy/scenario-mcp/pkg/config"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

const (
	OutputFormatJSON  = "json"
	OutputFormatTable = "table"
)

// ToolsCmd returns the tools command group
func ToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect and run scenario tools without an MCP client",
	}
	cmd.PersistentFlags().String("format", "", "Output format (table, json); defaults to table on a terminal")
	cmd.AddCommand(toolsListCmd(), toolsCallCmd())
	return cmd
}

func toolsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the tools derived from on-demand scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(config.FromContext(cmd.Context()))
			if err != nil {
				return err
			}
			tools, err := a.dispatcher.ListTools(cmd.Context())
			if err != nil {
				return err
			}
			return writeTools(cmd.OutOrStdout(), outputFormat(cmd), tools)
		},
	}
}

func toolsCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call TOOL",
		Short: "Run one tool and print its output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			toolArgs, err := readToolArgs(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(config.FromContext(cmd.Context()))
			if err != nil {
				return err
			}
			result, err := a.dispatcher.CallTool(cmd.Context(), args[0], toolArgs)
			if err != nil {
				return err
			}
			if outputFormat(cmd) == OutputFormatJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), result.ToolResult)
			return err
		},
	}
	cmd.Flags().String("args", "", "Tool arguments as a JSON object")
	cmd.Flags().String("args-file", "", "Read tool arguments from a JSON file ('-' for stdin)")
	return cmd
}

func readToolArgs(cmd *cobra.Command) (map[string]any, error) {
	inline, err := cmd.Flags().GetString("args")
	if err != nil {
		return nil, err
	}
	file, err := cmd.Flags().GetString("args-file")
	if err != nil {
		return nil, err
	}
	var raw []byte
	switch {
	case inline != "" && file != "":
		return nil, fmt.Errorf("--args and --args-file are mutually exclusive")
	case inline != "":
		raw = []byte(inline)
	case file == "-":
		raw, err = io.ReadAll(cmd.InOrStdin())
	case file != "":
		raw, err = os.ReadFile(file)
	default:
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read tool arguments: %w", err)
	}
	var args map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&args); err != nil {
		return nil, fmt.Errorf("tool arguments must be a JSON object: %w", err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

func outputFormat(cmd *cobra.Command) string {
	if format, err := cmd.Flags().GetString("format"); err == nil && format != "" {
		return strings.ToLower(format)
	}
	if f, ok := cmd.OutOrStdout().(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return OutputFormatTable
	}
	return OutputFormatJSON
}

func writeTools(w io.Writer, format string, tools []mcp.Tool) error {
	switch format {
	case OutputFormatJSON:
		return writeJSON(w, map[string]any{"tools": tools})
	case OutputFormatTable:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tDESCRIPTION\tPARAMETERS")
		fmt.Fprintln(tw, "----\t-----------\t----------")
		for i := range tools {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", tools[i].Name, tools[i].Description, parameterSummary(tools[i].RawInputSchema))
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// parameterSummary lists top-level parameters in schema order, marking
// required ones with *.
func parameterSummary(raw json.RawMessage) string {
	required := make(map[string]bool)
	for _, name := range gjson.GetBytes(raw, "required").Array() {
		required[name.String()] = true
	}
	var parts []string
	gjson.GetBytes(raw, "properties").ForEach(func(key, _ gjson.Result) bool {
		name := key.String()
		if required[name] {
			name += "*"
		}
		parts = append(parts, name)
		return true
	})
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
