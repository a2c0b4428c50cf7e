package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/compozy/scenario-mcp/engine/core"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "make-api-key-0123456789"

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MAKE_API_KEY", testAPIKey)
	t.Setenv("MAKE_ZONE", "eu1.make.com")
	t.Setenv("MAKE_TEAM", "42")
	t.Setenv("RESULTS_BASE_URL", "https://results.example.com/")
	t.Setenv("RESULTS_SECRET_KEY", "results-secret")
}

func clearRequiredEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"MAKE_API_KEY", "MAKE_ZONE", "MAKE_TEAM", "RESULTS_BASE_URL", "RESULTS_SECRET_KEY"} {
		t.Setenv(name, "")
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := RootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--env-file=", "--log-level=disabled"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCmd(t *testing.T) {
	t.Run("Should serve when no subcommand is given", func(t *testing.T) {
		root := RootCmd()
		cmd, args, err := root.Find([]string{})
		require.NoError(t, err)
		assert.Empty(t, args)
		assert.Same(t, root, cmd)
		require.NotNil(t, cmd.RunE)
		assert.Equal(t, reflect.ValueOf(handleServeCmd).Pointer(), reflect.ValueOf(cmd.RunE).Pointer())
		for _, name := range []string{"transport", "host", "port", "validate-arguments", "max-concurrency"} {
			assert.NotNil(t, cmd.Flags().Lookup(name), name)
		}
	})
	t.Run("Should load configuration instead of printing help", func(t *testing.T) {
		clearRequiredEnv(t)
		out, err := execute(t)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MAKE_API_KEY")
		assert.NotContains(t, out, "Available Commands")
	})
	t.Run("Should accept serve flags on the root command", func(t *testing.T) {
		setRequiredEnv(t)
		root := RootCmd()
		require.NoError(t, root.ParseFlags([]string{"--transport=http", "--port=9090"}))
		flags := extractCLIFlags(root)
		assert.Equal(t, "http", flags["server.transport"])
		assert.Equal(t, 9090, flags["server.port"])
	})
	t.Run("Should reject unknown positional arguments", func(t *testing.T) {
		setRequiredEnv(t)
		_, err := execute(t, "bogus")
		assert.Error(t, err)
	})
}

func TestVersionCmd(t *testing.T) {
	t.Run("Should run without configuration", func(t *testing.T) {
		clearRequiredEnv(t)
		out, err := execute(t, "version")
		require.NoError(t, err)
		assert.Contains(t, out, "scenario-mcp")
	})
	t.Run("Should print JSON", func(t *testing.T) {
		clearRequiredEnv(t)
		out, err := execute(t, "version", "--json")
		require.NoError(t, err)
		var info map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &info))
		assert.Contains(t, info, "version")
	})
}

func TestSetupGlobalConfig(t *testing.T) {
	t.Run("Should fail naming every missing setting", func(t *testing.T) {
		clearRequiredEnv(t)
		_, err := execute(t, "config", "show")
		require.Error(t, err)
		for _, name := range []string{"MAKE_API_KEY", "MAKE_ZONE", "MAKE_TEAM", "RESULTS_BASE_URL", "RESULTS_SECRET_KEY"} {
			assert.Contains(t, err.Error(), name)
		}
	})
	t.Run("Should let flags override the environment", func(t *testing.T) {
		setRequiredEnv(t)
		out, err := execute(t, "--team=99", "config", "show", "--format=json", "--sources")
		require.NoError(t, err)
		var doc struct {
			Config  map[string]string `json:"config"`
			Sources map[string]string `json:"sources"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &doc))
		assert.Equal(t, "99", doc.Config["automation.team_id"])
		assert.Equal(t, "cli", doc.Sources["automation.team_id"])
		assert.Equal(t, "env", doc.Sources["automation.zone"])
		assert.Equal(t, "https://results.example.com", doc.Config["results.base_url"])
	})
	t.Run("Should read values from a YAML file", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("MAKE_ZONE", "")
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("automation:\n  zone: us1.make.com\n"), 0o600))
		out, err := execute(t, "--config", path, "config", "show", "--format=json")
		require.NoError(t, err)
		assert.Contains(t, out, "us1.make.com")
	})
}

func TestConfigShowCmd(t *testing.T) {
	t.Run("Should never print credentials", func(t *testing.T) {
		setRequiredEnv(t)
		for _, format := range []string{"table", "json", "yaml"} {
			out, err := execute(t, "config", "show", "--format="+format)
			require.NoError(t, err, format)
			assert.NotContains(t, out, testAPIKey, format)
			assert.NotContains(t, out, "results-secret", format)
			assert.Contains(t, out, "[REDACTED]", format)
		}
	})
}

func TestConfigEnvCmd(t *testing.T) {
	t.Run("Should list the environment variables", func(t *testing.T) {
		clearRequiredEnv(t)
		out, err := execute(t, "config", "env")
		require.NoError(t, err)
		assert.Contains(t, out, "MAKE_API_KEY")
		assert.Contains(t, out, "RESULTS_BASE_URL")
	})
}

func TestToolsCallCmd(t *testing.T) {
	t.Run("Should reject an unknown tool before any network call", func(t *testing.T) {
		setRequiredEnv(t)
		_, err := execute(t, "tools", "call", "not_a_tool", "--args", `{"a":1}`)
		require.Error(t, err)
		assert.True(t, core.IsInvalidRequest(err))
	})
	t.Run("Should reject non-object arguments", func(t *testing.T) {
		setRequiredEnv(t)
		_, err := execute(t, "tools", "call", "run_scenario_1", "--args", `[1]`)
		assert.ErrorContains(t, err, "must be a JSON object")
	})
}

func TestReadToolArgs(t *testing.T) {
	newCmd := func() *cobra.Command {
		cmd := toolsCallCmd()
		return cmd
	}
	t.Run("Should default to an empty object", func(t *testing.T) {
		args, err := readToolArgs(newCmd())
		require.NoError(t, err)
		assert.Equal(t, map[string]any{}, args)
	})
	t.Run("Should keep numbers exact", func(t *testing.T) {
		cmd := newCmd()
		require.NoError(t, cmd.Flags().Set("args", `{"n":12345678901234567890}`))
		args, err := readToolArgs(cmd)
		require.NoError(t, err)
		assert.Equal(t, json.Number("12345678901234567890"), args["n"])
	})
	t.Run("Should read arguments from a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "args.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"email":"a@b.c"}`), 0o600))
		cmd := newCmd()
		require.NoError(t, cmd.Flags().Set("args-file", path))
		args, err := readToolArgs(cmd)
		require.NoError(t, err)
		assert.Equal(t, "a@b.c", args["email"])
	})
	t.Run("Should read arguments from stdin", func(t *testing.T) {
		cmd := newCmd()
		cmd.SetIn(bytes.NewBufferString(`{"x":true}`))
		require.NoError(t, cmd.Flags().Set("args-file", "-"))
		args, err := readToolArgs(cmd)
		require.NoError(t, err)
		assert.Equal(t, true, args["x"])
	})
	t.Run("Should reject both sources at once", func(t *testing.T) {
		cmd := newCmd()
		require.NoError(t, cmd.Flags().Set("args", `{}`))
		require.NoError(t, cmd.Flags().Set("args-file", "x.json"))
		_, err := readToolArgs(cmd)
		assert.ErrorContains(t, err, "mutually exclusive")
	})
}

func TestParameterSummary(t *testing.T) {
	t.Run("Should list properties in order and mark required ones", func(t *testing.T) {
		raw := json.RawMessage(`{"type":"object","properties":{"b":{"type":"string"},"a":{"type":"number"}},"required":["a"]}`)
		assert.Equal(t, "b, a*", parameterSummary(raw))
	})
	t.Run("Should show a dash without parameters", func(t *testing.T) {
		assert.Equal(t, "-", parameterSummary(json.RawMessage(`{"type":"object","properties":{}}`)))
	})
}

func TestIsPathWithinDirectory(t *testing.T) {
	t.Run("Should detect paths outside the directory", func(t *testing.T) {
		dir := t.TempDir()
		assert.True(t, isPathWithinDirectory(filepath.Join(dir, ".env"), dir))
		assert.False(t, isPathWithinDirectory(filepath.Join(dir, "..", "other", ".env"), dir))
	})
}
