package mcpserver

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/compozy/scenario-mcp/engine/bridge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStdioTransport(t *testing.T) {
	t.Run("Should answer each request on its own line", func(t *testing.T) {
		fb := &fakeBridge{
			tools:  []bridge.Tool{mustTool(t, 1, "One")},
			result: &bridge.Result{Text: "done"},
		}
		in := strings.NewReader(strings.Join([]string{
			`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`,
			``,
			`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
			`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"run_scenario_1"}}`,
		}, "\n") + "\n")
		var out bytes.Buffer
		transport := NewStdioTransport(NewDispatcher(fb, Options{}), in, &out)
		require.NoError(t, transport.Serve(context.Background()))

		byID := map[float64]map[string]any{}
		scanner := bufio.NewScanner(&out)
		for scanner.Scan() {
			var msg map[string]any
			require.NoError(t, json.Unmarshal(scanner.Bytes(), &msg))
			byID[msg["id"].(float64)] = msg
		}
		require.Len(t, byID, 2)
		assert.Contains(t, byID[1], "result")
		assert.Equal(t, "done", byID[2]["result"].(map[string]any)["toolResult"])
	})
	t.Run("Should stop when the context is canceled", func(t *testing.T) {
		pr, pw := io.Pipe()
		t.Cleanup(func() { _ = pw.Close() })
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- NewStdioTransport(NewDispatcher(&fakeBridge{}, Options{}), pr, io.Discard).Serve(ctx)
		}()
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("transport did not stop")
		}
	})
}

func newTestServer(t *testing.T, fb *fakeBridge) *Server {
	t.Helper()
	cfg := &Config{Host: "127.0.0.1", Port: 6060, ShutdownTimeout: time.Second}
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("scenario_mcp_invocations_total 0\n"))
	})
	return NewServer(cfg, NewDispatcher(fb, Options{}), metrics)
}

func TestServer(t *testing.T) {
	t.Run("Should report health", func(t *testing.T) {
		srv := newTestServer(t, &fakeBridge{})
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
		srv.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "healthy")
		assert.Contains(t, rr.Body.String(), "version")
	})
	t.Run("Should serve metrics", func(t *testing.T) {
		srv := newTestServer(t, &fakeBridge{})
		rr := httptest.NewRecorder()
		srv.Router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "scenario_mcp_invocations_total")
	})
	t.Run("Should dispatch JSON-RPC posted to /mcp", func(t *testing.T) {
		srv := newTestServer(t, &fakeBridge{result: &bridge.Result{Text: "hello"}})
		body := `{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"run_scenario_3","arguments":{}}}`
		rr := httptest.NewRecorder()
		srv.Router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body)))
		require.Equal(t, http.StatusOK, rr.Code)
		var resp map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "hello", resp["result"].(map[string]any)["toolResult"])
	})
	t.Run("Should accept notifications without a body", func(t *testing.T) {
		srv := newTestServer(t, &fakeBridge{})
		rr := httptest.NewRecorder()
		body := `{"jsonrpc":"2.0","method":"notifications/initialized"}`
		srv.Router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body)))
		assert.Equal(t, http.StatusAccepted, rr.Code)
	})
}

func TestConfig_Validate(t *testing.T) {
	t.Run("Should require host and a valid port", func(t *testing.T) {
		assert.Error(t, (&Config{Port: 80}).Validate())
		assert.Error(t, (&Config{Host: "localhost", Port: 70000}).Validate())
		assert.NoError(t, (&Config{Host: "localhost", Port: 8080}).Validate())
		assert.Equal(t, "localhost:8080", (&Config{Host: "localhost", Port: 8080}).Addr())
	})
}
