package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"github.com/compozy/scenario-mcp/engine/bridge"
	"github.com/compozy/scenario-mcp/engine/core"
	"github.com/compozy/scenario-mcp/engine/schema"
	"github.com/compozy/scenario-mcp/engine/toolschema"
	"github.com/compozy/scenario-mcp/pkg/logger"
	"github.com/compozy/scenario-mcp/pkg/version"
	"github.com/invopop/jsonschema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Bridge is the discovery and invocation surface the dispatcher serves.
type Bridge interface {
	DiscoverTools(ctx context.Context, teamID int64) ([]bridge.Tool, error)
	Invoke(ctx context.Context, toolName string, args map[string]any) (*bridge.Result, error)
	InputSchema(ctx context.Context, toolName string) (*jsonschema.Schema, error)
}

var _ Bridge = (*bridge.Bridge)(nil)

type Options struct {
	TeamID int64
	// ValidateArguments checks call arguments against the tool's input schema
	// before triggering the scenario.
	ValidateArguments bool
}

// CallResult is the payload of a successful tools/call.
type CallResult struct {
	Content    []mcp.Content `json:"content"`
	ToolResult string        `json:"toolResult"`
}

// Dispatcher answers tools/list and tools/call from the bridge and hands every
// other protocol method to the mcp-go server.
type Dispatcher struct {
	bridge Bridge
	base   *server.MCPServer
	opts   Options
}

func NewDispatcher(b Bridge, opts Options) *Dispatcher {
	base := server.NewMCPServer(
		version.ServerName,
		version.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("Each tool runs one on-demand automation scenario and returns its output."),
	)
	return &Dispatcher{bridge: b, base: base, opts: opts}
}

// ListTools discovers the team's tools and renders them as protocol tools.
func (d *Dispatcher) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	tools, err := d.bridge.DiscoverTools(ctx, d.opts.TeamID)
	if err != nil {
		return nil, err
	}
	out := make([]mcp.Tool, 0, len(tools))
	for i := range tools {
		raw, err := toolschema.MarshalSchema(tools[i].InputSchema)
		if err != nil {
			logger.FromContext(ctx).Warn("Skipping tool with unencodable schema",
				"tool", tools[i].Name, "error", err)
			continue
		}
		out = append(out, mcp.NewToolWithRawSchema(tools[i].Name, tools[i].Description, raw))
	}
	return out, nil
}

// CallTool invokes a tool and wraps its normalized output.
func (d *Dispatcher) CallTool(ctx context.Context, name string, args map[string]any) (*CallResult, error) {
	if d.opts.ValidateArguments {
		if err := d.validateArguments(ctx, name, args); err != nil {
			return nil, err
		}
	}
	res, err := d.bridge.Invoke(ctx, name, args)
	if err != nil {
		return nil, err
	}
	return &CallResult{
		Content:    []mcp.Content{mcp.NewTextContent(res.Text)},
		ToolResult: res.Text,
	}, nil
}

func (d *Dispatcher) validateArguments(ctx context.Context, name string, args map[string]any) error {
	s, err := d.bridge.InputSchema(ctx, name)
	if err != nil {
		return err
	}
	raw, err := toolschema.MarshalSchema(s)
	if err != nil {
		return core.Internal("failed to encode input schema", err)
	}
	compiled, err := schema.FromRaw(raw)
	if err != nil {
		return core.Internal("failed to decode input schema", err)
	}
	// Round trip through JSON so numbers reach the validator as float64.
	doc, err := json.Marshal(args)
	if err != nil {
		return core.InvalidRequest("malformed arguments: %s", err.Error())
	}
	var instance any
	if err := json.Unmarshal(doc, &instance); err != nil {
		return core.InvalidRequest("malformed arguments: %s", err.Error())
	}
	if instance == nil {
		instance = map[string]any{}
	}
	if _, err := compiled.Validate(ctx, instance); err != nil {
		var verr *schema.ValidationError
		if errors.As(err, &verr) {
			return core.InvalidRequest("invalid arguments for %s: %s", name, verr.Error())
		}
		return core.Internal("failed to validate arguments", err)
	}
	return nil
}

type envelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  mcp.MCPMethod   `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// HandleMessage processes one JSON-RPC message. It returns nil for
// notifications.
func (d *Dispatcher) HandleMessage(ctx context.Context, message json.RawMessage) mcp.JSONRPCMessage {
	var env envelope
	if err := json.Unmarshal(message, &env); err != nil {
		return d.base.HandleMessage(ctx, message)
	}
	if env.JSONRPC != mcp.JSONRPC_VERSION || !hasID(env.ID) {
		return d.base.HandleMessage(ctx, message)
	}
	switch env.Method {
	case mcp.MethodToolsList:
		return d.handleList(ctx, requestID(env.ID))
	case mcp.MethodToolsCall:
		return d.handleCall(ctx, requestID(env.ID), env.Params)
	default:
		return d.base.HandleMessage(ctx, message)
	}
}

func (d *Dispatcher) handleList(ctx context.Context, id mcp.RequestId) mcp.JSONRPCMessage {
	tools, err := d.ListTools(ctx)
	if err != nil {
		return errorResponse(ctx, id, err)
	}
	return mcp.JSONRPCResponse{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      id,
		Result:  mcp.ListToolsResult{Tools: tools},
	}
}

func (d *Dispatcher) handleCall(ctx context.Context, id mcp.RequestId, params json.RawMessage) mcp.JSONRPCMessage {
	var call struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments,omitempty"`
	}
	if len(params) == 0 {
		return errorResponse(ctx, id, core.InvalidRequest("missing params"))
	}
	if err := json.Unmarshal(params, &call); err != nil {
		return errorResponse(ctx, id, core.InvalidRequest("malformed params: %s", err.Error()))
	}
	args, err := decodeArguments(call.Arguments)
	if err != nil {
		return errorResponse(ctx, id, err)
	}
	result, err := d.CallTool(ctx, call.Name, args)
	if err != nil {
		return errorResponse(ctx, id, err)
	}
	return mcp.JSONRPCResponse{JSONRPC: mcp.JSONRPC_VERSION, ID: id, Result: result}
}

// decodeArguments accepts an absent or null value as no arguments; anything
// other than a JSON object is rejected.
func decodeArguments(raw json.RawMessage) (map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return map[string]any{}, nil
	}
	if raw[0] != '{' {
		return nil, core.InvalidRequest("arguments must be a JSON object")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var args map[string]any
	if err := dec.Decode(&args); err != nil {
		return nil, core.InvalidRequest("malformed arguments: %s", err.Error())
	}
	return args, nil
}

func hasID(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

func requestID(raw json.RawMessage) mcp.RequestId {
	var id mcp.RequestId
	if err := json.Unmarshal(raw, &id); err != nil {
		return mcp.NewRequestId(string(raw))
	}
	return id
}

// errorResponse maps a bridge error onto a JSON-RPC error. Caller mistakes
// become INVALID_REQUEST and everything else INTERNAL_ERROR; the scenario id,
// execution id and remote status travel in the data member.
func errorResponse(ctx context.Context, id mcp.RequestId, err error) mcp.JSONRPCMessage {
	code := mcp.INTERNAL_ERROR
	if core.IsInvalidRequest(err) {
		code = mcp.INVALID_REQUEST
	}
	var data any
	if coreErr, ok := core.AsError(err); ok {
		if fields := coreErr.Fields(); len(fields) > 0 {
			data = fields
		}
	}
	message := core.RedactString(err.Error())
	logger.FromContext(ctx).Debug("Returning error response", "code", code, "error", message)
	return mcp.NewJSONRPCError(id, code, message, data)
}
