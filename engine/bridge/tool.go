package bridge

import (
	"regexp"
	"strconv"

	"github.com/compozy/scenario-mcp/engine/core"
	"github.com/compozy/scenario-mcp/engine/scenario"
	"github.com/invopop/jsonschema"
)

// ToolPrefix precedes the scenario id in every tool name.
const ToolPrefix = "run_scenario_"

var toolNamePattern = regexp.MustCompile(`^` + ToolPrefix + `(\d+)$`)

// Tool is a callable scenario as exposed to protocol clients.
type Tool struct {
	Name        string
	Description string
	ScenarioID  int64
	InputSchema *jsonschema.Schema
}

// ToolName derives the tool name of a scenario.
func ToolName(scenarioID int64) string {
	return ToolPrefix + strconv.FormatInt(scenarioID, 10)
}

// ParseToolName extracts the scenario id from a tool name.
func ParseToolName(name string) (int64, error) {
	m := toolNamePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, core.InvalidRequest("unknown tool: %s", name)
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, core.InvalidRequest("unknown tool: %s", name)
	}
	return id, nil
}

// Describe builds a tool description: the scenario name, followed by the
// scenario description in parentheses when there is one.
func Describe(sc *scenario.Scenario) string {
	if sc.Description == "" {
		return sc.Name
	}
	return sc.Name + " (" + sc.Description + ")"
}
