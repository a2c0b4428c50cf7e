package bridge

import (
	"context"
	"errors"
	"time"

	"github.com/compozy/scenario-mcp/engine/automation"
	"github.com/compozy/scenario-mcp/engine/core"
	"github.com/compozy/scenario-mcp/engine/results"
	"github.com/compozy/scenario-mcp/pkg/logger"
	"github.com/google/uuid"
)

type executionState string

const (
	stateTriggered executionState = "triggered"
	stateRetrieved executionState = "retrieved"
	stateFailed    executionState = "failed"
)

// Result is the outcome of a successful invocation.
type Result struct {
	InvocationID string
	ScenarioID   int64
	ExecutionID  string
	Text         string
}

// execution tracks one run from trigger to retrieval. Every error it builds
// carries the scenario and execution ids known so far.
type execution struct {
	scenarioID int64
	id         string
	state      executionState
}

func (e *execution) fail(message string, cause error) *core.Error {
	e.state = stateFailed
	return core.Internal(message, cause).
		WithScenario(e.scenarioID).
		WithExecution(e.id).
		WithStatus(statusOf(cause))
}

// Invoke runs the scenario behind toolName with args and returns its
// normalized output. The result is fetched exactly once after the trigger
// returns; there is no polling and no retry.
func (b *Bridge) Invoke(ctx context.Context, toolName string, args map[string]any) (*Result, error) {
	start := time.Now()
	scenarioID, err := ParseToolName(toolName)
	if err != nil {
		b.metrics.invocationFinished(outcomeInvalid, start)
		return nil, err
	}
	if args == nil {
		args = map[string]any{}
	}
	invocationID := uuid.NewString()
	log := logger.FromContext(ctx).With("invocation_id", invocationID, "scenario_id", scenarioID)

	run := &execution{scenarioID: scenarioID}
	exec, err := b.catalog.RunScenario(ctx, scenarioID, args)
	if err != nil {
		b.metrics.invocationFinished(outcomeTriggerFailed, start)
		log.Error("Failed to trigger scenario", "error", core.RedactError(err))
		return nil, run.fail("failed to trigger scenario", err)
	}
	run.id = exec.ExecutionID
	run.state = stateTriggered
	log = log.With("execution_id", run.id)
	log.Debug("Scenario triggered", "status", string(exec.Status))

	payload, err := b.results.Retrieve(ctx, run.id)
	if err != nil {
		b.metrics.invocationFinished(outcomeRetrieveFail, start)
		log.Error("Failed to retrieve result", "error", core.RedactError(err))
		return nil, run.fail("failed to retrieve scenario result", err)
	}
	if payload.Failed() {
		b.metrics.invocationFinished(outcomeRunFailed, start)
		log.Warn("Scenario run reported an error", "error", core.RedactString(payload.ErrorText()))
		return nil, run.fail("scenario run failed", errors.New(payload.ErrorText()))
	}
	run.state = stateRetrieved
	b.metrics.invocationFinished(outcomeSuccess, start)
	log.Info("Scenario completed", "state", run.state, "duration", time.Since(start))
	return &Result{
		InvocationID: invocationID,
		ScenarioID:   scenarioID,
		ExecutionID:  run.id,
		Text:         results.Normalize(payload),
	}, nil
}

func statusOf(err error) int {
	if err == nil {
		return 0
	}
	if code := automation.StatusCode(err); code != 0 {
		return code
	}
	if statusErr, ok := results.AsStatusError(err); ok {
		return statusErr.StatusCode
	}
	return 0
}
