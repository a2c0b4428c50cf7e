package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	t.Run("Should match both kind and cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Internal("failed to trigger scenario", cause).WithScenario(42)
		assert.ErrorIs(t, err, ErrInternal)
		assert.ErrorIs(t, err, cause)
		assert.NotErrorIs(t, err, ErrInvalidRequest)
	})
	t.Run("Should include every known identifier in the message", func(t *testing.T) {
		err := Internal("failed to retrieve result", errors.New("result not found or expired")).
			WithScenario(7).
			WithExecution("exec-123").
			WithStatus(404)
		assert.Equal(
			t,
			"failed to retrieve result: result not found or expired (scenario_id=7, execution_id=exec-123, status=404)",
			err.Error(),
		)
	})
	t.Run("Should omit unknown identifiers", func(t *testing.T) {
		err := InvalidRequest("unknown tool: %s", "not_a_valid_name")
		assert.Equal(t, "unknown tool: not_a_valid_name", err.Error())
		assert.Empty(t, err.Fields())
	})
	t.Run("Should fall back to the kind text when empty", func(t *testing.T) {
		err := &Error{Kind: ErrInternal}
		assert.Equal(t, "internal error", err.Error())
	})
	t.Run("Should be found through fmt wrapping", func(t *testing.T) {
		base := InvalidRequest("bad").WithScenario(3)
		wrapped := fmt.Errorf("handler: %w", base)
		got, ok := AsError(wrapped)
		require.True(t, ok)
		assert.Equal(t, int64(3), got.ScenarioID)
		assert.True(t, IsInvalidRequest(wrapped))
		assert.False(t, IsInternal(wrapped))
	})
	t.Run("Should expose identifiers as fields", func(t *testing.T) {
		err := Internal("x", nil).WithScenario(1).WithExecution("e").WithStatus(500)
		assert.Equal(t, map[string]any{
			"scenario_id":  int64(1),
			"execution_id": "e",
			"status":       500,
		}, err.Fields())
	})
	t.Run("Should scrub credentials from the cause", func(t *testing.T) {
		err := Internal("request failed", errors.New("denied for api_key=abcd1234"))
		assert.Equal(t, "request failed: denied for api_key=[REDACTED]", err.Error())
	})
}
