package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidRequest marks caller errors such as an unknown tool name.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInternal marks failures talking to a remote API or translating its data.
	ErrInternal = errors.New("internal error")
)

// Error is the typed error surfaced by discovery and invocation.
// It carries every identifier known at the point of failure so a caller can
// correlate it with remote logs.
type Error struct {
	Kind        error
	Message     string
	ScenarioID  int64
	ExecutionID string
	StatusCode  int
	Err         error
}

// InvalidRequest builds an ErrInvalidRequest error with a formatted message.
func InvalidRequest(format string, args ...any) *Error {
	return &Error{Kind: ErrInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

// Internal builds an ErrInternal error wrapping cause.
func Internal(message string, cause error) *Error {
	return &Error{Kind: ErrInternal, Message: message, Err: cause}
}

// WithScenario records the scenario id on the error.
func (e *Error) WithScenario(id int64) *Error {
	e.ScenarioID = id
	return e
}

// WithExecution records the execution id on the error.
func (e *Error) WithExecution(id string) *Error {
	e.ExecutionID = id
	return e
}

// WithStatus records the remote HTTP status on the error.
func (e *Error) WithStatus(code int) *Error {
	e.StatusCode = code
	return e
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Err != nil {
		if b.Len() > 0 {
			b.WriteString(": ")
		}
		b.WriteString(RedactError(e.Err))
	}
	if b.Len() == 0 && e.Kind != nil {
		b.WriteString(e.Kind.Error())
	}
	var ctx []string
	if e.ScenarioID != 0 {
		ctx = append(ctx, "scenario_id="+strconv.FormatInt(e.ScenarioID, 10))
	}
	if e.ExecutionID != "" {
		ctx = append(ctx, "execution_id="+e.ExecutionID)
	}
	if e.StatusCode != 0 {
		ctx = append(ctx, "status="+strconv.Itoa(e.StatusCode))
	}
	if len(ctx) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(ctx, ", "))
		b.WriteString(")")
	}
	return b.String()
}

// Unwrap exposes both the kind sentinel and the underlying cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Fields returns the error context as a map suitable for structured payloads.
// Only identifiers that are known are included.
func (e *Error) Fields() map[string]any {
	fields := make(map[string]any, 3)
	if e.ScenarioID != 0 {
		fields["scenario_id"] = e.ScenarioID
	}
	if e.ExecutionID != "" {
		fields["execution_id"] = e.ExecutionID
	}
	if e.StatusCode != 0 {
		fields["status"] = e.StatusCode
	}
	return fields
}

// AsError extracts the first *Error in err's chain.
func AsError(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// IsInvalidRequest reports whether err is a caller error.
func IsInvalidRequest(err error) bool {
	return errors.Is(err, ErrInvalidRequest)
}

// IsInternal reports whether err is an internal failure.
func IsInternal(err error) bool {
	return errors.Is(err, ErrInternal)
}
