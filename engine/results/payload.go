package results

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/compozy/scenario-mcp/engine/core"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// NoOutputPlaceholder is returned when an execution produced no output value.
const NoOutputPlaceholder = "No output available"

// ErrInvalidPayload is returned for a 200 response whose body is not JSON.
var ErrInvalidPayload = errors.New("results API returned an invalid JSON body")

var prettyOptions = &pretty.Options{Indent: "  ", SortKeys: true}

// Payload is a decoded results response: {"output": any, "error": string}.
type Payload struct {
	raw []byte
}

func ParsePayload(body []byte) (*Payload, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return nil, ErrInvalidPayload
	}
	if !gjson.ParseBytes(body).IsObject() {
		return nil, fmt.Errorf("%w: expected an object", ErrInvalidPayload)
	}
	return &Payload{raw: body}, nil
}

// Output returns the raw output value; it does not exist when absent.
func (p *Payload) Output() gjson.Result {
	return gjson.GetBytes(p.raw, "output")
}

// HasOutput reports whether output is present and not null.
func (p *Payload) HasOutput() bool {
	out := p.Output()
	return out.Exists() && out.Type != gjson.Null
}

// ErrorText returns the server-reported error, if any.
func (p *Payload) ErrorText() string {
	res := gjson.GetBytes(p.raw, "error")
	if !res.Exists() || res.Type == gjson.Null {
		return ""
	}
	if res.Type == gjson.String {
		return res.Str
	}
	return res.Raw
}

// Failed reports a run failure: an error without any output.
func (p *Payload) Failed() bool {
	return !p.HasOutput() && p.ErrorText() != ""
}

// Normalize renders the output as text: a placeholder when absent or null,
// strings verbatim, and any other JSON value indented with sorted keys.
func Normalize(p *Payload) string {
	if p == nil || !p.HasOutput() {
		return NoOutputPlaceholder
	}
	out := p.Output()
	if out.Type == gjson.String {
		return out.Str
	}
	formatted := pretty.PrettyOptions([]byte(out.Raw), prettyOptions)
	return string(bytes.TrimRight(formatted, "\n"))
}

// StatusError is a non-200 response from the results API.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

func (e *StatusError) Error() string {
	var msg string
	if e.NotFound() {
		msg = "result not found or expired"
	} else {
		msg = fmt.Sprintf("results API returned HTTP %d", e.StatusCode)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// errorDetail extracts a readable message from an error body, which may be
// JSON with an error or message field, or plain text.
func errorDetail(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}
	if gjson.ValidBytes(body) {
		for _, key := range []string{"error", "message", "detail"} {
			if res := gjson.GetBytes(body, key); res.Exists() && res.Type != gjson.Null {
				return core.RedactDetail(res.String())
			}
		}
		if gjson.ParseBytes(body).IsObject() {
			return ""
		}
	}
	return core.RedactDetail(string(body))
}

// AsStatusError extracts a *StatusError from err.
func AsStatusError(err error) (*StatusError, bool) {
	var target *StatusError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}
