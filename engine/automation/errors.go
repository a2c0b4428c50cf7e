package automation

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-success response from the automation platform.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

func (e *APIError) Error() string {
	text := e.Message
	switch {
	case text == "":
		text = e.Detail
	case e.Detail != "" && e.Detail != e.Message:
		text = fmt.Sprintf("%s (%s)", e.Message, e.Detail)
	}
	if text == "" {
		text = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("automation API returned %d %s: %s", e.StatusCode, e.Code, text)
	}
	return fmt.Sprintf("automation API returned %d: %s", e.StatusCode, text)
}

// StatusCode extracts the HTTP status from an automation API error, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
