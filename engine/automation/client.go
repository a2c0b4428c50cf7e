package automation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/compozy/scenario-mcp/engine/core"
	"github.com/compozy/scenario-mcp/engine/scenario"
	"github.com/compozy/scenario-mcp/pkg/config"
	"github.com/compozy/scenario-mcp/pkg/logger"
	"github.com/compozy/scenario-mcp/pkg/version"
	"github.com/go-resty/resty/v2"
)

const (
	DefaultTimeout  = 30 * time.Second
	DefaultPageSize = 100
)

// ErrMissingExecutionID is returned when a run is accepted without an execution id.
var ErrMissingExecutionID = errors.New("run response did not include an execution id")

// Options configures a Client.
type Options struct {
	// BaseURL overrides the address derived from Zone, e.g. for tests.
	BaseURL  string
	Zone     string
	APIKey   string
	Timeout  time.Duration
	PageSize int
}

// OptionsFromConfig maps the process configuration onto client options.
func OptionsFromConfig(cfg *config.AutomationConfig) Options {
	return Options{
		Zone:     cfg.Zone,
		APIKey:   cfg.APIKey.Value(),
		Timeout:  cfg.Timeout,
		PageSize: cfg.PageSize,
	}
}

// Client talks to the automation platform's scenario endpoints. It never
// retries; every call is a single HTTP exchange bounded by the timeout.
type Client struct {
	http     *resty.Client
	pageSize int
}

func New(opts Options) (*Client, error) {
	baseURL := opts.BaseURL
	if baseURL == "" {
		if opts.Zone == "" {
			return nil, fmt.Errorf("automation zone is required")
		}
		baseURL = fmt.Sprintf("https://%s/api/v2", opts.Zone)
	}
	if opts.APIKey == "" {
		return nil, fmt.Errorf("automation API key is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(opts.Timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("Authorization", "Token "+opts.APIKey).
		SetHeader("User-Agent", version.UserAgent())
	client.OnBeforeRequest(logRequest)
	client.OnAfterResponse(logResponse)
	return &Client{http: client, pageSize: opts.PageSize}, nil
}

type listResponse struct {
	Scenarios []scenario.Scenario `json:"scenarios"`
}

// ListScenarios returns every scenario visible to the team, following pages
// until a short page is returned or a page brings no scenario not seen before.
func (c *Client) ListScenarios(ctx context.Context, teamID int64) ([]scenario.Scenario, error) {
	var all []scenario.Scenario
	seen := make(map[int64]struct{})
	for offset := 0; ; offset += c.pageSize {
		var page listResponse
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParam("teamId", strconv.FormatInt(teamID, 10)).
			SetQueryParam("pg[limit]", strconv.Itoa(c.pageSize)).
			SetQueryParam("pg[offset]", strconv.Itoa(offset)).
			SetResult(&page).
			SetError(&APIError{}).
			Get("/scenarios")
		if err != nil {
			return nil, fmt.Errorf("failed to list scenarios: %w", err)
		}
		if err := checkResponse(resp); err != nil {
			return nil, fmt.Errorf("failed to list scenarios: %w", err)
		}
		added := 0
		for i := range page.Scenarios {
			if _, dup := seen[page.Scenarios[i].ID]; dup {
				continue
			}
			seen[page.Scenarios[i].ID] = struct{}{}
			all = append(all, page.Scenarios[i])
			added++
		}
		if len(page.Scenarios) < c.pageSize {
			return all, nil
		}
		if added == 0 {
			logger.FromContext(ctx).Warn("Scenario listing repeated a page, stopping", "offset", offset)
			return all, nil
		}
	}
}

type interfaceResponse struct {
	Interface scenario.Interface `json:"interface"`
}

// GetInterface returns the declared input and output descriptors of a scenario.
func (c *Client) GetInterface(ctx context.Context, scenarioID int64) (*scenario.Interface, error) {
	var result interfaceResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("scenarioId", strconv.FormatInt(scenarioID, 10)).
		SetResult(&result).
		SetError(&APIError{}).
		Get("/scenarios/{scenarioId}/interface")
	if err != nil {
		return nil, fmt.Errorf("failed to get interface of scenario %d: %w", scenarioID, err)
	}
	if err := checkResponse(resp); err != nil {
		return nil, fmt.Errorf("failed to get interface of scenario %d: %w", scenarioID, err)
	}
	return &result.Interface, nil
}

type runRequest struct {
	Data       map[string]any `json:"data"`
	Responsive bool           `json:"responsive"`
}

// RunScenario triggers one execution and returns its handle without waiting
// for the output.
func (c *Client) RunScenario(ctx context.Context, scenarioID int64, args map[string]any) (*scenario.Execution, error) {
	if args == nil {
		args = map[string]any{}
	}
	var result scenario.Execution
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("scenarioId", strconv.FormatInt(scenarioID, 10)).
		SetBody(runRequest{Data: args}).
		SetResult(&result).
		SetError(&APIError{}).
		Post("/scenarios/{scenarioId}/run")
	if err != nil {
		return nil, fmt.Errorf("failed to run scenario %d: %w", scenarioID, err)
	}
	if err := checkResponse(resp); err != nil {
		return nil, fmt.Errorf("failed to run scenario %d: %w", scenarioID, err)
	}
	if result.ExecutionID == "" {
		return nil, fmt.Errorf("failed to run scenario %d: %w", scenarioID, ErrMissingExecutionID)
	}
	return &result, nil
}

func checkResponse(resp *resty.Response) error {
	if !resp.IsError() {
		return nil
	}
	apiErr, ok := resp.Error().(*APIError)
	if !ok || apiErr == nil {
		apiErr = &APIError{}
	}
	apiErr.StatusCode = resp.StatusCode()
	apiErr.Message = core.RedactDetail(apiErr.Message)
	apiErr.Detail = core.RedactDetail(apiErr.Detail)
	if apiErr.Message == "" && apiErr.Detail == "" {
		apiErr.Detail = core.RedactDetail(resp.String())
	}
	return apiErr
}

func logRequest(_ *resty.Client, req *resty.Request) error {
	logger.FromContext(req.Context()).Debug(
		"automation API request",
		"method", req.Method,
		"url", req.URL,
		"headers", core.RedactHeaders(req.Header),
	)
	return nil
}

func logResponse(_ *resty.Client, resp *resty.Response) error {
	logger.FromContext(resp.Request.Context()).Debug(
		"automation API response",
		"method", resp.Request.Method,
		"url", resp.Request.URL,
		"status", resp.StatusCode(),
		"duration", resp.Time(),
	)
	return nil
}
