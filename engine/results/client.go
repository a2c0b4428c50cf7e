package results

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/compozy/scenario-mcp/engine/core"
	"github.com/compozy/scenario-mcp/pkg/config"
	"github.com/compozy/scenario-mcp/pkg/logger"
	"github.com/compozy/scenario-mcp/pkg/version"
	"github.com/go-resty/resty/v2"
)

const DefaultTimeout = 30 * time.Second

type Options struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

func OptionsFromConfig(cfg *config.ResultsConfig) Options {
	return Options{
		BaseURL:   cfg.BaseURL,
		SecretKey: cfg.SecretKey.Value(),
		Timeout:   cfg.Timeout,
	}
}

// Client fetches execution outputs from the results service. Each lookup is
// a single GET; a missing result is reported, never polled for.
type Client struct {
	http *resty.Client
}

func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("results base URL is required")
	}
	if opts.SecretKey == "" {
		return nil, fmt.Errorf("results secret key is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	client := resty.New().
		SetBaseURL(trimBaseURL(opts.BaseURL)).
		SetTimeout(opts.Timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json").
		SetHeader("X-API-Key", opts.SecretKey).
		SetHeader("User-Agent", version.UserAgent())
	return &Client{http: client}, nil
}

// Retrieve looks up the result of one execution. Any status other than 200
// yields a *StatusError.
func (c *Client) Retrieve(ctx context.Context, executionID string) (*Payload, error) {
	log := logger.FromContext(ctx)
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("executionId", executionID).
		Get("/retrieve/{executionId}")
	if err != nil {
		return nil, fmt.Errorf("failed to reach results API: %w", err)
	}
	log.Debug("results API response",
		"execution_id", executionID,
		"status", resp.StatusCode(),
		"duration", resp.Time(),
		"request_headers", core.RedactHeaders(resp.Request.Header),
	)
	if resp.StatusCode() != http.StatusOK {
		return nil, &StatusError{
			StatusCode: resp.StatusCode(),
			Detail:     errorDetail(resp.Body()),
		}
	}
	return ParsePayload(resp.Body())
}

func trimBaseURL(base string) string {
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	return base
}
