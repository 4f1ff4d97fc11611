// Package httpclient implements the downstream payments service gateways
// over JSON HTTP.
package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/0xsj/overwatch-pkg/client"
	"github.com/0xsj/overwatch-pkg/httputil"
	"github.com/0xsj/overwatch-pkg/log"

	"github.com/0xsj/overwatch-payments/internal/port/outbound/gateway"
)

const (
	headerAPIVersion    = "Api-Version"
	headerRequestID     = "Request-Id"
	headerCorrelationID = "X-Correlation-Id"

	// ErrorCodeMissingParameter marks a success response that lacks a field
	// the orchestrator depends on.
	ErrorCodeMissingParameter = "MissingParameter"

	maxErrorBody = 512
)

// Endpoint configures one downstream service.
type Endpoint struct {
	BaseURL     string
	Timeout     time.Duration
	BearerToken string
	APIVersion  string
}

// serviceClient sends JSON requests to one service and turns non-success
// responses into gateway.ServiceError.
type serviceClient struct {
	name       string
	apiVersion string
	http       *client.Client
}

func newServiceClient(name string, ep Endpoint, logger log.Logger) *serviceClient {
	cfg := client.DefaultConfig().
		WithBaseURL(ep.BaseURL).
		WithHeader("Accept", "application/json").
		WithLogger(logger.With(log.String("service", name))).
		// Protocol calls are not idempotent; the safety net decides what
		// happens on failure.
		WithRetry(false)
	if ep.Timeout > 0 {
		cfg = cfg.WithTimeout(ep.Timeout)
	}
	if ep.BearerToken != "" {
		cfg = cfg.WithBearerToken(ep.BearerToken)
	}

	return &serviceClient{
		name:       name,
		apiVersion: ep.APIVersion,
		http:       client.NewWithConfig(cfg),
	}
}

func (c *serviceClient) request(ctx context.Context, path string) *client.Request {
	req := c.http.Request().
		Context(ctx).
		Path(path).
		Header(headerRequestID, uuid.NewString())
	if c.apiVersion != "" {
		req = req.Header(headerAPIVersion, c.apiVersion)
	}
	if id := httputil.RequestIDFromContext(ctx); id != "" {
		req = req.Header(headerCorrelationID, id)
	}
	return req
}

func (c *serviceClient) get(ctx context.Context, path string, out any) error {
	resp, err := c.request(ctx, path).Get()
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", c.name, err)
	}
	return c.decode(resp, out)
}

func (c *serviceClient) post(ctx context.Context, path string, body, out any) error {
	resp, err := c.request(ctx, path).JSON(body).Post()
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", c.name, err)
	}
	return c.decode(resp, out)
}

func (c *serviceClient) decode(resp *client.Response, out any) error {
	if !resp.IsSuccess() {
		body, _ := resp.Body()
		return c.serviceError(resp.StatusCode, body)
	}
	if out == nil {
		return resp.Close()
	}
	if err := resp.JSON(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", c.name, err)
	}
	return nil
}

// errorResponse is the error body the payments services return.
type errorResponse struct {
	ErrorCode string `json:"errorCode"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Target    string `json:"target"`
}

func (c *serviceClient) serviceError(status int, body []byte) *gateway.ServiceError {
	se := &gateway.ServiceError{Service: c.name, StatusCode: status}

	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil {
		se.ErrorCode = er.ErrorCode
		if se.ErrorCode == "" {
			se.ErrorCode = er.Code
		}
		se.Message = er.Message
		se.Target = er.Target
		return se
	}

	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	se.Message = string(body)
	return se
}

func (c *serviceClient) missing(field string) *gateway.ServiceError {
	return &gateway.ServiceError{
		Service:    c.name,
		StatusCode: 200,
		ErrorCode:  ErrorCodeMissingParameter,
		Message:    fmt.Sprintf("missing %s in %s response", field, c.name),
		Target:     field,
	}
}
