package authapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

const loginPath = "/auth/login"

// ErrMalformedResponse marks a 2xx response the console cannot read.
var ErrMalformedResponse = errors.New("malformed auth response")

// APIError is a non-2xx answer from the auth backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("auth backend returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("auth backend returned %d", e.StatusCode)
}

// Client calls the TripFlow backend auth endpoint.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *fiber.Client
}

// NewClient builds a client for baseURL.
func NewClient(baseURL string, timeout time.Duration, userAgent string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http:    &fiber.Client{UserAgent: userAgent},
	}
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	agent := c.http.Post(c.baseURL + loginPath).JSON(req)
	if timeout := c.effectiveTimeout(ctx); timeout > 0 {
		agent.Timeout(timeout)
	}

	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("auth backend: %w", errors.Join(errs...))
	}

	if status < fiber.StatusOK || status >= fiber.StatusMultipleChoices {
		var eb errorBody
		_ = json.Unmarshal(body, &eb)
		return nil, &APIError{StatusCode: status, Message: string(eb.Message)}
	}

	var resp LoginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &resp, nil
}

func (c *Client) effectiveTimeout(ctx context.Context) time.Duration {
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); timeout <= 0 || remaining < timeout {
			timeout = remaining
		}
	}
	return timeout
}
