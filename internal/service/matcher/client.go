package matcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mkuznetsov/reconcilo/internal/logger"
	"github.com/mkuznetsov/reconcilo/internal/models"
)

const (
	CodeRetryAfter = "retry-after"
	CodeBadRequest = "bad-request"
	CodeUnknown    = "unknown"
)

// MatcherError is returned for every failed call to the matching engine
type MatcherError struct {
	Code string

	RetryAfter time.Duration
	Err        error
}

func (e *MatcherError) Error() string {
	return fmt.Sprintf("code: %s, retry_after: %d, error: %v", e.Code, e.RetryAfter, e.Err)
}

func NewMatcherError(code string, retryAfter int, err error) *MatcherError {
	return &MatcherError{
		Code:       code,
		RetryAfter: time.Duration(retryAfter) * time.Second,
		Err:        err,
	}
}

// Client for the external reconciliation engine.
// The transaction payload is owned by the engine: this service forwards it
// untouched and only decodes the match report envelope
type Client struct {
	MatcherAddr string

	client *http.Client
	logger logger.Logger
}

func NewClient(addr string, l logger.Logger) *Client {
	return &Client{
		MatcherAddr: addr,
		client:      &http.Client{},
		logger:      l,
	}
}

func (c *Client) Reconcile(ctx context.Context, payload json.RawMessage) (models.MatchReport, error) {
	var report models.MatchReport

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.MatcherAddr+"/reconcile", bytes.NewReader(payload))
	if err != nil {
		return report, NewMatcherError(CodeUnknown, 0, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return report, NewMatcherError(CodeUnknown, 0, fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close() // nolint:errcheck

	switch resp.StatusCode {
	case http.StatusOK:
		return c.processSuccess(resp)
	case http.StatusTooManyRequests:
		return report, c.processTooManyRequests(resp)
	case http.StatusBadRequest:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return report, NewMatcherError(CodeBadRequest, 0, fmt.Errorf("matcher rejected payload: %s", body))
	default:
		c.logger.Warn("Failed to reconcile", "status_code", resp.StatusCode)
		return report, NewMatcherError(CodeUnknown, 0, fmt.Errorf("unknown status code %d", resp.StatusCode))
	}
}

func (c *Client) processSuccess(resp *http.Response) (models.MatchReport, error) {
	var report models.MatchReport
	err := json.NewDecoder(resp.Body).Decode(&report)
	if err != nil {
		c.logger.Warn("Failed to decode matcher response", "error", err)
		return report, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug("Matcher response", "matched", len(report.Matched), "unmatched", len(report.Unmatched))
	return report, nil
}

func (c *Client) processTooManyRequests(resp *http.Response) error {
	header := resp.Header.Get("Retry-After")
	retryAfter, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil {
		retryAfter = 60 // default to 60 seconds if parsing fails
	}

	c.logger.Warn("Matcher service throttled", "retry_after", retryAfter)
	return NewMatcherError(CodeRetryAfter, retryAfter, fmt.Errorf("retry after %d seconds", retryAfter))
}
