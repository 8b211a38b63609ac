package githubapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jonwraymond/reviewops/resilience"
)

// APIError is the base shape shared by every typed GitHub failure.
type APIError struct {
	// StatusCode is the HTTP status that produced the error, 0 for
	// network-level failures.
	StatusCode int

	// Message is the error message from the response body, if any.
	Message string

	// URL is the request URL.
	URL string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("githubapi: %s: %s", e.URL, e.Message)
	}
	return fmt.Sprintf("githubapi: %s: status %d: %s", e.URL, e.StatusCode, e.Message)
}

// ValidationError covers 400 and 422: the request itself is wrong and
// repeating it cannot help.
type ValidationError struct{ APIError }

func (e *ValidationError) Retryable() bool  { return false }
func (e *ValidationError) Downstream() bool { return false }

// AuthError covers 401 and non-rate-limit 403.
type AuthError struct{ APIError }

func (e *AuthError) Retryable() bool  { return false }
func (e *AuthError) Downstream() bool { return false }

// NotFoundError covers 404.
type NotFoundError struct{ APIError }

func (e *NotFoundError) Retryable() bool  { return false }
func (e *NotFoundError) Downstream() bool { return false }

// TransientError covers 5xx responses and network-level failures. It is
// retryable and counts toward the circuit breaker.
type TransientError struct {
	APIError

	// Cause is the underlying transport error for network failures.
	Cause error
}

func (e *TransientError) Retryable() bool  { return true }
func (e *TransientError) Downstream() bool { return true }
func (e *TransientError) Unwrap() error    { return e.Cause }

// classifyStatus maps a non-2xx response to the typed error taxonomy.
// Rate-limit rejections (429, or 403 with an exhausted quota) become
// *resilience.RateLimitedError carrying the server's retry hint.
func classifyStatus(resp *http.Response, url string, body []byte) error {
	message := errorMessage(body)
	base := APIError{StatusCode: resp.StatusCode, Message: message, URL: url}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &resilience.RateLimitedError{RetryAfter: retryAfter(resp), Remote: true}
	case resp.StatusCode == http.StatusForbidden && rateLimited(resp):
		return &resilience.RateLimitedError{RetryAfter: retryAfter(resp), Remote: true}
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusUnprocessableEntity:
		return &ValidationError{base}
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return &AuthError{base}
	case resp.StatusCode == http.StatusNotFound:
		return &NotFoundError{base}
	case resp.StatusCode >= 500:
		return &TransientError{APIError: base}
	default:
		// Anything unexpected is terminal.
		return &ValidationError{base}
	}
}

// rateLimited reports whether a 403 is a quota rejection rather than a
// permissions failure.
func rateLimited(resp *http.Response) bool {
	if resp.Header.Get("Retry-After") != "" {
		return true
	}
	return resp.Header.Get("X-RateLimit-Remaining") == "0"
}

// retryAfter extracts the server's suggested wait from the Retry-After
// header (delay seconds or HTTP date) or the X-RateLimit-Reset epoch.
func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
		if at, err := http.ParseTime(v); err == nil {
			if d := time.Until(at); d > 0 {
				return d
			}
		}
	}
	if v := resp.Header.Get("X-RateLimit-Reset"); v != "" {
		if epoch, err := strconv.ParseInt(v, 10, 64); err == nil {
			if d := time.Until(time.Unix(epoch, 0)); d > 0 {
				return d
			}
		}
	}
	return 0
}

// errorMessage pulls the "message" field out of a GitHub error body
// without committing to its full schema.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return truncate(strings.TrimSpace(string(body)), 120)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
