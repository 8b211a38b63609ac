package githubapi

import (
	"errors"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/jonwraymond/reviewops/resilience"
)

func response(status int, headers map[string]string) *http.Response {
	resp := &http.Response{StatusCode: status, Header: http.Header{}}
	for k, v := range headers {
		resp.Header.Set(k, v)
	}
	return resp
}

func TestClassifyStatus(t *testing.T) {
	isValidation := func(err error) bool { var e *ValidationError; return errors.As(err, &e) }
	isAuth := func(err error) bool { var e *AuthError; return errors.As(err, &e) }
	isNotFound := func(err error) bool { var e *NotFoundError; return errors.As(err, &e) }
	isTransient := func(err error) bool { var e *TransientError; return errors.As(err, &e) }
	isRateLimited := func(err error) bool { var e *resilience.RateLimitedError; return errors.As(err, &e) }

	tests := []struct {
		name       string
		status     int
		headers    map[string]string
		wantType   func(error) bool
		retryable  bool
		downstream bool
	}{
		{"bad request", 400, nil, isValidation, false, false},
		{"unprocessable", 422, nil, isValidation, false, false},
		{"unauthorized", 401, nil, isAuth, false, false},
		{"forbidden", 403, nil, isAuth, false, false},
		{"not found", 404, nil, isNotFound, false, false},
		{"too many requests", 429, map[string]string{"Retry-After": "30"}, isRateLimited, true, true},
		{"forbidden with exhausted quota", 403, map[string]string{"X-RateLimit-Remaining": "0"}, isRateLimited, true, true},
		{"internal error", 500, nil, isTransient, true, true},
		{"bad gateway", 502, nil, isTransient, true, true},
		{"service unavailable", 503, nil, isTransient, true, true},
		{"unexpected redirect", 302, nil, isValidation, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyStatus(response(tt.status, tt.headers), "https://api.example.test/x", []byte(`{"message":"nope"}`))

			if !tt.wantType(err) {
				t.Errorf("classifyStatus(%d) = %T, wrong error type", tt.status, err)
			}
			if got := resilience.Retryable(err); got != tt.retryable {
				t.Errorf("Retryable = %v, want %v", got, tt.retryable)
			}
			if got := resilience.Downstream(err); got != tt.downstream {
				t.Errorf("Downstream = %v, want %v", got, tt.downstream)
			}
		})
	}
}

func TestRetryAfter_Seconds(t *testing.T) {
	resp := response(429, map[string]string{"Retry-After": "30"})

	if got := retryAfter(resp); got != 30*time.Second {
		t.Errorf("retryAfter = %v, want 30s", got)
	}
}

func TestRetryAfter_HTTPDate(t *testing.T) {
	at := time.Now().Add(45 * time.Second).UTC()
	resp := response(429, map[string]string{"Retry-After": at.Format(http.TimeFormat)})

	got := retryAfter(resp)
	if got <= 30*time.Second || got > 46*time.Second {
		t.Errorf("retryAfter = %v, want about 45s", got)
	}
}

func TestRetryAfter_ResetEpoch(t *testing.T) {
	reset := time.Now().Add(90 * time.Second).Unix()
	resp := response(403, map[string]string{
		"X-RateLimit-Remaining": "0",
		"X-RateLimit-Reset":     strconv.FormatInt(reset, 10),
	})

	got := retryAfter(resp)
	if got <= 60*time.Second || got > 91*time.Second {
		t.Errorf("retryAfter = %v, want about 90s", got)
	}
}

func TestRetryAfter_Absent(t *testing.T) {
	if got := retryAfter(response(429, nil)); got != 0 {
		t.Errorf("retryAfter = %v, want 0", got)
	}
}

func TestErrorMessage(t *testing.T) {
	if got := errorMessage([]byte(`{"message":"Not Found","documentation_url":"https://docs"}`)); got != "Not Found" {
		t.Errorf("errorMessage = %q, want %q", got, "Not Found")
	}
	if got := errorMessage([]byte("plain text")); got != "plain text" {
		t.Errorf("errorMessage = %q, want raw body", got)
	}
}

func TestAPIError_Message(t *testing.T) {
	err := &NotFoundError{APIError{StatusCode: 404, Message: "Not Found", URL: "https://api.example.test/repos/a/b"}}

	want := "githubapi: https://api.example.test/repos/a/b: status 404: Not Found"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
