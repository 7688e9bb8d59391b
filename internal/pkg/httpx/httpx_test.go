package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

type statusErr int

func (s statusErr) Error() string       { return fmt.Sprintf("status %d", int(s)) }
func (s statusErr) HTTPStatusCode() int { return int(s) }

func TestIsRetryableError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("wrap: %w", context.DeadlineExceeded), true},
		{"503", statusErr(http.StatusServiceUnavailable), true},
		{"429", statusErr(http.StatusTooManyRequests), true},
		{"400", statusErr(http.StatusBadRequest), false},
		{"plain", errors.New("boom"), false},
	}
	for _, tc := range cases {
		if got := IsRetryableError(tc.err); got != tc.want {
			t.Errorf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestBackoffCaps(t *testing.T) {
	if got := Backoff(100*time.Millisecond, 0, time.Second); got != 100*time.Millisecond {
		t.Fatalf("attempt 0: %v", got)
	}
	if got := Backoff(100*time.Millisecond, 2, time.Second); got != 400*time.Millisecond {
		t.Fatalf("attempt 2: %v", got)
	}
	if got := Backoff(100*time.Millisecond, 10, time.Second); got != time.Second {
		t.Fatalf("attempt 10: %v", got)
	}
}

func TestRetryAfterDuration(t *testing.T) {
	resp := &http.Response{Header: http.Header{"Retry-After": []string{"3"}}}
	if got := RetryAfterDuration(resp, time.Second, 2*time.Second); got != 2*time.Second {
		t.Fatalf("expected cap, got %v", got)
	}
	if got := RetryAfterDuration(nil, time.Second, 0); got != time.Second {
		t.Fatalf("expected fallback, got %v", got)
	}
}
