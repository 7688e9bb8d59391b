package model

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/yungbote/movierec-backend/internal/observability"
	"github.com/yungbote/movierec-backend/internal/pkg/httpx"
	"github.com/yungbote/movierec-backend/internal/pkg/logger"
)

type BreakerOptions struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

type RemoteOptions struct {
	BaseURL    string
	Name       string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	BatchSize  int
	Breaker    BreakerOptions

	// RetryBase is the first backoff step. Defaults to 250ms.
	RetryBase  time.Duration
	HTTPClient *http.Client
}

// HTTPError is a non-2xx answer from the predict endpoint.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "http error"
	}
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200]
	}
	if body == "" {
		body = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("predict http error: status=%d body=%s", e.StatusCode, body)
}

func (e *HTTPError) HTTPStatusCode() int { return e.StatusCode }

// RemoteScorer calls a TensorFlow-Serving style REST predict endpoint:
// POST {base}/v1/models/{name}:predict with {"instances":[[u,m],...]}.
type RemoteScorer struct {
	log        *logger.Logger
	endpoint   string
	name       string
	apiKey     string
	timeout    time.Duration
	maxRetries int
	batchSize  int
	retryBase  time.Duration
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker[[]float32]
}

type predictRequest struct {
	Instances [][2]int `json:"instances"`
}

type predictResponse struct {
	Predictions []json.RawMessage `json:"predictions"`
	Error       string            `json:"error,omitempty"`
}

func NewRemoteScorer(opts RemoteOptions, baseLog *logger.Logger) (*RemoteScorer, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("remote model: base url required")
	}
	name := strings.TrimSpace(opts.Name)
	if name == "" {
		return nil, errors.New("remote model: name required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = 1024
	}
	retryBase := opts.RetryBase
	if retryBase <= 0 {
		retryBase = 250 * time.Millisecond
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}

	r := &RemoteScorer{
		log:        baseLog.With("component", "RemoteScorer", "model", name),
		endpoint:   baseURL + "/v1/models/" + name + ":predict",
		name:       name,
		apiKey:     strings.TrimSpace(opts.APIKey),
		timeout:    timeout,
		maxRetries: maxRetries,
		batchSize:  batchSize,
		retryBase:  retryBase,
		httpClient: hc,
	}
	r.cb = r.newBreaker(opts.Breaker)
	return r, nil
}

func (r *RemoteScorer) newBreaker(cfg BreakerOptions) *gobreaker.CircuitBreaker[[]float32] {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	breakerName := "model:" + r.name
	observability.Current().SetBreakerState(breakerName, int(gobreaker.StateClosed))
	return gobreaker.NewCircuitBreaker[[]float32](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// A caller giving up says nothing about the model's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			r.log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			observability.Current().SetBreakerState(name, int(to))
		},
	})
}

func (r *RemoteScorer) Name() string { return r.name }

// BreakerState is closed, half-open or open.
func (r *RemoteScorer) BreakerState() string { return r.cb.State().String() }

// Score sends pairs in batches of at most BatchSize and concatenates the
// results in input order.
func (r *RemoteScorer) Score(ctx context.Context, pairs []Pair) ([]float32, error) {
	out := make([]float32, 0, len(pairs))
	for start := 0; start < len(pairs); start += r.batchSize {
		end := start + r.batchSize
		if end > len(pairs) {
			end = len(pairs)
		}
		batch := pairs[start:end]
		scores, err := r.cb.Execute(func() ([]float32, error) {
			return r.predict(ctx, batch)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
			return nil, err
		}
		out = append(out, scores...)
	}
	return out, nil
}

func (r *RemoteScorer) predict(ctx context.Context, batch []Pair) ([]float32, error) {
	req := predictRequest{Instances: make([][2]int, len(batch))}
	for i, p := range batch {
		req.Instances[i] = [2]int{p.UserIndex, p.MovieIndex}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, resp, err := r.do(ctx, body)
		if err == nil {
			return decodePredictions(raw, len(batch))
		}
		lastErr = err
		if !httpx.IsRetryableError(err) || ctx.Err() != nil || attempt == r.maxRetries {
			break
		}
		wait := httpx.JitterSleep(httpx.Backoff(r.retryBase, attempt, 5*time.Second))
		wait = httpx.RetryAfterDuration(resp, wait, 5*time.Second)
		r.log.Debug("predict retry", "attempt", attempt+1, "wait_ms", wait.Milliseconds(), "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return nil, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

func (r *RemoteScorer) do(ctx context.Context, body []byte) ([]byte, *http.Response, error) {
	actx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(actx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, resp, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, resp, nil
}

// decodePredictions accepts both [[s],...] and [s,...] shapes.
func decodePredictions(raw []byte, want int) ([]float32, error) {
	var pr predictResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return nil, fmt.Errorf("%w: decode predictions: %v", ErrBadOutput, err)
	}
	if pr.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrBadOutput, pr.Error)
	}
	if len(pr.Predictions) != want {
		return nil, fmt.Errorf("%w: %d predictions for %d instances", ErrBadOutput, len(pr.Predictions), want)
	}
	out := make([]float32, want)
	for i, p := range pr.Predictions {
		var v float32
		if err := json.Unmarshal(p, &v); err == nil {
			out[i] = v
			continue
		}
		var vec []float32
		if err := json.Unmarshal(p, &vec); err != nil || len(vec) != 1 {
			return nil, fmt.Errorf("%w: prediction %d is not a scalar", ErrBadOutput, i)
		}
		out[i] = vec[0]
	}
	return out, nil
}
