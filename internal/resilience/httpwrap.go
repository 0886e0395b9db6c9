package resilience

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HTTPClient retries idempotent-safe failures of an outbound call: transport
// errors, 5xx and 429. Every other response is handed back untouched. A
// configured Breaker short-circuits calls while the target is unhealthy.
type HTTPClient struct {
	Client      *http.Client
	Breaker     *Breaker
	BaseBackoff time.Duration
	MaxAttempts int
	Jitter      float64
	// Timeout bounds each attempt; Client.Timeout applies when zero.
	Timeout  time.Duration
	Fallback func(context.Context, *http.Request, error) (*http.Response, error)
}

// Options configures NewHTTPClient.
type Options struct {
	Target       string
	Timeout      time.Duration
	MaxAttempts  int
	BaseBackoff  time.Duration
	Jitter       float64
	MinRequests  int
	FailureRatio float64
	OpenFor      time.Duration
}

// NewHTTPClient builds a traced client with its own breaker labelled
// opts.Target.
func NewHTTPClient(opts Options) HTTPClient {
	return HTTPClient{
		Client:      &http.Client{Timeout: opts.Timeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		Breaker:     NewBreaker(opts.MinRequests, opts.FailureRatio, opts.OpenFor).WithTarget(opts.Target),
		BaseBackoff: opts.BaseBackoff,
		MaxAttempts: opts.MaxAttempts,
		Jitter:      opts.Jitter,
		Timeout:     opts.Timeout,
	}
}

// Do sends req until it succeeds or attempts run out. The body is read once
// up front and replayed on each attempt. ErrOpenCircuit is returned when the
// breaker refuses a call, unless Fallback is set.
func (cl HTTPClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if cl.Client == nil {
		return nil, errors.New("resilience: http client not configured")
	}
	body, err := drainBody(req)
	if err != nil {
		return nil, err
	}

	target := "default"
	if cl.Breaker != nil {
		target = cl.Breaker.targetLabel()
	}
	attempts := max(cl.MaxAttempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if cl.Breaker != nil && !cl.Breaker.Allow(ctx) {
			HTTPAttempts.WithLabelValues(target, "rejected").Inc()
			lastErr = ErrOpenCircuit
			break
		}

		resp, err := cl.attempt(ctx, req, body)
		if err == nil && !retryable(resp.StatusCode) {
			cl.Breaker.report(ctx, true)
			HTTPAttempts.WithLabelValues(target, "ok").Inc()
			return resp, nil
		}
		HTTPAttempts.WithLabelValues(target, "failed").Inc()

		wait := Backoff(cl.BaseBackoff, attempt, cl.Jitter)
		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("%s %s: %s", req.Method, req.URL.Path, resp.Status)
			if ra, ok := retryAfter(resp); ok {
				wait = min(ra, maxBackoff)
			}
			_ = resp.Body.Close()
		}
		// A 429 is the target throttling us, not failing.
		cl.Breaker.report(ctx, err == nil && resp.StatusCode == http.StatusTooManyRequests)

		if attempt == attempts {
			break
		}
		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
	}

	if cl.Fallback != nil {
		return cl.Fallback(ctx, req, lastErr)
	}
	return nil, lastErr
}

func (cl HTTPClient) attempt(ctx context.Context, req *http.Request, body []byte) (*http.Response, error) {
	timeout := cl.Timeout
	if timeout <= 0 {
		timeout = cl.Client.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		// The response body outlives this call; cancel once it is closed.
		resp, err := cl.Client.Do(withBody(req.Clone(ctx), body))
		if err != nil {
			cancel()
			return nil, err
		}
		resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
		return resp, nil
	}
	return cl.Client.Do(withBody(req.Clone(ctx), body))
}

func retryable(status int) bool {
	return status >= 500 || status == http.StatusTooManyRequests
}

func retryAfter(resp *http.Response) (time.Duration, bool) {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second, true
	}
	if at, err := http.ParseTime(v); err == nil {
		return max(time.Until(at), 0), true
	}
	return 0, false
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func drainBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	src := req.Body
	if req.GetBody != nil {
		fresh, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		_ = req.Body.Close()
		src = fresh
	}
	defer func() { _ = src.Close() }()
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	withBody(req, data)
	return data, nil
}

func withBody(req *http.Request, body []byte) *http.Request {
	if body == nil {
		return req
	}
	req.Body = io.NopCloser(bytes.NewReader(body))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	req.ContentLength = int64(len(body))
	return req
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
