package resilience_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/roller-shop/internal/resilience"
)

func TestBreakerExportsStateAndTransitions(t *testing.T) {
	const target = "shop-cart-metrics"
	c := &clock{t: time.Unix(0, 0)}
	b := resilience.NewBreaker(1, 0.5, time.Minute).WithTarget(target).WithClock(c.now)
	ctx := context.Background()
	gauge := func() float64 { return testutil.ToFloat64(resilience.BreakerState.WithLabelValues(target)) }

	require.True(t, b.Allow(ctx))
	b.Report(ctx, false)
	require.Equal(t, float64(resilience.Open), gauge())

	c.t = c.t.Add(time.Minute)
	require.True(t, b.Allow(ctx))
	require.Equal(t, float64(resilience.HalfOpen), gauge())

	b.Report(ctx, true)
	require.Equal(t, float64(resilience.Closed), gauge())

	require.Equal(t, 1.0, testutil.ToFloat64(resilience.BreakerOpenedTotal.WithLabelValues(target)))
	for _, edge := range [][2]string{{"closed", "open"}, {"open", "half_open"}, {"half_open", "closed"}} {
		got := testutil.ToFloat64(resilience.BreakerTransitions.WithLabelValues(target, edge[0], edge[1]))
		require.Equal(t, 1.0, got, "%s -> %s", edge[0], edge[1])
	}
}

func TestHTTPAttemptsCountsOutcomes(t *testing.T) {
	const target = "attempts-metrics"
	b := resilience.NewBreaker(1, 1, time.Minute).WithTarget(target)
	client := resilience.HTTPClient{Client: failingClient(), Breaker: b, MaxAttempts: 3, BaseBackoff: time.Millisecond}

	req, err := newGet("http://shop.invalid/cart.js")
	require.NoError(t, err)
	_, err = client.Do(context.Background(), req)
	require.ErrorIs(t, err, resilience.ErrOpenCircuit)

	require.Equal(t, 1.0, testutil.ToFloat64(resilience.HTTPAttempts.WithLabelValues(target, "failed")))
	require.Equal(t, 1.0, testutil.ToFloat64(resilience.HTTPAttempts.WithLabelValues(target, "rejected")))
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func failingClient() *http.Client {
	return &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})}
}

func newGet(url string) (*http.Request, error) {
	return http.NewRequest(http.MethodGet, url, nil)
}
