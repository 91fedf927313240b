package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/santiagomed/devspark/internal/llm"
	"github.com/santiagomed/devspark/internal/result"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordedSleeps struct {
	delays []time.Duration
}

func (r *recordedSleeps) Sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

// scriptedClient answers with the queued errors first, then with reply.
type scriptedClient struct {
	errs  []error
	reply string
	calls int
}

func (s *scriptedClient) Provider() llm.Provider { return llm.ProviderGemini }
func (s *scriptedClient) Model() string          { return "test-model" }

func (s *scriptedClient) Complete(_ context.Context, _ string, _ llm.Options) (string, error) {
	s.calls++
	if s.calls <= len(s.errs) {
		return "", s.errs[s.calls-1]
	}
	return s.reply, nil
}

func rateLimited() error {
	return &llm.TransportError{Provider: llm.ProviderGemini, StatusCode: 429, Retryable: true, Err: errors.New("rate limited")}
}

func TestCacheTTL(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	c := NewCache(time.Hour, WithClock(clock))

	calls := 0
	fn := func() (string, error) {
		calls++
		return "plan", nil
	}

	v, err := Memoize(c, "k", fn)
	require.NoError(t, err)
	assert.Equal(t, "plan", v)

	clock.Advance(59 * time.Minute)
	_, _ = Memoize(c, "k", fn)
	assert.Equal(t, 1, calls)

	clock.Advance(time.Minute)
	_, _ = Memoize(c, "k", fn)
	assert.Equal(t, 2, calls)

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestNewCacheDefaultTTL(t *testing.T) {
	assert.Equal(t, DefaultTTL, NewCache(0).TTL())
}

func TestKeyOrderInsensitiveForKwargs(t *testing.T) {
	a := Key("op", []string{"x", "y"}, map[string]string{"a": "1", "b": "2"})
	b := Key("op", []string{"x", "y"}, map[string]string{"b": "2", "a": "1"})
	assert.Equal(t, a, b)

	assert.NotEqual(t, a, Key("op", []string{"y", "x"}, map[string]string{"a": "1", "b": "2"}))
	assert.NotEqual(t, a, Key("other", []string{"x", "y"}, map[string]string{"a": "1", "b": "2"}))
	assert.NotEqual(t, Key("op", []string{"ab"}, nil), Key("op", []string{"a", "b"}, nil))
}

func TestRetryRecovers(t *testing.T) {
	sleeps := &recordedSleeps{}
	client := &scriptedClient{errs: []error{rateLimited(), rateLimited()}, reply: "ok"}
	p := Policy{MaxRetries: 3, BaseDelay: time.Second, Sleep: sleeps.Sleep}

	out, err := WithRetry(client, p).Complete(context.Background(), "prompt", llm.Options{})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, client.calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeps.delays)
}

func TestRetryExhaustion(t *testing.T) {
	sleeps := &recordedSleeps{}
	client := &scriptedClient{errs: []error{rateLimited(), rateLimited(), rateLimited(), rateLimited(), rateLimited()}}
	p := Policy{MaxRetries: 3, BaseDelay: time.Second, Sleep: sleeps.Sleep}

	_, err := WithRetry(client, p).Complete(context.Background(), "prompt", llm.Options{})
	var re *result.Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "TransportError", re.Type)
	assert.Equal(t, 3, re.Retried)
	assert.Equal(t, 4, client.calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, sleeps.delays)
}

func TestRetryNonRetryableShortCircuits(t *testing.T) {
	sleeps := &recordedSleeps{}
	auth := &llm.TransportError{Provider: llm.ProviderOpenAI, StatusCode: 401, Err: errors.New("unauthorized")}
	client := &scriptedClient{errs: []error{auth}}

	_, err := WithRetry(client, Policy{MaxRetries: 3, BaseDelay: time.Second, Sleep: sleeps.Sleep}).
		Complete(context.Background(), "prompt", llm.Options{})
	var re *result.Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 0, re.Retried)
	assert.Equal(t, 1, client.calls)
	assert.Empty(t, sleeps.delays)
}

func TestRetryPassesResultErrorThrough(t *testing.T) {
	keyErr := result.New(result.TypeKey, "missing key")
	client := &scriptedClient{errs: []error{keyErr}}
	_, err := WithRetry(client, DefaultPolicy()).Complete(context.Background(), "p", llm.Options{})
	assert.Same(t, keyErr, err)
	assert.Equal(t, 1, client.calls)
}

func TestRetryHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := &scriptedClient{errs: []error{rateLimited(), rateLimited()}}

	_, err := WithRetry(client, Policy{MaxRetries: 3, BaseDelay: time.Hour}).Complete(ctx, "p", llm.Options{})
	assert.True(t, result.Is(err, "CancelledError"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, client.calls)
}

func TestPolicyDelay(t *testing.T) {
	p := Policy{BaseDelay: 500 * time.Millisecond}
	assert.Equal(t, time.Duration(0), p.Delay(0))
	assert.Equal(t, 500*time.Millisecond, p.Delay(1))
	assert.Equal(t, 2*time.Second, p.Delay(3))
}

// A failure settled by the retry layer is replayed from cache for the TTL
// window without another provider call.
func TestCacheOverRetryReplaysFailure(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	cache := NewCache(time.Hour, WithClock(clock))
	sleeps := &recordedSleeps{}
	errs := make([]error, 8)
	for i := range errs {
		errs[i] = rateLimited()
	}
	client := &scriptedClient{errs: errs, reply: "late"}
	wrapped := Wrap(client, cache, Policy{MaxRetries: 3, BaseDelay: time.Second, Sleep: sleeps.Sleep})

	_, first := wrapped.Complete(context.Background(), "p", llm.Options{})
	require.Error(t, first)
	assert.Equal(t, 4, client.calls)

	_, second := wrapped.Complete(context.Background(), "p", llm.Options{})
	assert.Same(t, first, second)
	assert.Equal(t, 4, client.calls)

	clock.Advance(time.Hour)
	_, third := wrapped.Complete(context.Background(), "p", llm.Options{})
	require.Error(t, third)
	assert.Equal(t, 8, client.calls)
}

func TestCacheKeysIncludeOptions(t *testing.T) {
	cache := NewCache(time.Hour)
	client := &scriptedClient{reply: "r"}
	wrapped := WithCache(client, cache)

	_, _ = wrapped.Complete(context.Background(), "p", llm.Options{})
	_, _ = wrapped.Complete(context.Background(), "p", llm.Options{})
	_, _ = wrapped.Complete(context.Background(), "p", llm.Options{JSON: true})
	assert.Equal(t, 2, client.calls)
	assert.Equal(t, 2, cache.Len())
}
