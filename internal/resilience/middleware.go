package resilience

import (
	"context"

	"github.com/santiagomed/devspark/internal/llm"
)

type retryClient struct {
	next   llm.Client
	policy Policy
}

// WithRetry wraps next so every completion runs under p.
func WithRetry(next llm.Client, p Policy) llm.Client {
	return &retryClient{next: next, policy: p}
}

func (c *retryClient) Provider() llm.Provider { return c.next.Provider() }
func (c *retryClient) Model() string          { return c.next.Model() }

func (c *retryClient) Complete(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	return Retry(ctx, c.policy, func(ctx context.Context) (string, error) {
		return c.next.Complete(ctx, prompt, opts)
	})
}

type cachedClient struct {
	next  llm.Client
	cache *Cache
}

// WithCache wraps next with c. The key covers provider, model, prompt and
// options, so the same prompt with different options is a different entry.
func WithCache(next llm.Client, c *Cache) llm.Client {
	return &cachedClient{next: next, cache: c}
}

func (c *cachedClient) Provider() llm.Provider { return c.next.Provider() }
func (c *cachedClient) Model() string          { return c.next.Model() }

func (c *cachedClient) Complete(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	key := Key("complete:"+string(c.next.Provider())+":"+c.next.Model(), []string{prompt}, opts.Fields())
	if v, err, ok := c.cache.Get(key); ok {
		s, _ := v.(string)
		return s, err
	}
	v, err := c.next.Complete(ctx, prompt, opts)
	// a cancelled caller says nothing about the request itself
	if ctx.Err() == nil {
		c.cache.Put(key, v, err)
	}
	return v, err
}

// Wrap composes the standard stack: the cache sits outside the retry loop, so
// a request that exhausted its retries is answered from cache until the entry
// expires.
func Wrap(client llm.Client, c *Cache, p Policy) llm.Client {
	return WithCache(WithRetry(client, p), c)
}
