// Package llm is the provider gateway: it maps a provider name and a
// credential to a Client that turns one prompt into one completion string.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/santiagomed/devspark/internal/logger"
	"github.com/santiagomed/devspark/internal/result"
)

type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

// Providers lists the supported providers in display order.
var Providers = []Provider{ProviderGemini, ProviderOpenAI}

// CredentialEnv names the environment variable holding the key for p.
func (p Provider) CredentialEnv() string {
	switch p {
	case ProviderGemini:
		return "GOOGLE_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	}
	return ""
}

// ParseProvider resolves a provider name case-insensitively. "google" is an
// alias of gemini. Unknown names yield a ValueError.
func ParseProvider(name string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "gemini", "google":
		return ProviderGemini, nil
	case "openai":
		return ProviderOpenAI, nil
	}
	return "", result.New(result.TypeValue, fmt.Sprintf("unsupported provider %q (supported: gemini, google, openai)", name))
}

// Client issues exactly one completion request per call.
type Client interface {
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
	Provider() Provider
	Model() string
}

// Options are the per-call generation parameters. The zero value uses the
// client's configured defaults.
type Options struct {
	Model       string
	System      string
	Temperature *float32
	MaxTokens   int
	JSON        bool
}

// Fields returns the options as a name/value map, used to build cache keys.
func (o Options) Fields() map[string]string {
	f := map[string]string{
		"json": fmt.Sprint(o.JSON),
	}
	if o.Model != "" {
		f["model"] = o.Model
	}
	if o.System != "" {
		f["system"] = o.System
	}
	if o.Temperature != nil {
		f["temperature"] = fmt.Sprint(*o.Temperature)
	}
	if o.MaxTokens > 0 {
		f["max_tokens"] = fmt.Sprint(o.MaxTokens)
	}
	return f
}

// String renders Fields in sorted key order.
func (o Options) String() string {
	f := o.Fields()
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + f[k]
	}
	return strings.Join(parts, ",")
}

// ClientConfig holds the settings shared by every provider.
type ClientConfig struct {
	Model           string
	BaseURL         string
	Temperature     float32
	MaxOutputTokens int
	Timeout         time.Duration
}

// CredentialSource supplies the API key of a provider.
type CredentialSource interface {
	APIKey(p Provider) string
}

// EnvCredentials reads keys through a lookup function such as os.Getenv.
type EnvCredentials func(string) string

func (e EnvCredentials) APIKey(p Provider) string {
	return e(p.CredentialEnv())
}

type clientOptions struct {
	logger     logger.Logger
	usage      UsageLogger
	httpClient *http.Client
}

type Option func(*clientOptions)

func WithLogger(l logger.Logger) Option {
	return func(o *clientOptions) { o.logger = l }
}

// WithUsageLogger records every successful completion.
func WithUsageLogger(u UsageLogger) Option {
	return func(o *clientOptions) { o.usage = u }
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

// Configure builds the client for the named provider. It never touches the
// network and its failures are not retryable: an unknown provider is a
// ValueError, a missing key is a KeyError, and an SDK construction failure is
// tagged with the SDK error's type name.
func Configure(ctx context.Context, name string, creds CredentialSource, cfg ClientConfig, opts ...Option) (Client, error) {
	p, err := ParseProvider(name)
	if err != nil {
		return nil, err
	}
	key := ""
	if creds != nil {
		key = creds.APIKey(p)
	}
	if key == "" {
		return nil, result.New(result.TypeKey, fmt.Sprintf("%s is not set; it is required for provider %s", p.CredentialEnv(), p))
	}

	o := clientOptions{logger: logger.NewNullLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.usage == nil {
		o.usage = nopUsage{}
	}
	l := o.logger.WithField("provider", string(p))

	var c Client
	switch p {
	case ProviderOpenAI:
		c, err = NewOpenAIClient(key, cfg, o.httpClient, o.usage, l)
	case ProviderGemini:
		c, err = NewGeminiClient(ctx, key, cfg, o.httpClient, o.usage, l)
	}
	if err != nil {
		return nil, result.From(err)
	}
	l.Debug(fmt.Sprintf("configured %s client with model %s", p, c.Model()))
	return c, nil
}
