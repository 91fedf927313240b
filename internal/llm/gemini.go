package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/santiagomed/devspark/internal/logger"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-1.5-flash-latest"

// GeminiClient completes prompts through the Gemini API.
type GeminiClient struct {
	client *genai.Client
	cfg    ClientConfig
	usage  UsageLogger
	logger logger.Logger
}

func NewGeminiClient(ctx context.Context, apiKey string, cfg ClientConfig, httpClient *http.Client, usage UsageLogger, l logger.Logger) (*GeminiClient, error) {
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}
	gc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if httpClient != nil {
		gc.HTTPClient = httpClient
	}
	if cfg.BaseURL != "" {
		gc.HTTPOptions.BaseURL = cfg.BaseURL
	}
	client, err := genai.NewClient(ctx, gc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client, cfg: cfg, usage: usage, logger: l}, nil
}

func (c *GeminiClient) Provider() Provider { return ProviderGemini }
func (c *GeminiClient) Model() string      { return c.cfg.Model }

func (c *GeminiClient) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	model := c.cfg.Model
	if opts.Model != "" {
		model = opts.Model
	}
	temperature := c.cfg.Temperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}
	maxTokens := c.cfg.MaxOutputTokens
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}

	gen := &genai.GenerateContentConfig{
		Temperature: &temperature,
	}
	if maxTokens > 0 {
		gen.MaxOutputTokens = int32(maxTokens)
	}
	if opts.System != "" {
		gen.SystemInstruction = genai.NewContentFromText(opts.System, genai.RoleUser)
	}
	if opts.JSON {
		gen.ResponseMIMEType = "application/json"
	}

	c.logger.Debug(fmt.Sprintf("sending %d byte prompt to %s", len(prompt), model))
	resp, err := c.client.Models.GenerateContent(ctx, model, genai.Text(prompt), gen)
	if err != nil {
		return "", c.classify(err)
	}

	res := resp.Text()
	if res == "" {
		return "", &TransportError{Provider: ProviderGemini, Err: errors.New("empty response from Gemini")}
	}
	var promptTokens, completionTokens int
	if resp.UsageMetadata != nil {
		promptTokens = int(resp.UsageMetadata.PromptTokenCount)
		completionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	if err := c.usage.Log(prompt, res, model, promptTokens, completionTokens); err != nil {
		c.logger.WithField("warning", err.Error()).Warn("failed to log completion usage")
	}
	return res, nil
}

func (c *GeminiClient) classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return transportError(ProviderGemini, apiErr.Code, fmt.Errorf("Gemini API error (%s): %s", apiErr.Status, apiErr.Message))
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return transportError(ProviderGemini, apiErrPtr.Code, fmt.Errorf("Gemini API error (%s): %s", apiErrPtr.Status, apiErrPtr.Message))
	}
	return transportError(ProviderGemini, 0, err)
}
