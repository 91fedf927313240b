package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/santiagomed/devspark/internal/logger"
	"github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIClient completes prompts through the chat completions API.
type OpenAIClient struct {
	client *openai.Client
	cfg    ClientConfig
	usage  UsageLogger
	logger logger.Logger
}

func NewOpenAIClient(apiKey string, cfg ClientConfig, httpClient *http.Client, usage UsageLogger, l logger.Logger) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultOpenAIModel
	}
	oc := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if httpClient != nil {
		oc.HTTPClient = httpClient
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(oc),
		cfg:    cfg,
		usage:  usage,
		logger: l,
	}, nil
}

func (c *OpenAIClient) Provider() Provider { return ProviderOpenAI }
func (c *OpenAIClient) Model() string      { return c.cfg.Model }

func (c *OpenAIClient) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	model := c.cfg.Model
	if opts.Model != "" {
		model = opts.Model
	}
	req := openai.ChatCompletionRequest{
		Model:       model,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxOutputTokens,
	}
	if opts.Temperature != nil {
		req.Temperature = *opts.Temperature
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	if opts.System != "" {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: opts.System,
		})
	}
	req.Messages = append(req.Messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})
	if opts.JSON {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	c.logger.Debug(fmt.Sprintf("sending %d byte prompt to %s", len(prompt), model))
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", c.classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", &TransportError{Provider: ProviderOpenAI, Err: errors.New("no choices returned from OpenAI")}
	}

	res := resp.Choices[0].Message.Content
	if err := c.usage.Log(prompt, res, model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens); err != nil {
		c.logger.WithField("warning", err.Error()).Warn("failed to log completion usage")
	}
	return res, nil
}

func (c *OpenAIClient) classify(err error) error {
	e := &openai.APIError{}
	if errors.As(err, &e) {
		switch e.HTTPStatusCode {
		case 401:
			return transportError(ProviderOpenAI, 401, fmt.Errorf("unauthorized: invalid OpenAI API key"))
		case 429:
			return transportError(ProviderOpenAI, 429, fmt.Errorf("rate limited by OpenAI API: %s", e.Message))
		default:
			return transportError(ProviderOpenAI, e.HTTPStatusCode, fmt.Errorf("OpenAI API error: %s", e.Message))
		}
	}
	re := &openai.RequestError{}
	if errors.As(err, &re) {
		return transportError(ProviderOpenAI, re.HTTPStatusCode, err)
	}
	return transportError(ProviderOpenAI, 0, err)
}
