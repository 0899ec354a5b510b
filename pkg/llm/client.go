package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// ErrEmptyResponse is returned when the model answers with no choices.
var ErrEmptyResponse = errors.New("llm: empty response")

// Completer is the narrow surface the planners and the assistant need.
type Completer interface {
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
}

// Client talks to an OpenAI-compatible chat endpoint (Gemini by default).
type Client struct {
	config       *Config
	openaiClient *openai.Client
	logger       Logger
	retryHandler *RetryHandler
}

// ClientOption configures optional client behaviour.
type ClientOption func(*clientOptions)

type clientOptions struct {
	logger       Logger
	retry        *RetryHandler
	httpClient   *http.Client
	openaiClient *openai.Client
}

// WithLogger injects a custom logger implementation.
func WithLogger(logger Logger) ClientOption {
	return func(opts *clientOptions) {
		opts.logger = logger
	}
}

// WithRetryHandler injects a custom retry handler.
func WithRetryHandler(handler *RetryHandler) ClientOption {
	return func(opts *clientOptions) {
		opts.retry = handler
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(opts *clientOptions) {
		opts.httpClient = client
	}
}

// WithOpenAIClient injects a pre-configured SDK client.
func WithOpenAIClient(client *openai.Client) ClientOption {
	return func(opts *clientOptions) {
		opts.openaiClient = client
	}
}

// NewClient constructs a client from cfg.
func NewClient(cfg *Config, opts ...ClientOption) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("llm: config cannot be nil")
	}
	clientCfg := cfg.Clone()
	if err := clientCfg.Validate(); err != nil {
		return nil, err
	}

	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = NewLogger(clientCfg.LogLevel)
	}
	if o.retry == nil {
		o.retry = NewRetryHandler(RetryConfig{MaxRetries: clientCfg.MaxRetries})
	}
	if o.openaiClient == nil {
		oaOpts := []option.RequestOption{
			option.WithAPIKey(clientCfg.APIKey),
			option.WithBaseURL(clientCfg.BaseURL),
			option.WithRequestTimeout(clientCfg.Timeout),
			// retries are owned by RetryHandler
			option.WithMaxRetries(0),
		}
		if o.httpClient != nil {
			oaOpts = append(oaOpts, option.WithHTTPClient(o.httpClient))
		}
		oc := openai.NewClient(oaOpts...)
		o.openaiClient = &oc
	}

	return &Client{
		config:       clientCfg,
		openaiClient: o.openaiClient,
		logger:       o.logger,
		retryHandler: o.retry,
	}, nil
}

// Chat performs a single synchronous completion request.
func (c *Client) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if req == nil {
		return nil, errors.New("llm: request cannot be nil")
	}
	params, err := c.buildChatParams(req)
	if err != nil {
		return nil, err
	}
	model := string(params.Model)

	start := time.Now()
	c.logger.Debug(ctx, "llm chat request", Fields{
		"model":    model,
		"messages": len(req.Messages),
		"prompt":   summarizeMessages(req.Messages),
	})

	var completion *openai.ChatCompletion
	err = c.retryHandler.Do(ctx, func() error {
		resp, callErr := c.openaiClient.Chat.Completions.New(ctx, params)
		if callErr != nil {
			c.logger.Warn(ctx, "chat completion attempt failed", Fields{"model": model, "error": callErr.Error()})
			return callErr
		}
		completion = resp
		return nil
	})
	if err != nil {
		c.logger.Error(ctx, fmt.Errorf("chat completion failed: %w", err), Fields{"model": model})
		return nil, err
	}

	result, err := convertCompletion(completion)
	if err != nil {
		return nil, err
	}
	c.logger.Info(ctx, "llm chat success", Fields{
		"model":             model,
		"duration_ms":       time.Since(start).Milliseconds(),
		"prompt_tokens":     result.Usage.PromptTokens,
		"completion_tokens": result.Usage.CompletionTokens,
	})
	return result, nil
}

// GetConfig returns a copy of the client configuration.
func (c *Client) GetConfig() *Config {
	return c.config.Clone()
}

// Close releases resources. The SDK client holds none today.
func (c *Client) Close() error {
	return nil
}

// Complete sends msgs through cm and returns the trimmed text of the first choice.
func Complete(ctx context.Context, cm Completer, msgs ...Message) (string, error) {
	if cm == nil {
		return "", errors.New("llm: no completer configured")
	}
	resp, err := cm.Chat(ctx, &ChatRequest{Messages: msgs})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}

func (c *Client) buildChatParams(req *ChatRequest) (openai.ChatCompletionNewParams, error) {
	if len(req.Messages) == 0 {
		return openai.ChatCompletionNewParams{}, errors.New("llm: request requires at least one message")
	}
	model := strings.TrimPrefix(strings.TrimSpace(req.Model), "models/")
	if model == "" {
		model = c.config.DefaultModel
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: buildMessageParams(req.Messages),
	}
	switch {
	case req.Temperature != nil:
		params.Temperature = openai.Float(*req.Temperature)
	case c.config.Temperature != nil:
		params.Temperature = openai.Float(*c.config.Temperature)
	}
	if req.MaxTokens != nil {
		params.MaxCompletionTokens = openai.Int(int64(*req.MaxTokens))
	}
	if req.JSONMode {
		val := shared.NewResponseFormatJSONObjectParam()
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{OfJSONObject: &val}
	}
	return params, nil
}

func buildMessageParams(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch strings.ToLower(m.Role) {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.ChatCompletionMessageParamOfAssistant(m.Content))
		default:
			param := openai.UserMessage(m.Content)
			if m.Name != "" && param.OfUser != nil {
				param.OfUser.Name = openai.String(m.Name)
			}
			out = append(out, param)
		}
	}
	return out
}

func convertCompletion(resp *openai.ChatCompletion) (*ChatResponse, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}
	choice := resp.Choices[0]
	return &ChatResponse{
		ID:           resp.ID,
		Model:        resp.Model,
		Content:      choice.Message.Content,
		FinishReason: choice.FinishReason,
		Created:      resp.Created,
		Usage: Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

func summarizeMessages(msgs []Message) string {
	if len(msgs) == 0 {
		return ""
	}
	last := msgs[len(msgs)-1].Content
	if len(last) > 120 {
		last = last[:120] + "..."
	}
	return last
}
