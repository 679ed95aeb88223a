// Package openai implements ai.TextGenerator on top of the OpenAI chat
// completions API, including Azure OpenAI deployments.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/spigell/career-assistant/internal/logger"
	"github.com/spigell/career-assistant/internal/utils"
)

const (
	DefaultModel           = gopenai.GPT4oMini
	DefaultAzureAPIVersion = "2024-02-15-preview"

	defaultMaxRetries = 3
	baseDelay         = time.Second
	maxDelay          = 10 * time.Second
)

var wait = utils.WaitFor

type completionClient interface {
	CreateChatCompletion(ctx context.Context, req gopenai.ChatCompletionRequest) (gopenai.ChatCompletionResponse, error)
}

// Options configures a Generator.
type Options struct {
	APIKey     string
	Model      string
	BaseURL    string
	MaxRetries int

	// Azure specific. Endpoint switches the client into Azure mode.
	AzureEndpoint   string
	AzureDeployment string
	APIVersion      string
}

// Generator sends a system + user message pair as a chat completion and
// asks for a JSON object back.
type Generator struct {
	client     completionClient
	model      string
	provider   string
	maxRetries int
	logger     *zap.Logger
}

// New creates a Generator for api.openai.com or a compatible BaseURL.
func New(opts Options, log *zap.Logger) (*Generator, error) {
	key := strings.TrimSpace(opts.APIKey)
	if key == "" {
		return nil, errors.New("openai api key is required")
	}

	cfg := gopenai.DefaultConfig(key)
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		cfg.BaseURL = base
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}

	return newGenerator(gopenai.NewClientWithConfig(cfg), "openai", model, opts.MaxRetries, log), nil
}

// NewAzure creates a Generator bound to an Azure OpenAI deployment.
func NewAzure(opts Options, log *zap.Logger) (*Generator, error) {
	key := strings.TrimSpace(opts.APIKey)
	if key == "" {
		return nil, errors.New("azure openai api key is required")
	}
	endpoint := strings.TrimSpace(opts.AzureEndpoint)
	if endpoint == "" {
		return nil, errors.New("azure openai endpoint is required")
	}
	deployment := strings.TrimSpace(opts.AzureDeployment)
	if deployment == "" {
		return nil, errors.New("azure openai deployment is required")
	}

	cfg := gopenai.DefaultAzureConfig(key, endpoint)
	cfg.APIVersion = DefaultAzureAPIVersion
	if v := strings.TrimSpace(opts.APIVersion); v != "" {
		cfg.APIVersion = v
	}
	cfg.AzureModelMapperFunc = func(string) string { return deployment }

	return newGenerator(gopenai.NewClientWithConfig(cfg), "azure", deployment, opts.MaxRetries, log), nil
}

func newGenerator(client completionClient, provider, model string, maxRetries int, log *zap.Logger) *Generator {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &Generator{
		client:     client,
		model:      model,
		provider:   provider,
		maxRetries: maxRetries,
		logger:     logger.WithFields(log, zap.String(logger.FieldProvider, provider)),
	}
}

// Generate returns the assistant message content for the system + user pair.
func (g *Generator) Generate(ctx context.Context, system, user string) (string, error) {
	if g == nil || g.client == nil {
		return "", errors.New("openai generator is not initialized")
	}

	user = strings.TrimSpace(user)
	if user == "" {
		return "", errors.New("message must not be empty")
	}

	req := gopenai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: 0,
		ResponseFormat: &gopenai.ChatCompletionResponseFormat{
			Type: gopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
	if system = strings.TrimSpace(system); system != "" {
		req.Messages = append(req.Messages, gopenai.ChatCompletionMessage{
			Role:    gopenai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	req.Messages = append(req.Messages, gopenai.ChatCompletionMessage{
		Role:    gopenai.ChatMessageRoleUser,
		Content: user,
	})

	var lastErr error
	for attempt := 0; attempt < g.maxRetries; attempt++ {
		resp, err := g.client.CreateChatCompletion(ctx, req)
		if err == nil {
			return content(resp)
		}
		lastErr = err

		if !retryable(err) || attempt == g.maxRetries-1 {
			break
		}

		delay := utils.Backoff(baseDelay, maxDelay, attempt)
		g.logger.Warn("chat completion failed, retrying",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
		)
		if err := wait(ctx, delay); err != nil {
			return "", err
		}
	}

	return "", fmt.Errorf("%s chat completion: %w", g.provider, lastErr)
}

func content(resp gopenai.ChatCompletionResponse) (string, error) {
	for _, choice := range resp.Choices {
		if text := strings.TrimSpace(choice.Message.Content); text != "" {
			return text, nil
		}
	}
	return "", errors.New("chat completion returned no content")
}

func retryable(err error) bool {
	var apiErr *gopenai.APIError
	if errors.As(err, &apiErr) {
		return transientStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *gopenai.RequestError
	if errors.As(err, &reqErr) {
		return transientStatus(reqErr.HTTPStatusCode)
	}
	return false
}

func transientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}
