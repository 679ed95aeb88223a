package openai

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	gopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

type scriptedClient struct {
	requests  []gopenai.ChatCompletionRequest
	responses []gopenai.ChatCompletionResponse
	errs      []error
}

func (s *scriptedClient) CreateChatCompletion(_ context.Context, req gopenai.ChatCompletionRequest) (gopenai.ChatCompletionResponse, error) {
	i := len(s.requests)
	s.requests = append(s.requests, req)
	if i < len(s.errs) && s.errs[i] != nil {
		return gopenai.ChatCompletionResponse{}, s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return gopenai.ChatCompletionResponse{}, errors.New("unexpected call")
}

func reply(text string) gopenai.ChatCompletionResponse {
	return gopenai.ChatCompletionResponse{Choices: []gopenai.ChatCompletionChoice{{
		Message: gopenai.ChatCompletionMessage{Role: gopenai.ChatMessageRoleAssistant, Content: text},
	}}}
}

func noWait(t *testing.T) {
	t.Helper()
	original := wait
	wait = func(context.Context, time.Duration) error { return nil }
	t.Cleanup(func() { wait = original })
}

func TestGenerateBuildsJSONRequest(t *testing.T) {
	client := &scriptedClient{responses: []gopenai.ChatCompletionResponse{reply(`{"tool_scores":{}}`)}}
	g := newGenerator(client, "openai", "gpt-test", 1, zap.NewNop())

	out, err := g.Generate(context.Background(), "route tools", "find jobs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"tool_scores":{}}` {
		t.Fatalf("unexpected output %q", out)
	}

	req := client.requests[0]
	if req.Model != "gpt-test" {
		t.Fatalf("unexpected model %q", req.Model)
	}
	if req.ResponseFormat == nil || req.ResponseFormat.Type != gopenai.ChatCompletionResponseFormatTypeJSONObject {
		t.Fatalf("expected json object response format, got %+v", req.ResponseFormat)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != gopenai.ChatMessageRoleSystem || req.Messages[1].Content != "find jobs" {
		t.Fatalf("unexpected messages %+v", req.Messages)
	}
}

func TestGenerateRetriesTransientErrors(t *testing.T) {
	noWait(t)

	client := &scriptedClient{
		errs: []error{
			&gopenai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "slow down"},
			&gopenai.RequestError{HTTPStatusCode: http.StatusBadGateway, Err: errors.New("bad gateway")},
		},
		responses: []gopenai.ChatCompletionResponse{{}, {}, reply("ok")},
	}
	g := newGenerator(client, "azure", "deployment", 3, zap.NewNop())

	out, err := g.Generate(context.Background(), "", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "ok" {
		t.Fatalf("unexpected output %q", out)
	}
	if len(client.requests) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(client.requests))
	}
	if len(client.requests[0].Messages) != 1 {
		t.Fatalf("expected no system message when system is empty")
	}
}

func TestGenerateDoesNotRetryClientErrors(t *testing.T) {
	noWait(t)

	client := &scriptedClient{errs: []error{&gopenai.APIError{HTTPStatusCode: http.StatusUnauthorized, Message: "bad key"}}}
	g := newGenerator(client, "openai", "gpt-test", 3, zap.NewNop())

	_, err := g.Generate(context.Background(), "sys", "hello")
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *gopenai.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected wrapped api error, got %v", err)
	}
	if len(client.requests) != 1 {
		t.Fatalf("expected single attempt, got %d", len(client.requests))
	}
}

func TestGenerateEmptyChoices(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{responses: []gopenai.ChatCompletionResponse{{}}}
	g := newGenerator(client, "openai", "gpt-test", 1, zap.NewNop())

	if _, err := g.Generate(context.Background(), "sys", "hello"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestNewAzureValidatesOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts Options
	}{
		{name: "missing key", opts: Options{AzureEndpoint: "https://example.openai.azure.com", AzureDeployment: "gpt"}},
		{name: "missing endpoint", opts: Options{APIKey: "k", AzureDeployment: "gpt"}},
		{name: "missing deployment", opts: Options{APIKey: "k", AzureEndpoint: "https://example.openai.azure.com"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := NewAzure(tt.opts, zap.NewNop()); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	g, err := NewAzure(Options{APIKey: "k", AzureEndpoint: "https://example.openai.azure.com", AzureDeployment: "gpt-4o"}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Model() != "gpt-4o" {
		t.Fatalf("expected deployment as model, got %q", g.Model())
	}
}
