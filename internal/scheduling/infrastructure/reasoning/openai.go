// Package reasoning adapts hosted language models to the reschedule
// suggestion provider interface.
package reasoning

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"

	"github.com/felixgeelhaar/flightwatch/internal/scheduling/application/services"
	"github.com/felixgeelhaar/flightwatch/internal/scheduling/domain"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIProvider asks an OpenAI chat model for reschedule options.
type OpenAIProvider struct {
	client     *openai.Client
	model      string
	configured bool
	logger     *slog.Logger
}

// NewOpenAIProvider creates a provider. An empty apiKey leaves it
// unconfigured so the chain skips it. baseURL overrides the API endpoint
// when set.
func NewOpenAIProvider(apiKey, model, baseURL string, logger *slog.Logger) *OpenAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{
		client:     openai.NewClientWithConfig(cfg),
		model:      model,
		configured: apiKey != "",
		logger:     logger,
	}
}

func (p *OpenAIProvider) Name() string     { return domain.ProviderOpenAI }
func (p *OpenAIProvider) Configured() bool { return p.configured }

func (p *OpenAIProvider) Suggest(ctx context.Context, rc services.RescheduleContext) (*services.Suggestion, error) {
	system, user := services.Prompts(rc)

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.3,
		MaxTokens:   1024,
	})
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices from openai", domain.ErrMalformedSuggestion)
	}

	content := resp.Choices[0].Message.Content
	p.logger.DebugContext(ctx, "openai suggestion received", "booking_id", rc.BookingID, "chars", len(content))
	return services.ParseSuggestion(p.Name(), content, rc.OriginalDate.Location())
}
