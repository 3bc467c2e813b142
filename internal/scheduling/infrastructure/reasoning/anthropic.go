package reasoning

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/felixgeelhaar/flightwatch/internal/scheduling/application/services"
	"github.com/felixgeelhaar/flightwatch/internal/scheduling/domain"
)

const (
	DefaultAnthropicModel   = "claude-3-5-haiku-latest"
	DefaultAnthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion        = "2023-06-01"
)

// AnthropicConfig configures the Messages API client.
type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// AnthropicProvider asks an Anthropic model through the Messages API.
type AnthropicProvider struct {
	client *resty.Client
	apiKey string
	model  string
	logger *slog.Logger
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewAnthropicProvider creates a provider. An empty key leaves it unconfigured.
func NewAnthropicProvider(cfg AnthropicConfig, logger *slog.Logger) *AnthropicProvider {
	if cfg.Model == "" {
		cfg.Model = DefaultAnthropicModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultAnthropicBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("anthropic-version", anthropicVersion)
	client.SetHeader("x-api-key", cfg.APIKey)

	return &AnthropicProvider{
		client: client,
		apiKey: cfg.APIKey,
		model:  cfg.Model,
		logger: logger,
	}
}

func (p *AnthropicProvider) Name() string     { return domain.ProviderAnthropic }
func (p *AnthropicProvider) Configured() bool { return p.apiKey != "" }

func (p *AnthropicProvider) Suggest(ctx context.Context, rc services.RescheduleContext) (*services.Suggestion, error) {
	system, user := services.Prompts(rc)

	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(anthropicRequest{
			Model:     p.model,
			MaxTokens: 1024,
			System:    system,
			Messages:  []anthropicMessage{{Role: "user", Content: user}},
		}).
		Post("/v1/messages")
	if err != nil {
		return nil, fmt.Errorf("anthropic messages: %w", err)
	}

	var body anthropicResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("%w: decode anthropic response: %v", domain.ErrMalformedSuggestion, err)
	}
	if resp.StatusCode() != 200 {
		if body.Error != nil {
			return nil, fmt.Errorf("anthropic HTTP %d: %s", resp.StatusCode(), body.Error.Message)
		}
		return nil, fmt.Errorf("anthropic HTTP %d", resp.StatusCode())
	}

	var text strings.Builder
	for _, block := range body.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	p.logger.DebugContext(ctx, "anthropic suggestion received", "booking_id", rc.BookingID, "chars", text.Len())
	return services.ParseSuggestion(p.Name(), text.String(), rc.OriginalDate.Location())
}
