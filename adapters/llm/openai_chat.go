package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"

	"github.com/satriahrh/gymbuddy/domain/repositories"
)

const (
	defaultChatModel   = "llama-3.3-70b-versatile"
	defaultChatBaseURL = "https://api.groq.com/openai/v1"
)

// ChatConfig configures an OpenAI compatible chat completion endpoint.
// Groq is the default; set BaseURL to talk to OpenAI or another gateway.
type ChatConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// ChatLLM implements LargeLanguageModel over chat completions
type ChatLLM struct {
	client openai.Client
	model  string
	name   string
	logger *zap.Logger
}

var _ repositories.LargeLanguageModel = (*ChatLLM)(nil)

// ValidateChatConfig validates the ChatConfig
func ValidateChatConfig(config ChatConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("chat completion API key is required")
	}
	return nil
}

// NewChatLLM creates a chat completion client. name labels the provider in logs.
func NewChatLLM(name string, config ChatConfig, logger *zap.Logger) (*ChatLLM, error) {
	if err := ValidateChatConfig(config); err != nil {
		return nil, err
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultChatBaseURL
		logger.Info("Using default chat base URL", zap.String("baseURL", baseURL))
	}

	model := config.Model
	if model == "" {
		model = defaultChatModel
		logger.Info("Using default chat model", zap.String("model", model))
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithBaseURL(baseURL),
		// a failed call fails the stage, the generator owns the policy
		option.WithMaxRetries(0),
	}
	if config.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(config.HTTPClient))
	}

	if name == "" {
		name = "chat"
	}

	return &ChatLLM{
		client: openai.NewClient(opts...),
		model:  model,
		name:   name,
		logger: logger,
	}, nil
}

func (c *ChatLLM) Name() string { return c.name }

// Generate sends the prompt as a single user message.
func (c *ChatLLM) Generate(ctx context.Context, prompt string, opts repositories.GenerateOptions) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model:       c.model,
		Temperature: openai.Float(float64(opts.Temperature)),
	}
	if opts.MaxOutputTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(opts.MaxOutputTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	content := resp.Choices[0].Message.Content
	c.logger.Debug("Chat completion received",
		zap.String("provider", c.name),
		zap.String("model", c.model),
		zap.Int64("totalTokens", resp.Usage.TotalTokens))
	return content, nil
}
