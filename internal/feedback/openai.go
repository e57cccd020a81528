package feedback

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/formative-labs/readquiz/internal/content"
	"github.com/formative-labs/readquiz/internal/scoring"
)

// OpenAIConfig holds provider configuration for the OpenAI generator.
// BaseURL may point at any OpenAI-compatible API.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// OpenAIGenerator implements Generator with a single chat completion.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, article string, key content.AnswerKey, user scoring.UserAnswers) (string, error) {
	userPrompt, err := buildUserPrompt(article, key, user)
	if err != nil {
		return "", fmt.Errorf("build prompt: %w", err)
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("feedback completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("feedback completion: no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}
