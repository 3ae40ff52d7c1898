package analytics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"SeriesPulse/internal/domain/models"
	domsvc "SeriesPulse/internal/domain/service"
)

const openAIName = "openai"

// OpenAIConfig configures the LLM insight generator.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// OpenAIInsightGenerator asks a chat completion model for a JSON insight.
type OpenAIInsightGenerator struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

func NewOpenAIInsightGenerator(cfg OpenAIConfig) *OpenAIInsightGenerator {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	oc.HTTPClient = &http.Client{Timeout: timeout}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIInsightGenerator{
		client:      openai.NewClientWithConfig(oc),
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

func (g *OpenAIInsightGenerator) Name() string { return openAIName }

// Generate sends the digest as prompt context. Transport and API failures are errors;
// a reply that cannot be parsed degrades to the default texts.
func (g *OpenAIInsightGenerator) Generate(ctx context.Context, digest models.InsightDigest) (models.AIInsight, error) {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(digest)},
		},
		Temperature: g.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
	if g.maxTokens > 0 {
		req.MaxCompletionTokens = g.maxTokens
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return models.AIInsight{}, wrap(openAIName, fmt.Errorf("api error %d: %s", apiErr.HTTPStatusCode, apiErr.Message))
		}
		return models.AIInsight{}, wrap(openAIName, fmt.Errorf("chat completion: %w", err))
	}
	if len(resp.Choices) == 0 {
		return models.AIInsight{}, wrap(openAIName, errors.New("no choices returned"))
	}
	return NormalizeInsight([]byte(resp.Choices[0].Message.Content)), nil
}

var _ domsvc.InsightGenerator = (*OpenAIInsightGenerator)(nil)
