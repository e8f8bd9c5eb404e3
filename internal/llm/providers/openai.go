package providers

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/common"
)

type OpenAIProvider struct {
	client openai.Client
	model  string
}

func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	logger := common.Logger()
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if endpoint := strings.TrimSpace(os.Getenv("OPENAI_ENDPOINT")); endpoint != "" {
		logger.Info("llm: configuring OpenAI client with custom endpoint", "endpoint", endpoint)
		opts = append(opts, option.WithBaseURL(endpoint))
	}
	model := strings.TrimSpace(os.Getenv("OPENAI_CHAT_MODEL"))
	if model == "" {
		model = "gpt-4o"
	}
	logger.Info("llm: OpenAI provider configured", "model", model)
	return &OpenAIProvider{client: openai.NewClient(opts...), model: model}
}

func (o *OpenAIProvider) Transform(ctx context.Context, prompt, input string) (string, error) {
	logger := common.Logger()
	logger.Debug("llm: sending chat completion request", "model", o.model, "input_bytes", len(input))
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt),
			openai.UserMessage(input),
		},
	})
	if err != nil {
		logger.Error("llm: chat completion failed", "error", err)
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	logger.Debug("llm: chat completion succeeded")
	return resp.Choices[0].Message.Content, nil
}

func (o *OpenAIProvider) Name() string {
	return "openai"
}
