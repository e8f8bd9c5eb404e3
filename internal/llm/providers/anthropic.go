package providers

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/common"
)

// Snapshot documents for large repositories run long, so the ceiling stays
// well above the typical completion size.
const anthropicMaxTokens = 8192

type AnthropicProvider struct {
	client anthropic.Client
	model  string
}

func NewAnthropicProvider(apiKey string) *AnthropicProvider {
	model := strings.TrimSpace(os.Getenv("ANTHROPIC_CHAT_MODEL"))
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	common.Logger().Info("llm: Anthropic provider configured", "model", model)
	return &AnthropicProvider{client: anthropic.NewClient(option.WithAPIKey(apiKey)), model: model}
}

func (a *AnthropicProvider) Transform(ctx context.Context, prompt, input string) (string, error) {
	logger := common.Logger()
	logger.Debug("llm: sending messages request", "model", a.model, "input_bytes", len(input))
	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: anthropicMaxTokens,
		System:    []anthropic.TextBlockParam{{Text: prompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(input)),
		},
	})
	if err != nil {
		logger.Error("llm: messages request failed", "error", err)
		return "", fmt.Errorf("anthropic messages: %w", err)
	}
	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("no text content returned")
	}
	logger.Debug("llm: messages request succeeded")
	return text.String(), nil
}

func (a *AnthropicProvider) Name() string {
	return "anthropic"
}
