package providers

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/common"
)

const defaultOllamaHost = "http://127.0.0.1:11434"

type OllamaProvider struct {
	model string
	llm   *ollama.LLM
}

func NewOllamaProvider(model string) (*OllamaProvider, error) {
	host := strings.TrimSpace(os.Getenv("OLLAMA_HOST"))
	if host == "" {
		host = defaultOllamaHost
	}
	client, err := ollama.New(ollama.WithModel(model), ollama.WithServerURL(host))
	if err != nil {
		return nil, fmt.Errorf("configure ollama client: %w", err)
	}
	common.Logger().Info("llm: Ollama provider configured", "model", model, "host", host)
	return &OllamaProvider{model: model, llm: client}, nil
}

func (o *OllamaProvider) Transform(ctx context.Context, prompt, input string) (string, error) {
	logger := common.Logger()
	logger.Debug("llm: sending generate request", "model", o.model, "input_bytes", len(input))
	resp, err := o.llm.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, prompt),
		llms.TextParts(llms.ChatMessageTypeHuman, input),
	})
	if err != nil {
		logger.Error("llm: generate request failed", "error", err)
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	logger.Debug("llm: generate request succeeded")
	return resp.Choices[0].Content, nil
}

func (o *OllamaProvider) Name() string {
	return "ollama"
}
