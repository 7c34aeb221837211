package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultMaxTokens bounds the length of a model answer.
const DefaultMaxTokens = 4096

// ClaudeCaller implements Caller using the Anthropic Messages API.
type ClaudeCaller struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
	system    string
	logger    *slog.Logger
}

// NewClaudeCaller creates a Claude-backed caller. Extra request options
// (base URL, retries) are passed through to the SDK client.
func NewClaudeCaller(apiKey, model string, maxTokens int64, system string, logger *slog.Logger, opts ...option.RequestOption) *ClaudeCaller {
	if logger == nil {
		logger = slog.Default()
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	client := anthropic.NewClient(opts...)
	return &ClaudeCaller{
		client:    &client,
		model:     model,
		maxTokens: maxTokens,
		system:    system,
		logger:    logger,
	}
}

func (c *ClaudeCaller) Invoke(ctx context.Context, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(prompt),
			),
		},
	}
	if c.system != "" {
		params.System = []anthropic.TextBlockParam{{Text: c.system}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}

	var responseText string
	for i := range resp.Content {
		if resp.Content[i].Type == "text" {
			responseText = resp.Content[i].Text
			break
		}
	}

	if strings.TrimSpace(responseText) == "" {
		return "", ErrEmptyResponse
	}

	c.logger.Debug("claude response", "model", c.model, "chars", len(responseText))
	return responseText, nil
}
