package llm

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/shuu5/obsclip/internal/errs"
)

// AnthropicClient calls the Anthropic Messages API.
type AnthropicClient struct {
	client anthropic.Client
	model  anthropic.Model
	cfg    Config
}

// NewAnthropicClient builds a Client from cfg. cfg.Model is passed through
// verbatim as the Anthropic model identifier (e.g. "claude-sonnet-4-5").
func NewAnthropicClient(cfg Config) *AnthropicClient {
	return &AnthropicClient{
		client: anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:  anthropic.Model(cfg.Model),
		cfg:    cfg,
	}
}

// Complete sends req as a single-turn Messages API call and concatenates
// any text content blocks in the reply.
func (c *AnthropicClient) Complete(ctx context.Context, req Request) (Response, error) {
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = int64(c.cfg.maxTokensOrDefault())
	}

	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.User)),
		},
	}

	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.timeoutOrDefault())
	defer cancel()

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return Response{}, errs.API(errs.APIConnection, "anthropic messages.new", err)
	}

	text := ""

	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return Response{
		Text:         text,
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
	}, nil
}
