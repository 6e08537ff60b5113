package aiproxy

import (
	"context"
	"regexp"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/errors"
)

// Anthropic keys start with sk-ant-.
var anthropicKeyPattern = regexp.MustCompile(`^sk-ant-[a-zA-Z0-9_-]{20,}$`)

type anthropicProvider struct{}

func (p *anthropicProvider) Complete(ctx context.Context, apiKey string, req Request) (*Completion, error) {
	const op = "aiproxy.anthropicProvider.Complete"

	// Fail fast so a malformed key never reaches an error message.
	if !anthropicKeyPattern.MatchString(apiKey) {
		return nil, errors.AI(op, "invalid Anthropic API key format (expected sk-ant-...)")
	}

	client := anthropic.NewClient(apiKey)

	messages := make([]anthropic.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case "assistant":
			messages = append(messages, anthropic.NewAssistantTextMessage(m.Content))
		default:
			messages = append(messages, anthropic.NewUserTextMessage(m.Content))
		}
	}

	resp, err := client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   req.MaxTokens,
		System:      req.SystemPrompt,
		Messages:    messages,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Content) == 0 {
		return nil, errors.AI(op, "no response from Anthropic model")
	}

	return &Completion{
		Content:      resp.GetFirstContentText(),
		InputTokens:  uint64(resp.Usage.InputTokens),  // #nosec G115 -- token counts are non-negative
		OutputTokens: uint64(resp.Usage.OutputTokens), // #nosec G115 -- token counts are non-negative
	}, nil
}
