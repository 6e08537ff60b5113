package aiproxy

import (
	"context"
	"regexp"

	"github.com/sashabaranov/go-openai"

	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/errors"
)

// providerBaseURL maps a provider name to its OpenAI-compatible API root.
// Unknown providers default to OpenAI itself.
func providerBaseURL(provider string) string {
	switch provider {
	case "deepseek":
		return "https://api.deepseek.com/v1"
	case "groq":
		return "https://api.groq.com/openai/v1"
	case "openrouter":
		return "https://openrouter.ai/api/v1"
	default:
		return "https://api.openai.com/v1"
	}
}

// OpenAI keys start with sk-, optionally project scoped. Compatible vendors
// issue their own formats, so validation only applies to openai itself.
var openaiKeyPattern = regexp.MustCompile(`^sk-(?:proj-)?[a-zA-Z0-9_-]{20,}$`)

// openAIProvider serves OpenAI and every OpenAI-compatible endpoint.
type openAIProvider struct {
	baseURL string
}

func (p *openAIProvider) Complete(ctx context.Context, apiKey string, req Request) (*Completion, error) {
	const op = "aiproxy.openAIProvider.Complete"

	if p.baseURL == providerBaseURL("openai") && !openaiKeyPattern.MatchString(apiKey) {
		return nil, errors.AI(op, "invalid OpenAI API key format")
	}

	clientConfig := openai.DefaultConfig(apiKey)
	clientConfig.BaseURL = p.baseURL
	client := openai.NewClientWithConfig(clientConfig)

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: *req.Temperature,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.AI(op, "no response from AI model")
	}

	return &Completion{
		Content:      resp.Choices[0].Message.Content,
		InputTokens:  uint64(resp.Usage.PromptTokens),     // #nosec G115 -- token counts are non-negative
		OutputTokens: uint64(resp.Usage.CompletionTokens), // #nosec G115 -- token counts are non-negative
	}, nil
}
