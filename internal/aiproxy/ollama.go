package aiproxy

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/errors"
)

// DefaultOllamaBaseURL is the local Ollama OpenAI-compatible endpoint.
const DefaultOllamaBaseURL = "http://localhost:11434/v1"

// ollamaProvider talks to a local Ollama instance. No credential is needed,
// but the OpenAI client insists on one.
type ollamaProvider struct {
	client *openai.Client
}

func newOllamaProvider() *ollamaProvider {
	clientConfig := openai.DefaultConfig("ollama")
	clientConfig.BaseURL = DefaultOllamaBaseURL
	clientConfig.HTTPClient = &http.Client{
		Timeout: 120 * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
	return &ollamaProvider{client: openai.NewClientWithConfig(clientConfig)}
}

func (p *ollamaProvider) Complete(ctx context.Context, _ string, req Request) (*Completion, error) {
	const op = "aiproxy.ollamaProvider.Complete"

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

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: *req.Temperature,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.AI(op, "no response from Ollama model")
	}

	return &Completion{
		Content:      resp.Choices[0].Message.Content,
		InputTokens:  uint64(resp.Usage.PromptTokens),     // #nosec G115 -- token counts are non-negative
		OutputTokens: uint64(resp.Usage.CompletionTokens), // #nosec G115 -- token counts are non-negative
	}, nil
}
