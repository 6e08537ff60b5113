package aiproxy

import (
	"context"
	"regexp"
	"strings"

	"google.golang.org/genai"

	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/errors"
)

// Gemini keys start with AIza.
var geminiKeyPattern = regexp.MustCompile(`^AIza[a-zA-Z0-9_-]{35,}$`)

type geminiProvider struct{}

func (p *geminiProvider) Complete(ctx context.Context, apiKey string, req Request) (*Completion, error) {
	const op = "aiproxy.geminiProvider.Complete"

	if !geminiKeyPattern.MatchString(apiKey) {
		return nil, errors.AI(op, "invalid Gemini API key format (expected AIza...)")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, errors.WrapSafe(err, errors.KindAI, op, "failed to create Gemini client")
	}

	// Gemini takes one prompt stream; the system prompt and conversation
	// collapse into it.
	var prompt strings.Builder
	if req.SystemPrompt != "" {
		prompt.WriteString(req.SystemPrompt)
		prompt.WriteString("\n\n")
	}
	for _, m := range req.Messages {
		prompt.WriteString(m.Content)
		prompt.WriteString("\n")
	}

	resp, err := client.Models.GenerateContent(
		ctx,
		req.Model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt.String()}}}},
		&genai.GenerateContentConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: int32(req.MaxTokens), // #nosec G115 -- bounded request parameter
		},
	)
	if err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 {
		return nil, errors.AI(op, "no response from Gemini model")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, errors.AI(op, "empty response from Gemini model")
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			text.WriteString(part.Text)
		}
	}
	if text.Len() == 0 {
		return nil, errors.AI(op, "no text in response from Gemini model")
	}

	completion := &Completion{Content: text.String()}
	if resp.UsageMetadata != nil {
		completion.InputTokens = uint64(resp.UsageMetadata.PromptTokenCount)      // #nosec G115 -- token counts are non-negative
		completion.OutputTokens = uint64(resp.UsageMetadata.CandidatesTokenCount) // #nosec G115 -- token counts are non-negative
	}
	return completion, nil
}
