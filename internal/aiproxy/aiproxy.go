// Package aiproxy forwards chat completion requests to AI providers on
// behalf of the reader UI, resolving credentials from the keyring and
// recording token usage.
package aiproxy

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/errors"
	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/secrets"
	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/usage"
)

// Default request parameters applied when the caller leaves them unset.
const (
	DefaultMaxTokens   = 4096
	DefaultTemperature = 0.7
)

// Message is one turn of the conversation being completed.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a provider-agnostic completion request.
type Request struct {
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	Messages     []Message `json:"messages"`
	SystemPrompt string    `json:"systemPrompt,omitempty"`
	MaxTokens    int       `json:"maxTokens,omitempty"`
	Temperature  *float32  `json:"temperature,omitempty"`
}

// Completion is the normalized provider response.
type Completion struct {
	Content      string `json:"content"`
	InputTokens  uint64 `json:"inputTokens"`
	OutputTokens uint64 `json:"outputTokens"`
}

// Provider adapts one upstream AI API.
type Provider interface {
	Complete(ctx context.Context, apiKey string, req Request) (*Completion, error)
}

// Proxy resolves credentials, picks the provider adapter, applies resilience
// around the upstream call, and records usage for each completed request.
type Proxy struct {
	keyring    secrets.Keyring
	recorder   *usage.Recorder
	resilience *Resilience
	logger     *log.Logger

	// providerFor is swapped in tests.
	providerFor func(name string) Provider
}

// NewProxy creates a proxy using the given keyring and usage recorder. The
// recorder may be nil when usage tracking is disabled.
func NewProxy(keyring secrets.Keyring, recorder *usage.Recorder, logger *log.Logger) *Proxy {
	if logger == nil {
		logger = log.Default()
	}
	return &Proxy{
		keyring:     keyring,
		recorder:    recorder,
		resilience:  NewResilience(DefaultResilienceConfig()),
		logger:      logger,
		providerFor: defaultProvider,
	}
}

// SetResilience replaces the default resilience stack, usually with one
// built from configuration.
func (p *Proxy) SetResilience(r *Resilience) {
	p.resilience = r
}

// defaultProvider picks the adapter for a provider name. Anything not
// natively supported is treated as OpenAI-compatible, which covers deepseek,
// groq, and openrouter.
func defaultProvider(name string) Provider {
	switch name {
	case "anthropic":
		return &anthropicProvider{}
	case "gemini":
		return &geminiProvider{}
	case "ollama":
		return newOllamaProvider()
	default:
		return &openAIProvider{baseURL: providerBaseURL(name)}
	}
}

// Complete runs one completion request end to end.
func (p *Proxy) Complete(ctx context.Context, req Request) (*Completion, error) {
	const op = "aiproxy.Proxy.Complete"

	if req.Provider == "" {
		return nil, errors.Validation(op, "provider is required")
	}
	if req.Model == "" {
		return nil, errors.Validation(op, "model is required")
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = DefaultMaxTokens
	}
	if req.Temperature == nil {
		temp := float32(DefaultTemperature)
		req.Temperature = &temp
	}

	apiKey, ok, err := p.keyring.Get(req.Provider)
	if err != nil {
		return nil, err
	}
	// Ollama runs locally and needs no credential.
	if !ok && req.Provider != "ollama" {
		return nil, errors.Secret(op, "no API key found for "+req.Provider)
	}

	provider := p.providerFor(req.Provider)

	start := time.Now()
	completion, err := p.resilience.Execute(ctx, func(ctx context.Context) (*Completion, error) {
		return provider.Complete(ctx, apiKey, req)
	})
	if err != nil {
		return nil, errors.WrapSafe(err, errors.KindAI, op, "completion request failed")
	}

	p.logger.Info("completion served",
		"provider", req.Provider,
		"model", req.Model,
		"duration", time.Since(start),
		"inputTokens", completion.InputTokens,
		"outputTokens", completion.OutputTokens,
	)

	if p.recorder != nil {
		if err := p.recorder.Record(usage.Update{
			Provider:     req.Provider,
			InputTokens:  completion.InputTokens,
			OutputTokens: completion.OutputTokens,
		}); err != nil {
			p.logger.Warn("failed to record usage", "error", err)
		}
	}

	return completion, nil
}
