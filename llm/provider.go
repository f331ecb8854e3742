package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Provider is the abstract completion-service interface. Implementations are
// treated as opaque and potentially slow; callers bound them with a context
// deadline. A failed completion is surfaced as-is, with no retry at this layer.
type Provider interface {
	// Name returns the provider name (for logging).
	Name() string

	// Model returns the model in use.
	Model() string

	// Complete submits the full conversation plus the tool catalog and
	// returns the model's next message. Tool selection is automatic: the
	// model decides per round whether to answer or request tool calls.
	Complete(ctx context.Context, messages []Message, tools []Tool) (Response, error)
}

// Config selects and tunes a provider.
type Config struct {
	// Provider is one of "openai", "anthropic", "gemini", "deepseek"
	// (aliases "gpt", "claude", "google" accepted).
	Provider string
	// Model overrides the provider default when non-empty.
	Model string
	// APIKey overrides the provider's environment variable when non-empty.
	APIKey string
	// MaxTokens caps completion length. Defaults to 4096.
	MaxTokens uint32
	// Temperature defaults to 0.2: answers should be grounded in tool
	// results, not creative.
	Temperature *float32
}

type providerInfo struct {
	apiKeyEnv    string
	defaultModel string
}

var providers = map[string]providerInfo{
	"openai":    {"OPENAI_API_KEY", "gpt-4o"},
	"anthropic": {"ANTHROPIC_API_KEY", "claude-sonnet-4-20250514"},
	"gemini":    {"GEMINI_API_KEY", "gemini-2.0-flash"},
	"deepseek":  {"DEEPSEEK_API_KEY", "deepseek-chat"},
}

var providerAliases = map[string]string{
	"gpt":    "openai",
	"claude": "anthropic",
	"google": "gemini",
}

// New builds the configured provider, reading the API key from the
// provider's environment variable unless Config.APIKey is set.
func New(cfg Config) (Provider, error) {
	name := strings.ToLower(cfg.Provider)
	if canonical, ok := providerAliases[name]; ok {
		name = canonical
	}
	info, ok := providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv(info.apiKeyEnv)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%s: %s environment variable not set", name, info.apiKeyEnv)
	}

	model := cfg.Model
	if model == "" {
		model = info.defaultModel
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	temperature := float32(0.2)
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}

	switch name {
	case "openai":
		return NewOpenAIProvider(apiKey, model, maxTokens, temperature), nil
	case "anthropic":
		return NewAnthropicProvider(apiKey, model, maxTokens, temperature), nil
	case "gemini":
		return NewGeminiProvider(apiKey, model, maxTokens, temperature), nil
	case "deepseek":
		return NewDeepSeekProvider(apiKey, model, maxTokens, temperature), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
}
