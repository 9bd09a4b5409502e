package ai

import (
	"github.com/go-go-golems/palaver/pkg/metrics"
	"github.com/go-go-golems/palaver/pkg/prompts"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

func NewBackend(settings *Settings) (Backend, error) {
	provider := settings.ResolvedProvider()
	switch provider {
	case ProviderOpenAI:
		return NewOpenAIBackend(settings)
	case ProviderOllama:
		return NewOllamaBackend(settings)
	case ProviderEcho:
		return NewEchoBackend(), nil
	default:
		return nil, errors.Errorf("unknown provider %q", provider)
	}
}

// NewClientFromSettings assembles the provider stack: backend, prompts,
// instrumentation and cache, wrapped in a fail-soft client. m may be nil.
func NewClientFromSettings(settings *Settings, m *metrics.Metrics) (*Client, error) {
	backend, err := NewBackend(settings)
	if err != nil {
		return nil, err
	}

	budget, err := prompts.NewBudget(settings.MaxHistoryTokens)
	if err != nil {
		return nil, err
	}

	var provider Provider = NewInstrumentedProvider(
		NewPromptProvider(backend, WithBudget(budget)),
		m,
	)
	if settings.CacheSize > 0 {
		provider = NewCachingProvider(provider,
			WithCacheMaxSize(settings.CacheSize),
			WithCacheMetrics(m),
		)
	}

	log.Debug().
		Str("provider", settings.ResolvedProvider()).
		Str("chat_model", settings.ChatModel).
		Msg("created ai client")

	return NewClient(provider, settings, WithMetrics(m)), nil
}
