package ai

import (
	"time"

	"github.com/huandu/go-clone"
)

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderEcho   = "echo"
)

type Settings struct {
	// Provider is one of openai, ollama or echo. Empty selects openai when an API key is
	// configured and echo otherwise.
	Provider       string        `yaml:"provider,omitempty" mapstructure:"provider"`
	APIKey         string        `yaml:"api-key,omitempty" mapstructure:"api-key"`
	BaseURL        string        `yaml:"base-url,omitempty" mapstructure:"base-url"`
	ChatModel      string        `yaml:"chat-model,omitempty" mapstructure:"chat-model"`
	ImageModel     string        `yaml:"image-model,omitempty" mapstructure:"image-model"`
	TTSModel       string        `yaml:"tts-model,omitempty" mapstructure:"tts-model"`
	Voice          string        `yaml:"voice,omitempty" mapstructure:"voice"`
	TargetLanguage string        `yaml:"target-language,omitempty" mapstructure:"target-language"`
	Timeout        time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout"`
	// MaxHistoryTokens bounds the history sent for completions, 0 sends everything.
	MaxHistoryTokens int `yaml:"max-history-tokens,omitempty" mapstructure:"max-history-tokens"`
	// CacheSize is the number of cached translations and rewrites, 0 disables the cache.
	CacheSize int `yaml:"cache-size,omitempty" mapstructure:"cache-size"`
}

func NewSettings() *Settings {
	return &Settings{
		ChatModel:        "gpt-4o-mini",
		ImageModel:       "dall-e-3",
		TTSModel:         "tts-1",
		Voice:            "alloy",
		TargetLanguage:   "English",
		Timeout:          60 * time.Second,
		MaxHistoryTokens: 4000,
		CacheSize:        256,
	}
}

func (s *Settings) Clone() *Settings {
	return clone.Clone(s).(*Settings)
}

// ResolvedProvider returns the provider that will actually be used.
func (s *Settings) ResolvedProvider() string {
	if s.Provider != "" {
		return s.Provider
	}
	if s.APIKey != "" {
		return ProviderOpenAI
	}
	return ProviderEcho
}
