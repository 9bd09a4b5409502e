package ai

import (
	"context"
	"strings"
	"sync"

	"github.com/go-go-golems/palaver/pkg/audio"
	"github.com/go-go-golems/palaver/pkg/conversation"
	"github.com/go-go-golems/palaver/pkg/metrics"
	"github.com/go-go-golems/palaver/pkg/steps"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	RewriteFallbackPrefix = "Could not rewrite message. Original: "
	SummaryFallback       = "Could not generate a summary at this time."
	TranslationFallback   = "Translation failed."
	DefaultTargetLanguage = "English"
)

// FallbackReplies are suggested when the provider fails.
var FallbackReplies = []string{"Got it.", "Thanks!", "Let me check."}

// Client wraps a Provider so that no call ever fails. Errors are logged and replaced with
// fallback values.
type Client struct {
	provider Provider
	settings *Settings
	metrics  *metrics.Metrics
}

type ClientOption func(*Client)

func WithMetrics(m *metrics.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

func NewClient(provider Provider, settings *Settings, options ...ClientOption) *Client {
	if settings == nil {
		settings = NewSettings()
	}
	ret := &Client{
		provider: provider,
		settings: settings,
	}
	for _, o := range options {
		o(ret)
	}
	return ret
}

func (c *Client) Settings() *Settings {
	return c.settings
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.settings.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.settings.Timeout)
}

func (c *Client) SuggestReplies(ctx context.Context, history []*conversation.Message) []string {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	replies, err := c.provider.SuggestReplies(ctx, history)
	if err != nil {
		log.Warn().Err(err).Msg("could not suggest replies")
		return append([]string{}, FallbackReplies...)
	}
	return replies
}

func (c *Client) Rewrite(ctx context.Context, text string, tone string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	ret, err := c.provider.Rewrite(ctx, text, tone)
	if err != nil {
		log.Warn().Err(err).Str("tone", tone).Msg("could not rewrite message")
		return RewriteFallbackPrefix + text
	}
	return strings.TrimSpace(ret)
}

// StreamCompletion streams an answer to history. onChunk is called for every chunk in
// order, then onComplete is called exactly once, with nil or the error that ended the
// stream. Both run on a background goroutine.
//
// The returned result is only meant for cancellation, its values are consumed by the client.
func (c *Client) StreamCompletion(
	ctx context.Context,
	history []*conversation.Message,
	onChunk func(chunk string),
	onComplete func(err error),
) steps.StepResult[string] {
	ctx, cancel := c.withTimeout(ctx)
	c.metrics.GenerationStarted()

	var once sync.Once
	complete := func(err error) {
		once.Do(func() {
			cancel()
			c.metrics.GenerationFinished()
			if err != nil {
				log.Warn().Err(err).Msg("completion stream failed")
			}
			if onComplete != nil {
				onComplete(err)
			}
		})
	}

	res, err := c.provider.StreamCompletion(ctx, history)
	if err == nil && res == nil {
		err = errors.New("provider returned no stream")
	}
	if err != nil {
		res = steps.Reject[string](err)
	}

	steps.Observe[string](res, func(chunk string) {
		c.metrics.RecordChunk()
		if onChunk != nil {
			onChunk(chunk)
		}
	}, complete)

	return res
}

func (c *Client) Summarize(ctx context.Context, history []*conversation.Message) string {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	ret, err := c.provider.Summarize(ctx, history)
	if err != nil {
		log.Warn().Err(err).Msg("could not summarize conversation")
		return SummaryFallback
	}
	return strings.TrimSpace(ret)
}

// Translate translates text to targetLanguage, or to the configured language when empty.
func (c *Client) Translate(ctx context.Context, text string, targetLanguage string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	if targetLanguage == "" {
		targetLanguage = c.settings.TargetLanguage
	}
	if targetLanguage == "" {
		targetLanguage = DefaultTargetLanguage
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	ret, err := c.provider.Translate(ctx, text, targetLanguage)
	if err != nil {
		log.Warn().Err(err).Str("language", targetLanguage).Msg("could not translate")
		return TranslationFallback
	}
	return strings.TrimSpace(ret)
}

func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, bool) {
	if strings.TrimSpace(prompt) == "" {
		return "", false
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	ref, err := c.provider.GenerateImage(ctx, prompt)
	if err != nil || ref == "" {
		log.Warn().Err(err).Msg("could not generate image")
		return "", false
	}
	return ref, true
}

// GenerateSpeech reads text out loud with voice, or the configured voice when empty.
func (c *Client) GenerateSpeech(ctx context.Context, text string, voice string) (*audio.Buffer, bool) {
	if strings.TrimSpace(text) == "" {
		return nil, false
	}
	if voice == "" {
		voice = c.settings.Voice
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	buf, err := c.provider.GenerateSpeech(ctx, text, voice)
	if err != nil || buf == nil {
		log.Warn().Err(err).Str("voice", voice).Msg("could not generate speech")
		return nil, false
	}
	return buf, true
}
