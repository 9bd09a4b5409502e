package ai

import (
	"context"

	"github.com/go-go-golems/palaver/pkg/audio"
	"github.com/go-go-golems/palaver/pkg/conversation"
	"github.com/go-go-golems/palaver/pkg/prompts"
	"github.com/go-go-golems/palaver/pkg/steps"
	"github.com/pkg/errors"
)

// ErrUnsupported is returned for a capability the backend does not have.
var ErrUnsupported = errors.New("not supported by this provider")

// Provider is the raw capability surface of a generative AI service. All methods
// return errors, see Client for the fail-soft wrapper.
type Provider interface {
	SuggestReplies(ctx context.Context, history []*conversation.Message) ([]string, error)
	Rewrite(ctx context.Context, text string, tone string) (string, error)
	// StreamCompletion yields the completion in chunks. The channel closes when the
	// stream ended, after at most one error.
	StreamCompletion(ctx context.Context, history []*conversation.Message) (steps.StepResult[string], error)
	Summarize(ctx context.Context, history []*conversation.Message) (string, error)
	Translate(ctx context.Context, text string, targetLanguage string) (string, error)
	// GenerateImage returns an image reference, a data URL.
	GenerateImage(ctx context.Context, prompt string) (string, error)
	GenerateSpeech(ctx context.Context, text string, voice string) (*audio.Buffer, error)
}

type CompletionOptions struct {
	// JSON asks the model for a JSON object answer.
	JSON bool
}

// Backend is the model access a PromptProvider builds on.
type Backend interface {
	Complete(ctx context.Context, messages []prompts.ChatMessage, options CompletionOptions) (string, error)
	// Stream yields deltas of the answer.
	Stream(ctx context.Context, messages []prompts.ChatMessage) (steps.StepResult[string], error)
	// GenerateImage returns an image as a data URL.
	GenerateImage(ctx context.Context, prompt string) (string, error)
	// GenerateSpeech returns 16 bit little-endian PCM, mono at 24kHz.
	GenerateSpeech(ctx context.Context, text string, voice string) ([]byte, error)
}

// PromptProvider implements Provider by rendering prompts for a Backend.
type PromptProvider struct {
	backend Backend
	budget  *prompts.Budget
}

type PromptProviderOption func(*PromptProvider)

func WithBudget(budget *prompts.Budget) PromptProviderOption {
	return func(p *PromptProvider) {
		p.budget = budget
	}
}

func NewPromptProvider(backend Backend, options ...PromptProviderOption) *PromptProvider {
	ret := &PromptProvider{backend: backend}
	for _, o := range options {
		o(ret)
	}
	return ret
}

func (p *PromptProvider) complete(ctx context.Context, prompt string, options CompletionOptions) (string, error) {
	return p.backend.Complete(ctx, []prompts.ChatMessage{{Role: prompts.RoleUser, Content: prompt}}, options)
}

func (p *PromptProvider) SuggestReplies(ctx context.Context, history []*conversation.Message) ([]string, error) {
	prompt, err := prompts.SuggestReplies(history)
	if err != nil {
		return nil, err
	}
	answer, err := p.complete(ctx, prompt, CompletionOptions{JSON: true})
	if err != nil {
		return nil, err
	}
	return prompts.ParseReplies(answer)
}

func (p *PromptProvider) Rewrite(ctx context.Context, text string, tone string) (string, error) {
	prompt, err := prompts.Rewrite(text, tone)
	if err != nil {
		return "", err
	}
	return p.complete(ctx, prompt, CompletionOptions{})
}

func (p *PromptProvider) StreamCompletion(ctx context.Context, history []*conversation.Message) (steps.StepResult[string], error) {
	return p.backend.Stream(ctx, p.budget.Trim(prompts.History(history)))
}

func (p *PromptProvider) Summarize(ctx context.Context, history []*conversation.Message) (string, error) {
	prompt, err := prompts.Summarize(history)
	if err != nil {
		return "", err
	}
	return p.complete(ctx, prompt, CompletionOptions{})
}

func (p *PromptProvider) Translate(ctx context.Context, text string, targetLanguage string) (string, error) {
	prompt, err := prompts.Translate(text, targetLanguage)
	if err != nil {
		return "", err
	}
	return p.complete(ctx, prompt, CompletionOptions{})
}

func (p *PromptProvider) GenerateImage(ctx context.Context, prompt string) (string, error) {
	return p.backend.GenerateImage(ctx, prompt)
}

func (p *PromptProvider) GenerateSpeech(ctx context.Context, text string, voice string) (*audio.Buffer, error) {
	prompt, err := prompts.Speech(text)
	if err != nil {
		return nil, err
	}
	pcm, err := p.backend.GenerateSpeech(ctx, prompt, voice)
	if err != nil {
		return nil, err
	}
	return audio.DecodePCM16(pcm, audio.DefaultSampleRate, audio.DefaultChannels)
}

var _ Provider = (*PromptProvider)(nil)
