package ai

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-go-golems/palaver/pkg/audio"
	"github.com/go-go-golems/palaver/pkg/helpers"
	"github.com/go-go-golems/palaver/pkg/prompts"
	"github.com/go-go-golems/palaver/pkg/steps"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// EchoBackend works offline. It answers with the quoted part of the prompt and streams
// it back one character at a time.
type EchoBackend struct {
	TimePerCharacter time.Duration
	// TimePerWord is the length of the silent speech generated per word.
	TimePerWord time.Duration
	Replies     []string
}

func NewEchoBackend() *EchoBackend {
	return &EchoBackend{
		TimePerCharacter: 20 * time.Millisecond,
		TimePerWord:      300 * time.Millisecond,
		Replies:          []string{"Sounds good!", "Tell me more.", "Talk soon!"},
	}
}

// quoted returns the text between the first and the last double quote of s.
func quoted(s string) (string, bool) {
	start := strings.Index(s, `"`)
	end := strings.LastIndex(s, `"`)
	if start < 0 || end <= start {
		return "", false
	}
	return s[start+1 : end], true
}

func (e *EchoBackend) answer(messages []prompts.ChatMessage) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("no input")
	}
	content := messages[len(messages)-1].Content
	if q, ok := quoted(content); ok {
		return q, nil
	}
	lines := strings.Split(strings.TrimSpace(content), "\n")
	return strings.TrimSpace(lines[len(lines)-1]), nil
}

func (e *EchoBackend) Complete(_ context.Context, messages []prompts.ChatMessage, options CompletionOptions) (string, error) {
	if options.JSON {
		b, err := json.Marshal(prompts.Replies{Replies: e.Replies})
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return e.answer(messages)
}

func (e *EchoBackend) Stream(ctx context.Context, messages []prompts.ChatMessage) (steps.StepResult[string], error) {
	text, err := e.answer(messages)
	if err != nil {
		return nil, err
	}

	eg, ctx := errgroup.WithContext(ctx)
	ctx, cancel := context.WithCancel(ctx)

	c := make(chan helpers.Result[string])
	res := steps.NewStepResult[string](c,
		steps.WithCancel[string](cancel),
		steps.WithMetadata[string](steps.NewStepMetadata("echo")),
	)

	eg.Go(func() error {
		defer close(c)
		defer cancel()
		for _, c_ := range text {
			select {
			case <-ctx.Done():
				c <- helpers.NewErrorResult[string](ctx.Err())
				return ctx.Err()
			case <-time.After(e.TimePerCharacter):
				select {
				case c <- helpers.NewValueResult[string](string(c_)):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
		return nil
	})

	return res, nil
}

func (e *EchoBackend) GenerateImage(context.Context, string) (string, error) {
	return "", ErrUnsupported
}

// GenerateSpeech returns silence, TimePerWord for every word of text.
func (e *EchoBackend) GenerateSpeech(_ context.Context, text string, _ string) ([]byte, error) {
	words := len(strings.Fields(text))
	samples := int(e.TimePerWord.Seconds()*audio.DefaultSampleRate) * words
	return make([]byte, samples*2*audio.DefaultChannels), nil
}

var _ Backend = (*EchoBackend)(nil)
