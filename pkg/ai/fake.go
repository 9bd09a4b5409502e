package ai

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-go-golems/palaver/pkg/audio"
	"github.com/go-go-golems/palaver/pkg/conversation"
	"github.com/go-go-golems/palaver/pkg/steps"
)

// FakeProvider is a scripted Provider for tests. Calls can be made to fail with Err or
// held with Block until Release.
type FakeProvider struct {
	Replies []string
	// Chunks are streamed in order, followed by StreamErr if set.
	Chunks     []string
	StreamErr  error
	ChunkDelay time.Duration
	// Text answers Rewrite, Summarize and Translate. Empty answers with a tagged copy of the input.
	Text   string
	Image  string
	Speech *audio.Buffer
	// Err fails every call.
	Err error

	// Started receives the name of every call once it began.
	Started chan string

	mu      sync.Mutex
	gate    chan struct{}
	calls   map[string]int
	history map[string][]*conversation.Message
}

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		Replies: []string{"Sure!", "No way.", "Maybe later."},
		Image:   "data:image/png;base64,iVBORw0KGgo=",
		Speech: &audio.Buffer{
			SampleRate: audio.DefaultSampleRate,
			Channels:   [][]float32{make([]float32, audio.DefaultSampleRate/10)},
		},
		Started: make(chan string, 128),
		calls:   map[string]int{},
		history: map[string][]*conversation.Message{},
	}
}

// Block holds all following calls until Release.
func (f *FakeProvider) Block() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gate == nil {
		f.gate = make(chan struct{})
	}
}

func (f *FakeProvider) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gate != nil {
		close(f.gate)
		f.gate = nil
	}
}

func (f *FakeProvider) Calls(operation string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[operation]
}

// History returns the messages passed to the latest call of operation.
func (f *FakeProvider) History(operation string) []*conversation.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*conversation.Message{}, f.history[operation]...)
}

func (f *FakeProvider) record(operation string, history []*conversation.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history[operation] = append([]*conversation.Message{}, history...)
}

func (f *FakeProvider) begin(ctx context.Context, operation string) error {
	f.mu.Lock()
	f.calls[operation]++
	gate := f.gate
	f.mu.Unlock()

	select {
	case f.Started <- operation:
	default:
	}

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.Err
}

func (f *FakeProvider) SuggestReplies(ctx context.Context, history []*conversation.Message) ([]string, error) {
	f.record("SuggestReplies", history)
	if err := f.begin(ctx, "SuggestReplies"); err != nil {
		return nil, err
	}
	return append([]string{}, f.Replies...), nil
}

func (f *FakeProvider) Rewrite(ctx context.Context, text string, tone string) (string, error) {
	if err := f.begin(ctx, "Rewrite"); err != nil {
		return "", err
	}
	if f.Text != "" {
		return f.Text, nil
	}
	return fmt.Sprintf("[%s] %s", tone, text), nil
}

func (f *FakeProvider) StreamCompletion(ctx context.Context, _ []*conversation.Message) (steps.StepResult[string], error) {
	if f.Err != nil {
		f.mu.Lock()
		f.calls["StreamCompletion"]++
		f.mu.Unlock()
		return nil, f.Err
	}

	metadata := steps.NewStepMetadata("fake-stream")
	return steps.Go[string](ctx, metadata, func(ctx context.Context, emit steps.EmitFunc[string]) error {
		if err := f.begin(ctx, "StreamCompletion"); err != nil {
			return err
		}
		for _, chunk := range f.Chunks {
			if f.ChunkDelay > 0 {
				select {
				case <-time.After(f.ChunkDelay):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			if !emit(chunk) {
				return ctx.Err()
			}
		}
		return f.StreamErr
	}), nil
}

func (f *FakeProvider) Summarize(ctx context.Context, history []*conversation.Message) (string, error) {
	f.record("Summarize", history)
	if err := f.begin(ctx, "Summarize"); err != nil {
		return "", err
	}
	if f.Text != "" {
		return f.Text, nil
	}
	return fmt.Sprintf("Summary of %d messages", len(history)), nil
}

func (f *FakeProvider) Translate(ctx context.Context, text string, targetLanguage string) (string, error) {
	if err := f.begin(ctx, "Translate"); err != nil {
		return "", err
	}
	if f.Text != "" {
		return f.Text, nil
	}
	return fmt.Sprintf("[%s] %s", targetLanguage, text), nil
}

func (f *FakeProvider) GenerateImage(ctx context.Context, _ string) (string, error) {
	if err := f.begin(ctx, "GenerateImage"); err != nil {
		return "", err
	}
	if f.Image == "" {
		return "", ErrUnsupported
	}
	return f.Image, nil
}

func (f *FakeProvider) GenerateSpeech(ctx context.Context, _ string, _ string) (*audio.Buffer, error) {
	if err := f.begin(ctx, "GenerateSpeech"); err != nil {
		return nil, err
	}
	if f.Speech == nil {
		return nil, ErrUnsupported
	}
	return f.Speech, nil
}

var _ Provider = (*FakeProvider)(nil)
