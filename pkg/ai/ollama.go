package ai

import (
	"context"
	"strings"

	"github.com/go-go-golems/palaver/pkg/prompts"
	"github.com/go-go-golems/palaver/pkg/steps"
	"github.com/jmorganca/ollama/api"
	"github.com/pkg/errors"
)

// OllamaBackend runs text completions against a local ollama server. The server address
// comes from OLLAMA_HOST.
type OllamaBackend struct {
	client   *api.Client
	settings *Settings
}

func NewOllamaBackend(settings *Settings) (*OllamaBackend, error) {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return nil, errors.Wrap(err, "could not create ollama client")
	}
	return &OllamaBackend{client: client, settings: settings}, nil
}

func toOllamaMessages(messages []prompts.ChatMessage) []api.Message {
	ret := make([]api.Message, 0, len(messages))
	for _, m := range messages {
		ret = append(ret, api.Message{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return ret
}

func (o *OllamaBackend) chat(ctx context.Context, messages []prompts.ChatMessage, format string, onDelta func(string) error) error {
	stream := true
	req := &api.ChatRequest{
		Model:    o.settings.ChatModel,
		Messages: toOllamaMessages(messages),
		Stream:   &stream,
		Format:   format,
	}
	return o.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		if resp.Done || resp.Message == nil {
			return nil
		}
		return onDelta(resp.Message.Content)
	})
}

func (o *OllamaBackend) Complete(ctx context.Context, messages []prompts.ChatMessage, options CompletionOptions) (string, error) {
	format := ""
	if options.JSON {
		format = "json"
	}
	var sb strings.Builder
	err := o.chat(ctx, messages, format, func(delta string) error {
		sb.WriteString(delta)
		return nil
	})
	if err != nil {
		return "", errors.Wrap(err, "ollama chat failed")
	}
	return sb.String(), nil
}

func (o *OllamaBackend) Stream(ctx context.Context, messages []prompts.ChatMessage) (steps.StepResult[string], error) {
	metadata := steps.NewStepMetadata("ollama-chat")
	metadata.InputType = "[]prompts.ChatMessage"
	metadata.OutputType = "string"

	return steps.Go[string](ctx, metadata, func(ctx context.Context, emit steps.EmitFunc[string]) error {
		err := o.chat(ctx, messages, "", func(delta string) error {
			if delta == "" {
				return nil
			}
			if !emit(delta) {
				return ctx.Err()
			}
			return nil
		})
		if err != nil {
			return errors.Wrap(err, "ollama stream failed")
		}
		return nil
	}), nil
}

func (o *OllamaBackend) GenerateImage(context.Context, string) (string, error) {
	return "", ErrUnsupported
}

func (o *OllamaBackend) GenerateSpeech(context.Context, string, string) ([]byte, error) {
	return nil, ErrUnsupported
}

var _ Backend = (*OllamaBackend)(nil)
