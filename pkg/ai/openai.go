package ai

import (
	"context"
	"io"

	"github.com/go-go-golems/palaver/pkg/prompts"
	"github.com/go-go-golems/palaver/pkg/steps"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	go_openai "github.com/sashabaranov/go-openai"
)

// OpenAIBackend talks to the OpenAI API or any endpoint compatible with it.
type OpenAIBackend struct {
	client   *go_openai.Client
	settings *Settings
}

func NewOpenAIBackend(settings *Settings) (*OpenAIBackend, error) {
	if settings.APIKey == "" {
		return nil, errors.New("no openai api key provided")
	}
	config := go_openai.DefaultConfig(settings.APIKey)
	if settings.BaseURL != "" {
		config.BaseURL = settings.BaseURL
	}
	return &OpenAIBackend{
		client:   go_openai.NewClientWithConfig(config),
		settings: settings,
	}, nil
}

func toOpenAIMessages(messages []prompts.ChatMessage) []go_openai.ChatCompletionMessage {
	ret := make([]go_openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		ret = append(ret, go_openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return ret
}

func (o *OpenAIBackend) Complete(ctx context.Context, messages []prompts.ChatMessage, options CompletionOptions) (string, error) {
	req := go_openai.ChatCompletionRequest{
		Model:    o.settings.ChatModel,
		Messages: toOpenAIMessages(messages),
	}
	if options.JSON {
		req.ResponseFormat = &go_openai.ChatCompletionResponseFormat{
			Type: go_openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", errors.Wrap(err, "chat completion failed")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

func (o *OpenAIBackend) Stream(ctx context.Context, messages []prompts.ChatMessage) (steps.StepResult[string], error) {
	req := go_openai.ChatCompletionRequest{
		Model:    o.settings.ChatModel,
		Messages: toOpenAIMessages(messages),
		Stream:   true,
	}

	metadata := steps.NewStepMetadata("openai-chat")
	metadata.InputType = "[]prompts.ChatMessage"
	metadata.OutputType = "string"

	return steps.Go[string](ctx, metadata, func(ctx context.Context, emit steps.EmitFunc[string]) error {
		stream, err := o.client.CreateChatCompletionStream(ctx, req)
		if err != nil {
			return errors.Wrap(err, "could not open completion stream")
		}
		defer stream.Close()

		for {
			response, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return errors.Wrap(err, "completion stream failed")
			}
			if len(response.Choices) == 0 {
				continue
			}
			delta := response.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			log.Trace().Str("delta", delta).Msg("openai stream delta")
			if !emit(delta) {
				return ctx.Err()
			}
		}
	}), nil
}

func (o *OpenAIBackend) GenerateImage(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateImage(ctx, go_openai.ImageRequest{
		Prompt:         prompt,
		Model:          o.settings.ImageModel,
		N:              1,
		Size:           go_openai.CreateImageSize1024x1024,
		ResponseFormat: go_openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return "", errors.Wrap(err, "image generation failed")
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return "", errors.New("no image returned")
	}
	return "data:image/png;base64," + resp.Data[0].B64JSON, nil
}

func (o *OpenAIBackend) GenerateSpeech(ctx context.Context, text string, voice string) ([]byte, error) {
	if voice == "" {
		voice = o.settings.Voice
	}
	body, err := o.client.CreateSpeech(ctx, go_openai.CreateSpeechRequest{
		Model:          go_openai.SpeechModel(o.settings.TTSModel),
		Input:          text,
		Voice:          go_openai.SpeechVoice(voice),
		ResponseFormat: go_openai.SpeechResponseFormat("pcm"),
	})
	if err != nil {
		return nil, errors.Wrap(err, "speech generation failed")
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.Wrap(err, "could not read speech")
	}
	return data, nil
}

var _ Backend = (*OpenAIBackend)(nil)
