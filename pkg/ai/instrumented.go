package ai

import (
	"context"
	"time"

	"github.com/go-go-golems/palaver/pkg/audio"
	"github.com/go-go-golems/palaver/pkg/conversation"
	"github.com/go-go-golems/palaver/pkg/metrics"
	"github.com/go-go-golems/palaver/pkg/steps"
	"github.com/iancoleman/strcase"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// InstrumentedProvider records request counts and latencies of every call.
type InstrumentedProvider struct {
	provider Provider
	metrics  *metrics.Metrics
}

func NewInstrumentedProvider(p Provider, m *metrics.Metrics) *InstrumentedProvider {
	return &InstrumentedProvider{provider: p, metrics: m}
}

// operationLabel turns a method name into a metric label, SuggestReplies becomes suggest_replies.
func operationLabel(method string) string {
	return strcase.ToSnake(method)
}

func (i *InstrumentedProvider) record(method string, start time.Time, err error) {
	op := operationLabel(method)
	status := metrics.StatusOK
	switch {
	case err == nil:
	case errors.Is(err, ErrUnsupported):
		status = metrics.StatusUnsupported
	default:
		status = metrics.StatusError
	}
	d := time.Since(start)
	i.metrics.RecordProviderRequest(op, status, d)
	log.Debug().Str("operation", op).Str("status", status).Dur("duration", d).Msg("provider request")
}

func (i *InstrumentedProvider) SuggestReplies(ctx context.Context, history []*conversation.Message) ([]string, error) {
	start := time.Now()
	ret, err := i.provider.SuggestReplies(ctx, history)
	i.record("SuggestReplies", start, err)
	return ret, err
}

func (i *InstrumentedProvider) Rewrite(ctx context.Context, text string, tone string) (string, error) {
	start := time.Now()
	ret, err := i.provider.Rewrite(ctx, text, tone)
	i.record("Rewrite", start, err)
	return ret, err
}

// StreamCompletion records the time it takes to open the stream.
func (i *InstrumentedProvider) StreamCompletion(ctx context.Context, history []*conversation.Message) (steps.StepResult[string], error) {
	start := time.Now()
	ret, err := i.provider.StreamCompletion(ctx, history)
	i.record("StreamCompletion", start, err)
	return ret, err
}

func (i *InstrumentedProvider) Summarize(ctx context.Context, history []*conversation.Message) (string, error) {
	start := time.Now()
	ret, err := i.provider.Summarize(ctx, history)
	i.record("Summarize", start, err)
	return ret, err
}

func (i *InstrumentedProvider) Translate(ctx context.Context, text string, targetLanguage string) (string, error) {
	start := time.Now()
	ret, err := i.provider.Translate(ctx, text, targetLanguage)
	i.record("Translate", start, err)
	return ret, err
}

func (i *InstrumentedProvider) GenerateImage(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	ret, err := i.provider.GenerateImage(ctx, prompt)
	i.record("GenerateImage", start, err)
	return ret, err
}

func (i *InstrumentedProvider) GenerateSpeech(ctx context.Context, text string, voice string) (*audio.Buffer, error) {
	start := time.Now()
	ret, err := i.provider.GenerateSpeech(ctx, text, voice)
	i.record("GenerateSpeech", start, err)
	return ret, err
}

var _ Provider = (*InstrumentedProvider)(nil)
