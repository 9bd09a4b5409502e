package steps

import (
	"github.com/go-go-golems/palaver/pkg/helpers"
	"github.com/google/uuid"
)

const (
	MetadataConversationIDSlug = "conversation_id"
	MetadataMessageIDSlug      = "message_id"
)

type StepMetadata struct {
	StepID     uuid.UUID              `json:"step_id"`
	Type       string                 `json:"type"`
	InputType  string                 `json:"input_type"`
	OutputType string                 `json:"output_type"`
	Metadata   map[string]interface{} `json:"meta"`
}

func NewStepMetadata(type_ string) *StepMetadata {
	return &StepMetadata{
		StepID:   uuid.New(),
		Type:     type_,
		Metadata: map[string]interface{}{},
	}
}

// StepResult is the handle of an asynchronous operation. The channel yields zero or more
// values and at most one error, then closes. Closing the channel is the completion signal.
type StepResult[T any] interface {
	Return() []helpers.Result[T]
	GetChannel() <-chan helpers.Result[T]
	Cancel()
	GetMetadata() *StepMetadata
}

type StepResultImpl[T any] struct {
	value    <-chan helpers.Result[T]
	cancel   func()
	metadata *StepMetadata
}

var _ StepResult[string] = (*StepResultImpl[string])(nil)

type StepResultOption[T any] func(*StepResultImpl[T])

func WithCancel[T any](cancel func()) StepResultOption[T] {
	return func(s *StepResultImpl[T]) {
		s.cancel = cancel
	}
}

func WithMetadata[T any](metadata *StepMetadata) StepResultOption[T] {
	return func(s *StepResultImpl[T]) {
		s.metadata = metadata
	}
}

func NewStepResult[T any](value <-chan helpers.Result[T], options ...StepResultOption[T]) *StepResultImpl[T] {
	ret := &StepResultImpl[T]{
		value: value,
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Return blocks until the channel is closed and collects everything it yielded.
func (m *StepResultImpl[T]) Return() []helpers.Result[T] {
	res := []helpers.Result[T]{}
	for r := range m.value {
		res = append(res, r)
	}
	return res
}

func (m *StepResultImpl[T]) GetChannel() <-chan helpers.Result[T] {
	return m.value
}

func (m *StepResultImpl[T]) Cancel() {
	if m.cancel != nil {
		m.cancel()
	}
}

func (m *StepResultImpl[T]) GetMetadata() *StepMetadata {
	return m.metadata
}

func Reject[T any](err error) *StepResultImpl[T] {
	c := make(chan helpers.Result[T], 1)
	c <- helpers.NewErrorResult[T](err)
	close(c)
	return NewStepResult[T](c)
}
