package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-go-golems/palaver/pkg/conversation"
	"github.com/go-go-golems/palaver/pkg/events"
	"github.com/go-go-golems/palaver/pkg/steps"
	"github.com/rs/zerolog/log"
)

const (
	ImagineCommand       = "/imagine "
	ImageFallbackMessage = "Sorry, I couldn't generate that image. Please try a different prompt."
)

func imagePlaceholder(prompt string) string {
	return fmt.Sprintf("🎨 Generating an image for: \"%s\"...", prompt)
}

// AssistantSession drives the chat with the AI assistant. Only one answer is generated
// at a time.
type AssistantSession struct {
	hub          *Hub
	conversation *conversation.Conversation
	log          *conversation.Log

	mu         sync.Mutex
	generating bool
	current    steps.StepResult[string]
	done       chan struct{}
}

func newAssistantSession(h *Hub, c *conversation.Conversation) *AssistantSession {
	return &AssistantSession{
		hub:          h,
		conversation: c,
		log:          c.Log,
	}
}

func (a *AssistantSession) ID() string                               { return a.conversation.ID }
func (a *AssistantSession) Conversation() *conversation.Conversation { return a.conversation }
func (a *AssistantSession) Log() *conversation.Log                   { return a.log }

func (a *AssistantSession) Generating() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.generating
}

// ParseImagine returns the prompt of an /imagine command.
func ParseImagine(text string) (string, bool) {
	if len(text) < len(ImagineCommand) || !strings.EqualFold(text[:len(ImagineCommand)], ImagineCommand) {
		return "", false
	}
	return strings.TrimSpace(text[len(ImagineCommand):]), true
}

// Ask sends text to the assistant. The answer is streamed into a new message, or, for
// "/imagine <prompt>", generated as an image. It returns ErrBusy while an answer is
// being generated, and the placeholder message of the answer otherwise.
func (a *AssistantSession) Ask(text string) (*conversation.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	a.mu.Lock()
	if a.generating {
		a.mu.Unlock()
		return nil, ErrBusy
	}
	a.generating = true
	done := make(chan struct{})
	a.done = done
	a.mu.Unlock()

	a.log.Append(conversation.NewTextMessage(conversation.MeUserID, text))

	if prompt, ok := ParseImagine(text); ok {
		return a.imagine(prompt), nil
	}
	return a.stream(done), nil
}

// finish is the single point where generating is cleared.
func (a *AssistantSession) finish() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.generating = false
	a.current = nil
	if a.done != nil {
		close(a.done)
		a.done = nil
	}
}

func (a *AssistantSession) imagine(prompt string) *conversation.Message {
	placeholder := conversation.NewTextMessage(conversation.AssistantID, imagePlaceholder(prompt))
	a.log.Append(placeholder)
	metadata := events.EventMetadata{ConversationID: a.ID(), MessageID: string(placeholder.ID)}
	a.hub.publish(events.NewStartEvent(metadata))

	go func() {
		defer a.finish()

		ref, ok := a.hub.client.GenerateImage(a.hub.ctx, prompt)
		if !ok {
			a.log.UpdateByID(placeholder.ID, conversation.ReplaceText(ImageFallbackMessage))
			a.hub.publish(events.NewFinalEvent(metadata, ImageFallbackMessage))
			return
		}
		a.log.UpdateByID(placeholder.ID, conversation.ResolveImage(ref))
		a.hub.publish(events.NewFinalEvent(metadata, ref))
	}()

	return placeholder
}

func (a *AssistantSession) stream(done chan struct{}) *conversation.Message {
	history := a.log.Snapshot()

	placeholder := conversation.NewTextMessage(conversation.AssistantID, "")
	a.log.Append(placeholder)
	metadata := events.EventMetadata{ConversationID: a.ID(), MessageID: string(placeholder.ID)}
	a.hub.publish(events.NewStartEvent(metadata))

	var sb strings.Builder
	res := a.hub.client.StreamCompletion(a.hub.ctx, history,
		func(chunk string) {
			sb.WriteString(chunk)
			a.log.UpdateByID(placeholder.ID, conversation.AppendText(chunk))
		},
		func(err error) {
			if err != nil {
				log.Warn().Err(err).
					Str("conversation_id", a.ID()).
					Str("message_id", string(placeholder.ID)).
					Msg("assistant answer ended early")
				a.hub.publish(events.NewErrorEvent(metadata, err))
			} else {
				a.hub.publish(events.NewFinalEvent(metadata, sb.String()))
			}
			a.finish()
		})

	a.mu.Lock()
	if a.done == done {
		a.current = res
	}
	a.mu.Unlock()

	return placeholder
}

// Cancel interrupts the answer being streamed. The partial text is kept.
func (a *AssistantSession) Cancel() {
	a.mu.Lock()
	current := a.current
	a.mu.Unlock()
	if current != nil {
		current.Cancel()
	}
}

// Wait blocks until the current answer is complete.
func (a *AssistantSession) Wait(ctx context.Context) error {
	a.mu.Lock()
	done := a.done
	a.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
