package ui

import (
	"github.com/ThreeDotsLabs/watermill/message"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-go-golems/palaver/pkg/events"
	"github.com/rs/zerolog/log"
)

// LogChangedMsg tells the model that a conversation log changed.
type LogChangedMsg struct {
	ConversationID string
	MessageID      string
	Mutation       string
}

type SuggestionsMsg struct {
	ConversationID string
	Replies        []string
}

type NoticeMsg struct {
	ConversationID string
	Level          events.NoticeLevel
	Text           string
}

type PlaybackMsg struct {
	ConversationID string
	MessageID      string
	Playing        bool
}

type RecordingMsg struct {
	ConversationID string
	Recording      bool
}

// GenerationMsg frames an assistant answer. Done is set once it completed, Err when it failed.
type GenerationMsg struct {
	ConversationID string
	MessageID      string
	Done           bool
	Err            string
}

// Sender is satisfied by *tea.Program.
type Sender interface {
	Send(msg tea.Msg)
}

// ForwardFunc is a watermill handler that turns palaver events into bubbletea messages.
func ForwardFunc(p Sender) func(msg *message.Message) error {
	return func(msg *message.Message) error {
		msg.Ack()

		e, err := events.NewEventFromJson(msg.Payload)
		if err != nil {
			return err
		}

		meta := e.Metadata()
		switch e_ := e.(type) {
		case *events.EventMessage:
			p.Send(LogChangedMsg{
				ConversationID: meta.ConversationID,
				MessageID:      meta.MessageID,
				Mutation:       e_.Mutation,
			})
		case *events.EventSuggestions:
			p.Send(SuggestionsMsg{ConversationID: meta.ConversationID, Replies: e_.Replies})
		case *events.EventNotice:
			p.Send(NoticeMsg{ConversationID: meta.ConversationID, Level: e_.Level, Text: e_.Text})
		case *events.EventPlayback:
			p.Send(PlaybackMsg{ConversationID: meta.ConversationID, MessageID: meta.MessageID, Playing: e_.Playing})
		case *events.EventRecording:
			p.Send(RecordingMsg{ConversationID: meta.ConversationID, Recording: e_.Recording})
		case *events.EventGenerationStart:
			p.Send(GenerationMsg{ConversationID: meta.ConversationID, MessageID: meta.MessageID})
		case *events.EventFinal:
			p.Send(GenerationMsg{ConversationID: meta.ConversationID, MessageID: meta.MessageID, Done: true})
		case *events.EventError:
			p.Send(GenerationMsg{
				ConversationID: meta.ConversationID,
				MessageID:      meta.MessageID,
				Done:           true,
				Err:            e_.ErrorString,
			})
		default:
			log.Trace().Str("event_type", string(e.Type())).Msg("ignoring event")
		}

		return nil
	}
}
