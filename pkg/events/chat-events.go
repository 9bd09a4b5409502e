package events

import (
	"encoding/json"
	"fmt"

	"github.com/go-go-golems/palaver/pkg/conversation"
	"github.com/rs/zerolog"
)

type EventType string

const (
	// EventTypeMessageAppended to EventTypeReactionToggled mirror the mutations of a conversation log
	EventTypeMessageAppended EventType = "message-appended"
	EventTypeMessageUpdated  EventType = "message-updated"
	EventTypeReactionToggled EventType = "reaction-toggled"

	EventTypeSuggestions EventType = "suggestions"
	EventTypeNotice      EventType = "notice"

	// EventTypeStart to EventTypeError frame an assistant generation
	EventTypeStart EventType = "start"
	EventTypeFinal EventType = "final"
	EventTypeError EventType = "error"

	EventTypePlayback  EventType = "playback"
	EventTypeRecording EventType = "recording"
)

type Event interface {
	Type() EventType
	Metadata() EventMetadata
	Payload() []byte
}

// EventMetadata is carried by every event.
type EventMetadata struct {
	ConversationID string `json:"conversation_id,omitempty" yaml:"conversation_id,omitempty"`
	MessageID      string `json:"message_id,omitempty" yaml:"message_id,omitempty"`
	// Version of the conversation log after the change, for log events.
	Version int64 `json:"version,omitempty" yaml:"version,omitempty"`
}

func (em EventMetadata) MarshalZerologObject(e *zerolog.Event) {
	if em.ConversationID != "" {
		e.Str("conversation_id", em.ConversationID)
	}
	if em.MessageID != "" {
		e.Str("message_id", em.MessageID)
	}
	if em.Version != 0 {
		e.Int64("version", em.Version)
	}
}

type EventImpl struct {
	Type_     EventType     `json:"type"`
	Metadata_ EventMetadata `json:"meta,omitempty"`

	// store payload if the event was deserialized from JSON (see NewEventFromJson), not further used
	payload []byte
}

func (e *EventImpl) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("type", string(e.Type_))
	ev.Object("meta", e.Metadata_)
}

func (e *EventImpl) Type() EventType {
	return e.Type_
}

func (e *EventImpl) Metadata() EventMetadata {
	return e.Metadata_
}

func (e *EventImpl) Payload() []byte {
	return e.payload
}

var _ Event = &EventImpl{}

// EventMessage is published for every applied log mutation.
type EventMessage struct {
	EventImpl
	Mutation string                `json:"mutation"`
	Message  *conversation.Message `json:"message"`
}

var _ Event = &EventMessage{}

// NewMessageEvent maps a log change to its event.
func NewMessageEvent(c conversation.Change) *EventMessage {
	type_ := EventTypeMessageUpdated
	switch c.Mutation {
	case "append":
		type_ = EventTypeMessageAppended
	case "toggle_reaction":
		type_ = EventTypeReactionToggled
	}
	return &EventMessage{
		EventImpl: EventImpl{
			Type_: type_,
			Metadata_: EventMetadata{
				ConversationID: c.ConversationID,
				MessageID:      string(c.MessageID),
				Version:        c.Version,
			},
		},
		Mutation: c.Mutation,
		Message:  c.Message,
	}
}

type EventSuggestions struct {
	EventImpl
	Replies []string `json:"replies"`
}

func NewSuggestionsEvent(conversationID string, replies []string) *EventSuggestions {
	return &EventSuggestions{
		EventImpl: EventImpl{
			Type_:     EventTypeSuggestions,
			Metadata_: EventMetadata{ConversationID: conversationID},
		},
		Replies: replies,
	}
}

var _ Event = &EventSuggestions{}

type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeError NoticeLevel = "error"
)

// EventNotice is a one-off message for the user, like a missing microphone.
type EventNotice struct {
	EventImpl
	Level NoticeLevel `json:"level"`
	Text  string      `json:"text"`
}

func NewNoticeEvent(conversationID string, level NoticeLevel, text string) *EventNotice {
	return &EventNotice{
		EventImpl: EventImpl{
			Type_:     EventTypeNotice,
			Metadata_: EventMetadata{ConversationID: conversationID},
		},
		Level: level,
		Text:  text,
	}
}

var _ Event = &EventNotice{}

type EventGenerationStart struct {
	EventImpl
}

func NewStartEvent(metadata EventMetadata) *EventGenerationStart {
	return &EventGenerationStart{
		EventImpl: EventImpl{Type_: EventTypeStart, Metadata_: metadata},
	}
}

var _ Event = &EventGenerationStart{}

type EventFinal struct {
	EventImpl
	Text string `json:"text"`
}

func NewFinalEvent(metadata EventMetadata, text string) *EventFinal {
	return &EventFinal{
		EventImpl: EventImpl{Type_: EventTypeFinal, Metadata_: metadata},
		Text:      text,
	}
}

var _ Event = &EventFinal{}

type EventError struct {
	EventImpl
	ErrorString string `json:"error_string"`
}

func NewErrorEvent(metadata EventMetadata, err error) *EventError {
	return &EventError{
		EventImpl:   EventImpl{Type_: EventTypeError, Metadata_: metadata},
		ErrorString: err.Error(),
	}
}

var _ Event = &EventError{}

// EventPlayback reports which message is being read out loud. An empty MessageID means stopped.
type EventPlayback struct {
	EventImpl
	Playing bool `json:"playing"`
}

func NewPlaybackEvent(conversationID string, messageID string, playing bool) *EventPlayback {
	return &EventPlayback{
		EventImpl: EventImpl{
			Type_:     EventTypePlayback,
			Metadata_: EventMetadata{ConversationID: conversationID, MessageID: messageID},
		},
		Playing: playing,
	}
}

var _ Event = &EventPlayback{}

type EventRecording struct {
	EventImpl
	Recording bool `json:"recording"`
}

func NewRecordingEvent(conversationID string, recording bool) *EventRecording {
	return &EventRecording{
		EventImpl: EventImpl{
			Type_:     EventTypeRecording,
			Metadata_: EventMetadata{ConversationID: conversationID},
		},
		Recording: recording,
	}
}

var _ Event = &EventRecording{}

func NewEventFromJson(b []byte) (Event, error) {
	var e *EventImpl
	err := json.Unmarshal(b, &e)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("empty event payload")
	}

	e.payload = b

	switch e.Type_ {
	case EventTypeMessageAppended, EventTypeMessageUpdated, EventTypeReactionToggled:
		return toTypedEvent[EventMessage](e)
	case EventTypeSuggestions:
		return toTypedEvent[EventSuggestions](e)
	case EventTypeNotice:
		return toTypedEvent[EventNotice](e)
	case EventTypeStart:
		return toTypedEvent[EventGenerationStart](e)
	case EventTypeFinal:
		return toTypedEvent[EventFinal](e)
	case EventTypeError:
		return toTypedEvent[EventError](e)
	case EventTypePlayback:
		return toTypedEvent[EventPlayback](e)
	case EventTypeRecording:
		return toTypedEvent[EventRecording](e)
	}

	return e, nil
}

// typedEvent is satisfied by the pointer of every concrete event struct.
type typedEvent[T any] interface {
	*T
	Event
	setPayload(b []byte)
}

func (e *EventImpl) setPayload(b []byte) {
	e.payload = b
}

func toTypedEvent[T any, PT typedEvent[T]](e Event) (Event, error) {
	ret, ok := ToTypedEvent[T](e)
	if !ok || ret == nil {
		return nil, fmt.Errorf("could not cast event to %s", e.Type())
	}
	PT(ret).setPayload(e.Payload())
	return PT(ret), nil
}

func ToTypedEvent[T any](e Event) (*T, bool) {
	var ret *T
	err := json.Unmarshal(e.Payload(), &ret)
	if err != nil {
		return nil, false
	}

	return ret, true
}
