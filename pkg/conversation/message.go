package conversation

import (
	"time"

	"github.com/go-go-golems/palaver/pkg/helpers"
	"github.com/google/uuid"
	"github.com/huandu/go-clone"
)

const (
	// MeUserID is the local user of the process.
	MeUserID = "user-me"
	// SystemSenderID marks content generated by the client itself, like summaries.
	SystemSenderID = "system"
	// AssistantID is the sender id of the AI assistant.
	AssistantID = "ai-bot"
)

type MessageID string

func NewMessageID() MessageID {
	return MessageID(uuid.NewString())
}

type Kind string

const (
	KindText    Kind = "text"
	KindImage   Kind = "image"
	KindSummary Kind = "summary"
	KindAudio   Kind = "audio"
)

func (k Kind) Valid() bool {
	switch k {
	case KindText, KindImage, KindSummary, KindAudio:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether a stored message of kind k may be patched into kind to.
// Only an image placeholder resolving to its image changes kind.
func (k Kind) CanTransitionTo(to Kind) bool {
	return k == to || (k == KindText && to == KindImage)
}

type Reaction struct {
	Emoji   string `json:"emoji" yaml:"emoji"`
	ActorID string `json:"actor_id" yaml:"actor_id"`
}

// Message is a single entry of a Log. Once appended, a message is never modified:
// updates replace it with a patched copy.
type Message struct {
	ID             MessageID  `json:"id" yaml:"id"`
	SenderID       string     `json:"sender_id" yaml:"sender_id"`
	Text           string     `json:"text" yaml:"text"`
	Timestamp      time.Time  `json:"timestamp" yaml:"timestamp"`
	Kind           Kind       `json:"kind" yaml:"kind"`
	TranslatedText *string    `json:"translated_text,omitempty" yaml:"translated_text,omitempty"`
	IsTranslating  bool       `json:"is_translating,omitempty" yaml:"is_translating,omitempty"`
	AudioRef       string     `json:"audio_ref,omitempty" yaml:"audio_ref,omitempty"`
	Reactions      []Reaction `json:"reactions,omitempty" yaml:"reactions,omitempty"`
}

type MessageOption func(*Message)

func WithID(id MessageID) MessageOption {
	return func(m *Message) {
		m.ID = id
	}
}

func WithTime(t time.Time) MessageOption {
	return func(m *Message) {
		m.Timestamp = t
	}
}

func WithAudioRef(ref string) MessageOption {
	return func(m *Message) {
		m.AudioRef = ref
	}
}

func WithReactions(reactions ...Reaction) MessageOption {
	return func(m *Message) {
		m.Reactions = append(m.Reactions, reactions...)
	}
}

func NewMessage(senderID string, kind Kind, text string, options ...MessageOption) *Message {
	ret := &Message{
		ID:        NewMessageID(),
		SenderID:  senderID,
		Text:      text,
		Timestamp: time.Now(),
		Kind:      kind,
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

func NewTextMessage(senderID string, text string, options ...MessageOption) *Message {
	return NewMessage(senderID, KindText, text, options...)
}

// Clone returns a deep copy of the message.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	return clone.Clone(m).(*Message)
}

func (m *Message) IsFromMe() bool {
	return m.SenderID == MeUserID
}

func (m *Message) HasTranslation() bool {
	return m.TranslatedText != nil
}

// SpokenText is the text read out loud for the message: the translation when there is one.
func (m *Message) SpokenText() string {
	return helpers.Deref(m.TranslatedText, m.Text)
}

// ReactionOf returns the reaction the actor left on the message, if any.
func (m *Message) ReactionOf(actorID string) (Reaction, bool) {
	for _, r := range m.Reactions {
		if r.ActorID == actorID {
			return r, true
		}
	}
	return Reaction{}, false
}
