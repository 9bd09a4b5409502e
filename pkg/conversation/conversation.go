package conversation

type Contact struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Online bool   `json:"online" yaml:"online"`
	IsBot  bool   `json:"is_bot,omitempty" yaml:"is_bot,omitempty"`
}

// Conversation is either a peer chat between the local user and one counterpart,
// or the assistant chat, which has no participants and no reactions.
type Conversation struct {
	ID             string
	ParticipantIDs []string
	Log            *Log
	// UnreadCount is advisory and only set from seed data.
	UnreadCount int
	Assistant   bool
}

func NewPeerConversation(id string, counterpartID string, unread int, msgs ...*Message) *Conversation {
	return &Conversation{
		ID:             id,
		ParticipantIDs: []string{MeUserID, counterpartID},
		Log:            NewLog(id, WithMessages(msgs...)),
		UnreadCount:    unread,
	}
}

func NewAssistantConversation(id string, msgs ...*Message) *Conversation {
	return &Conversation{
		ID:        id,
		Log:       NewLog(id, WithReactionsDisabled(), WithMessages(msgs...)),
		Assistant: true,
	}
}

// CounterpartID returns the participant that is not the local user.
func (c *Conversation) CounterpartID() string {
	if c.Assistant {
		return AssistantID
	}
	for _, p := range c.ParticipantIDs {
		if p != MeUserID {
			return p
		}
	}
	return ""
}
