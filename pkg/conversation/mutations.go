package conversation

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var (
	// ErrMessageNotFound is a referential miss. Callers treat it as a no-op.
	ErrMessageNotFound   = errors.New("message not found")
	ErrInvalidPatch      = errors.New("invalid patch")
	ErrReactionsDisabled = errors.New("reactions are disabled on this log")
	ErrNilMessage        = errors.New("message is nil")
)

// PatchFunc transforms a copy of a stored message into its replacement.
type PatchFunc func(m *Message) *Message

// Mutation is a named change applied atomically to a Log.
type Mutation interface {
	Name() string
	apply(s *logState) (*Message, error)
}

type logState struct {
	conversationID   string
	messages         []*Message
	index            map[MessageID]int
	reactionsEnabled bool
}

func (s *logState) lookup(id MessageID) (int, *Message, bool) {
	i, ok := s.index[id]
	if !ok {
		return 0, nil, false
	}
	return i, s.messages[i], true
}

type appendMutation struct {
	msg *Message
}

// MutateAppend appends msg at the end of the log.
func MutateAppend(msg *Message) Mutation {
	return appendMutation{msg: msg}
}

func (m appendMutation) Name() string { return "append" }

func (m appendMutation) apply(s *logState) (*Message, error) {
	if m.msg == nil {
		return nil, ErrNilMessage
	}
	stored := m.msg.Clone()
	if stored.ID == "" {
		stored.ID = NewMessageID()
	}
	if !stored.Kind.Valid() {
		stored.Kind = KindText
	}
	if _, ok := s.index[stored.ID]; ok {
		// keep both, lookups keep resolving to the first one
		log.Warn().
			Str("conversation_id", s.conversationID).
			Str("message_id", string(stored.ID)).
			Msg("appending message with duplicate id")
	} else {
		s.index[stored.ID] = len(s.messages)
	}
	s.messages = append(s.messages, stored)
	return stored, nil
}

type updateMutation struct {
	id    MessageID
	patch PatchFunc
}

// MutateUpdate replaces the message with the given id by patch(copy).
func MutateUpdate(id MessageID, patch PatchFunc) Mutation {
	return updateMutation{id: id, patch: patch}
}

func (m updateMutation) Name() string { return "update" }

func (m updateMutation) apply(s *logState) (*Message, error) {
	i, old, ok := s.lookup(m.id)
	if !ok {
		return nil, ErrMessageNotFound
	}
	if m.patch == nil {
		return nil, errors.Wrap(ErrInvalidPatch, "patch is nil")
	}
	updated := m.patch(old.Clone())
	if err := validatePatch(old, updated); err != nil {
		return nil, err
	}
	s.messages[i] = updated
	return updated, nil
}

func validatePatch(old *Message, updated *Message) error {
	switch {
	case updated == nil:
		return errors.Wrap(ErrInvalidPatch, "patch returned nil")
	case updated.ID != old.ID:
		return errors.Wrapf(ErrInvalidPatch, "id changed from %s to %s", old.ID, updated.ID)
	case updated.AudioRef != old.AudioRef:
		return errors.Wrap(ErrInvalidPatch, "audio reference is immutable")
	case !updated.Timestamp.Equal(old.Timestamp):
		return errors.Wrap(ErrInvalidPatch, "timestamp is immutable")
	case !old.Kind.CanTransitionTo(updated.Kind):
		return errors.Wrapf(ErrInvalidPatch, "kind cannot change from %s to %s", old.Kind, updated.Kind)
	}
	return nil
}

type toggleReactionMutation struct {
	id      MessageID
	actorID string
	emoji   string
}

// MutateToggleReaction toggles the actor's reaction on a message.
func MutateToggleReaction(id MessageID, actorID string, emoji string) Mutation {
	return toggleReactionMutation{id: id, actorID: actorID, emoji: emoji}
}

func (m toggleReactionMutation) Name() string { return "toggle_reaction" }

func (m toggleReactionMutation) apply(s *logState) (*Message, error) {
	if !s.reactionsEnabled {
		return nil, ErrReactionsDisabled
	}
	i, old, ok := s.lookup(m.id)
	if !ok {
		return nil, ErrMessageNotFound
	}
	updated := old.Clone()
	updated.Reactions = ToggleReaction(old.Reactions, m.actorID, m.emoji)
	s.messages[i] = updated
	return updated, nil
}
