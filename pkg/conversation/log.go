package conversation

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Change describes a mutation that was applied to a Log.
type Change struct {
	ConversationID string
	Mutation       string
	MessageID      MessageID
	// Message is the stored value after the mutation.
	Message *Message
	Version int64
}

// Observer is called after every applied mutation, in mutation order.
// Observers run while the log serializes notifications and must not mutate
// the log synchronously.
type Observer func(Change)

// Log is the ordered message sequence of one conversation.
//
// All mutations are atomic with respect to each other. Stored messages are never
// modified in place, so a snapshot stays valid after later mutations and unchanged
// messages keep their pointer identity across snapshots.
type Log struct {
	mu       sync.RWMutex
	notifyMu sync.Mutex

	state   logState
	version int64

	observers      map[int]Observer
	observerOrder  []int
	nextObserverID int

	recorder ResultRecorder
}

// ResultRecorder is told about every mutation attempt, applied or not.
type ResultRecorder func(mutation string, err error)

type LogOption func(*Log)

// WithReactionsDisabled turns ToggleReaction into a no-op, as for the assistant log.
func WithReactionsDisabled() LogOption {
	return func(l *Log) {
		l.state.reactionsEnabled = false
	}
}

// WithMessages preloads the log without notifying observers.
func WithMessages(msgs ...*Message) LogOption {
	return func(l *Log) {
		for _, m := range msgs {
			if _, err := MutateAppend(m).apply(&l.state); err != nil {
				log.Warn().Err(err).Str("conversation_id", l.state.conversationID).Msg("could not preload message")
			}
		}
	}
}

func NewLog(conversationID string, options ...LogOption) *Log {
	ret := &Log{
		state: logState{
			conversationID:   conversationID,
			index:            map[MessageID]int{},
			reactionsEnabled: true,
		},
		observers: map[int]Observer{},
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

func (l *Log) ConversationID() string {
	return l.state.conversationID
}

func (l *Log) ReactionsEnabled() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.reactionsEnabled
}

// Apply applies a single mutation and bumps the version.
// A referential miss returns ErrMessageNotFound and leaves the log untouched.
func (l *Log) Apply(m Mutation) (*Message, error) {
	if m == nil {
		return nil, errors.New("mutation is nil")
	}

	l.notifyMu.Lock()
	defer l.notifyMu.Unlock()

	l.mu.Lock()
	recorder := l.recorder
	msg, err := m.apply(&l.state)
	if err != nil {
		l.mu.Unlock()
		if recorder != nil {
			recorder(m.Name(), err)
		}
		return nil, errors.Wrapf(err, "mutation %s failed", m.Name())
	}
	l.version++
	change := Change{
		ConversationID: l.state.conversationID,
		Mutation:       m.Name(),
		MessageID:      msg.ID,
		Message:        msg,
		Version:        l.version,
	}
	observers := make([]Observer, 0, len(l.observerOrder))
	for _, id := range l.observerOrder {
		observers = append(observers, l.observers[id])
	}
	l.mu.Unlock()

	if recorder != nil {
		recorder(m.Name(), nil)
	}
	for _, o := range observers {
		o(change)
	}

	return msg, nil
}

// Append adds msg at the end of the log. The log stores its own copy.
func (l *Log) Append(msg *Message) {
	_, err := l.Apply(MutateAppend(msg))
	if err != nil {
		log.Warn().Err(err).Str("conversation_id", l.state.conversationID).Msg("append failed")
	}
}

// UpdateByID replaces the message with id by patch applied to a deep copy of it.
// It returns false when the id is unknown or the patch was rejected.
func (l *Log) UpdateByID(id MessageID, patch PatchFunc) bool {
	_, err := l.Apply(MutateUpdate(id, patch))
	return l.logResult(err, "update", id)
}

// ToggleReaction adds, removes or replaces the actor's single reaction on a message.
func (l *Log) ToggleReaction(id MessageID, actorID string, emoji string) bool {
	_, err := l.Apply(MutateToggleReaction(id, actorID, emoji))
	return l.logResult(err, "toggle_reaction", id)
}

func (l *Log) logResult(err error, mutation string, id MessageID) bool {
	if err == nil {
		return true
	}
	ev := log.Warn()
	if errors.Is(err, ErrMessageNotFound) || errors.Is(err, ErrReactionsDisabled) {
		ev = log.Debug()
	}
	ev.Err(err).
		Str("conversation_id", l.state.conversationID).
		Str("message_id", string(id)).
		Str("mutation", mutation).
		Msg("mutation not applied")
	return false
}

// Snapshot returns the messages in append order. The returned messages must be treated
// as read-only.
func (l *Log) Snapshot() []*Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ret := make([]*Message, len(l.state.messages))
	copy(ret, l.state.messages)
	return ret
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.state.messages)
}

func (l *Log) Get(id MessageID) (*Message, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, msg, ok := l.state.lookup(id)
	return msg, ok
}

func (l *Log) Last() (*Message, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.state.messages) == 0 {
		return nil, false
	}
	return l.state.messages[len(l.state.messages)-1], true
}

// Version counts the mutations applied since the log was created.
func (l *Log) Version() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.version
}

func (l *Log) SetResultRecorder(r ResultRecorder) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recorder = r
}

// Observe registers o and returns a function that removes it again.
func (l *Log) Observe(o Observer) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextObserverID
	l.nextObserverID++
	l.observers[id] = o
	l.observerOrder = append(l.observerOrder, id)

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if _, ok := l.observers[id]; !ok {
			return
		}
		delete(l.observers, id)
		for i, id_ := range l.observerOrder {
			if id_ == id {
				l.observerOrder = append(l.observerOrder[:i:i], l.observerOrder[i+1:]...)
				break
			}
		}
	}
}
