package ui

import (
	"encoding/json"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-go-golems/palaver/pkg/conversation"
	"github.com/go-go-golems/palaver/pkg/events"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	msgs []tea.Msg
}

func (f *fakeSender) Send(msg tea.Msg) {
	f.msgs = append(f.msgs, msg)
}

func forward(t *testing.T, e events.Event) []tea.Msg {
	t.Helper()

	payload, err := json.Marshal(e)
	require.NoError(t, err)
	msg := message.NewMessage(watermill.NewUUID(), payload)

	sender := &fakeSender{}
	require.NoError(t, ForwardFunc(sender)(msg))

	select {
	case <-msg.Acked():
	default:
		t.Fatal("message was not acked")
	}
	return sender.msgs
}

func TestForwardMessageEvent(t *testing.T) {
	m := conversation.NewTextMessage(conversation.MeUserID, "hi", conversation.WithID("m1"))
	msgs := forward(t, events.NewMessageEvent(conversation.Change{
		ConversationID: "chat-1",
		Mutation:       "toggle_reaction",
		MessageID:      m.ID,
		Message:        m,
		Version:        3,
	}))

	require.Len(t, msgs, 1)
	assert.Equal(t, LogChangedMsg{ConversationID: "chat-1", MessageID: "m1", Mutation: "toggle_reaction"}, msgs[0])
}

func TestForwardSuggestionsAndNotice(t *testing.T) {
	msgs := forward(t, events.NewSuggestionsEvent("chat-2", []string{"a", "b"}))
	require.Len(t, msgs, 1)
	assert.Equal(t, SuggestionsMsg{ConversationID: "chat-2", Replies: []string{"a", "b"}}, msgs[0])

	msgs = forward(t, events.NewNoticeEvent("chat-2", events.NoticeError, "Microphone is not available."))
	require.Len(t, msgs, 1)
	assert.Equal(t, NoticeMsg{ConversationID: "chat-2", Level: events.NoticeError, Text: "Microphone is not available."}, msgs[0])
}

func TestForwardGenerationEvents(t *testing.T) {
	meta := events.EventMetadata{ConversationID: "ai-bot", MessageID: "answer"}

	msgs := forward(t, events.NewStartEvent(meta))
	require.Len(t, msgs, 1)
	assert.Equal(t, GenerationMsg{ConversationID: "ai-bot", MessageID: "answer"}, msgs[0])

	msgs = forward(t, events.NewFinalEvent(meta, "done"))
	require.Len(t, msgs, 1)
	assert.Equal(t, GenerationMsg{ConversationID: "ai-bot", MessageID: "answer", Done: true}, msgs[0])

	msgs = forward(t, events.NewErrorEvent(meta, errors.New("boom")))
	require.Len(t, msgs, 1)
	assert.Equal(t, GenerationMsg{ConversationID: "ai-bot", MessageID: "answer", Done: true, Err: "boom"}, msgs[0])
}

func TestForwardPlaybackAndRecording(t *testing.T) {
	msgs := forward(t, events.NewPlaybackEvent("chat-1", "msg-1-1", true))
	require.Len(t, msgs, 1)
	assert.Equal(t, PlaybackMsg{ConversationID: "chat-1", MessageID: "msg-1-1", Playing: true}, msgs[0])

	msgs = forward(t, events.NewRecordingEvent("chat-1", false))
	require.Len(t, msgs, 1)
	assert.Equal(t, RecordingMsg{ConversationID: "chat-1"}, msgs[0])
}

func TestForwardRejectsGarbage(t *testing.T) {
	msg := message.NewMessage(watermill.NewUUID(), []byte("not json"))
	sender := &fakeSender{}
	assert.Error(t, ForwardFunc(sender)(msg))
	assert.Empty(t, sender.msgs)
}
