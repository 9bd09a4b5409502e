package events

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/go-go-golems/palaver/pkg/conversation"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func toMessage(t *testing.T, e Event) *message.Message {
	b, err := json.Marshal(e)
	require.NoError(t, err)
	return message.NewMessage(watermill.NewUUID(), b)
}

func TestMessageEventFromChange(t *testing.T) {
	msg := conversation.NewTextMessage("u1", "hello", conversation.WithID("m1"))
	e := NewMessageEvent(conversation.Change{
		ConversationID: "chat-1",
		Mutation:       "toggle_reaction",
		MessageID:      "m1",
		Message:        msg,
		Version:        3,
	})

	b, err := json.Marshal(e)
	require.NoError(t, err)
	parsed, err := NewEventFromJson(b)
	require.NoError(t, err)

	require.IsType(t, &EventMessage{}, parsed)
	p := parsed.(*EventMessage)
	assert.Equal(t, EventTypeReactionToggled, p.Type())
	assert.Equal(t, "chat-1", p.Metadata().ConversationID)
	assert.Equal(t, int64(3), p.Metadata().Version)
	assert.Equal(t, "hello", p.Message.Text)
	assert.Equal(t, b, p.Payload())
}

func TestUnknownEventTypeFallsBackToImpl(t *testing.T) {
	e, err := NewEventFromJson([]byte(`{"type":"something-else"}`))
	require.NoError(t, err)
	assert.IsType(t, &EventImpl{}, e)

	_, err = NewEventFromJson([]byte(`not json`))
	assert.Error(t, err)
}

func TestWatermillSinkSequenceNumbers(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{BlockPublishUntilSubscriberAck: true}, watermill.NopLogger{})
	defer func() { _ = pubSub.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	msgs, err := pubSub.Subscribe(ctx, TopicChat)
	require.NoError(t, err)

	sink := NewWatermillSink(pubSub, TopicChat)
	go func() {
		PublishBlind(sink, NewNoticeEvent("chat-1", NoticeInfo, "one"))
		PublishBlind(sink, NewNoticeEvent("chat-1", NoticeInfo, "two"))
	}()

	for i, expected := range []string{"one", "two"} {
		select {
		case m := <-msgs:
			m.Ack()
			assert.Equal(t, []string{"0", "1"}[i], m.Metadata.Get("sequence_number"))
			e, err := NewEventFromJson(m.Payload)
			require.NoError(t, err)
			assert.Equal(t, expected, e.(*EventNotice).Text)
		case <-ctx.Done():
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestLogObserverPublishesChanges(t *testing.T) {
	rec := &recordingSink{}
	l := conversation.NewLog("chat-1")
	l.Observe(LogObserver(rec))

	l.Append(conversation.NewTextMessage("u1", "hi", conversation.WithID("m1")))
	l.UpdateByID("m1", conversation.AppendText("!"))

	require.Len(t, rec.events, 2)
	assert.Equal(t, EventTypeMessageAppended, rec.events[0].Type())
	assert.Equal(t, EventTypeMessageUpdated, rec.events[1].Type())
	assert.Equal(t, "hi!", rec.events[1].(*EventMessage).Message.Text)
}

type recordingSink struct {
	events []Event
}

func (r *recordingSink) PublishEvent(e Event) error {
	r.events = append(r.events, e)
	return nil
}

func TestStepPrinterStreamsDeltas(t *testing.T) {
	buf := &bytes.Buffer{}
	printer := StepPrinterFunc("ai-bot", buf)

	msg := conversation.NewTextMessage(conversation.AssistantID, "", conversation.WithID("a"))
	change := func(mutation string, text string, version int64) Event {
		m := msg.Clone()
		m.Text = text
		return NewMessageEvent(conversation.Change{
			ConversationID: "ai-bot", Mutation: mutation, MessageID: "a", Message: m, Version: version,
		})
	}

	for _, e := range []Event{
		change("append", "", 1),
		change("update", "Hi", 2),
		change("update", "Hi there", 3),
		NewNoticeEvent("other-chat", NoticeInfo, "ignored"),
		NewFinalEvent(EventMetadata{ConversationID: "ai-bot"}, "Hi there"),
		NewErrorEvent(EventMetadata{ConversationID: "ai-bot"}, errors.New("boom")),
	} {
		require.NoError(t, printer(toMessage(t, e)))
	}

	assert.Equal(t, "ai-bot: Hi there\n\n[error] boom\n", buf.String())
}
