package events

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-go-golems/palaver/pkg/conversation"
	"github.com/rs/zerolog/log"
)

// TopicChat is the topic every palaver event is published on.
const TopicChat = "chat"

// EventSink represents a destination for events.
type EventSink interface {
	// PublishEvent publishes an event to the sink.
	// Returns an error if the event could not be published.
	PublishEvent(event Event) error
}

type NullSink struct{}

func (NullSink) PublishEvent(Event) error { return nil }

var _ EventSink = NullSink{}

// WatermillSink publishes events as JSON watermill messages on a single topic.
// Every message carries a sequence number in the order events were handed to the sink.
type WatermillSink struct {
	publisher      message.Publisher
	topic          string
	sequenceNumber uint64
	mutex          sync.Mutex
}

func NewWatermillSink(publisher message.Publisher, topic string) *WatermillSink {
	return &WatermillSink{
		publisher: publisher,
		topic:     topic,
	}
}

func (w *WatermillSink) PublishEvent(event Event) error {
	// lock for the sequence number
	w.mutex.Lock()
	defer w.mutex.Unlock()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal event to JSON")
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("sequence_number", fmt.Sprintf("%d", w.sequenceNumber))
	w.sequenceNumber++

	err = w.publisher.Publish(w.topic, msg)
	if err != nil {
		log.Error().Err(err).Str("topic", w.topic).Msg("Failed to publish event to watermill")
		return err
	}

	log.Trace().Str("topic", w.topic).Str("event_type", string(event.Type())).Msg("Published event to watermill")
	return nil
}

var _ EventSink = (*WatermillSink)(nil)

// PublishBlind publishes and only logs failures.
func PublishBlind(sink EventSink, event Event) {
	if sink == nil {
		return
	}
	if err := sink.PublishEvent(event); err != nil {
		log.Warn().Err(err).Str("event_type", string(event.Type())).Msg("failed to publish")
	}
}

// LogObserver forwards every change of a conversation log to sink.
func LogObserver(sink EventSink) conversation.Observer {
	return func(c conversation.Change) {
		PublishBlind(sink, NewMessageEvent(c))
	}
}
