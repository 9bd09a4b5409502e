package chat

import (
	"context"
	"strings"
	"sync"

	"github.com/go-go-golems/palaver/pkg/ai"
	"github.com/go-go-golems/palaver/pkg/audio"
	"github.com/go-go-golems/palaver/pkg/conversation"
	"github.com/go-go-golems/palaver/pkg/events"
	"github.com/go-go-golems/palaver/pkg/metrics"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Hub owns everything a running client shares: the conversations, the AI client, the
// audio player and the event sink. Sessions are created once and live as long as the hub.
type Hub struct {
	registry *conversation.Registry
	client   *ai.Client
	settings *Settings
	sink     events.EventSink
	metrics  *metrics.Metrics
	output   audio.Output
	player   *audio.Player
	blobs    *audio.BlobStore
	recorder *audio.Recorder

	// ctx bounds background work like scheduled replies, it is cancelled by Close
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	peers     map[string]*PeerSession
	assistant *AssistantSession
	active    string
}

type HubOption func(*Hub)

func WithSettings(s *Settings) HubOption {
	return func(h *Hub) {
		h.settings = s
	}
}

func WithSink(sink events.EventSink) HubOption {
	return func(h *Hub) {
		h.sink = sink
	}
}

func WithMetrics(m *metrics.Metrics) HubOption {
	return func(h *Hub) {
		h.metrics = m
	}
}

func WithOutput(output audio.Output) HubOption {
	return func(h *Hub) {
		h.output = output
	}
}

func WithMicrophone(mic audio.Microphone) HubOption {
	return func(h *Hub) {
		h.recorder = audio.NewRecorder(mic)
	}
}

func NewHub(registry *conversation.Registry, client *ai.Client, options ...HubOption) (*Hub, error) {
	if registry == nil {
		return nil, errors.New("no registry")
	}
	if client == nil {
		return nil, errors.New("no ai client")
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		registry: registry,
		client:   client,
		settings: NewSettings(),
		sink:     events.NullSink{},
		blobs:    audio.NewBlobStore(),
		ctx:      ctx,
		cancel:   cancel,
		peers:    map[string]*PeerSession{},
	}
	for _, o := range options {
		o(h)
	}
	if h.output == nil {
		h.output = audio.NewTimedOutput()
	}
	if h.recorder == nil {
		h.recorder = audio.NewRecorder(audio.NoMicrophone{})
	}
	h.player = audio.NewPlayer(h.output, audio.WithStateFunc(h.onPlaybackChange))

	for _, c := range registry.Conversations() {
		c.Log.SetResultRecorder(h.metrics.RecordMutation)
		c.Log.Observe(events.LogObserver(h.sink))

		if c.Assistant {
			if h.assistant != nil {
				return nil, errors.Errorf("more than one assistant conversation: %s", c.ID)
			}
			h.assistant = newAssistantSession(h, c)
			continue
		}
		h.peers[c.ID] = newPeerSession(h, c)
	}

	return h, nil
}

func (h *Hub) Registry() *conversation.Registry { return h.registry }
func (h *Hub) Client() *ai.Client               { return h.client }
func (h *Hub) Player() *audio.Player            { return h.player }
func (h *Hub) Blobs() *audio.BlobStore          { return h.blobs }
func (h *Hub) Recorder() *audio.Recorder        { return h.recorder }
func (h *Hub) Settings() *Settings              { return h.settings }

func (h *Hub) Peer(id string) (*PeerSession, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.peers[id]
	if !ok {
		return nil, errors.Wrap(ErrUnknownConversation, id)
	}
	return p, nil
}

func (h *Hub) Assistant() (*AssistantSession, error) {
	if h.assistant == nil {
		return nil, errors.Wrap(ErrUnknownConversation, "no assistant conversation")
	}
	return h.assistant, nil
}

// React toggles the local user's reaction on a message of a peer conversation.
func (h *Hub) React(conversationID string, id conversation.MessageID, emoji string) error {
	if h.assistant != nil && h.assistant.ID() == conversationID {
		return errors.Wrap(ErrReactionsUnsupported, conversationID)
	}
	p, err := h.Peer(conversationID)
	if err != nil {
		return err
	}
	return p.React(id, emoji)
}

// Select makes id the active view. Work started in other views keeps running.
func (h *Hub) Select(id string) error {
	if _, ok := h.registry.Conversation(id); !ok {
		return errors.Wrap(ErrUnknownConversation, id)
	}
	h.mu.Lock()
	h.active = id
	p := h.peers[id]
	h.mu.Unlock()
	log.Debug().Str("conversation_id", id).Msg("selected conversation")

	if p != nil {
		p.syncSuggestions()
	}
	return nil
}

func (h *Hub) Active() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

// Close stops playback and cancels scheduled background work.
func (h *Hub) Close() {
	h.cancel()
	h.player.Stop()
}

func (h *Hub) publish(e events.Event) {
	events.PublishBlind(h.sink, e)
}

func (h *Hub) notice(conversationID string, level events.NoticeLevel, text string) {
	h.publish(events.NewNoticeEvent(conversationID, level, text))
}

func playbackKey(conversationID string, id conversation.MessageID) string {
	return conversationID + "/" + string(id)
}

func (h *Hub) onPlaybackChange(key string, playing bool) {
	h.metrics.SetPlaying(playing)
	conversationID, messageID, _ := strings.Cut(key, "/")
	h.publish(events.NewPlaybackEvent(conversationID, messageID, playing))
}

// StartRecording starts capturing a voice message for a peer conversation. A missing
// microphone is reported as a notice.
func (h *Hub) StartRecording(ctx context.Context, conversationID string) error {
	if _, err := h.Peer(conversationID); err != nil {
		return err
	}
	if err := h.recorder.Start(ctx); err != nil {
		if errors.Is(err, audio.ErrMicrophoneUnavailable) {
			h.notice(conversationID, events.NoticeError, "Microphone is not available.")
		}
		return err
	}
	h.publish(events.NewRecordingEvent(conversationID, true))
	return nil
}

// StopRecording stops capturing and sends what was recorded as a voice message.
func (h *Hub) StopRecording(conversationID string) (*conversation.Message, error) {
	p, err := h.Peer(conversationID)
	if err != nil {
		return nil, err
	}
	data, mimeType, err := h.recorder.Stop()
	h.publish(events.NewRecordingEvent(conversationID, false))
	if err != nil {
		return nil, err
	}
	return p.SendAudio(data, mimeType), nil
}
