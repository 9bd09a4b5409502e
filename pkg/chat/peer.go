package chat

import (
	"context"
	"strings"
	"sync"

	"github.com/go-go-golems/palaver/pkg/audio"
	"github.com/go-go-golems/palaver/pkg/conversation"
	"github.com/go-go-golems/palaver/pkg/events"
	"github.com/go-go-golems/palaver/pkg/steps"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Tones available for magic compose.
var Tones = []string{"Formal", "Casual", "Poetic", "Humorous"}

// PeerSession drives a chat with a simulated peer.
type PeerSession struct {
	hub          *Hub
	conversation *conversation.Conversation
	log          *conversation.Log

	mu          sync.Mutex
	suggestions []string
	// suggestionGen is bumped by every trigger and every local send, stale answers are dropped
	suggestionGen    uint64
	cancelSuggestion context.CancelFunc
	// suggestionsFor is the last message the current suggestions answer
	suggestionsFor   conversation.MessageID
	summarizing      bool
	translating      map[conversation.MessageID]bool
	pendingReplies   map[*steps.StepResultImpl[*conversation.Message]]struct{}
}

func newPeerSession(h *Hub, c *conversation.Conversation) *PeerSession {
	ret := &PeerSession{
		hub:            h,
		conversation:   c,
		log:            c.Log,
		translating:    map[conversation.MessageID]bool{},
		pendingReplies: map[*steps.StepResultImpl[*conversation.Message]]struct{}{},
	}
	c.Log.Observe(ret.onChange)
	return ret
}

func (p *PeerSession) ID() string                               { return p.conversation.ID }
func (p *PeerSession) Conversation() *conversation.Conversation { return p.conversation }
func (p *PeerSession) Log() *conversation.Log                   { return p.log }

func (p *PeerSession) onChange(c conversation.Change) {
	if c.Mutation != "append" || c.Message == nil {
		return
	}
	if c.Message.SenderID == p.conversation.CounterpartID() {
		p.requestSuggestions()
		return
	}
	// local sends and summaries leave nothing to reply to
	p.invalidateSuggestions()
}

// syncSuggestions requests smart replies when the conversation ends with a message from
// the counterpart that has none yet.
func (p *PeerSession) syncSuggestions() {
	last, ok := p.log.Last()
	if !ok || last.SenderID != p.conversation.CounterpartID() {
		return
	}
	p.mu.Lock()
	current := p.suggestionsFor == last.ID
	p.mu.Unlock()
	if current {
		return
	}
	p.requestSuggestions()
}

// Send appends a message from the local user and schedules the peer's reply.
func (p *PeerSession) Send(text string) *conversation.Message {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	msg := conversation.NewTextMessage(conversation.MeUserID, text)
	p.log.Append(msg)
	p.scheduleReply(text)
	return msg
}

// scheduleReply appends the counterpart's answer after the reply delay. The answer lands
// in this conversation whatever view is active by then.
func (p *PeerSession) scheduleReply(text string) {
	reply, err := p.hub.settings.RenderPeerReply(text)
	if err != nil {
		log.Warn().Err(err).Str("conversation_id", p.ID()).Msg("could not render peer reply")
		return
	}

	metadata := steps.NewStepMetadata("peer-reply")
	metadata.Metadata[steps.MetadataConversationIDSlug] = p.ID()

	res := steps.After[*conversation.Message](p.hub.ctx, p.hub.settings.ReplyDelay, metadata,
		func(ctx context.Context) (*conversation.Message, error) {
			msg := conversation.NewTextMessage(p.conversation.CounterpartID(), reply)
			p.log.Append(msg)
			return msg, nil
		})

	p.mu.Lock()
	p.pendingReplies[res] = struct{}{}
	p.mu.Unlock()

	steps.Observe[*conversation.Message](res, nil, func(err error) {
		p.mu.Lock()
		delete(p.pendingReplies, res)
		p.mu.Unlock()
		if err != nil {
			log.Debug().Err(err).Str("conversation_id", p.ID()).Msg("peer reply cancelled")
		}
	})
}

// PendingReplies is the number of scheduled peer replies.
func (p *PeerSession) PendingReplies() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pendingReplies)
}

// SendAudio stores a recording and appends it as a voice message. Voice messages get no reply.
func (p *PeerSession) SendAudio(data []byte, mimeType string) *conversation.Message {
	ref := p.hub.blobs.Put(data, mimeType)
	msg := conversation.NewMessage(conversation.MeUserID, conversation.KindAudio, "Voice Message",
		conversation.WithAudioRef(ref))
	p.log.Append(msg)
	return msg
}

// React toggles the local user's reaction on a message.
func (p *PeerSession) React(id conversation.MessageID, emoji string) error {
	if !conversation.IsSupportedEmoji(emoji) {
		return errors.Wrap(ErrUnsupportedEmoji, emoji)
	}
	p.log.ToggleReaction(id, conversation.MeUserID, emoji)
	return nil
}

// Translate translates a received text message into the configured language.
// Unknown ids are ignored.
func (p *PeerSession) Translate(ctx context.Context, id conversation.MessageID) error {
	msg, ok := p.log.Get(id)
	if !ok {
		return nil
	}
	if msg.Kind != conversation.KindText || msg.IsFromMe() || msg.HasTranslation() {
		return ErrNotTranslatable
	}

	p.mu.Lock()
	if p.translating[id] {
		p.mu.Unlock()
		return ErrNotTranslatable
	}
	p.translating[id] = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.translating, id)
		p.mu.Unlock()
	}()

	p.log.UpdateByID(id, conversation.SetTranslating(true))
	translation := p.hub.client.Translate(ctx, msg.Text, "")
	p.log.UpdateByID(id, conversation.SetTranslation(translation))
	return nil
}

// Summarize appends a summary of the conversation. Only one summary runs at a time.
func (p *PeerSession) Summarize(ctx context.Context) (*conversation.Message, error) {
	p.mu.Lock()
	if p.summarizing {
		p.mu.Unlock()
		return nil, ErrBusy
	}
	p.summarizing = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.summarizing = false
		p.mu.Unlock()
	}()

	history := []*conversation.Message{}
	for _, m := range p.log.Snapshot() {
		if m.Kind == conversation.KindSummary {
			continue
		}
		history = append(history, m)
	}

	summary := p.hub.client.Summarize(ctx, history)
	msg := conversation.NewMessage(conversation.SystemSenderID, conversation.KindSummary, summary)
	p.log.Append(msg)
	return msg, nil
}

func (p *PeerSession) Summarizing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.summarizing
}

// PlayAudio reads a message out loud, or plays a voice message. Playing the message that
// is already playing stops it. It reports whether playback started.
func (p *PeerSession) PlayAudio(ctx context.Context, id conversation.MessageID) (bool, error) {
	msg, ok := p.log.Get(id)
	if !ok {
		return false, nil
	}

	var load audio.Loader
	switch msg.Kind {
	case conversation.KindAudio:
		load = p.voiceMessageLoader(msg)
	case conversation.KindText, conversation.KindSummary:
		text := msg.SpokenText()
		load = func(ctx context.Context) (*audio.Buffer, error) {
			buf, ok := p.hub.client.GenerateSpeech(ctx, text, "")
			if !ok {
				return nil, errors.New("speech generation failed")
			}
			return buf, nil
		}
	default:
		return false, errors.Wrapf(ErrNotPlayable, "message kind %s", msg.Kind)
	}

	return p.hub.player.Toggle(ctx, playbackKey(p.ID(), id), load), nil
}

// voiceMessageLoader decodes recorded blobs, which are raw 16 bit PCM.
func (p *PeerSession) voiceMessageLoader(msg *conversation.Message) audio.Loader {
	ref := msg.AudioRef
	return func(ctx context.Context) (*audio.Buffer, error) {
		data, _, ok := p.hub.blobs.Get(ref)
		if !ok {
			return nil, errors.Errorf("unknown audio blob %s", ref)
		}
		return audio.DecodePCM16(data, audio.DefaultSampleRate, audio.DefaultChannels)
	}
}

// Suggestions returns the current smart replies.
func (p *PeerSession) Suggestions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string{}, p.suggestions...)
}

func (p *PeerSession) invalidateSuggestions() {
	p.mu.Lock()
	p.suggestionGen++
	if p.cancelSuggestion != nil {
		p.cancelSuggestion()
		p.cancelSuggestion = nil
	}
	hadSuggestions := len(p.suggestions) > 0
	p.suggestions = nil
	p.suggestionsFor = ""
	p.mu.Unlock()

	if hadSuggestions {
		p.hub.publish(events.NewSuggestionsEvent(p.ID(), nil))
	}
}

// requestSuggestions asks for replies to the current snapshot. A newer trigger or a local
// send supersedes the request and its answer is dropped.
func (p *PeerSession) requestSuggestions() {
	ctx, cancel := context.WithCancel(p.hub.ctx)
	history := p.log.Snapshot()

	p.mu.Lock()
	p.suggestionGen++
	gen := p.suggestionGen
	if p.cancelSuggestion != nil {
		p.cancelSuggestion()
	}
	p.cancelSuggestion = cancel
	p.suggestions = nil
	p.suggestionsFor = ""
	if len(history) > 0 {
		p.suggestionsFor = history[len(history)-1].ID
	}
	p.mu.Unlock()

	p.hub.metrics.RecordSuggestionRequest()

	go func() {
		defer cancel()
		replies := p.hub.client.SuggestReplies(ctx, history)

		p.mu.Lock()
		if gen != p.suggestionGen {
			p.mu.Unlock()
			p.hub.metrics.RecordSuggestionsDiscarded()
			log.Debug().Str("conversation_id", p.ID()).Msg("discarding stale suggestions")
			return
		}
		p.suggestions = replies
		p.cancelSuggestion = nil
		p.mu.Unlock()

		p.hub.publish(events.NewSuggestionsEvent(p.ID(), replies))
	}()
}

// Rewrite rewrites a draft in one of the Tones.
func (p *PeerSession) Rewrite(ctx context.Context, draft string, tone string) (string, error) {
	if !IsTone(tone) {
		return "", errors.Wrap(ErrUnknownTone, tone)
	}
	return p.hub.client.Rewrite(ctx, draft, tone), nil
}

func IsTone(tone string) bool {
	for _, t := range Tones {
		if t == tone {
			return true
		}
	}
	return false
}
