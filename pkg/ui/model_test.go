package ui

import (
	"bytes"
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-go-golems/palaver/pkg/ai"
	"github.com/go-go-golems/palaver/pkg/chat"
	"github.com/go-go-golems/palaver/pkg/conversation"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T) (Model, *chat.Hub, *ai.FakeProvider) {
	t.Helper()

	seed, err := conversation.LoadSeedFile("")
	require.NoError(t, err)
	registry, err := seed.Registry(time.Now())
	require.NoError(t, err)

	fake := ai.NewFakeProvider()
	hub, err := chat.NewHub(registry, ai.NewClient(fake, ai.NewSettings()))
	require.NoError(t, err)
	t.Cleanup(hub.Close)

	m := NewModel(context.Background(), hub)
	runCmd(t, m.Init())
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return updated.(Model), hub, fake
}

// runCmd executes cmd and the commands of a batch, returning the messages they produced.
// Commands that do not return within a second, like cursor blinks, are ignored.
func runCmd(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}

	c := make(chan tea.Msg, 1)
	go func() { c <- cmd() }()

	var msg tea.Msg
	select {
	case msg = <-c:
	case <-time.After(time.Second):
		return nil
	}

	switch msg := msg.(type) {
	case nil:
		return nil
	case tea.BatchMsg:
		ret := []tea.Msg{}
		for _, cmd_ := range msg {
			ret = append(ret, runCmd(t, cmd_)...)
		}
		return ret
	default:
		return []tea.Msg{msg}
	}
}

func press(t *testing.T, m Model, k tea.KeyMsg) (Model, []tea.Msg) {
	t.Helper()
	updated, cmd := m.Update(k)
	return updated.(Model), runCmd(t, cmd)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelStartsOnFirstConversation(t *testing.T) {
	m, hub, _ := newTestModel(t)

	assert.Equal(t, "chat-1", m.activeID())
	assert.Equal(t, "chat-1", hub.Active())
	assert.Equal(t, StateUserInput, m.state)
	assert.Contains(t, m.View(), "Alice")
}

func TestModelInitRequestsSuggestions(t *testing.T) {
	_, _, fake := newTestModel(t)

	// chat-1 ends with a message from Alice
	require.Eventually(t, func() bool { return fake.Calls("SuggestReplies") == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestModelLogsFailedSelect(t *testing.T) {
	m, hub, _ := newTestModel(t)

	var buf bytes.Buffer
	logger := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = logger })

	m.selectConversation("nope")
	assert.Equal(t, "chat-1", hub.Active())
	assert.Contains(t, buf.String(), "could not select conversation")
	assert.Contains(t, buf.String(), "nope")
}

func TestModelSwitchesConversations(t *testing.T) {
	m, hub, _ := newTestModel(t)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "chat-2", m.activeID())
	assert.Equal(t, "chat-2", hub.Active())

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.True(t, m.activeConversation().Assistant)
}

func TestModelSendsMessage(t *testing.T) {
	m, hub, _ := newTestModel(t)
	peer, err := hub.Peer("chat-1")
	require.NoError(t, err)
	before := peer.Log().Len()

	m.textArea.SetValue("  hello there ")
	m, msgs := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	for _, msg := range msgs {
		_, ok := msg.(errMsg)
		assert.False(t, ok, "unexpected error %v", msg)
	}

	assert.Equal(t, "", m.textArea.Value())
	require.Equal(t, before+1, peer.Log().Len())
	last, _ := peer.Log().Last()
	assert.Equal(t, "hello there", last.Text)
	assert.True(t, last.IsFromMe())
}

func TestModelIgnoresBlankInput(t *testing.T) {
	m, hub, _ := newTestModel(t)
	peer, err := hub.Peer("chat-1")
	require.NoError(t, err)
	before := peer.Log().Len()

	m.textArea.SetValue("   ")
	_, msgs := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, msgs)
	assert.Equal(t, before, peer.Log().Len())
}

func TestModelMovesSelection(t *testing.T) {
	m, _, _ := newTestModel(t)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, StateMovingAround, m.state)
	assert.Equal(t, 2, m.selectedIdx)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, m.selectedIdx)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 2, m.selectedIdx)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, StateUserInput, m.state)
}

func TestModelReactionPicker(t *testing.T) {
	m, hub, _ := newTestModel(t)
	peer, err := hub.Peer("chat-1")
	require.NoError(t, err)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	require.Equal(t, StateReactionPicker, m.state)
	assert.Contains(t, m.View(), "1 👍")

	// the seeded thumbs up of the local user is toggled off
	m, _ = press(t, m, runes("1"))
	assert.Equal(t, StateMovingAround, m.state)
	msg, ok := peer.Log().Get("msg-1-3")
	require.True(t, ok)
	_, reacted := msg.ReactionOf(conversation.MeUserID)
	assert.False(t, reacted)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, StateMovingAround, m.state)
}

func TestModelComposeWithTone(t *testing.T) {
	m, _, _ := newTestModel(t)

	m.textArea.SetValue("see you")
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlW})
	require.Equal(t, StateTonePicker, m.state)

	m, msgs := press(t, m, runes("2"))
	require.Len(t, msgs, 1)
	assert.Equal(t, composeDoneMsg{ConversationID: "chat-1", Text: "[Casual] see you"}, msgs[0])

	updated, _ := m.Update(msgs[0])
	m = updated.(Model)
	assert.Equal(t, "[Casual] see you", m.textArea.Value())
	assert.Equal(t, StateUserInput, m.state)
}

func TestModelPicksSuggestion(t *testing.T) {
	m, _, _ := newTestModel(t)

	updated, _ := m.Update(SuggestionsMsg{ConversationID: "chat-1", Replies: []string{"Sure!", "No way."}})
	m = updated.(Model)
	assert.Contains(t, m.View(), "2 No way.")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	m, _ = press(t, m, runes("2"))
	assert.Equal(t, "No way.", m.textArea.Value())
	assert.Equal(t, StateUserInput, m.state)

	// out of range picks are ignored
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	m, _ = press(t, m, runes("3"))
	assert.Equal(t, StateMovingAround, m.state)
}

func TestModelTracksGenerationAndNotices(t *testing.T) {
	m, _, _ := newTestModel(t)

	updated, _ := m.Update(GenerationMsg{ConversationID: "chat-1", MessageID: "x"})
	m = updated.(Model)
	assert.Equal(t, "x", m.generating["chat-1"])

	updated, _ = m.Update(GenerationMsg{ConversationID: "chat-1", MessageID: "x", Done: true, Err: "boom"})
	m = updated.(Model)
	assert.NotContains(t, m.generating, "chat-1")
	assert.Contains(t, m.View(), "boom")

	updated, _ = m.Update(PlaybackMsg{ConversationID: "chat-1", MessageID: "msg-1-1", Playing: true})
	m = updated.(Model)
	assert.Equal(t, "chat-1/msg-1-1", m.playingKey)
	updated, _ = m.Update(PlaybackMsg{ConversationID: "chat-1", MessageID: "msg-1-1"})
	m = updated.(Model)
	assert.Equal(t, "", m.playingKey)
}

func TestModelAsksAssistant(t *testing.T) {
	m, hub, _ := newTestModel(t)
	assistant, err := hub.Assistant()
	require.NoError(t, err)
	before := assistant.Log().Len()

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	require.True(t, m.activeConversation().Assistant)

	m.textArea.SetValue("what is go?")
	_, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, assistant.Wait(ctx))

	msgs := assistant.Log().Snapshot()
	require.Len(t, msgs, before+2)
	assert.Equal(t, "what is go?", msgs[before].Text)
	assert.Equal(t, conversation.AssistantID, msgs[before+1].SenderID)
}
