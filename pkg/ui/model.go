package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/palaver/pkg/chat"
	"github.com/go-go-golems/palaver/pkg/conversation"
	"github.com/go-go-golems/palaver/pkg/events"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type State string

const (
	StateUserInput      State = "user_input"
	StateMovingAround   State = "moving_around"
	StateReactionPicker State = "reaction_picker"
	StateTonePicker     State = "tone_picker"
)

const sidebarWidth = 26

type errMsg struct{ err error }

type composeDoneMsg struct {
	ConversationID string
	Text           string
}

// Model is the bubbletea model of the chat client. Session operations run as commands,
// the resulting log changes come back through ForwardFunc.
type Model struct {
	hub *chat.Hub
	ctx context.Context

	conversations []*conversation.Conversation
	active        int
	// selectedIdx indexes the snapshot of the active conversation
	selectedIdx int

	viewport viewport.Model
	textArea textarea.Model
	help     help.Model
	keyMap   KeyMap
	style    *Style

	width  int
	height int
	state  State

	suggestions map[string][]string
	generating  map[string]string
	playingKey  string
	recording   bool
	notice      *NoticeMsg
}

func NewModel(ctx context.Context, hub *chat.Hub) Model {
	ret := Model{
		hub:           hub,
		ctx:           ctx,
		conversations: hub.Registry().Conversations(),
		viewport:      viewport.New(0, 0),
		help:          help.New(),
		keyMap:        DefaultKeyMap,
		style:         DefaultStyles(),
		suggestions:   map[string][]string{},
		generating:    map[string]string{},
	}

	ret.textArea = textarea.New()
	ret.textArea.Placeholder = "Type a message..."
	ret.textArea.ShowLineNumbers = false
	ret.textArea.SetHeight(2)
	ret.textArea.Focus()
	ret.state = StateUserInput

	ret.selectLast()
	ret.updateKeyBindings()

	return ret
}

// Init selects the first conversation once the program runs, so that events triggered by
// the selection reach the model.
func (m Model) Init() tea.Cmd {
	id := m.activeID()
	return tea.Batch(textarea.Blink, func() tea.Msg {
		m.selectConversation(id)
		return nil
	})
}

func (m Model) selectConversation(id string) {
	if id == "" {
		return
	}
	if err := m.hub.Select(id); err != nil {
		log.Error().Err(err).Str("conversation_id", id).Msg("could not select conversation")
	}
}

func (m Model) activeConversation() *conversation.Conversation {
	if m.active < 0 || m.active >= len(m.conversations) {
		return nil
	}
	return m.conversations[m.active]
}

func (m Model) activeID() string {
	if c := m.activeConversation(); c != nil {
		return c.ID
	}
	return ""
}

func (m Model) snapshot() []*conversation.Message {
	if c := m.activeConversation(); c != nil {
		return c.Log.Snapshot()
	}
	return nil
}

func (m *Model) selectLast() {
	m.selectedIdx = len(m.snapshot()) - 1
}

// targetMessage is the message commands like translate apply to: the selected one when
// moving around, else the last message from someone else.
func (m Model) targetMessage() (*conversation.Message, bool) {
	msgs := m.snapshot()
	if m.state == StateMovingAround {
		if m.selectedIdx >= 0 && m.selectedIdx < len(msgs) {
			return msgs[m.selectedIdx], true
		}
		return nil, false
	}
	for i := len(msgs) - 1; i >= 0; i-- {
		if !msgs[i].IsFromMe() && msgs[i].SenderID != conversation.SystemSenderID {
			return msgs[i], true
		}
	}
	return nil, false
}

func (m *Model) updateKeyBindings() {
	moving := m.state == StateMovingAround
	input := m.state == StateUserInput
	picking := m.state == StateReactionPicker || m.state == StateTonePicker
	assistant := m.activeConversation() != nil && m.activeConversation().Assistant

	m.keyMap.SelectNextMessage.SetEnabled(moving)
	m.keyMap.SelectPrevMessage.SetEnabled(moving)
	m.keyMap.FocusMessage.SetEnabled(moving)
	m.keyMap.UnfocusMessage.SetEnabled(input)
	m.keyMap.SubmitMessage.SetEnabled(input)
	m.keyMap.PickSuggestion.SetEnabled(moving && !assistant)
	m.keyMap.PickOption.SetEnabled(picking)
	m.keyMap.CancelPicker.SetEnabled(picking)
	m.keyMap.NextConversation.SetEnabled(!picking)
	m.keyMap.PrevConversation.SetEnabled(!picking)
	m.keyMap.Help.SetEnabled(moving)

	m.keyMap.React.SetEnabled(moving && !assistant)
	m.keyMap.Translate.SetEnabled(!picking && !assistant)
	m.keyMap.Play.SetEnabled(!picking && !assistant)
	m.keyMap.Summarize.SetEnabled(!picking && !assistant)
	m.keyMap.Compose.SetEnabled(input && !assistant)
	m.keyMap.Record.SetEnabled(!picking && !assistant)
	m.keyMap.CancelCompletion.SetEnabled(assistant)
}

func (m *Model) setState(s State) tea.Cmd {
	m.state = s
	var cmd tea.Cmd
	if s == StateUserInput {
		cmd = m.textArea.Focus()
	} else {
		m.textArea.Blur()
	}
	m.updateKeyBindings()
	return cmd
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keyMap.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keyMap.PickOption):
			idx := int(msg.String()[0] - '1')
			cmds = append(cmds, m.pick(idx), m.setState(StateMovingAround))

		case key.Matches(msg, m.keyMap.CancelPicker):
			cmds = append(cmds, m.setState(StateMovingAround))

		case key.Matches(msg, m.keyMap.NextConversation):
			m.switchConversation(1)

		case key.Matches(msg, m.keyMap.PrevConversation):
			m.switchConversation(-1)

		case key.Matches(msg, m.keyMap.UnfocusMessage):
			m.selectLast()
			cmds = append(cmds, m.setState(StateMovingAround))

		case key.Matches(msg, m.keyMap.FocusMessage):
			cmds = append(cmds, m.setState(StateUserInput))

		case key.Matches(msg, m.keyMap.SubmitMessage):
			text := strings.TrimSpace(m.textArea.Value())
			m.textArea.Reset()
			if text != "" {
				cmds = append(cmds, m.sendCmd(text))
			}

		case key.Matches(msg, m.keyMap.SelectNextMessage):
			if m.selectedIdx < len(m.snapshot())-1 {
				m.selectedIdx++
			}

		case key.Matches(msg, m.keyMap.SelectPrevMessage):
			if m.selectedIdx > 0 {
				m.selectedIdx--
			}

		case key.Matches(msg, m.keyMap.React):
			if _, ok := m.targetMessage(); ok {
				cmds = append(cmds, m.setState(StateReactionPicker))
			}

		case key.Matches(msg, m.keyMap.Translate):
			cmds = append(cmds, m.translateCmd())

		case key.Matches(msg, m.keyMap.Play):
			cmds = append(cmds, m.playCmd())

		case key.Matches(msg, m.keyMap.Summarize):
			cmds = append(cmds, m.summarizeCmd())

		case key.Matches(msg, m.keyMap.Compose):
			if strings.TrimSpace(m.textArea.Value()) != "" {
				cmds = append(cmds, m.setState(StateTonePicker))
			}

		case key.Matches(msg, m.keyMap.Record):
			cmds = append(cmds, m.recordCmd())

		case key.Matches(msg, m.keyMap.PickSuggestion):
			idx := int(msg.String()[0] - '1')
			replies := m.suggestions[m.activeID()]
			if idx < len(replies) {
				m.textArea.SetValue(replies[idx])
				cmds = append(cmds, m.setState(StateUserInput))
			}

		case key.Matches(msg, m.keyMap.CancelCompletion):
			if a, err := m.hub.Assistant(); err == nil {
				a.Cancel()
			}

		case key.Matches(msg, m.keyMap.Help):
			m.help.ShowAll = !m.help.ShowAll

		default:
			switch m.state {
			case StateUserInput:
				m.textArea, cmd = m.textArea.Update(msg)
				cmds = append(cmds, cmd)
			case StateMovingAround, StateReactionPicker, StateTonePicker:
				m.viewport, cmd = m.viewport.Update(msg)
				cmds = append(cmds, cmd)
			}
			m.recomputeSize()
			return m, tea.Batch(cmds...)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case LogChangedMsg:
		if msg.ConversationID == m.activeID() && m.state == StateUserInput {
			m.selectLast()
		}

	case SuggestionsMsg:
		m.suggestions[msg.ConversationID] = msg.Replies

	case NoticeMsg:
		n := msg
		m.notice = &n

	case PlaybackMsg:
		k := msg.ConversationID + "/" + msg.MessageID
		if msg.Playing {
			m.playingKey = k
		} else if m.playingKey == k {
			m.playingKey = ""
		}

	case RecordingMsg:
		m.recording = msg.Recording

	case GenerationMsg:
		if msg.Done {
			delete(m.generating, msg.ConversationID)
		} else {
			m.generating[msg.ConversationID] = msg.MessageID
		}
		if msg.Err != "" {
			m.notice = &NoticeMsg{ConversationID: msg.ConversationID, Level: events.NoticeError, Text: msg.Err}
		}

	case composeDoneMsg:
		if msg.ConversationID == m.activeID() {
			m.textArea.SetValue(msg.Text)
			cmds = append(cmds, m.setState(StateUserInput))
		}

	case errMsg:
		m.notice = &NoticeMsg{ConversationID: m.activeID(), Level: events.NoticeError, Text: msg.err.Error()}
	}

	m.recomputeSize()
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) switchConversation(delta int) {
	if len(m.conversations) == 0 {
		return
	}
	m.active = (m.active + delta + len(m.conversations)) % len(m.conversations)
	m.selectConversation(m.activeID())
	m.notice = nil
	m.selectLast()
	if m.state == StateReactionPicker || m.state == StateTonePicker {
		m.state = StateMovingAround
	}
	m.updateKeyBindings()
}

func (m *Model) pick(idx int) tea.Cmd {
	switch m.state {
	case StateReactionPicker:
		if idx >= len(conversation.EmojiReactions) {
			return nil
		}
		msg, ok := m.targetMessage()
		if !ok {
			return nil
		}
		emoji := conversation.EmojiReactions[idx]
		id := m.activeID()
		hub := m.hub
		return func() tea.Msg {
			if err := hub.React(id, msg.ID, emoji); err != nil {
				return errMsg{err}
			}
			return nil
		}

	case StateTonePicker:
		if idx >= len(chat.Tones) {
			return nil
		}
		tone := chat.Tones[idx]
		draft := m.textArea.Value()
		id := m.activeID()
		ctx := m.ctx
		hub := m.hub
		return func() tea.Msg {
			p, err := hub.Peer(id)
			if err != nil {
				return errMsg{err}
			}
			text, err := p.Rewrite(ctx, draft, tone)
			if err != nil {
				return errMsg{err}
			}
			return composeDoneMsg{ConversationID: id, Text: text}
		}

	case StateUserInput, StateMovingAround:
	}
	return nil
}

// peerCmd runs f on the active peer session in the background.
func (m Model) peerCmd(f func(p *chat.PeerSession) error) tea.Cmd {
	id := m.activeID()
	hub := m.hub
	return func() tea.Msg {
		p, err := hub.Peer(id)
		if err != nil {
			return errMsg{err}
		}
		if err := f(p); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

func (m Model) sendCmd(text string) tea.Cmd {
	c := m.activeConversation()
	if c == nil {
		return nil
	}
	if c.Assistant {
		hub := m.hub
		return func() tea.Msg {
			a, err := hub.Assistant()
			if err != nil {
				return errMsg{err}
			}
			if _, err := a.Ask(text); err != nil {
				if errors.Is(err, chat.ErrBusy) {
					return errMsg{errors.New("the assistant is still answering")}
				}
				return errMsg{err}
			}
			return nil
		}
	}
	return m.peerCmd(func(p *chat.PeerSession) error {
		p.Send(text)
		return nil
	})
}

func (m Model) translateCmd() tea.Cmd {
	msg, ok := m.targetMessage()
	if !ok {
		return nil
	}
	ctx := m.ctx
	return m.peerCmd(func(p *chat.PeerSession) error {
		err := p.Translate(ctx, msg.ID)
		if errors.Is(err, chat.ErrNotTranslatable) {
			return nil
		}
		return err
	})
}

func (m Model) playCmd() tea.Cmd {
	msg, ok := m.targetMessage()
	if !ok {
		return nil
	}
	ctx := m.ctx
	return m.peerCmd(func(p *chat.PeerSession) error {
		_, err := p.PlayAudio(ctx, msg.ID)
		return err
	})
}

func (m Model) summarizeCmd() tea.Cmd {
	ctx := m.ctx
	return m.peerCmd(func(p *chat.PeerSession) error {
		_, err := p.Summarize(ctx)
		if errors.Is(err, chat.ErrBusy) {
			return errors.New("a summary is already being generated")
		}
		return err
	})
}

func (m Model) recordCmd() tea.Cmd {
	id := m.activeID()
	hub := m.hub
	ctx := m.ctx
	recording := m.recording
	return func() tea.Msg {
		if recording {
			if _, err := hub.StopRecording(id); err != nil {
				return errMsg{err}
			}
			return nil
		}
		// a missing microphone is reported as a notice by the hub
		_ = hub.StartRecording(ctx, id)
		return nil
	}
}

func (m Model) messageWidth() int {
	w := m.width - sidebarWidth - 2
	fw, _ := m.style.SelectedMessage.GetFrameSize()
	w -= fw
	if w < 10 {
		w = 10
	}
	return w
}

func (m *Model) recomputeSize() {
	mainWidth := m.width - sidebarWidth - 1
	if mainWidth < 0 {
		mainWidth = 0
	}
	h, _ := m.style.FocusedMessage.GetFrameSize()
	m.textArea.SetWidth(mainWidth - h)

	used := lipgloss.Height(m.headerView()) + lipgloss.Height(m.footerView())
	height := m.height - used
	if height < 0 {
		height = 0
	}
	m.viewport.Width = mainWidth
	m.viewport.Height = height
	m.viewport.SetContent(m.messageView())
	if m.state == StateUserInput {
		m.viewport.GotoBottom()
	}
}

func (m Model) headerView() string {
	c := m.activeConversation()
	if c == nil {
		return m.style.Header.Render("palaver")
	}
	title := m.hub.Registry().Title(c)
	status := []string{}
	if _, ok := m.generating[c.ID]; ok {
		status = append(status, m.style.Muted.Render("answering..."))
	}
	if m.recording {
		status = append(status, m.style.RecordingIndicator.Render("● recording"))
	}
	if m.notice != nil && (m.notice.ConversationID == "" || m.notice.ConversationID == c.ID) {
		s := m.style.NoticeInfo
		if m.notice.Level == events.NoticeError {
			s = m.style.NoticeError
		}
		status = append(status, s.Render(m.notice.Text))
	}
	return m.style.Header.Render(title) + " " + strings.Join(status, " ")
}

func (m Model) messageView() string {
	c := m.activeConversation()
	if c == nil {
		return ""
	}
	r := newMessageRenderer(m.style, m.hub.Registry(), m.messageWidth())
	generatingID := m.generating[c.ID]

	parts := []string{}
	for idx, msg := range c.Log.Snapshot() {
		parts = append(parts, r.render(msg, renderOptions{
			selected:   m.state != StateUserInput && idx == m.selectedIdx,
			playing:    m.playingKey == c.ID+"/"+string(msg.ID),
			generating: string(msg.ID) == generatingID,
		}))
	}
	return strings.Join(parts, "\n")
}

func (m Model) pickerView() string {
	options := []string{}
	switch m.state {
	case StateReactionPicker:
		options = conversation.EmojiReactions
	case StateTonePicker:
		options = chat.Tones
	case StateUserInput, StateMovingAround:
		return ""
	}
	rendered := make([]string, 0, len(options))
	for i, o := range options {
		rendered = append(rendered, m.style.PickerOption.Render(fmt.Sprintf("%d %s", i+1, o)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) suggestionsView() string {
	replies := m.suggestions[m.activeID()]
	if len(replies) == 0 {
		return ""
	}
	pills := make([]string, 0, len(replies))
	for i, r := range replies {
		pills = append(pills, m.style.Suggestion.Render(fmt.Sprintf("%d %s", i+1, r)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, pills...)
}

func (m Model) textAreaView() string {
	v := m.textArea.View()
	if m.state == StateUserInput {
		return m.style.FocusedMessage.Render(v)
	}
	return m.style.UnselectedMessage.Render(v)
}

func (m Model) footerView() string {
	parts := []string{}
	if v := m.suggestionsView(); v != "" {
		parts = append(parts, v)
	}
	if v := m.pickerView(); v != "" {
		parts = append(parts, v)
	}
	parts = append(parts, m.textAreaView(), m.help.View(m.keyMap))
	return strings.Join(parts, "\n")
}

func (m Model) sidebarView() string {
	lines := []string{}
	for i, c := range m.conversations {
		name := m.hub.Registry().Title(c)
		prefix := "  "
		if contact, ok := m.hub.Registry().Contact(c.CounterpartID()); ok && contact.Online {
			prefix = m.style.OnlineIndicator.Render("● ")
		}
		if c.Assistant {
			prefix = "🤖 "
		}
		line := prefix + name
		if c.UnreadCount > 0 {
			line += " " + m.style.UnreadBadge.Render(fmt.Sprintf("%d", c.UnreadCount))
		}
		if i == m.active {
			line = m.style.SidebarActive.Render(line)
		} else {
			line = m.style.SidebarItem.Render(line)
		}
		lines = append(lines, line)
	}
	return m.style.Sidebar.
		Width(sidebarWidth).
		Height(m.height).
		Render(strings.Join(lines, "\n"))
}

func (m Model) View() string {
	main := strings.Join([]string{m.headerView(), m.viewport.View(), m.footerView()}, "\n")
	return lipgloss.JoinHorizontal(lipgloss.Top, m.sidebarView(), main)
}
