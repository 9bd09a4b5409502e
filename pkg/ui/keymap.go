package ui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	NextConversation key.Binding
	PrevConversation key.Binding

	SelectPrevMessage key.Binding
	SelectNextMessage key.Binding
	UnfocusMessage    key.Binding
	FocusMessage      key.Binding
	SubmitMessage     key.Binding
	ScrollUp          key.Binding
	ScrollDown        key.Binding

	React            key.Binding
	Translate        key.Binding
	Play             key.Binding
	Summarize        key.Binding
	Compose          key.Binding
	Record           key.Binding
	PickSuggestion   key.Binding
	PickOption       key.Binding
	CancelPicker     key.Binding
	CancelCompletion key.Binding

	Help key.Binding
	Quit key.Binding
}

var DefaultKeyMap = KeyMap{
	NextConversation: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next chat")),
	PrevConversation: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous chat")),

	SelectPrevMessage: key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "previous message")),
	SelectNextMessage: key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "next message")),
	UnfocusMessage:    key.NewBinding(key.WithKeys("esc", "ctrl+g"), key.WithHelp("esc", "select messages")),
	FocusMessage:      key.NewBinding(key.WithKeys("enter", "i"), key.WithHelp("enter", "write")),
	SubmitMessage:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
	ScrollUp:          key.NewBinding(key.WithKeys("shift+pgup")),
	ScrollDown:        key.NewBinding(key.WithKeys("shift+pgdown")),

	React:            key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "react")),
	Translate:        key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "translate")),
	Play:             key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "play")),
	Summarize:        key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "summarize")),
	Compose:          key.NewBinding(key.WithKeys("ctrl+w"), key.WithHelp("ctrl+w", "magic compose")),
	Record:           key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "record")),
	PickSuggestion:   key.NewBinding(key.WithKeys("1", "2", "3"), key.WithHelp("1-3", "use suggestion")),
	PickOption:       key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6"), key.WithHelp("1-6", "pick")),
	CancelPicker:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	CancelCompletion: key.NewBinding(key.WithKeys("ctrl+k"), key.WithHelp("ctrl+k", "stop answer")),

	Help: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextConversation, k.SubmitMessage, k.UnfocusMessage, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextConversation, k.PrevConversation, k.SelectPrevMessage, k.SelectNextMessage},
		{k.FocusMessage, k.SubmitMessage, k.UnfocusMessage, k.PickSuggestion},
		{k.React, k.Translate, k.Play, k.Summarize},
		{k.Compose, k.Record, k.CancelCompletion, k.Help, k.Quit},
	}
}
