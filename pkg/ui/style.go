package ui

import "github.com/charmbracelet/lipgloss"

type Style struct {
	Sidebar            lipgloss.Style
	SidebarItem        lipgloss.Style
	SidebarActive      lipgloss.Style
	Header             lipgloss.Style
	UnselectedMessage  lipgloss.Style
	SelectedMessage    lipgloss.Style
	FocusedMessage     lipgloss.Style
	OwnMessage         lipgloss.Style
	SummaryMessage     lipgloss.Style
	Sender             lipgloss.Style
	Muted              lipgloss.Style
	Translation        lipgloss.Style
	Reaction           lipgloss.Style
	OwnReaction        lipgloss.Style
	Suggestion         lipgloss.Style
	NoticeInfo         lipgloss.Style
	NoticeError        lipgloss.Style
	PickerOption       lipgloss.Style
	UnreadBadge        lipgloss.Style
	OnlineIndicator    lipgloss.Style
	PlayingIndicator   lipgloss.Style
	RecordingIndicator lipgloss.Style
}

type BorderColors struct {
	Unselected string
	Selected   string
	Focused    string
}

func DefaultStyles() *Style {
	lightModeColors := BorderColors{
		Unselected: "#CCCCCC",
		Selected:   "#FFB6C1", // Light pink
		Focused:    "#FFFF99", // Light yellow
	}

	darkModeColors := BorderColors{
		Unselected: "#444444",
		Selected:   "#DD7090", // Desaturated pink for dark mode
		Focused:    "#DDDD77", // Desaturated yellow for dark mode
	}

	muted := lipgloss.AdaptiveColor{Light: "#888888", Dark: "#777777"}
	accent := lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#8B87FF"}

	return &Style{
		Sidebar: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(lipgloss.AdaptiveColor{
				Light: lightModeColors.Unselected,
				Dark:  darkModeColors.Unselected,
			}).
			Padding(0, 1),
		SidebarItem:   lipgloss.NewStyle(),
		SidebarActive: lipgloss.NewStyle().Bold(true).Foreground(accent),
		Header:        lipgloss.NewStyle().Bold(true).Padding(0, 1),
		UnselectedMessage: lipgloss.NewStyle().Border(lipgloss.NormalBorder()).
			Padding(0, 1).
			BorderForeground(lipgloss.AdaptiveColor{
				Light: lightModeColors.Unselected,
				Dark:  darkModeColors.Unselected,
			}),
		SelectedMessage: lipgloss.NewStyle().Border(lipgloss.ThickBorder()).
			Padding(0, 1).
			BorderForeground(lipgloss.AdaptiveColor{
				Light: lightModeColors.Selected,
				Dark:  darkModeColors.Selected,
			}),
		FocusedMessage: lipgloss.NewStyle().Border(lipgloss.NormalBorder()).
			Padding(0, 1).
			BorderForeground(lipgloss.AdaptiveColor{
				Light: lightModeColors.Focused,
				Dark:  darkModeColors.Focused,
			}),
		OwnMessage:         lipgloss.NewStyle().Foreground(accent),
		SummaryMessage:     lipgloss.NewStyle().Italic(true),
		Sender:             lipgloss.NewStyle().Bold(true),
		Muted:              lipgloss.NewStyle().Foreground(muted),
		Translation:        lipgloss.NewStyle().Foreground(muted).Italic(true),
		Reaction:           lipgloss.NewStyle().Padding(0, 1),
		OwnReaction:        lipgloss.NewStyle().Padding(0, 1).Underline(true),
		Suggestion:         lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).BorderForeground(accent),
		NoticeInfo:         lipgloss.NewStyle().Foreground(accent),
		NoticeError:        lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F")).Bold(true),
		PickerOption:       lipgloss.NewStyle().Padding(0, 1),
		UnreadBadge:        lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(accent).Padding(0, 1),
		OnlineIndicator:    lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD75F")),
		PlayingIndicator:   lipgloss.NewStyle().Foreground(accent).Bold(true),
		RecordingIndicator: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F")).Bold(true),
	}
}
