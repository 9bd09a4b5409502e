package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/palaver/pkg/conversation"
	"github.com/rs/zerolog/log"
)

// ReactionSummary renders aggregated reactions, like "👍 2 ❤️ 1".
func ReactionSummary(reactions []conversation.Reaction) string {
	groups := conversation.AggregateReactions(reactions)
	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		parts = append(parts, fmt.Sprintf("%s %d", g.Emoji, g.Count))
	}
	return strings.Join(parts, " ")
}

// DescribeImage returns a short description of an image reference, data URLs are too
// long to show.
func DescribeImage(ref string) string {
	if !strings.HasPrefix(ref, "data:") {
		return ref
	}
	header, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return "image"
	}
	mimeType, _, _ := strings.Cut(header, ";")
	size := len(payload) * 3 / 4
	if size >= 1024 {
		return fmt.Sprintf("%s, %d KB", mimeType, size/1024)
	}
	return fmt.Sprintf("%s, %d bytes", mimeType, size)
}

type messageRenderer struct {
	style    *Style
	registry *conversation.Registry
	markdown *glamour.TermRenderer
	width    int
}

func newMessageRenderer(style *Style, registry *conversation.Registry, width int) *messageRenderer {
	ret := &messageRenderer{
		style:    style,
		registry: registry,
		width:    width,
	}
	if width > 0 {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			log.Debug().Err(err).Msg("could not create markdown renderer")
		} else {
			ret.markdown = r
		}
	}
	return ret
}

func (r *messageRenderer) renderMarkdown(text string) string {
	if r.markdown == nil {
		return wrapWords(text, r.width)
	}
	out, err := r.markdown.Render(text)
	if err != nil {
		return wrapWords(text, r.width)
	}
	return strings.Trim(out, "\n")
}

func (r *messageRenderer) body(m *conversation.Message, generating bool) string {
	switch m.Kind {
	case conversation.KindImage:
		return "🖼  " + DescribeImage(m.Text)
	case conversation.KindAudio:
		return "🔊 " + m.Text
	case conversation.KindSummary:
		return r.style.SummaryMessage.Render("📝 Summary") + "\n" + r.renderMarkdown(m.Text)
	case conversation.KindText:
	}

	if m.Text == "" {
		if generating {
			return r.style.Muted.Render("...")
		}
		return r.style.Muted.Render("(no answer)")
	}
	if m.SenderID == conversation.AssistantID {
		return r.renderMarkdown(m.Text)
	}
	return wrapWords(m.Text, r.width)
}

type renderOptions struct {
	selected   bool
	playing    bool
	generating bool
}

func (r *messageRenderer) render(m *conversation.Message, options renderOptions) string {
	sender := r.registry.DisplayName(m.SenderID)
	if m.IsFromMe() {
		sender = r.style.OwnMessage.Render(sender)
	} else {
		sender = r.style.Sender.Render(sender)
	}
	header := sender + " " + r.style.Muted.Render(m.Timestamp.Format("15:04"))
	if options.playing {
		header += " " + r.style.PlayingIndicator.Render("▶ playing")
	}

	lines := []string{header, r.body(m, options.generating)}

	switch {
	case m.IsTranslating:
		lines = append(lines, r.style.Translation.Render("Translating..."))
	case m.HasTranslation():
		lines = append(lines, r.style.Translation.Render(wrapWords("↳ "+*m.TranslatedText, r.width)))
	}

	if len(m.Reactions) > 0 {
		groups := conversation.AggregateReactions(m.Reactions)
		pills := make([]string, 0, len(groups))
		for _, g := range groups {
			s := r.style.Reaction
			if g.Includes(conversation.MeUserID) {
				s = r.style.OwnReaction
			}
			pills = append(pills, s.Render(fmt.Sprintf("%s %d", g.Emoji, g.Count)))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, pills...))
	}

	box := r.style.UnselectedMessage
	if options.selected {
		box = r.style.SelectedMessage
	}
	if r.width > 0 {
		box = box.Width(r.width + box.GetHorizontalPadding())
	}
	return box.Render(strings.Join(lines, "\n"))
}
