package prompts

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig"
	"github.com/go-go-golems/palaver/pkg/conversation"
	"github.com/pkg/errors"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
)

// ChatMessage is a provider-neutral chat turn.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

const (
	suggestRepliesTemplate = `Based on the last message in a conversation, suggest three short, relevant, and distinct replies. The last message is: "{{ .LastMessage }}"
Answer only with a JSON object following this schema:
{{ .Schema }}`

	rewriteTemplate = `Rewrite the following text in a {{ .Tone | lower }} tone: "{{ .Text }}"`

	summarizeTemplate = `Please provide a concise summary of the following conversation:

{{ range .Lines }}User {{ .SenderID }}: {{ .Text }}
{{ end }}`

	translateTemplate = `Translate the following text to {{ .Language | default "English" }}. Only return the translated text, without any introductory phrases: "{{ .Text }}"`

	speechTemplate = `Say: {{ .Text | trim }}`
)

var templates = template.Must(
	template.New("prompts").Funcs(sprig.TxtFuncMap()).Parse(""),
)

func init() {
	for name, body := range map[string]string{
		"suggest-replies": suggestRepliesTemplate,
		"rewrite":         rewriteTemplate,
		"summarize":       summarizeTemplate,
		"translate":       translateTemplate,
		"speech":          speechTemplate,
	} {
		template.Must(templates.New(name).Parse(body))
	}
}

func render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", errors.Wrapf(err, "could not render %s prompt", name)
	}
	return buf.String(), nil
}

// SuggestReplies asks for replies to the last message of history.
func SuggestReplies(history []*conversation.Message) (string, error) {
	if len(history) == 0 {
		return "", errors.New("empty history")
	}
	schema, err := RepliesSchema()
	if err != nil {
		return "", err
	}
	return render("suggest-replies", map[string]interface{}{
		"LastMessage": history[len(history)-1].Text,
		"Schema":      schema,
	})
}

func Rewrite(text string, tone string) (string, error) {
	return render("rewrite", map[string]interface{}{
		"Text": text,
		"Tone": tone,
	})
}

type summaryLine struct {
	SenderID string
	Text     string
}

func Summarize(history []*conversation.Message) (string, error) {
	lines := make([]summaryLine, 0, len(history))
	for _, m := range history {
		lines = append(lines, summaryLine{SenderID: m.SenderID, Text: historyText(m)})
	}
	return render("summarize", map[string]interface{}{
		"Lines": lines,
	})
}

func Translate(text string, language string) (string, error) {
	return render("translate", map[string]interface{}{
		"Text":     text,
		"Language": language,
	})
}

// Speech wraps the text to read out loud, with markdown removed.
func Speech(text string) (string, error) {
	plain, err := PlainText(text)
	if err != nil {
		return "", err
	}
	return render("speech", map[string]interface{}{
		"Text": plain,
	})
}

// History maps a conversation to chat turns. Assistant messages keep the assistant role,
// everything else is sent as the user.
func History(msgs []*conversation.Message) []ChatMessage {
	ret := make([]ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		role := RoleUser
		if m.SenderID == conversation.AssistantID {
			role = RoleAssistant
		}
		ret = append(ret, ChatMessage{Role: role, Content: historyText(m)})
	}
	return ret
}

// historyText keeps image payloads and audio handles out of prompts.
func historyText(m *conversation.Message) string {
	switch m.Kind {
	case conversation.KindImage:
		return "[image]"
	case conversation.KindAudio:
		return "[voice message]"
	case conversation.KindText, conversation.KindSummary:
	}
	return strings.TrimSpace(m.Text)
}
