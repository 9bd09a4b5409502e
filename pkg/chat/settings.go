package chat

import (
	"bytes"
	"text/template"
	"time"

	"github.com/Masterminds/sprig"
	"github.com/huandu/go-clone"
	"github.com/pkg/errors"
)

const DefaultPeerReplyTemplate = `Hey! I received your message: "{{ .Text }}". I'll get back to you soon.`

type Settings struct {
	// ReplyDelay is how long simulated peers take to answer.
	ReplyDelay        time.Duration `yaml:"reply-delay,omitempty" mapstructure:"reply-delay"`
	PeerReplyTemplate string        `yaml:"peer-reply-template,omitempty" mapstructure:"peer-reply-template"`
}

func NewSettings() *Settings {
	return &Settings{
		ReplyDelay:        1500 * time.Millisecond,
		PeerReplyTemplate: DefaultPeerReplyTemplate,
	}
}

func (s *Settings) Clone() *Settings {
	return clone.Clone(s).(*Settings)
}

// RenderPeerReply renders the simulated answer to text.
func (s *Settings) RenderPeerReply(text string) (string, error) {
	tmpl := s.PeerReplyTemplate
	if tmpl == "" {
		tmpl = DefaultPeerReplyTemplate
	}
	t, err := template.New("peer-reply").Funcs(sprig.TxtFuncMap()).Parse(tmpl)
	if err != nil {
		return "", errors.Wrap(err, "could not parse peer reply template")
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, map[string]interface{}{"Text": text}); err != nil {
		return "", errors.Wrap(err, "could not render peer reply")
	}
	return buf.String(), nil
}
