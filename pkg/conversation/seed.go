package conversation

import (
	_ "embed"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

type seedMessage struct {
	ID        string     `yaml:"id"`
	From      string     `yaml:"from"`
	Ago       string     `yaml:"ago"`
	Kind      Kind       `yaml:"kind"`
	Text      string     `yaml:"text"`
	Reactions []Reaction `yaml:"reactions"`
}

type seedChat struct {
	ID       string        `yaml:"id"`
	With     string        `yaml:"with"`
	Unread   int           `yaml:"unread"`
	Messages []seedMessage `yaml:"messages"`
}

type seedAssistant struct {
	ID       string `yaml:"id"`
	Greeting string `yaml:"greeting"`
}

type Seed struct {
	Contacts  []*Contact     `yaml:"contacts"`
	Chats     []seedChat     `yaml:"chats"`
	Assistant *seedAssistant `yaml:"assistant"`
}

func ParseSeed(data []byte) (*Seed, error) {
	ret := &Seed{}
	if err := yaml.Unmarshal(data, ret); err != nil {
		return nil, errors.Wrap(err, "could not parse seed data")
	}
	return ret, nil
}

// LoadSeedFile parses a seed file, or the embedded seed when path is empty.
func LoadSeedFile(path string) (*Seed, error) {
	if path == "" {
		return ParseSeed(defaultSeed)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read seed file %s", path)
	}
	return ParseSeed(data)
}

// Registry builds a fresh registry. Relative message times are resolved against now.
func (s *Seed) Registry(now time.Time) (*Registry, error) {
	r := NewRegistry()
	for _, c := range s.Contacts {
		r.AddContact(c)
	}

	for _, chat := range s.Chats {
		if chat.ID == "" || chat.With == "" {
			return nil, errors.Errorf("chat %q needs an id and a counterpart", chat.ID)
		}
		msgs, err := seedMessages(chat.Messages, now)
		if err != nil {
			return nil, errors.Wrapf(err, "chat %s", chat.ID)
		}
		if err := r.AddConversation(NewPeerConversation(chat.ID, chat.With, chat.Unread, msgs...)); err != nil {
			return nil, err
		}
	}

	if s.Assistant != nil {
		id := s.Assistant.ID
		if id == "" {
			id = AssistantID
		}
		msgs := []*Message{}
		if s.Assistant.Greeting != "" {
			msgs = append(msgs, NewTextMessage(AssistantID, s.Assistant.Greeting, WithID("initial"), WithTime(now)))
		}
		if err := r.AddConversation(NewAssistantConversation(id, msgs...)); err != nil {
			return nil, err
		}
	}

	return r, nil
}

func seedMessages(in []seedMessage, now time.Time) ([]*Message, error) {
	ret := make([]*Message, 0, len(in))
	for _, m := range in {
		ts := now
		if m.Ago != "" {
			d, err := time.ParseDuration(m.Ago)
			if err != nil {
				return nil, errors.Wrapf(err, "message %s", m.ID)
			}
			ts = now.Add(-d)
		}
		kind := m.Kind
		if kind == "" {
			kind = KindText
		}
		if !kind.Valid() {
			return nil, errors.Errorf("message %s has unknown kind %q", m.ID, kind)
		}
		opts := []MessageOption{WithTime(ts), WithReactions(m.Reactions...)}
		if m.ID != "" {
			opts = append(opts, WithID(MessageID(m.ID)))
		}
		ret = append(ret, NewMessage(m.From, kind, m.Text, opts...))
	}
	return ret, nil
}
