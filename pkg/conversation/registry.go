package conversation

import (
	"github.com/mb0/glob"
	"github.com/pkg/errors"
)

var ErrDuplicateConversation = errors.New("conversation already registered")

// Registry owns the contacts and the conversations of a running client.
type Registry struct {
	contacts      map[string]*Contact
	contactOrder  []string
	conversations map[string]*Conversation
	order         []string
}

func NewRegistry() *Registry {
	return &Registry{
		contacts:      map[string]*Contact{},
		conversations: map[string]*Conversation{},
	}
}

func (r *Registry) AddContact(c *Contact) {
	if _, ok := r.contacts[c.ID]; !ok {
		r.contactOrder = append(r.contactOrder, c.ID)
	}
	r.contacts[c.ID] = c
}

func (r *Registry) Contact(id string) (*Contact, bool) {
	c, ok := r.contacts[id]
	return c, ok
}

func (r *Registry) Contacts() []*Contact {
	ret := make([]*Contact, 0, len(r.contactOrder))
	for _, id := range r.contactOrder {
		ret = append(ret, r.contacts[id])
	}
	return ret
}

// DisplayName returns the contact name for an id, or the id itself.
func (r *Registry) DisplayName(id string) string {
	if c, ok := r.contacts[id]; ok {
		return c.Name
	}
	return id
}

func (r *Registry) AddConversation(c *Conversation) error {
	if _, ok := r.conversations[c.ID]; ok {
		return errors.Wrap(ErrDuplicateConversation, c.ID)
	}
	r.conversations[c.ID] = c
	r.order = append(r.order, c.ID)
	return nil
}

func (r *Registry) Conversation(id string) (*Conversation, bool) {
	c, ok := r.conversations[id]
	return c, ok
}

// Conversations returns all conversations in registration order.
func (r *Registry) Conversations() []*Conversation {
	ret := make([]*Conversation, 0, len(r.order))
	for _, id := range r.order {
		ret = append(ret, r.conversations[id])
	}
	return ret
}

// Title is the name shown for a conversation: the counterpart's name.
func (r *Registry) Title(c *Conversation) string {
	return r.DisplayName(c.CounterpartID())
}

// Match returns the conversations whose id or title matches the glob pattern.
func (r *Registry) Match(pattern string) ([]*Conversation, error) {
	ret := []*Conversation{}
	for _, c := range r.Conversations() {
		matching, err := glob.Match(pattern, c.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid pattern %q", pattern)
		}
		if !matching {
			matching, err = glob.Match(pattern, r.Title(c))
			if err != nil {
				return nil, errors.Wrapf(err, "invalid pattern %q", pattern)
			}
		}
		if matching {
			ret = append(ret, c)
		}
	}
	return ret, nil
}
