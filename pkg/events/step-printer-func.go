package events

import (
	"fmt"
	"io"
	"strings"

	"github.com/ThreeDotsLabs/watermill/message"
)

// StepPrinterFunc prints the messages of one conversation as they stream in. Appended
// messages start a new block, updates print only the text that was added since.
func StepPrinterFunc(conversationID string, w io.Writer) func(msg *message.Message) error {
	printed := map[string]string{}
	last := ""

	return func(msg *message.Message) error {
		defer msg.Ack()

		e, err := NewEventFromJson(msg.Payload)
		if err != nil {
			return err
		}
		if conversationID != "" && e.Metadata().ConversationID != conversationID {
			return nil
		}

		switch p_ := e.(type) {
		case *EventMessage:
			if p_.Message == nil {
				return nil
			}
			id := string(p_.Message.ID)
			text := p_.Message.Text
			prev, seen := printed[id]
			printed[id] = text

			if p_.Type() == EventTypeReactionToggled {
				return nil
			}
			if !seen || last != id || !strings.HasPrefix(text, prev) {
				if last != "" {
					if _, err := fmt.Fprintln(w); err != nil {
						return err
					}
				}
				last = id
				_, err = fmt.Fprintf(w, "%s: %s", p_.Message.SenderID, text)
				return err
			}
			_, err = fmt.Fprint(w, text[len(prev):])
			return err

		case *EventFinal:
			if last != "" {
				last = ""
				_, err = fmt.Fprintln(w)
				return err
			}

		case *EventError:
			if _, err := fmt.Fprintf(w, "\n[error] %s\n", p_.ErrorString); err != nil {
				return err
			}

		case *EventNotice:
			if _, err := fmt.Fprintf(w, "\n[%s] %s\n", p_.Level, p_.Text); err != nil {
				return err
			}

		case *EventSuggestions:
			if _, err := fmt.Fprintf(w, "\n[suggestions] %s\n", strings.Join(p_.Replies, " | ")); err != nil {
				return err
			}

		case *EventGenerationStart, *EventPlayback, *EventRecording:
		}

		return nil
	}
}
