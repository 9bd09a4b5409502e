package conversation

import "github.com/go-go-golems/palaver/pkg/helpers"

// AppendText appends a streamed chunk to the message text.
func AppendText(chunk string) PatchFunc {
	return func(m *Message) *Message {
		m.Text += chunk
		return m
	}
}

func ReplaceText(text string) PatchFunc {
	return func(m *Message) *Message {
		m.Text = text
		return m
	}
}

func SetTranslating(translating bool) PatchFunc {
	return func(m *Message) *Message {
		m.IsTranslating = translating
		return m
	}
}

// SetTranslation stores the translation and ends the in-flight marker.
func SetTranslation(translation string) PatchFunc {
	return Chain(func(m *Message) *Message {
		m.TranslatedText = helpers.ToPtr(translation)
		return m
	}, SetTranslating(false))
}

// ResolveImage turns an image placeholder into the image it was waiting for.
func ResolveImage(ref string) PatchFunc {
	return func(m *Message) *Message {
		m.Kind = KindImage
		m.Text = ref
		return m
	}
}

// Chain applies patches left to right.
func Chain(patches ...PatchFunc) PatchFunc {
	return func(m *Message) *Message {
		for _, p := range patches {
			if m == nil {
				return nil
			}
			m = p(m)
		}
		return m
	}
}
