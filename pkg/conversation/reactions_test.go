package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleReactionRules(t *testing.T) {
	tests := []struct {
		name      string
		reactions []Reaction
		actor     string
		emoji     string
		expected  []Reaction
	}{
		{
			name:     "add to empty",
			actor:    "u1",
			emoji:    "👍",
			expected: []Reaction{{Emoji: "👍", ActorID: "u1"}},
		},
		{
			name:      "same emoji removes",
			reactions: []Reaction{{Emoji: "👍", ActorID: "u1"}},
			actor:     "u1",
			emoji:     "👍",
			expected:  nil,
		},
		{
			name:      "different emoji replaces in place",
			reactions: []Reaction{{Emoji: "👍", ActorID: "u1"}, {Emoji: "😂", ActorID: "u2"}},
			actor:     "u1",
			emoji:     "❤️",
			expected:  []Reaction{{Emoji: "❤️", ActorID: "u1"}, {Emoji: "😂", ActorID: "u2"}},
		},
		{
			name:      "other actors are kept",
			reactions: []Reaction{{Emoji: "👍", ActorID: "u2"}},
			actor:     "u1",
			emoji:     "👍",
			expected:  []Reaction{{Emoji: "👍", ActorID: "u2"}, {Emoji: "👍", ActorID: "u1"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var input []Reaction
			if tt.reactions != nil {
				input = append([]Reaction{}, tt.reactions...)
			}
			got := ToggleReaction(input, tt.actor, tt.emoji)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.reactions, input)
		})
	}
}

func TestAggregateReactions(t *testing.T) {
	groups := AggregateReactions([]Reaction{
		{Emoji: "👍", ActorID: "u1"},
		{Emoji: "😂", ActorID: "u2"},
		{Emoji: "👍", ActorID: MeUserID},
	})

	require.Len(t, groups, 2)
	assert.Equal(t, "👍", groups[0].Emoji)
	assert.Equal(t, 2, groups[0].Count)
	assert.True(t, groups[0].Includes(MeUserID))
	assert.Equal(t, "😂", groups[1].Emoji)
	assert.False(t, groups[1].Includes(MeUserID))

	assert.Empty(t, AggregateReactions(nil))
}

func TestIsSupportedEmoji(t *testing.T) {
	for _, e := range EmojiReactions {
		assert.True(t, IsSupportedEmoji(e))
	}
	assert.False(t, IsSupportedEmoji("🦄"))
}

func TestKindTransitions(t *testing.T) {
	assert.True(t, KindText.CanTransitionTo(KindImage))
	assert.True(t, KindAudio.CanTransitionTo(KindAudio))
	assert.False(t, KindImage.CanTransitionTo(KindText))
	assert.False(t, KindSummary.CanTransitionTo(KindImage))
	assert.False(t, Kind("video").Valid())
}

func TestMessageCloneIsDeep(t *testing.T) {
	translation := "hi"
	m := NewTextMessage("u1", "hola", WithReactions(Reaction{Emoji: "👍", ActorID: "u2"}))
	m.TranslatedText = &translation

	c := m.Clone()
	c.Reactions[0].Emoji = "😂"
	*c.TranslatedText = "hello"

	assert.Equal(t, "👍", m.Reactions[0].Emoji)
	assert.Equal(t, "hi", *m.TranslatedText)
	assert.True(t, c.Timestamp.Equal(m.Timestamp))
	assert.Equal(t, "hello", c.SpokenText())
}
