package conversation

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textMessage(id string, sender string, text string) *Message {
	return NewTextMessage(sender, text, WithID(MessageID(id)))
}

func ids(msgs []*Message) []MessageID {
	ret := []MessageID{}
	for _, m := range msgs {
		ret = append(ret, m.ID)
	}
	return ret
}

func TestAppendPreservesOrderAcrossUpdates(t *testing.T) {
	l := NewLog("chat")
	l.Append(textMessage("m1", "u1", "one"))
	l.Append(textMessage("m2", MeUserID, "two"))
	require.True(t, l.UpdateByID("m1", AppendText("!")))
	l.Append(textMessage("m3", "u1", "three"))
	require.True(t, l.ToggleReaction("m2", "u1", "👍"))
	l.Append(textMessage("m4", MeUserID, "four"))

	assert.Equal(t, []MessageID{"m1", "m2", "m3", "m4"}, ids(l.Snapshot()))
	assert.Equal(t, 4, l.Len())
	assert.Equal(t, int64(6), l.Version())

	last, ok := l.Last()
	require.True(t, ok)
	assert.Equal(t, MessageID("m4"), last.ID)
}

func TestUpdateLocality(t *testing.T) {
	l := NewLog("chat")
	for i := 0; i < 5; i++ {
		l.Append(textMessage(fmt.Sprintf("m%d", i), "u1", "x"))
	}
	before := l.Snapshot()

	require.True(t, l.UpdateByID("m2", ReplaceText("y")))
	after := l.Snapshot()

	require.Len(t, after, len(before))
	for i := range before {
		if before[i].ID == "m2" {
			assert.NotSame(t, before[i], after[i])
			assert.Equal(t, "x", before[i].Text, "snapshot must not see later updates")
			assert.Equal(t, "y", after[i].Text)
			continue
		}
		assert.Same(t, before[i], after[i])
	}
}

func TestStaleUpdateIsInert(t *testing.T) {
	l := NewLog("chat")
	l.Append(textMessage("m1", "u1", "x"))
	before := l.Snapshot()
	version := l.Version()

	called := false
	assert.False(t, l.UpdateByID("missing", func(m *Message) *Message {
		called = true
		return m
	}))
	assert.False(t, l.ToggleReaction("missing", "u1", "👍"))

	assert.False(t, called)
	assert.Equal(t, version, l.Version())
	after := l.Snapshot()
	require.Len(t, after, 1)
	assert.Same(t, before[0], after[0])
}

func TestStreamingScenario(t *testing.T) {
	l := NewLog("chat")
	l.Append(textMessage("a", AssistantID, "Hi"))
	require.True(t, l.UpdateByID("a", AppendText(" there")))
	require.True(t, l.UpdateByID("a", AppendText("!")))

	m, ok := l.Get("a")
	require.True(t, ok)
	assert.Equal(t, "Hi there!", m.Text)
}

func TestPatchWorksOnCopy(t *testing.T) {
	l := NewLog("chat")
	l.Append(textMessage("a", "u1", "hello"))
	require.True(t, l.ToggleReaction("a", "u1", "👍"))
	stored, _ := l.Get("a")

	l.UpdateByID("a", func(m *Message) *Message {
		m.Reactions[0].Emoji = "😂"
		m.Text = "changed"
		return nil
	})

	assert.Equal(t, "hello", stored.Text)
	assert.Equal(t, "👍", stored.Reactions[0].Emoji)
	current, _ := l.Get("a")
	assert.Same(t, stored, current)
}

func TestAppendStoresCopy(t *testing.T) {
	l := NewLog("chat")
	m := textMessage("a", "u1", "hello")
	l.Append(m)
	m.Text = "mutated by caller"

	stored, ok := l.Get("a")
	require.True(t, ok)
	assert.Equal(t, "hello", stored.Text)
}

func TestUpdateRejectsImmutableFieldChanges(t *testing.T) {
	l := NewLog("chat")
	l.Append(NewMessage(MeUserID, KindAudio, "Voice Message", WithID("audio"), WithAudioRef("blob:1")))
	l.Append(NewMessage(SystemSenderID, KindSummary, "sum", WithID("summary")))
	l.Append(textMessage("text", "u1", "placeholder"))

	assert.False(t, l.UpdateByID("audio", func(m *Message) *Message {
		m.AudioRef = "blob:2"
		return m
	}))
	assert.False(t, l.UpdateByID("audio", func(m *Message) *Message {
		m.ID = "other"
		return m
	}))
	assert.False(t, l.UpdateByID("audio", func(m *Message) *Message {
		m.Timestamp = m.Timestamp.Add(time.Second)
		return m
	}))
	assert.False(t, l.UpdateByID("summary", func(m *Message) *Message {
		m.Kind = KindText
		return m
	}))
	assert.False(t, l.UpdateByID("text", func(m *Message) *Message {
		m.Kind = KindAudio
		return m
	}))
	assert.False(t, l.UpdateByID("text", nil))

	require.True(t, l.UpdateByID("text", ResolveImage("data:image/png;base64,AAAA")))
	m, _ := l.Get("text")
	assert.Equal(t, KindImage, m.Kind)
	assert.Equal(t, "data:image/png;base64,AAAA", m.Text)

	a, _ := l.Get("audio")
	assert.Equal(t, "blob:1", a.AudioRef)
	assert.Equal(t, int64(4), l.Version())
}

func TestToggleReactionScenario(t *testing.T) {
	l := NewLog("chat")
	l.Append(textMessage("a", "u2", "hello"))

	require.True(t, l.ToggleReaction("a", "u1", "👍"))
	require.True(t, l.ToggleReaction("a", "u1", "❤️"))

	m, _ := l.Get("a")
	assert.Equal(t, []Reaction{{Emoji: "❤️", ActorID: "u1"}}, m.Reactions)
}

func TestToggleReactionPairRestoresState(t *testing.T) {
	l := NewLog("chat")
	l.Append(textMessage("a", "u2", "hello"))
	require.True(t, l.ToggleReaction("a", "u3", "😂"))
	before, _ := l.Get("a")

	require.True(t, l.ToggleReaction("a", "u1", "👍"))
	require.True(t, l.ToggleReaction("a", "u1", "👍"))

	after, _ := l.Get("a")
	assert.Equal(t, before.Reactions, after.Reactions)
}

func TestToggleReactionDisabled(t *testing.T) {
	l := NewLog("assistant", WithReactionsDisabled())
	l.Append(textMessage("a", AssistantID, "hello"))

	assert.False(t, l.ToggleReaction("a", MeUserID, "👍"))
	m, _ := l.Get("a")
	assert.Empty(t, m.Reactions)
	assert.False(t, l.ReactionsEnabled())
}

func TestReactionSurvivesSlowTranslation(t *testing.T) {
	l := NewLog("chat")
	l.Append(textMessage("a", "u1", "hola"))

	require.True(t, l.UpdateByID("a", SetTranslating(true)))
	require.True(t, l.ToggleReaction("a", MeUserID, "👍"))
	require.True(t, l.UpdateByID("a", SetTranslation("hello")))

	m, _ := l.Get("a")
	require.NotNil(t, m.TranslatedText)
	assert.Equal(t, "hello", *m.TranslatedText)
	assert.False(t, m.IsTranslating)
	assert.Equal(t, []Reaction{{Emoji: "👍", ActorID: MeUserID}}, m.Reactions)
}

func TestChainAppliesInOrder(t *testing.T) {
	l := NewLog("chat")
	l.Append(textMessage("a", "u1", "hello"))

	require.True(t, l.UpdateByID("a", Chain(ReplaceText("good"), AppendText("bye"))))
	m, _ := l.Get("a")
	assert.Equal(t, "goodbye", m.Text)

	// a patch returning nil drops the whole chain
	l.UpdateByID("a", Chain(ReplaceText("lost"), func(*Message) *Message { return nil }, AppendText("!")))
	m, _ = l.Get("a")
	assert.Equal(t, "goodbye", m.Text)
}

func TestDuplicateAppendKeepsBoth(t *testing.T) {
	l := NewLog("chat")
	l.Append(textMessage("a", "u1", "first"))
	l.Append(textMessage("a", "u1", "second"))

	assert.Equal(t, 2, l.Len())
	m, _ := l.Get("a")
	assert.Equal(t, "first", m.Text)
}

func TestAppendNilIsIgnored(t *testing.T) {
	l := NewLog("chat")
	l.Append(nil)
	assert.Equal(t, 0, l.Len())
	assert.Equal(t, int64(0), l.Version())
}

func TestObserversSeeMutationsInOrder(t *testing.T) {
	l := NewLog("chat")
	changes := []Change{}
	unsubscribe := l.Observe(func(c Change) {
		changes = append(changes, c)
	})

	l.Append(textMessage("a", "u1", "x"))
	l.UpdateByID("a", AppendText("y"))
	l.UpdateByID("missing", AppendText("y"))
	l.ToggleReaction("a", "u1", "👍")

	require.Len(t, changes, 3)
	assert.Equal(t, "append", changes[0].Mutation)
	assert.Equal(t, "update", changes[1].Mutation)
	assert.Equal(t, "toggle_reaction", changes[2].Mutation)
	assert.Equal(t, "xy", changes[2].Message.Text)
	assert.Equal(t, "chat", changes[2].ConversationID)
	for i, c := range changes {
		assert.Equal(t, int64(i+1), c.Version)
		assert.Equal(t, MessageID("a"), c.MessageID)
	}

	unsubscribe()
	unsubscribe()
	l.Append(textMessage("b", "u1", "x"))
	assert.Len(t, changes, 3)
}

func TestPreloadedMessagesDoNotNotify(t *testing.T) {
	l := NewLog("chat", WithMessages(textMessage("a", "u1", "x"), textMessage("b", "u1", "y")))
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, int64(0), l.Version())
}

func TestConcurrentMutationsKeepOrderPerWriter(t *testing.T) {
	l := NewLog("chat")
	l.Append(textMessage("stream", AssistantID, ""))

	wg := sync.WaitGroup{}
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			l.UpdateByID("stream", AppendText("."))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			l.Append(textMessage(fmt.Sprintf("m%03d", i), MeUserID, "x"))
			_ = l.Snapshot()
		}
	}()
	wg.Wait()

	snapshot := l.Snapshot()
	require.Len(t, snapshot, 101)
	assert.Equal(t, MessageID("stream"), snapshot[0].ID)
	assert.Len(t, snapshot[0].Text, 100)
	for i := 1; i < len(snapshot); i++ {
		assert.Equal(t, MessageID(fmt.Sprintf("m%03d", i-1)), snapshot[i].ID)
	}
	assert.Equal(t, int64(201), l.Version())
}

func TestResultRecorder(t *testing.T) {
	l := NewLog("chat")
	results := map[string][]error{}
	l.SetResultRecorder(func(mutation string, err error) {
		results[mutation] = append(results[mutation], err)
	})

	l.Append(textMessage("a", "u1", "x"))
	l.UpdateByID("missing", AppendText("y"))

	require.Len(t, results["append"], 1)
	assert.NoError(t, results["append"][0])
	require.Len(t, results["update"], 1)
	assert.ErrorIs(t, results["update"][0], ErrMessageNotFound)
}
