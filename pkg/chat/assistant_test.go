package chat

import (
	"context"
	"testing"
	"time"

	"github.com/go-go-golems/palaver/pkg/conversation"
	"github.com/go-go-golems/palaver/pkg/events"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitAnswer(t *testing.T, a *AssistantSession) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.Wait(ctx))
}

func TestAskStreamsIntoPlaceholder(t *testing.T) {
	h := newTestHub(t)
	h.fake.Chunks = []string{"Hi", " there", "!"}
	a, err := h.Assistant()
	require.NoError(t, err)

	placeholder, err := a.Ask("Say hi")
	require.NoError(t, err)
	require.NotNil(t, placeholder)
	assert.Equal(t, conversation.AssistantID, placeholder.SenderID)
	assert.Equal(t, "", placeholder.Text)

	waitAnswer(t, a)
	assert.False(t, a.Generating())

	snapshot := a.Log().Snapshot()
	require.Len(t, snapshot, 3)
	assert.Equal(t, "initial", string(snapshot[0].ID))
	assert.Equal(t, "Say hi", snapshot[1].Text)
	assert.Equal(t, placeholder.ID, snapshot[2].ID)
	assert.Equal(t, "Hi there!", snapshot[2].Text)

	types := h.sink.types()
	assert.Contains(t, types, events.EventTypeStart)
	assert.Contains(t, types, events.EventTypeFinal)
}

func TestAskIsBusyWhileGenerating(t *testing.T) {
	h := newTestHub(t)
	h.fake.Chunks = []string{"done"}
	a, err := h.Assistant()
	require.NoError(t, err)

	h.fake.Block()
	_, err = a.Ask("first")
	require.NoError(t, err)
	h.waitStarted(t, "StreamCompletion")
	assert.True(t, a.Generating())

	before := a.Log().Len()
	_, err = a.Ask("second")
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, before, a.Log().Len())

	h.fake.Release()
	waitAnswer(t, a)
	assert.False(t, a.Generating())

	_, err = a.Ask("third")
	require.NoError(t, err)
	waitAnswer(t, a)
}

func TestAskStreamFailureKeepsPartialText(t *testing.T) {
	h := newTestHub(t)
	h.fake.Chunks = []string{"Par", "tial"}
	h.fake.StreamErr = errors.New("connection reset")
	a, err := h.Assistant()
	require.NoError(t, err)

	placeholder, err := a.Ask("tell me a story")
	require.NoError(t, err)
	waitAnswer(t, a)

	assert.False(t, a.Generating())
	msg, ok := a.Log().Get(placeholder.ID)
	require.True(t, ok)
	assert.Equal(t, "Partial", msg.Text)
	assert.Contains(t, h.sink.types(), events.EventTypeError)
}

func TestAskWithZeroChunksCompletes(t *testing.T) {
	h := newTestHub(t)
	a, err := h.Assistant()
	require.NoError(t, err)

	placeholder, err := a.Ask("anything?")
	require.NoError(t, err)
	waitAnswer(t, a)

	assert.False(t, a.Generating())
	msg, _ := a.Log().Get(placeholder.ID)
	assert.Equal(t, "", msg.Text)
}

func TestAskCancelKeepsPartialText(t *testing.T) {
	h := newTestHub(t)
	h.fake.Chunks = []string{"a", "b", "c"}
	h.fake.ChunkDelay = time.Hour
	a, err := h.Assistant()
	require.NoError(t, err)

	_, err = a.Ask("slow")
	require.NoError(t, err)
	h.waitStarted(t, "StreamCompletion")
	a.Cancel()
	waitAnswer(t, a)
	assert.False(t, a.Generating())
}

func TestAskCancelPublishesError(t *testing.T) {
	for i := 0; i < 20; i++ {
		h := newTestHub(t)
		h.fake.Chunks = []string{"a"}
		h.fake.ChunkDelay = time.Hour
		a, err := h.Assistant()
		require.NoError(t, err)

		_, err = a.Ask("slow")
		require.NoError(t, err)
		h.waitStarted(t, "StreamCompletion")
		a.Cancel()
		waitAnswer(t, a)

		types := h.sink.types()
		require.Contains(t, types, events.EventTypeError, "run %d", i)
		require.NotContains(t, types, events.EventTypeFinal, "run %d", i)
	}
}

func TestImagine(t *testing.T) {
	h := newTestHub(t)
	a, err := h.Assistant()
	require.NoError(t, err)

	placeholder, err := a.Ask("/IMAGINE a futuristic car")
	require.NoError(t, err)
	assert.Equal(t, "🎨 Generating an image for: \"a futuristic car\"...", placeholder.Text)
	waitAnswer(t, a)

	msg, ok := a.Log().Get(placeholder.ID)
	require.True(t, ok)
	assert.Equal(t, conversation.KindImage, msg.Kind)
	assert.Equal(t, h.fake.Image, msg.Text)
	assert.Equal(t, 0, h.fake.Calls("StreamCompletion"))
}

func TestImagineFailure(t *testing.T) {
	h := newTestHub(t)
	h.fake.Image = ""
	a, err := h.Assistant()
	require.NoError(t, err)

	placeholder, err := a.Ask("/imagine a cat")
	require.NoError(t, err)
	waitAnswer(t, a)

	msg, _ := a.Log().Get(placeholder.ID)
	assert.Equal(t, conversation.KindText, msg.Kind)
	assert.Equal(t, ImageFallbackMessage, msg.Text)
	assert.False(t, a.Generating())
}

func TestAskIgnoresBlankText(t *testing.T) {
	h := newTestHub(t)
	a, err := h.Assistant()
	require.NoError(t, err)

	msg, err := a.Ask("  ")
	assert.NoError(t, err)
	assert.Nil(t, msg)
	assert.False(t, a.Generating())
	assert.NoError(t, a.Wait(context.Background()))
}

func TestParseImagine(t *testing.T) {
	prompt, ok := ParseImagine("/imagine  a red fox ")
	assert.True(t, ok)
	assert.Equal(t, "a red fox", prompt)

	prompt, ok = ParseImagine("/Imagine cats")
	assert.True(t, ok)
	assert.Equal(t, "cats", prompt)

	_, ok = ParseImagine("/imagined")
	assert.False(t, ok)
	_, ok = ParseImagine("imagine a cat")
	assert.False(t, ok)
}
