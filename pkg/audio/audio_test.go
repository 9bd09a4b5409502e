package audio

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePCM16(t *testing.T) {
	// 0, 16384, -32768, 32767
	data := []byte{0x00, 0x00, 0x00, 0x40, 0x00, 0x80, 0xff, 0x7f}

	buf, err := DecodePCM16(data, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultSampleRate, buf.SampleRate)
	require.Len(t, buf.Channels, 1)
	assert.Equal(t, []float32{0, 0.5, -1, float32(32767) / 32768}, buf.Channels[0])
	assert.Equal(t, 4, buf.Frames())

	stereo, err := DecodePCM16(data, 8000, 2)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, -1}, stereo.Channels[0])
	assert.Equal(t, []float32{0.5, float32(32767) / 32768}, stereo.Channels[1])
	assert.Equal(t, 250*time.Microsecond, stereo.Duration())

	_, err = DecodePCM16([]byte{0x00}, 0, 0)
	assert.Error(t, err)
}

func silence(d time.Duration) *Buffer {
	frames := int(d.Seconds() * 1000)
	return &Buffer{SampleRate: 1000, Channels: [][]float32{make([]float32, frames)}}
}

type stateLog struct {
	mu     sync.Mutex
	states []string
}

func (s *stateLog) record(id string, playing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if playing {
		s.states = append(s.states, "+"+id)
	} else {
		s.states = append(s.states, "-"+id)
	}
}

func (s *stateLog) get() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.states...)
}

func TestPlayerPlaysToEnd(t *testing.T) {
	out := NewTimedOutput()
	states := &stateLog{}
	p := NewPlayer(out, WithStateFunc(states.record))

	started := p.Toggle(context.Background(), "m1", func(ctx context.Context) (*Buffer, error) {
		return silence(10 * time.Millisecond), nil
	})
	require.True(t, started)
	assert.Equal(t, "m1", p.PlayingID())

	p.Wait()
	assert.Equal(t, "", p.PlayingID())
	assert.Equal(t, []string{"+m1", "-m1"}, states.get())
	assert.Equal(t, 1, out.Plays())
}

func TestPlayerToggleSameIDStops(t *testing.T) {
	out := NewTimedOutput()
	p := NewPlayer(out)

	require.True(t, p.Toggle(context.Background(), "m1", func(ctx context.Context) (*Buffer, error) {
		return silence(time.Hour), nil
	}))
	assert.False(t, p.Toggle(context.Background(), "m1", nil))
	p.Wait()
	assert.Equal(t, "", p.PlayingID())
}

func TestPlayerSingleActivePlayback(t *testing.T) {
	out := NewTimedOutput()
	p := NewPlayer(out)

	for _, id := range []string{"a", "b", "c"} {
		p.Toggle(context.Background(), id, func(ctx context.Context) (*Buffer, error) {
			return silence(50 * time.Millisecond), nil
		})
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, "c", p.PlayingID())
	p.Wait()

	assert.Equal(t, 1, out.MaxConcurrent())
	assert.Equal(t, "", p.PlayingID())
}

func TestPlayerDropsSupersededLoad(t *testing.T) {
	out := NewTimedOutput()
	p := NewPlayer(out)

	release := make(chan struct{})
	p.Toggle(context.Background(), "slow", func(ctx context.Context) (*Buffer, error) {
		<-release
		return silence(time.Millisecond), nil
	})
	p.Toggle(context.Background(), "fast", func(ctx context.Context) (*Buffer, error) {
		return silence(time.Millisecond), nil
	})
	p.Wait()
	close(release)
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 1, out.Plays())
	assert.Equal(t, "", p.PlayingID())
}

func TestPlayerLoadFailureClearsState(t *testing.T) {
	states := &stateLog{}
	p := NewPlayer(NewTimedOutput(), WithStateFunc(states.record))

	p.Toggle(context.Background(), "m1", func(ctx context.Context) (*Buffer, error) {
		return nil, errors.New("no speech")
	})
	p.Wait()
	assert.Equal(t, "", p.PlayingID())
	assert.Equal(t, []string{"+m1", "-m1"}, states.get())
}

type failingMic struct{}

func (failingMic) Start(context.Context) error   { return errors.New("permission denied") }
func (failingMic) Stop() ([]byte, string, error) { return nil, "", nil }

func TestRecorderAcquisitionFailure(t *testing.T) {
	r := NewRecorder(failingMic{})
	err := r.Start(context.Background())
	assert.ErrorIs(t, err, ErrMicrophoneUnavailable)
	assert.False(t, r.Recording())

	_, _, err = r.Stop()
	assert.ErrorIs(t, err, ErrNotRecording)

	err = NewRecorder(NoMicrophone{}).Start(context.Background())
	assert.ErrorIs(t, err, ErrMicrophoneUnavailable)
}

func TestRecorderWithFileMicrophone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voice.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0o644))

	r := NewRecorder(&FileMicrophone{Path: path})
	require.NoError(t, r.Start(context.Background()))
	assert.True(t, r.Recording())
	assert.ErrorIs(t, r.Start(context.Background()), ErrAlreadyRecording)

	data, mimeType, err := r.Stop()
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF"), data)
	assert.NotEmpty(t, mimeType)
	assert.False(t, r.Recording())
}

func TestBlobStore(t *testing.T) {
	s := NewBlobStore()
	data := []byte{1, 2, 3}
	ref := s.Put(data, "audio/webm")
	data[0] = 9

	got, mimeType, ok := s.Get(ref)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, got)
	assert.Equal(t, "audio/webm", mimeType)
	assert.Contains(t, ref, "blob:")

	_, _, ok = s.Get("blob:missing")
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())
}
