package audio

import (
	"context"
	"sync"
	"time"
)

// Output plays a buffer. Play blocks until playback ended or ctx was cancelled.
type Output interface {
	Play(ctx context.Context, buf *Buffer) error
}

// TimedOutput simulates a device: it waits for the duration of the buffer.
type TimedOutput struct {
	// MinDuration is the shortest simulated playback.
	MinDuration time.Duration

	mu        sync.Mutex
	active    int
	maxActive int
	plays     int
}

func NewTimedOutput() *TimedOutput {
	return &TimedOutput{}
}

func (t *TimedOutput) Play(ctx context.Context, buf *Buffer) error {
	t.mu.Lock()
	t.active++
	t.plays++
	if t.active > t.maxActive {
		t.maxActive = t.active
	}
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.active--
		t.mu.Unlock()
	}()

	d := buf.Duration()
	if d < t.MinDuration {
		d = t.MinDuration
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// MaxConcurrent returns the highest number of overlapping playbacks seen.
func (t *TimedOutput) MaxConcurrent() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.maxActive
}

func (t *TimedOutput) Plays() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.plays
}

var _ Output = (*TimedOutput)(nil)
