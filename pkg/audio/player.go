package audio

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Loader produces the audio to play, typically by synthesizing speech.
type Loader func(ctx context.Context) (*Buffer, error)

// StateFunc is called whenever the playing id changes. An empty id means nothing plays.
type StateFunc func(id string, playing bool)

// Player enforces a single active playback. Starting playback of a new id stops the
// current one first.
type Player struct {
	output Output
	// playMu serializes calls into output
	playMu sync.Mutex

	mu         sync.Mutex
	playingID  string
	generation uint64
	cancel     context.CancelFunc
	done       chan struct{}
	onChange   StateFunc
}

type PlayerOption func(*Player)

func WithStateFunc(f StateFunc) PlayerOption {
	return func(p *Player) {
		p.onChange = f
	}
}

func NewPlayer(output Output, options ...PlayerOption) *Player {
	ret := &Player{output: output}
	for _, o := range options {
		o(ret)
	}
	return ret
}

// PlayingID returns the id being loaded or played.
func (p *Player) PlayingID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playingID
}

// Toggle stops playback when id is the current one. Otherwise it stops whatever plays,
// loads the audio for id in the background and plays it. It reports whether a playback
// was started. Loads that were superseded while running are dropped.
func (p *Player) Toggle(ctx context.Context, id string, load Loader) bool {
	p.mu.Lock()
	if p.playingID == id && id != "" {
		p.stopLocked()
		p.mu.Unlock()
		p.notify(id, false)
		return false
	}

	previous := p.playingID
	p.stopLocked()

	p.generation++
	gen := p.generation
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done
	p.playingID = id
	p.mu.Unlock()

	if previous != "" {
		p.notify(previous, false)
	}
	p.notify(id, true)

	go func() {
		defer close(done)
		defer cancel()

		buf, err := load(ctx)
		if err == nil && buf == nil {
			err = errors.New("no audio")
		}
		if err != nil {
			log.Debug().Err(err).Str("message_id", id).Msg("could not load audio")
			p.finish(gen, id)
			return
		}

		p.playMu.Lock()
		if !p.isCurrent(gen) {
			p.playMu.Unlock()
			log.Debug().Str("message_id", id).Msg("dropping superseded audio")
			return
		}
		err = p.output.Play(ctx, buf)
		p.playMu.Unlock()

		if err != nil && !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Str("message_id", id).Msg("playback failed")
		}
		p.finish(gen, id)
	}()

	return true
}

// Stop ends the current playback, if any.
func (p *Player) Stop() {
	p.mu.Lock()
	id := p.playingID
	p.stopLocked()
	p.mu.Unlock()
	if id != "" {
		p.notify(id, false)
	}
}

// Wait blocks until the current playback goroutine returned.
func (p *Player) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (p *Player) stopLocked() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.playingID = ""
	p.generation++
}

func (p *Player) isCurrent(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation == gen
}

func (p *Player) finish(gen uint64, id string) {
	p.mu.Lock()
	if p.generation != gen {
		p.mu.Unlock()
		return
	}
	p.playingID = ""
	p.cancel = nil
	p.generation++
	p.mu.Unlock()
	p.notify(id, false)
}

func (p *Player) notify(id string, playing bool) {
	if p.onChange != nil {
		p.onChange(id, playing)
	}
}
