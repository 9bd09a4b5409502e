package audio

import (
	"encoding/binary"
	"time"

	"github.com/pkg/errors"
)

const (
	DefaultSampleRate = 24000
	DefaultChannels   = 1
)

// Buffer is decoded audio, one float32 slice per channel with samples in [-1, 1).
type Buffer struct {
	SampleRate int
	Channels   [][]float32
}

func (b *Buffer) Frames() int {
	if b == nil || len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

func (b *Buffer) Duration() time.Duration {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.SampleRate)
}

// DecodePCM16 decodes interleaved little-endian signed 16 bit PCM. A trailing partial
// frame is dropped.
func DecodePCM16(data []byte, sampleRate int, channels int) (*Buffer, error) {
	if len(data)%2 != 0 {
		return nil, errors.Errorf("pcm16 data has odd length %d", len(data))
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if channels <= 0 {
		channels = DefaultChannels
	}

	samples := len(data) / 2
	frames := samples / channels
	ret := &Buffer{
		SampleRate: sampleRate,
		Channels:   make([][]float32, channels),
	}
	for c := range ret.Channels {
		ret.Channels[c] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			off := (i*channels + c) * 2
			v := int16(binary.LittleEndian.Uint16(data[off : off+2]))
			ret.Channels[c][i] = float32(v) / 32768.0
		}
	}
	return ret, nil
}
