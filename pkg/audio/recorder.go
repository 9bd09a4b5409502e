package audio

import (
	"context"
	"mime"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

var (
	ErrMicrophoneUnavailable = errors.New("microphone unavailable")
	ErrAlreadyRecording      = errors.New("already recording")
	ErrNotRecording          = errors.New("not recording")
)

// Microphone is the capture device. Start acquires it, Stop releases it and returns
// what was recorded.
type Microphone interface {
	Start(ctx context.Context) error
	Stop() (data []byte, mimeType string, err error)
}

// Recorder tracks the recording state on top of a Microphone. A failed acquisition
// leaves the recorder idle.
type Recorder struct {
	mic Microphone

	mu        sync.Mutex
	recording bool
}

func NewRecorder(mic Microphone) *Recorder {
	return &Recorder{mic: mic}
}

func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		return ErrAlreadyRecording
	}
	if r.mic == nil {
		return ErrMicrophoneUnavailable
	}
	if err := r.mic.Start(ctx); err != nil {
		if errors.Is(err, ErrMicrophoneUnavailable) {
			return err
		}
		return errors.Wrap(ErrMicrophoneUnavailable, err.Error())
	}
	r.recording = true
	return nil
}

func (r *Recorder) Stop() ([]byte, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return nil, "", ErrNotRecording
	}
	r.recording = false
	data, mimeType, err := r.mic.Stop()
	if err != nil {
		return nil, "", errors.Wrap(err, "could not stop recording")
	}
	return data, mimeType, nil
}

// NoMicrophone is used when there is no capture device, as in a terminal.
type NoMicrophone struct{}

func (NoMicrophone) Start(context.Context) error {
	return ErrMicrophoneUnavailable
}

func (NoMicrophone) Stop() ([]byte, string, error) {
	return nil, "", ErrNotRecording
}

// FileMicrophone "records" the content of a file, which stands in for a capture device.
type FileMicrophone struct {
	Path string
}

func (f *FileMicrophone) Start(context.Context) error {
	if _, err := os.Stat(f.Path); err != nil {
		return errors.Wrap(ErrMicrophoneUnavailable, err.Error())
	}
	return nil
}

func (f *FileMicrophone) Stop() ([]byte, string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, "", err
	}
	mimeType := mime.TypeByExtension(filepath.Ext(f.Path))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return data, mimeType, nil
}

var (
	_ Microphone = NoMicrophone{}
	_ Microphone = (*FileMicrophone)(nil)
)
