package chat

import "github.com/pkg/errors"

var (
	// ErrBusy is returned when an operation of the same kind is still running.
	ErrBusy                 = errors.New("already in progress")
	ErrUnknownConversation  = errors.New("unknown conversation")
	ErrReactionsUnsupported = errors.New("reactions are not supported in this conversation")
	ErrUnsupportedEmoji     = errors.New("unsupported reaction emoji")
	ErrNotTranslatable      = errors.New("message cannot be translated")
	ErrUnknownTone          = errors.New("unknown tone")
	ErrNotPlayable          = errors.New("message cannot be played")
)
