package prompts

import (
	"github.com/pkg/errors"
	"github.com/tiktoken-go/tokenizer"
)

// Budget trims chat histories to a token limit.
type Budget struct {
	codec     tokenizer.Codec
	MaxTokens int
}

// NewBudget creates a budget counting cl100k tokens. maxTokens <= 0 disables trimming.
func NewBudget(maxTokens int) (*Budget, error) {
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, errors.Wrap(err, "could not create tokenizer")
	}
	return &Budget{codec: codec, MaxTokens: maxTokens}, nil
}

func (b *Budget) Count(s string) int {
	ids, _, err := b.codec.Encode(s)
	if err != nil {
		// rough estimate, about four characters per token
		return len(s)/4 + 1
	}
	return len(ids)
}

// Trim keeps the most recent messages that fit into the budget. The last message is
// always kept.
func (b *Budget) Trim(history []ChatMessage) []ChatMessage {
	if b == nil || b.MaxTokens <= 0 || len(history) == 0 {
		return history
	}

	total := 0
	start := len(history)
	for i := len(history) - 1; i >= 0; i-- {
		total += b.Count(history[i].Content)
		if total > b.MaxTokens && i < len(history)-1 {
			break
		}
		start = i
	}
	return history[start:]
}
