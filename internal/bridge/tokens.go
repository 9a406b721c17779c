package bridge

import (
	"fmt"
	"unicode/utf8"

	"github.com/nghyane/oc-bridge/internal/config"
	"github.com/tiktoken-go/tokenizer"
)

// EstimateTokens approximates a token count as ceil(chars/4).
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}

// Counter turns text into a token count.
type Counter interface {
	Count(text string) int
}

// HeuristicCounter applies EstimateTokens.
type HeuristicCounter struct{}

func (HeuristicCounter) Count(text string) int {
	return EstimateTokens(text)
}

// TiktokenCounter counts with a BPE encoding. Any encode error falls back to
// the heuristic so counting never fails.
type TiktokenCounter struct {
	codec tokenizer.Codec
}

// NewTiktokenCounter loads the cl100k_base encoding.
func NewTiktokenCounter() (*TiktokenCounter, error) {
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}
	return &TiktokenCounter{codec: codec}, nil
}

func (c *TiktokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	ids, _, err := c.codec.Encode(text)
	if err != nil {
		return EstimateTokens(text)
	}
	return len(ids)
}

// NewCounter returns the counter named by kind: "tiktoken" or the heuristic.
func NewCounter(kind string) (Counter, error) {
	switch kind {
	case "", config.TokenizerHeuristic:
		return HeuristicCounter{}, nil
	case config.TokenizerTiktoken:
		return NewTiktokenCounter()
	default:
		return nil, fmt.Errorf("unknown tokenizer %q", kind)
	}
}

// CountMessageTokens sums the counter over each message's extracted text.
func CountMessageTokens(c Counter, messages []Message) int {
	total := 0
	for _, m := range messages {
		total += c.Count(ExtractText(m.Content))
	}
	return total
}
