package tokencount

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/yanqian/snow-agent/internal/domain/chat"
)

// TiktokenCounter counts tokens with the cl100k_base encoding.
type TiktokenCounter struct {
	encoding *tiktoken.Tiktoken
}

// NewTiktokenCounter loads the encoding once at startup.
func NewTiktokenCounter() (*TiktokenCounter, error) {
	encoding, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("load tiktoken encoding: %w", err)
	}
	return &TiktokenCounter{encoding: encoding}, nil
}

// Count returns the token count for a text.
func (c *TiktokenCounter) Count(text string) int {
	if c.encoding == nil {
		return 0
	}
	return len(c.encoding.Encode(text, nil, nil))
}

var _ chat.TokenCounter = (*TiktokenCounter)(nil)
