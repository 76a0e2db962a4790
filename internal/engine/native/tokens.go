package native

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter reports how many tokens a markdown body costs.
type TokenCounter interface {
	Count(text string) int
}

// TiktokenCounter counts with the cl100k_base encoding, loading it lazily
// on first use. If the encoding cannot be loaded it degrades to a word
// count rather than failing the fetch.
type TiktokenCounter struct {
	once sync.Once
	enc  *tiktoken.Tiktoken
}

// NewTiktokenCounter builds the default counter.
func NewTiktokenCounter() *TiktokenCounter {
	return &TiktokenCounter{}
}

// Count returns the token count for text.
func (c *TiktokenCounter) Count(text string) int {
	c.once.Do(func() {
		enc, err := tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
		if err == nil {
			c.enc = enc
		}
	})
	if c.enc == nil {
		return len(strings.Fields(text))
	}
	return len(c.enc.Encode(text, nil, nil))
}
