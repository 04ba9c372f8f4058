// Package tokenizer estimates token counts of chat inputs for request logs.
package tokenizer

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer counts tokens in chat input text.
type Tokenizer interface {
	// CountTokens counts tokens in a text string.
	CountTokens(text string) (int, error)
}

// Encoding names used by tiktoken.
const (
	EncodingCL100kBase = "cl100k_base" // GPT-4, GPT-3.5-turbo
	EncodingO200kBase  = "o200k_base"  // GPT-4o, o1 models
)

// supportedEncodings lists the encodings accepted in configuration.
var supportedEncodings = []string{EncodingCL100kBase, EncodingO200kBase}

// TiktokenTokenizer implements Tokenizer using tiktoken-go.
// The encoding is loaded lazily on first use.
type TiktokenTokenizer struct {
	encodingName string

	once sync.Once
	enc  *tiktoken.Tiktoken
	err  error
}

// New creates a TiktokenTokenizer for the named encoding.
// Unknown names fall back to cl100k_base.
func New(encoding string) *TiktokenTokenizer {
	return &TiktokenTokenizer{
		encodingName: ResolveEncoding(encoding),
	}
}

// ResolveEncoding normalizes an encoding name.
func ResolveEncoding(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, e := range supportedEncodings {
		if name == e {
			return e
		}
	}
	// Default to cl100k_base: the flow's model is opaque to the relay
	return EncodingCL100kBase
}

// Encoding returns the encoding name in use.
func (t *TiktokenTokenizer) Encoding() string {
	return t.encodingName
}

// getEncoding returns the tiktoken encoding, loading it once.
func (t *TiktokenTokenizer) getEncoding() (*tiktoken.Tiktoken, error) {
	t.once.Do(func() {
		t.enc, t.err = tiktoken.GetEncoding(t.encodingName)
	})
	return t.enc, t.err
}

// CountTokens counts tokens in a text string.
func (t *TiktokenTokenizer) CountTokens(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	enc, err := t.getEncoding()
	if err != nil {
		return 0, err
	}
	tokens := enc.Encode(text, nil, nil)
	return len(tokens), nil
}
