// Package tokenizer estimates token counts for digest summaries.
package tokenizer

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Counter estimates token counts for text content.
type Counter interface {
	Name() string
	CountString(input string) (int, error)
}

const (
	// defaultEncodingName is used when the model has no dedicated encoding.
	defaultEncodingName = "cl100k_base"

	errorInitializeEncodingFormat = "initialize tokenizer encoding: %w"
)

type encodingCounter struct {
	encoding *tiktoken.Tiktoken
	name     string
}

// Name reports the resolved encoding or model name.
func (counter encodingCounter) Name() string {
	return counter.name
}

// CountString returns the number of tokens in the input.
func (counter encodingCounter) CountString(input string) (int, error) {
	return len(counter.encoding.Encode(input, nil, nil)), nil
}

// NewCounter returns a Counter for the requested model, falling back to the
// default encoding when the model has no registered tokenizer.
func NewCounter(model string) (Counter, error) {
	trimmedModel := strings.TrimSpace(model)
	if trimmedModel != "" {
		encoding, encodingError := tiktoken.EncodingForModel(trimmedModel)
		if encodingError == nil && encoding != nil {
			return encodingCounter{encoding: encoding, name: trimmedModel}, nil
		}
	}
	fallbackEncoding, fallbackError := tiktoken.GetEncoding(defaultEncodingName)
	if fallbackError != nil {
		return nil, fmt.Errorf(errorInitializeEncodingFormat, fallbackError)
	}
	return encodingCounter{encoding: fallbackEncoding, name: defaultEncodingName}, nil
}
