package assistant

import (
	"errors"
	"fmt"

	"doc-assistant/internal/llm"
)

// DefaultFallback is returned to callers whenever generation fails.
const DefaultFallback = "Sorry, there was an error generating a response."

// ErrorKind classifies a recoverable generation failure.
type ErrorKind int

const (
	KindTransport         ErrorKind = iota + 1 // network, timeout or API error
	KindMalformedResponse                      // response carried no usable text
	KindHistory                                // session history could not be read or written
	KindInvalidInput                           // nothing to generate from
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindMalformedResponse:
		return "malformed_response"
	case KindHistory:
		return "history"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// GenerationError is a recoverable failure. The façade never returns it as
// an error; it is carried in Result so callers can inspect it.
type GenerationError struct {
	Kind ErrorKind
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (%s): %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func classify(err error) *GenerationError {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge
	}
	if errors.Is(err, llm.ErrMalformedResponse) {
		return &GenerationError{Kind: KindMalformedResponse, Err: err}
	}
	return &GenerationError{Kind: KindTransport, Err: err}
}

// Result is the normalized outcome of one call. On failure Text holds the
// fallback message and Err is set.
type Result struct {
	Text string
	Err  *GenerationError
}

func (r Result) Failed() bool { return r.Err != nil }

// FallbackPolicy decides what a caller sees when generation fails.
type FallbackPolicy struct {
	Message string
}

// DefaultPolicy substitutes DefaultFallback on any recoverable error.
func DefaultPolicy() FallbackPolicy {
	return FallbackPolicy{Message: DefaultFallback}
}

// Resolve returns the text a caller should display for r.
func (p FallbackPolicy) Resolve(r Result) string {
	if r.Failed() {
		return p.Message
	}
	return r.Text
}
