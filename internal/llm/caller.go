// Package llm defines the language-model caller used by the writer and
// reviewer, plus a Claude-backed implementation.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = errors.New("empty response from model")

// Caller sends one stateless prompt to a language model and returns its
// text answer.
type Caller interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// CallerFunc adapts a function to the Caller interface.
type CallerFunc func(ctx context.Context, prompt string) (string, error)

// Invoke calls f.
func (f CallerFunc) Invoke(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// WithTimeout bounds every call made through c. A call that outlives d
// fails with context.DeadlineExceeded, which callers treat like any other
// transport failure. A non-positive d returns c unchanged.
func WithTimeout(c Caller, d time.Duration) Caller {
	if d <= 0 {
		return c
	}
	return CallerFunc(func(ctx context.Context, prompt string) (string, error) {
		tctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		type answer struct {
			text string
			err  error
		}
		done := make(chan answer, 1)
		go func() {
			text, err := c.Invoke(tctx, prompt)
			done <- answer{text: text, err: err}
		}()

		select {
		case a := <-done:
			return a.text, a.err
		case <-tctx.Done():
			return "", fmt.Errorf("model call timed out after %s: %w", d, tctx.Err())
		}
	})
}
