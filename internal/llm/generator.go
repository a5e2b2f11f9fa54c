// Package llm abstracts the text-generation capability behind one interface
// with interchangeable backends: the Anthropic API, an OpenAI-compatible HTTP
// endpoint, an in-process generator, or a local CLI subprocess.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Generator produces model text for a system instruction and a prompt. The
// caller is expected to receive JSON but backends make no guarantee; tolerant
// parsing happens upstream.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// ExternalCallError is returned once a backend has exhausted its retries. It
// is fatal to the current section or proposal only; the ingestion orchestrator
// catches and logs it.
type ExternalCallError struct {
	Attempts int
	Err      error
}

func (e *ExternalCallError) Error() string {
	return fmt.Sprintf("generation failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExternalCallError) Unwrap() error { return e.Err }

const (
	retryAttempts = 3
	retryDelay    = 1 * time.Second
)

// withRetry runs fn up to retryAttempts times with a fixed delay between
// attempts. Any failure (transport, status, decode) is retried; the terminal
// failure is wrapped in ExternalCallError.
func withRetry(ctx context.Context, fn func() (string, error)) (string, error) {
	var last error
	for attempt := 1; attempt <= retryAttempts; attempt++ {
		out, err := fn()
		if err == nil {
			return out, nil
		}
		last = err
		if attempt < retryAttempts {
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return "", &ExternalCallError{Attempts: attempt, Err: ctx.Err()}
			}
		}
	}
	return "", &ExternalCallError{Attempts: retryAttempts, Err: last}
}

// Retrying wraps a backend with the shared bounded-retry policy.
type Retrying struct {
	Backend Generator
}

func (r Retrying) Generate(ctx context.Context, system, prompt string) (string, error) {
	return withRetry(ctx, func() (string, error) {
		return r.Backend.Generate(ctx, system, prompt)
	})
}

// StripCodeFences removes a surrounding markdown code fence from model output.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		parts := strings.SplitN(s, "\n", 2)
		if len(parts) == 2 {
			s = parts[1]
		}
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}
