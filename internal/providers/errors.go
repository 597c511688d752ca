package providers

import "fmt"

// maxErrorBody caps how much of an upstream error body is carried in an
// UpstreamError, keeping error payloads bounded.
const maxErrorBody = 200

// UpstreamError is a non-2xx response from a provider API. Terminal for
// the fetch attempt; never retried internally.
type UpstreamError struct {
	Provider string
	Status   int
	Body     string
}

// NewUpstreamError builds an UpstreamError with the body truncated to
// maxErrorBody characters.
func NewUpstreamError(provider string, status int, body []byte) *UpstreamError {
	b := string(body)
	if len(b) > maxErrorBody {
		b = b[:maxErrorBody]
	}
	return &UpstreamError{Provider: provider, Status: status, Body: b}
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s API returned %d: %s", e.Provider, e.Status, e.Body)
}

// ParseError is a malformed JSON envelope from a provider API. Individual
// absent fields are not parse errors; they degrade to sentinel values.
type ParseError struct {
	Provider string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s response: %v", e.Provider, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
