package providers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// DecodeResponse enforces the shared response contract: any non-2xx
// status becomes an UpstreamError carrying a truncated body, and a
// malformed JSON envelope becomes a ParseError.
func DecodeResponse(provider string, resp *http.Response, v any) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", provider, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return NewUpstreamError(provider, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return &ParseError{Provider: provider, Err: err}
	}
	return nil
}
