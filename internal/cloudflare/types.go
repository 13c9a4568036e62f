package cloudflare

import (
	"encoding/json"
	"strings"
)

// apiError is one error object in a Cloudflare API response.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// envelope is the Cloudflare v4 response wrapper. Result is kept raw so the
// backup collector can snapshot it verbatim.
type envelope struct {
	Success  bool            `json:"success"`
	Errors   []apiError      `json:"errors"`
	Messages json.RawMessage `json:"messages"`
	Result   json.RawMessage `json:"result"`
}

// errorText flattens the envelope's error list into one message.
func (e *envelope) errorText() string {
	if len(e.Errors) == 0 {
		return "request failed"
	}
	parts := make([]string, len(e.Errors))
	for i, apiErr := range e.Errors {
		parts[i] = apiErr.Message
	}
	return strings.Join(parts, "; ")
}
