package quickbooks

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RateLimitError marks an HTTP 429 from QBO. The client never retries these
// itself; the sync engine decides when the next attempt happens.
type RateLimitError struct {
	RetryAfterSeconds int
}

func (e *RateLimitError) Error() string {
	if e.RetryAfterSeconds > 0 {
		return fmt.Sprintf("qbo rate limit exceeded, retry after %ds", e.RetryAfterSeconds)
	}
	return "qbo rate limit exceeded"
}

// Fault is QBO's structured error body.
type Fault struct {
	Type   string       `json:"type"`
	Errors []FaultError `json:"Error"`
}

type FaultError struct {
	Message string `json:"Message"`
	Detail  string `json:"Detail"`
	Code    string `json:"code"`
	Element string `json:"element"`
}

// APIError carries any non-2xx, non-429 provider response.
type APIError struct {
	StatusCode int
	Fault      *Fault
	Body       string
}

func (e *APIError) Error() string {
	if e.Fault != nil && len(e.Fault.Errors) > 0 {
		var msgs []string
		for _, fe := range e.Fault.Errors {
			msg := fe.Message
			if fe.Detail != "" {
				msg = fmt.Sprintf("%s (%s)", msg, fe.Detail)
			}
			msgs = append(msgs, msg)
		}
		return fmt.Sprintf("qbo request failed with status %d: %s", e.StatusCode, strings.Join(msgs, "; "))
	}
	return fmt.Sprintf("qbo request failed with status %d: %s", e.StatusCode, e.Body)
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Body: string(body)}

	var wrapper struct {
		Fault *Fault `json:"Fault"`
	}
	if err := json.Unmarshal(body, &wrapper); err == nil && wrapper.Fault != nil {
		apiErr.Fault = wrapper.Fault
	}
	return apiErr
}
