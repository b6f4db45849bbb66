package platform

import (
	"encoding/json"
	"fmt"
)

// APIError is a non-2xx response from the platform.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("platform: %s (status %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("platform: status %d", e.Status)
}

// decodeAPIError extracts the most descriptive message the platform
// offers; the auth and rest surfaces use different field names.
func decodeAPIError(status int, body []byte) *APIError {
	var raw struct {
		Code             string `json:"code"`
		Message          string `json:"message"`
		Msg              string `json:"msg"`
		ErrorField       string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	_ = json.Unmarshal(body, &raw)

	msg := raw.Message
	if msg == "" {
		msg = raw.Msg
	}
	if msg == "" {
		msg = raw.ErrorDescription
	}
	if msg == "" {
		msg = raw.ErrorField
	}
	code := raw.Code
	if code == "" {
		code = raw.ErrorField
	}
	return &APIError{Status: status, Code: code, Message: msg}
}
