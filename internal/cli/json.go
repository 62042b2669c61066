package cli

import (
	"encoding/json"
	"io"
)

// Response is the standard JSON envelope for all CLI output.
type Response struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error *ErrorInfo  `json:"error,omitempty"`
	Meta  *Meta       `json:"meta,omitempty"`
}

// ErrorInfo contains structured error information.
type ErrorInfo struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// Meta contains metadata about the response.
type Meta struct {
	// Count is the number of notebooks that needed a fix.
	Count int `json:"count"`
}

// outputJSON writes the response as indented JSON.
func outputJSON(w io.Writer, resp Response) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	_ = enc.Encode(resp)
}

// outputSuccess outputs a successful JSON response.
func outputSuccess(w io.Writer, data interface{}, meta *Meta) {
	outputJSON(w, Response{
		OK:   true,
		Data: data,
		Meta: meta,
	})
}

// outputError outputs an error JSON response.
func outputError(w io.Writer, code, message string, details interface{}, suggestion string) {
	outputJSON(w, Response{
		OK: false,
		Error: &ErrorInfo{
			Code:       code,
			Message:    message,
			Details:    details,
			Suggestion: suggestion,
		},
	})
}
