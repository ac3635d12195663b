package mockbroker

import "net/http"

// RequestSnapshot and ResponseSnapshot capture the most recently handled
// request/response pair for external introspection.

type RequestSnapshot struct {
	Method  string      `json:"method"`
	Path    string      `json:"path"`
	Headers http.Header `json:"headers,omitempty"`
	Body    string      `json:"body,omitempty"`
}

type ResponseSnapshot struct {
	Status int    `json:"status"`
	Body   string `json:"body,omitempty"`
}
