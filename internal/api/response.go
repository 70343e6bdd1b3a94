package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Response is the decoded server envelope. OK is false for non-2xx statuses
// and for 2xx bodies that report success=false.
type Response struct {
	OK       bool
	Status   int
	Data     json.RawMessage
	Message  string
	Errors   json.RawMessage
	Paginate json.RawMessage
	Summary  json.RawMessage
	ErrorKey string
}

type envelope struct {
	Success   *bool           `json:"success"`
	Data      json.RawMessage `json:"data"`
	Message   string          `json:"message"`
	Errors    json.RawMessage `json:"errors"`
	Paginate  json.RawMessage `json:"paginate"`
	Summary   json.RawMessage `json:"summary"`
	ErrorKey  string          `json:"error_key"`
	// Some endpoints spell the key errorKey.
	ErrorKeyCamel string `json:"errorKey"`
}

func decodeResponse(status int, body []byte) *Response {
	resp := &Response{
		OK:     status >= 200 && status < 300,
		Status: status,
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		if !resp.OK {
			resp.Message = http.StatusText(status)
		}
		return resp
	}

	if env.Success != nil && !*env.Success {
		resp.OK = false
	}
	resp.Data = env.Data
	resp.Message = env.Message
	resp.Errors = env.Errors
	resp.Paginate = env.Paginate
	resp.Summary = env.Summary
	resp.ErrorKey = env.ErrorKey
	if resp.ErrorKey == "" {
		resp.ErrorKey = env.ErrorKeyCamel
	}
	if !resp.OK && resp.Message == "" && status >= 300 {
		resp.Message = http.StatusText(status)
	}
	return resp
}

// Err returns nil for a successful response and a *ResponseError otherwise.
func (r *Response) Err() error {
	if r.OK {
		return nil
	}
	return &ResponseError{Status: r.Status, Message: r.Message, ErrorKey: r.ErrorKey}
}

// ResponseError is a failure reported by the server itself.
type ResponseError struct {
	Status   int
	Message  string
	ErrorKey string
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API error (status %d)", e.Status)
	}
	return fmt.Sprintf("API error (status %d): %s", e.Status, e.Message)
}
