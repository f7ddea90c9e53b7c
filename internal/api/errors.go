// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

var (
	// ErrTransport indicates the request never produced an HTTP response
	// (connection refused, DNS failure, timeout, cancelled context).
	ErrTransport = errors.New("backend unreachable")

	// ErrMalformedResponse indicates a 2xx response whose body could not be decoded.
	ErrMalformedResponse = errors.New("malformed response from backend")
)

// APIError is returned for any non-2xx response from the backend.
type APIError struct {
	// Status is the HTTP status code.
	Status int

	// Detail is the server-provided explanation, taken from the "detail"
	// field of the error body when present.
	Detail string

	// Body is the raw (size-limited) response body.
	Body string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend returned %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("backend returned %d %s", e.Status, http.StatusText(e.Status))
}

// errorBody is the error envelope produced by the backend. Detail is either
// a plain string or a list of validation issues.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type validationIssue struct {
	Loc []interface{} `json:"loc"`
	Msg string        `json:"msg"`
}

// newAPIError builds an APIError from a status code and response body.
func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status, Body: string(body)}

	var envelope errorBody
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return apiErr
	}

	var detail string
	if err := json.Unmarshal(envelope.Detail, &detail); err == nil {
		apiErr.Detail = strings.TrimSpace(detail)
		return apiErr
	}

	var issues []validationIssue
	if err := json.Unmarshal(envelope.Detail, &issues); err == nil {
		msgs := make([]string, 0, len(issues))
		for _, issue := range issues {
			if issue.Msg != "" {
				msgs = append(msgs, issue.Msg)
			}
		}
		apiErr.Detail = strings.Join(msgs, "; ")
	}

	return apiErr
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// UserMessage converts an error returned by the Client into the text shown
// in a notification: the server detail when one was provided, otherwise a
// generic description of the failure.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
		return fmt.Sprintf("Request failed with status %d", apiErr.Status)
	}

	switch {
	case errors.Is(err, ErrTransport):
		return "Network error: could not reach the server"
	case errors.Is(err, ErrMalformedResponse):
		return "Unexpected response from the server"
	}

	return err.Error()
}

// IsTransport reports whether err is a connection-level failure.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not an APIError.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
