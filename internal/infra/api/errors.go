package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Kind is the outcome of classifying a failed request. The set is closed:
// every status code maps to exactly one Kind.
type Kind int

const (
	KindUnauthorized Kind = iota
	KindForbidden
	KindValidation
	KindServer
	KindNetwork
	KindUnhandled
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	case KindNetwork:
		return "network"
	default:
		return "unhandled"
	}
}

// Error codes for failures where no HTTP response was received.
const (
	CodeTimeout      = "TIMEOUT"
	CodeNetworkError = "NETWORK_ERROR"
)

// maxBodySnippet bounds how much of a raw (non-JSON) response body is used
// as the error message.
const maxBodySnippet = 256

// Error is the uniform error shape returned for every failed request,
// regardless of whether the failure was an HTTP status, a timeout, or a
// connection-level problem.
//
// StatusCode 0 means no HTTP response was received at all; it is never
// confused with a real status.
type Error struct {
	StatusCode int
	Message    string
	ErrorCode  string
	Details    map[string]any
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		if e.ErrorCode != "" {
			return fmt.Sprintf("api: %s: %s", e.ErrorCode, e.Message)
		}
		return fmt.Sprintf("api: %s", e.Message)
	}
	return fmt.Sprintf("api: HTTP %d: %s", e.StatusCode, e.Message)
}

// Kind derives the outcome kind from the status code. Pure and total.
func (e *Error) Kind() Kind {
	return KindForStatus(e.StatusCode)
}

// KindForStatus maps a status code to its outcome kind.
func KindForStatus(status int) Kind {
	switch {
	case status == 401:
		return KindUnauthorized
	case status == 403:
		return KindForbidden
	case status == 400 || status == 422:
		return KindValidation
	case status >= 500 && status <= 599:
		return KindServer
	case status == 0:
		return KindNetwork
	default:
		return KindUnhandled
	}
}

// ClassifyResponse normalizes a received HTTP error response. The message is
// extracted from the body in priority order (detail, message, error), falling
// back to a bounded snippet of the raw body. Malformed or empty bodies never
// cause a failure.
func ClassifyResponse(status int, body []byte) *Error {
	e := &Error{
		StatusCode: status,
		Details:    map[string]any{"status": status},
	}

	var parsed map[string]any
	if len(body) > 0 && json.Unmarshal(body, &parsed) == nil {
		e.Details["body"] = parsed
		for _, key := range []string{"detail", "message", "error"} {
			if s, ok := parsed[key].(string); ok && s != "" {
				e.Message = s
				break
			}
		}
		if code, ok := parsed["code"].(string); ok {
			e.ErrorCode = code
		} else if code, ok := parsed["error_code"].(string); ok {
			e.ErrorCode = code
		}
	}

	if e.Message == "" {
		snippet := strings.TrimSpace(string(body))
		if len(snippet) > maxBodySnippet {
			snippet = snippet[:maxBodySnippet]
		}
		if snippet != "" {
			e.Message = snippet
		} else {
			e.Message = fmt.Sprintf("request failed with status %d", status)
		}
	}

	return e
}

// ClassifyTransport normalizes a failure where no HTTP response was received:
// timeouts become CodeTimeout, everything else (connection refused, DNS
// failure, offline) becomes CodeNetworkError. StatusCode is always 0.
func ClassifyTransport(err error) *Error {
	e := &Error{
		StatusCode: 0,
		ErrorCode:  CodeNetworkError,
		Details:    map[string]any{},
	}

	if err == nil {
		e.Message = "network failure"
		return e
	}

	e.Message = err.Error()
	e.Details["cause"] = err.Error()

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		e.ErrorCode = CodeTimeout
	}
	return e
}

// Classify is the total entry point: a received response (status != 0) goes
// through body extraction, anything else through transport classification.
func Classify(status int, body []byte, err error) *Error {
	if status != 0 {
		return ClassifyResponse(status, body)
	}
	return ClassifyTransport(err)
}

// Degraded is the fallback error produced when classification or routing
// cannot run, e.g. when a handler's own request fails while an error is
// already being handled.
func Degraded(reason string) *Error {
	return &Error{
		StatusCode: 0,
		Message:    reason,
		ErrorCode:  CodeNetworkError,
		Details:    map[string]any{"degraded": true},
	}
}
