package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestKindForStatus(t *testing.T) {
	tests := []struct {
		status int
		expect Kind
	}{
		{401, KindUnauthorized},
		{403, KindForbidden},
		{400, KindValidation},
		{422, KindValidation},
		{500, KindServer},
		{503, KindServer},
		{599, KindServer},
		{0, KindNetwork},
		{404, KindUnhandled},
		{418, KindUnhandled},
		{302, KindUnhandled},
		{200, KindUnhandled},
	}

	for _, tt := range tests {
		if got := KindForStatus(tt.status); got != tt.expect {
			t.Errorf("KindForStatus(%d) = %v, want %v", tt.status, got, tt.expect)
		}
	}
}

func TestKindForStatusTotality(t *testing.T) {
	known := map[Kind]bool{
		KindUnauthorized: true,
		KindForbidden:    true,
		KindValidation:   true,
		KindServer:       true,
		KindNetwork:      true,
		KindUnhandled:    true,
	}
	for status := 0; status <= 599; status++ {
		if !known[KindForStatus(status)] {
			t.Fatalf("KindForStatus(%d) produced an unknown kind", status)
		}
	}
}

func TestClassifyResponseMessagePriority(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
		code    string
	}{
		{
			name:    "detail wins",
			status:  422,
			body:    `{"detail": "Invalid severity value", "message": "other", "error": "other"}`,
			message: "Invalid severity value",
		},
		{
			name:    "message second",
			status:  400,
			body:    `{"message": "bad input", "error": "other"}`,
			message: "bad input",
		},
		{
			name:    "error third",
			status:  500,
			body:    `{"error": "boom"}`,
			message: "boom",
		},
		{
			name:    "error code extracted",
			status:  400,
			body:    `{"detail": "nope", "code": "ALERT_INVALID"}`,
			message: "nope",
			code:    "ALERT_INVALID",
		},
		{
			name:    "raw body fallback",
			status:  502,
			body:    "Bad Gateway",
			message: "Bad Gateway",
		},
		{
			name:    "empty body fallback",
			status:  503,
			body:    "",
			message: "request failed with status 503",
		},
		{
			name:    "non-string fields ignored",
			status:  400,
			body:    `{"detail": 42, "message": ["x"]}`,
			message: `{"detail": 42, "message": ["x"]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := ClassifyResponse(tt.status, []byte(tt.body))
			if e.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", e.StatusCode, tt.status)
			}
			if e.Message != tt.message {
				t.Errorf("Message = %q, want %q", e.Message, tt.message)
			}
			if e.ErrorCode != tt.code {
				t.Errorf("ErrorCode = %q, want %q", e.ErrorCode, tt.code)
			}
		})
	}
}

func TestClassifyResponseTruncatesRawBody(t *testing.T) {
	body := strings.Repeat("x", 10_000)
	e := ClassifyResponse(500, []byte(body))
	if len(e.Message) > maxBodySnippet {
		t.Errorf("message length = %d, want <= %d", len(e.Message), maxBodySnippet)
	}
}

type fakeTimeoutErr struct{}

func (fakeTimeoutErr) Error() string   { return "i/o timeout" }
func (fakeTimeoutErr) Timeout() bool   { return true }
func (fakeTimeoutErr) Temporary() bool { return true }

func TestClassifyTransport(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"deadline exceeded", context.DeadlineExceeded, CodeTimeout},
		{"net timeout", fakeTimeoutErr{}, CodeTimeout},
		{"wrapped net timeout", fmt.Errorf("do request: %w", fakeTimeoutErr{}), CodeTimeout},
		{"connection refused", errors.New("dial tcp 127.0.0.1:9: connect: connection refused"), CodeNetworkError},
		{"nil error", nil, CodeNetworkError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := ClassifyTransport(tt.err)
			if e.StatusCode != 0 {
				t.Errorf("StatusCode = %d, want 0", e.StatusCode)
			}
			if e.ErrorCode != tt.code {
				t.Errorf("ErrorCode = %q, want %q", e.ErrorCode, tt.code)
			}
			if e.Kind() != KindNetwork {
				t.Errorf("Kind = %v, want KindNetwork", e.Kind())
			}
		})
	}
}

func TestClassifyNeverPanics(t *testing.T) {
	inputs := []struct {
		status int
		body   []byte
		err    error
	}{
		{0, nil, nil},
		{0, []byte("garbage"), errors.New("x")},
		{200, []byte(`{"broken":`), nil},
		{999, []byte{0xff, 0xfe}, nil},
		{-1, nil, nil},
	}
	for _, in := range inputs {
		e := Classify(in.status, in.body, in.err)
		if e == nil {
			t.Fatalf("Classify(%d) returned nil", in.status)
		}
		if e.Message == "" {
			t.Errorf("Classify(%d) produced empty message", in.status)
		}
	}
}
