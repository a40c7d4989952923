package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies a failed request.
type Kind string

const (
	// KindNetwork: the request never produced a response.
	KindNetwork Kind = "network"
	// KindServer: the backend answered with a non-2xx status.
	KindServer Kind = "server"
	// KindValidation: a local form check failed and nothing was sent.
	KindValidation Kind = "validation"
	// KindDecode: a payload could not be encoded or a 2xx body could not be decoded.
	KindDecode Kind = "decode"
)

// Error is the only error shape the API layer hands to callers.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	// Data is the raw JSON body of a server error, when it was JSON.
	Data json.RawMessage
	// Fields maps form field names to messages for validation errors.
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString("transport: ")
	b.WriteString(string(e.Kind))
	if e.Status > 0 {
		fmt.Fprintf(&b, " %d", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Validation builds a local form error. The message is the first field
// message in field-name order.
func Validation(fields map[string]string) *Error {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	msg := "validation failed"
	if len(names) > 0 {
		msg = fields[names[0]]
	}
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

// AsError extracts a *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var te *Error
	if errors.As(err, &te) && te != nil {
		return te, true
	}
	return nil, false
}

// IsStatus reports whether err is a server error with the given status.
func IsStatus(err error, status int) bool {
	te, ok := AsError(err)
	return ok && te.Kind == KindServer && te.Status == status
}

// MessageOr returns the server-provided (or validation) message when there is
// one, otherwise fallback. Network and decode failures always use fallback.
func MessageOr(err error, fallback string) string {
	te, ok := AsError(err)
	if !ok {
		return fallback
	}
	switch te.Kind {
	case KindServer, KindValidation:
		if strings.TrimSpace(te.Message) != "" {
			return te.Message
		}
	}
	return fallback
}

// Envelope is the backend's standard response wrapper.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data"`
}
