package stt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"

	openai "github.com/sashabaranov/go-openai"
)

// Kind classifies a transcription failure for callers and logs. The cause
// itself is never shown to end users.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindFilesystem  Kind = "filesystem"
	KindNetwork     Kind = "network"
	KindUpstream4xx Kind = "upstream_4xx"
	KindUpstream5xx Kind = "upstream_5xx"
	KindDecode      Kind = "decode"
	KindInternal    Kind = "internal"
)

// Error is a transcription failure tagged with its Kind.
type Error struct {
	Kind   Kind
	Status int // upstream HTTP status, 0 when no response was received
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError tags err with kind.
func NewError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindOf reports the Kind of err, KindInternal for untagged errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// classify maps an error returned by the go-openai client onto a Kind.
func classify(err error) *Error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &Error{Kind: statusKind(apiErr.HTTPStatusCode), Status: apiErr.HTTPStatusCode, Err: err}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &Error{Kind: statusKind(reqErr.HTTPStatusCode), Status: reqErr.HTTPStatusCode, Err: err}
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return &Error{Kind: KindFilesystem, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Kind: KindNetwork, Err: err}
	}

	var synErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &synErr) || errors.As(err, &typeErr) {
		return &Error{Kind: KindDecode, Err: err}
	}

	return &Error{Kind: KindInternal, Err: err}
}

func statusKind(status int) Kind {
	if status >= 500 {
		return KindUpstream5xx
	}
	return KindUpstream4xx
}
