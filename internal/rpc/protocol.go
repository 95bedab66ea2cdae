// SPDX-License-Identifier: MPL-2.0

package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/siliconalloy/alloy/internal/issue"
)

// Error codes carried in Error.Code.
const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeHandlerFailure = -32000
)

var (
	// ErrMethodNotFound is wrapped by handlers for unknown method names.
	ErrMethodNotFound = errors.New("unknown method")
	// ErrInvalidParams is wrapped by handlers when params do not decode into
	// the method's parameter shape.
	ErrInvalidParams = errors.New("invalid params")
	// ErrDaemonUnreachable means the client could not connect to the socket.
	ErrDaemonUnreachable = errors.New("daemon unreachable")
)

type (
	// Request is one call from a client.
	Request struct {
		ID     json.RawMessage `json:"id,omitempty"`
		Method string          `json:"method"`
		Params json.RawMessage `json:"params,omitempty"`
	}

	// Response carries either Result or Error.
	Response struct {
		ID     json.RawMessage `json:"id,omitempty"`
		Result json.RawMessage `json:"result,omitempty"`
		Error  *Error          `json:"error,omitempty"`
	}

	// Error is a failed call. On the client side it unwraps to the issue
	// sentinel named by Data.Kind, so errors.Is(err, issue.ErrNotFound)
	// works across the socket.
	Error struct {
		Code    int        `json:"code"`
		Message string     `json:"message"`
		Data    *ErrorData `json:"data,omitempty"`
	}

	// ErrorData classifies an Error.
	ErrorData struct {
		Kind string `json:"kind"`
	}

	// Handler executes one method. A nil error with any result marshals as
	// the response result.
	Handler interface {
		Dispatch(ctx context.Context, method string, params json.RawMessage) (any, error)
	}

	// HandlerFunc adapts a function to Handler.
	HandlerFunc func(ctx context.Context, method string, params json.RawMessage) (any, error)
)

func (f HandlerFunc) Dispatch(ctx context.Context, method string, params json.RawMessage) (any, error) {
	return f(ctx, method, params)
}

func (e *Error) Error() string {
	return fmt.Sprintf("daemon returned error %d: %s", e.Code, e.Message)
}

// Unwrap returns the kind sentinel, plus ErrMethodNotFound or
// ErrInvalidParams for those codes.
func (e *Error) Unwrap() []error {
	var errs []error
	if e.Data != nil {
		if s := issue.KindSentinel(e.Data.Kind); s != nil {
			errs = append(errs, s)
		}
	}
	switch e.Code {
	case CodeMethodNotFound:
		errs = append(errs, ErrMethodNotFound)
	case CodeInvalidParams:
		errs = append(errs, ErrInvalidParams)
	}
	return errs
}

// ErrorFor converts a handler error into its wire form.
func ErrorFor(err error) *Error {
	code := CodeHandlerFailure
	switch {
	case errors.Is(err, ErrMethodNotFound):
		code = CodeMethodNotFound
	case errors.Is(err, ErrInvalidParams):
		code = CodeInvalidParams
	}
	return &Error{Code: code, Message: err.Error(), Data: &ErrorData{Kind: issue.KindOf(err)}}
}

// NewResult marshals v into a success response for id.
func NewResult(id json.RawMessage, v any) (Response, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Response{}, err
	}
	return Response{ID: id, Result: data}, nil
}

// NewError builds an error response for id.
func NewError(id json.RawMessage, e *Error) Response {
	return Response{ID: id, Error: e}
}
