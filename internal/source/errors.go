// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/pdiddy/paper-resolver/pkg/types"
)

// ErrNotFound indicates the registry has no record for the request.
var ErrNotFound = errors.New("not found")

// ErrInvalidResponse indicates a response body the adapter could not parse.
var ErrInvalidResponse = errors.New("invalid response")

// TransportError is the neutral failure every adapter reports. Kind is one
// of timeout, connection, server or unknown.
type TransportError struct {
	Source     string
	Op         string
	Kind       types.Category
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: HTTP %d %s", e.Source, e.Op, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%s %s: %v", e.Source, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the failure was a timeout.
func (e *TransportError) Timeout() bool { return e.Kind == types.CategoryTimeout }

// IsNotFound reports whether err means the registry had nothing.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.StatusCode == http.StatusNotFound
	}
	return false
}

// wrapTransport maps an error from http.Client.Do onto a TransportError.
func wrapTransport(source, op string, err error) error {
	if err == nil {
		return nil
	}
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	kind := types.CategoryConnection
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = types.CategoryTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = types.CategoryTimeout
	case errors.Is(err, context.Canceled):
		kind = types.CategoryUnknown
	}
	return &TransportError{Source: source, Op: op, Kind: kind, Err: err}
}

// limiterError maps a failed rate.Limiter.Wait. The limiter refuses up front
// when the next token falls after the deadline, so that refusal is a timeout
// even though it does not wrap context.DeadlineExceeded.
func limiterError(ctx context.Context, source, op string, err error) error {
	kind := types.CategoryTimeout
	if errors.Is(ctx.Err(), context.Canceled) {
		kind = types.CategoryUnknown
	}
	return &TransportError{Source: source, Op: op, Kind: kind, Err: fmt.Errorf("rate limiter: %w", err)}
}

// statusError reports a non-2xx response. 404 becomes ErrNotFound.
func statusError(source, op string, status int) error {
	if status == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", source, op, ErrNotFound)
	}
	return &TransportError{
		Source:     source,
		Op:         op,
		Kind:       types.CategoryServer,
		StatusCode: status,
		Err:        fmt.Errorf("HTTP %d", status),
	}
}

// invalid reports an unparseable body. A registry that answers with
// garbage is treated as a server failure.
func invalid(source, op string, err error) error {
	return &TransportError{
		Source: source,
		Op:     op,
		Kind:   types.CategoryServer,
		Err:    fmt.Errorf("%w: %v", ErrInvalidResponse, err),
	}
}
