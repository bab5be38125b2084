// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package outcome records what happened to every resolver call of a load
// cycle, classifies failures by cause and compiles the single diagnostic
// summary shown to the user.
package outcome

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"

	"github.com/pdiddy/paper-resolver/internal/source"
	"github.com/pdiddy/paper-resolver/pkg/types"
)

// Fixed messages for transport failures.
const (
	MessageTimeout    = "The server did not respond"
	MessageConnection = "The server could not be found"
)

// Log is the append-only event log of one document session.
type Log struct {
	mu     sync.Mutex
	events []types.Event
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{}
}

func (l *Log) add(e types.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

// Success records a call that completed without error.
func (l *Log) Success(component, method string) {
	l.add(types.Event{Component: component, Method: method, Category: types.CategorySuccess})
}

// Failure records a failed call, classifying err.
func (l *Log) Failure(component, method string, err error) {
	cat, msg := Classify(err)
	l.add(types.Event{Component: component, Method: method, Category: cat, Message: msg})
}

// Ignored records an expected negative result.
func (l *Log) Ignored(component, method, message string) {
	l.add(types.Event{Component: component, Method: method, Category: types.CategoryIgnored, Message: message})
}

// Events returns a copy of every event in the order it was recorded.
func (l *Log) Events() []types.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]types.Event, len(l.events))
	copy(out, l.events)
	return out
}

// Classify maps an error onto a failure category and a display message.
// Timeouts are checked first, then remote HTTP failures, then failures with
// no remote response.
func Classify(err error) (types.Category, string) {
	if err == nil {
		return types.CategorySuccess, ""
	}

	var te *source.TransportError
	hasTransport := errors.As(err, &te)

	if isTimeout(err) || (hasTransport && te.Kind == types.CategoryTimeout) {
		return types.CategoryTimeout, MessageTimeout
	}

	if hasTransport && (te.StatusCode != 0 || te.Kind == types.CategoryServer) {
		if te.StatusCode != 0 {
			return types.CategoryServer, fmt.Sprintf("HTTP %d %s", te.StatusCode, http.StatusText(te.StatusCode))
		}
		return types.CategoryServer, te.Err.Error()
	}

	if hasTransport && te.Kind == types.CategoryConnection {
		return types.CategoryConnection, MessageConnection
	}
	var opErr *net.OpError
	var dnsErr *net.DNSError
	var urlErr *url.Error
	if !hasTransport && (errors.As(err, &opErr) || errors.As(err, &dnsErr) || errors.As(err, &urlErr)) {
		return types.CategoryConnection, MessageConnection
	}

	return types.CategoryUnknown, err.Error()
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
