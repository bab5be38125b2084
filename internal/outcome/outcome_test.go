// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package outcome

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-resolver/internal/source"
	"github.com/pdiddy/paper-resolver/pkg/types"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantCat types.Category
		wantMsg string
	}{
		{"deadline", fmt.Errorf("fetch: %w", context.DeadlineExceeded), types.CategoryTimeout, MessageTimeout},
		{"net timeout", timeoutErr{}, types.CategoryTimeout, MessageTimeout},
		{
			"wrapped transport timeout",
			fmt.Errorf("unit: %w", &source.TransportError{Source: "CrossRef", Op: "search", Kind: types.CategoryTimeout, Err: errors.New("slow")}),
			types.CategoryTimeout, MessageTimeout,
		},
		{
			"timeout beats status",
			&source.TransportError{Source: "PubMed", Op: "fetch", Kind: types.CategoryServer, StatusCode: 502, Err: context.DeadlineExceeded},
			types.CategoryTimeout, MessageTimeout,
		},
		{
			"http status",
			&source.TransportError{Source: "PubMed", Op: "fetch", Kind: types.CategoryServer, StatusCode: 502, Err: errors.New("bad")},
			types.CategoryServer, "HTTP 502 Bad Gateway",
		},
		{
			"invalid body",
			&source.TransportError{Source: "arXiv", Op: "resolve", Kind: types.CategoryServer, Err: errors.New("invalid response: eof")},
			types.CategoryServer, "invalid response: eof",
		},
		{
			"transport connection",
			&source.TransportError{Source: "PMC", Op: "identify", Kind: types.CategoryConnection, Err: errors.New("refused")},
			types.CategoryConnection, MessageConnection,
		},
		{"raw dns", &net.DNSError{Err: "no such host", Name: "api.crossref.org"}, types.CategoryConnection, MessageConnection},
		{"raw op", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, types.CategoryConnection, MessageConnection},
		{"other", errors.New("boom"), types.CategoryUnknown, "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, msg := Classify(tt.err)
			assert.Equal(t, tt.wantCat, cat)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestLog(t *testing.T) {
	l := NewLog()
	l.Success("CrossRef", "search")
	l.Failure("PubMed", "fetch", context.DeadlineExceeded)
	l.Ignored("CrossRef", "search", "title mismatch")

	events := l.Events()
	require.Len(t, events, 3)
	assert.Equal(t, types.CategorySuccess, events[0].Category)
	assert.Equal(t, types.Event{Component: "PubMed", Method: "fetch", Category: types.CategoryTimeout, Message: MessageTimeout}, events[1])
	assert.Equal(t, types.CategoryIgnored, events[2].Category)

	events[0].Component = "mutated"
	assert.Equal(t, "CrossRef", l.Events()[0].Component)
}

func fail(component string, cat types.Category, msg string) types.Event {
	return types.Event{Component: component, Method: "resolve", Category: cat, Message: msg}
}

func ok(component string) types.Event {
	return types.Event{Component: component, Method: "resolve", Category: types.CategorySuccess}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name        string
		events      []types.Event
		wantVerdict Verdict
		wantMessage string
	}{
		{
			name: "no connectivity",
			events: []types.Event{
				fail("CrossRef", types.CategoryConnection, MessageConnection),
				fail("PubMed", types.CategoryConnection, MessageConnection),
				fail("arXiv", types.CategoryConnection, MessageConnection),
			},
			wantVerdict: VerdictNoConnectivity,
			wantMessage: MessageNoConnectivity,
		},
		{
			name: "some timed out",
			events: []types.Event{
				fail("CrossRef", types.CategoryTimeout, MessageTimeout),
				fail("PubMed", types.CategoryTimeout, MessageTimeout),
				ok("Document"),
			},
			wantVerdict: VerdictSomeTimedOut,
			wantMessage: MessageSomeTimedOut,
		},
		{
			name: "all timed out",
			events: []types.Event{
				fail("CrossRef", types.CategoryTimeout, MessageTimeout),
				fail("PubMed", types.CategoryTimeout, MessageTimeout),
			},
			wantVerdict: VerdictAllTimedOut,
			wantMessage: MessageAllTimedOut,
		},
		{
			name: "timeouts mixed with other failures",
			events: []types.Event{
				fail("CrossRef", types.CategoryTimeout, MessageTimeout),
				fail("PubMed", types.CategoryTimeout, MessageTimeout),
				fail("PMC", types.CategoryServer, "HTTP 500 Internal Server Error"),
			},
			wantVerdict: VerdictSomeTimedOut,
			wantMessage: MessageSomeTimedOut,
		},
		{
			name: "single timeout is generic",
			events: []types.Event{
				fail("CrossRef", types.CategoryTimeout, MessageTimeout),
			},
			wantVerdict: VerdictErrors,
			wantMessage: MessageOneError,
		},
		{
			name: "connection with a success is generic",
			events: []types.Event{
				fail("CrossRef", types.CategoryConnection, MessageConnection),
				fail("PubMed", types.CategoryServer, "HTTP 503 Service Unavailable"),
				ok("Document"),
			},
			wantVerdict: VerdictErrors,
			wantMessage: MessageManyError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Summarize(tt.events)
			require.NotNil(t, s)
			assert.Equal(t, tt.wantVerdict, s.Verdict)
			assert.Equal(t, tt.wantMessage, s.Message)
		})
	}
}

func TestSummarize_NoFailures(t *testing.T) {
	assert.Nil(t, Summarize(nil))
	assert.Nil(t, Summarize([]types.Event{
		ok("CrossRef"),
		{Component: "PubMed", Method: "search", Category: types.CategoryIgnored, Message: "title mismatch"},
	}))
}

func TestSummarize_Items(t *testing.T) {
	s := Summarize([]types.Event{
		{Component: "PubMed", Method: "resolve", Category: types.CategoryServer, Message: "HTTP 502 Bad Gateway"},
		fail("CrossRef", types.CategoryTimeout, MessageTimeout),
		{Component: "PubMed", Method: "fetch", Category: types.CategoryServer, Message: "HTTP 500 Internal Server Error"},
		{Component: "PubMed", Method: "search", Category: types.CategoryTimeout, Message: MessageTimeout},
	})
	require.NotNil(t, s)
	require.Len(t, s.Items, 3)
	assert.Equal(t, Item{Component: "PubMed", Category: types.CategoryServer, Method: "resolve", Message: "HTTP 502 Bad Gateway", Count: 2}, s.Items[0])
	assert.Equal(t, "CrossRef", s.Items[1].Component)
	assert.Equal(t, types.CategoryTimeout, s.Items[2].Category)
	assert.Equal(t, 4, s.Failures)
}

func TestCollate(t *testing.T) {
	s := Summarize([]types.Event{
		fail("CrossRef", types.CategoryServer, `HTTP 500 "oops"`),
		ok("Document"),
	})
	require.NotNil(t, s)

	a, err := Collate(s)
	require.NoError(t, err)
	assert.Equal(t, CollatedConcept, a.Concept)
	assert.Equal(t, CollatedWeight, a.Weight)
	assert.Contains(t, a.HTML, "<p>An error occurred while resolving this document")
	assert.Contains(t, a.HTML, `<li><span title="HTTP 500 &#34;oops&#34;">CrossRef reported an error</span></li>`)
	assert.Equal(t, "errors", a.Properties["verdict"])
}
