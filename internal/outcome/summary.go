// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package outcome

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/pdiddy/paper-resolver/pkg/types"
)

// Summary wording.
const (
	MessageNoConnectivity = "No network connectivity was detected, so this document's metadata could not be resolved. " +
		"Please check your network connection and reload the document."
	MessageAllTimedOut = "All of the services normally consulted to identify this document timed out. " +
		"They may be busy; reloading the document later may help."
	MessageSomeTimedOut = "Some of the services normally consulted to identify this document timed out, " +
		"so its metadata may be incomplete."
	MessageOneError  = "An error occurred while resolving this document's metadata."
	MessageManyError = "Errors occurred while resolving this document's metadata."
)

// Annotation identity of the collated summary.
const (
	CollatedConcept = "Collated"
	CollatedName    = "Errors"
	CollatedWeight  = 100
)

// Verdict names which summary branch was selected.
type Verdict string

const (
	VerdictNoConnectivity Verdict = "no-connectivity"
	VerdictAllTimedOut    Verdict = "all-timed-out"
	VerdictSomeTimedOut   Verdict = "some-timed-out"
	VerdictErrors         Verdict = "errors"
)

// Item is one (component, category) line of the summary.
type Item struct {
	Component string         `json:"component" yaml:"component"`
	Category  types.Category `json:"category" yaml:"category"`
	Method    string         `json:"method" yaml:"method"`
	Message   string         `json:"message,omitempty" yaml:"message,omitempty"`
	Count     int            `json:"count" yaml:"count"`
}

// Summary is the aggregated diagnostic for one load cycle.
type Summary struct {
	Verdict   Verdict `json:"verdict" yaml:"verdict"`
	Message   string  `json:"message" yaml:"message"`
	Items     []Item  `json:"items" yaml:"items"`
	Failures  int     `json:"failures" yaml:"failures"`
	Successes int     `json:"successes" yaml:"successes"`
}

// Summarize tallies events and selects the summary wording. It returns nil
// when no failure was recorded.
func Summarize(events []types.Event) *Summary {
	var (
		s           Summary
		timeouts    int
		connections int
		index       = map[[2]string]int{}
	)
	for _, e := range events {
		if e.Category == types.CategorySuccess {
			s.Successes++
			continue
		}
		if !e.Category.IsFailure() {
			continue
		}
		s.Failures++
		switch e.Category {
		case types.CategoryTimeout:
			timeouts++
		case types.CategoryConnection:
			connections++
		}

		k := [2]string{e.Component, string(e.Category)}
		if i, ok := index[k]; ok {
			s.Items[i].Count++
			continue
		}
		index[k] = len(s.Items)
		s.Items = append(s.Items, Item{
			Component: e.Component,
			Category:  e.Category,
			Method:    e.Method,
			Message:   e.Message,
			Count:     1,
		})
	}
	if s.Failures == 0 {
		return nil
	}

	switch {
	case connections == s.Failures && s.Successes == 0:
		s.Verdict, s.Message = VerdictNoConnectivity, MessageNoConnectivity
	case timeouts > 1 && timeouts == s.Failures && s.Successes == 0:
		s.Verdict, s.Message = VerdictAllTimedOut, MessageAllTimedOut
	case timeouts > 1:
		s.Verdict, s.Message = VerdictSomeTimedOut, MessageSomeTimedOut
	case s.Failures == 1:
		s.Verdict, s.Message = VerdictErrors, MessageOneError
	default:
		s.Verdict, s.Message = VerdictErrors, MessageManyError
	}
	return &s
}

var categoryLabels = map[types.Category]string{
	types.CategoryTimeout:    "did not respond",
	types.CategoryConnection: "could not be reached",
	types.CategoryServer:     "reported an error",
	types.CategoryUnknown:    "failed unexpectedly",
}

// Markdown renders the summary message followed by one bullet per item.
// Each bullet carries the first contributing message as a hover title.
func (s *Summary) Markdown() string {
	var b strings.Builder
	b.WriteString(s.Message)
	b.WriteString("\n\n")
	for _, it := range s.Items {
		fmt.Fprintf(&b, "- <span title=\"%s\">%s %s</span>\n",
			html.EscapeString(it.Message), html.EscapeString(it.Component), categoryLabels[it.Category])
	}
	return b.String()
}

var markdown = goldmark.New(goldmark.WithRendererOptions(gmhtml.WithUnsafe()))

// Collate renders a summary as the Collated annotation surfaced to the host.
func Collate(s *Summary) (types.Annotation, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(s.Markdown()), &buf); err != nil {
		return types.Annotation{}, fmt.Errorf("rendering summary: %w", err)
	}
	return types.Annotation{
		Concept: CollatedConcept,
		Name:    CollatedName,
		HTML:    buf.String(),
		Weight:  CollatedWeight,
		Properties: map[string]string{
			"verdict":   string(s.Verdict),
			"failures":  fmt.Sprint(s.Failures),
			"successes": fmt.Sprint(s.Successes),
		},
	}, nil
}
