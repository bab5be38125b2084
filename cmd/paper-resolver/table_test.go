// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-resolver/internal/outcome"
	"github.com/pdiddy/paper-resolver/internal/session"
	"github.com/pdiddy/paper-resolver/pkg/types"
)

func sampleMetadata() types.Metadata {
	return types.Metadata{
		Fields:      map[string]string{"title": "Nanometre-scale thermometry", "year": "2013"},
		Lists:       map[string][]string{"authors": {"Kucsko, G", "Maurer, P. C."}},
		Identifiers: map[string]string{"doi": "10.1038/nature12373", "pubmed": "23903748"},
		Links: []types.Link{
			{URL: "https://example.org/paper.pdf", Type: types.LinkArticle, Mime: "application/pdf"},
			{URL: "https://doi.org/10.1038/nature12373", Title: "Publisher's web page"},
		},
	}
}

func TestMetadataRows(t *testing.T) {
	rows := metadataRows(sampleMetadata())

	want := [][]string{
		{"identifiers.doi", "10.1038/nature12373"},
		{"identifiers.pubmed", "23903748"},
		{"title", "Nanometre-scale thermometry"},
		{"year", "2013"},
		{"authors", "Kucsko, G; Maurer, P. C."},
		{"link (" + types.LinkArticle + ")", "https://example.org/paper.pdf"},
		{"link", "Publisher's web page: https://doi.org/10.1038/nature12373"},
	}
	assert.Equal(t, want, rows)
}

func TestRenderTable(t *testing.T) {
	assert.Empty(t, renderTable(nil, nil, nil))

	out := renderTable([]string{"Field", "Value"}, [][]string{{"title", "A"}, {"short"}}, []columnAlignment{alignLeft, alignRight})
	assert.Contains(t, out, "FIELD")
	assert.Contains(t, out, "title")
	assert.Contains(t, out, "short")
}

func TestVerdictLabel(t *testing.T) {
	assert.Equal(t, "ok", verdictLabel("", 0))
	assert.Equal(t, "all-timed-out (3)", verdictLabel("all-timed-out", 3))
}

func TestSummaryText(t *testing.T) {
	assert.Empty(t, summaryText(nil))

	s := &outcome.Summary{
		Message: outcome.MessageManyError,
		Items: []outcome.Item{
			{Component: "CrossRef", Method: "resolve", Category: types.CategoryTimeout, Message: outcome.MessageTimeout, Count: 2},
			{Component: "PubMed", Method: "search", Category: types.CategoryUnknown},
		},
	}
	got := summaryText(s)
	assert.Contains(t, got, outcome.MessageManyError)
	assert.Contains(t, got, "CrossRef resolve: "+outcome.MessageTimeout+" (x2)")
	assert.Contains(t, got, "PubMed search: "+string(types.CategoryUnknown))
}

func TestWriteResult(t *testing.T) {
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	res := &session.Result{
		ID:       "abc",
		Document: "paper.pdf",
		Started:  started,
		Finished: started.Add(1500 * time.Millisecond),
		Metadata: sampleMetadata(),
	}

	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, res, false, false))
	assert.Contains(t, buf.String(), "Session abc (1.5s)")
	assert.Contains(t, buf.String(), "10.1038/nature12373")

	buf.Reset()
	require.NoError(t, writeResult(&buf, res, true, false))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "abc", decoded["id"])

	buf.Reset()
	require.NoError(t, writeResult(&buf, res, false, true))
	assert.Contains(t, buf.String(), "document: paper.pdf")
}
