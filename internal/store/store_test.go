// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-resolver/internal/evidence"
	"github.com/pdiddy/paper-resolver/internal/outcome"
	"github.com/pdiddy/paper-resolver/internal/session"
	"github.com/pdiddy/paper-resolver/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.StoreConfig{Path: filepath.Join(t.TempDir(), "db", "sessions.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecord() *evidence.Record {
	rec := evidence.NewRecord()
	rec.Put(evidence.KeyTitle, "Nanometre-scale thermometry in a living cell", types.WhenceDocument, evidence.WithWeight(5))
	rec.Put(evidence.IdentifierKey(types.IDDOI), "10.1038/nature12373", types.WhenceCrossRef, evidence.WithWeight(20))
	rec.PutList(evidence.KeyAuthors, []string{"Kucsko, G", "Maurer, P. C."}, types.WhenceCrossRef, evidence.WithWeight(20))
	rec.PutLink(types.Link{URL: "https://doi.org/10.1038/nature12373", Type: types.LinkArticle}, types.WhenceDOI)
	return rec
}

func sampleResult(id string, rec *evidence.Record, started time.Time) *session.Result {
	events := []types.Event{
		{Component: "CrossRef", Method: "resolve", Category: types.CategorySuccess},
		{Component: "PubMed", Method: "resolve", Category: types.CategoryTimeout, Message: outcome.MessageTimeout},
	}
	return &session.Result{
		ID:           id,
		Document:     "nature12373.pdf",
		Fingerprints: []string{"fp-raw", "fp-text"},
		Started:      started,
		Finished:     started.Add(time.Second),
		Metadata:     rec.Snapshot(),
		Summary:      outcome.Summarize(events),
		Events:       events,
	}
}

func TestSaveAndLoad(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	rec := sampleRecord()
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Save(ctx, sampleResult("s1", rec, started), rec))

	exp, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", exp.ID)
	assert.Equal(t, "Nanometre-scale thermometry in a living cell", exp.Title)
	assert.Equal(t, "10.1038/nature12373", exp.DOI)
	assert.True(t, started.Equal(exp.Started))
	assert.Equal(t, 1, exp.Failures)
	assert.Equal(t, string(outcome.VerdictErrors), exp.Verdict)
	require.NotNil(t, exp.Summary)
	assert.Equal(t, outcome.MessageOneError, exp.Summary.Message)
	assert.Len(t, exp.Events, 2)
	assert.Equal(t, types.CategoryTimeout, exp.Events[1].Category)
	assert.Equal(t, []string{"Kucsko, G", "Maurer, P. C."}, exp.Metadata.Lists["authors"])

	require.Len(t, exp.Evidence, rec.Size())
	orig := rec.Entries()
	for i, e := range exp.Evidence {
		assert.Equal(t, orig[i].Key, e.Key)
		assert.Equal(t, orig[i].Seq, e.Seq)
		assert.Equal(t, orig[i].WhenString(), e.WhenString())
	}
	assert.Equal(t, []string{"Kucsko, G", "Maurer, P. C."}, exp.Evidence[2].List)
	require.NotNil(t, exp.Evidence[3].Link)
	assert.Equal(t, "https://doi.org/10.1038/nature12373", exp.Evidence[3].Link.URL)
}

func TestLoad_NotFound(t *testing.T) {
	_, err := newTestStore(t).Load(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSave_ReplacesSameSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	rec := sampleRecord()
	now := time.Now().UTC()

	require.NoError(t, s.Save(ctx, sampleResult("s1", rec, now), rec))
	require.NoError(t, s.Save(ctx, sampleResult("s1", rec, now), rec))

	history, err := s.History(ctx, "fp-raw")
	require.NoError(t, err)
	assert.Len(t, history, 1)

	exp, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, exp.Evidence, rec.Size())
}

func TestHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	rec := sampleRecord()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Save(ctx, sampleResult("older", rec, base), rec))
	require.NoError(t, s.Save(ctx, sampleResult("newer", rec, base.Add(time.Hour)), rec))

	history, err := s.History(ctx, "fp-text")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "newer", history[0].ID)
	assert.Equal(t, "older", history[1].ID)

	none, err := s.History(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestHistory_OrdersBySubSecondStart(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	rec := sampleRecord()
	base := time.Date(2026, 1, 1, 12, 0, 5, 0, time.UTC)

	tests := []struct {
		id     string
		offset time.Duration
	}{
		{"whole-second", 0},
		{"tenth", 100 * time.Millisecond},
		{"hundredths", 120 * time.Millisecond},
		{"nanos", 120*time.Millisecond + 7},
	}
	for _, tt := range tests {
		require.NoError(t, s.Save(ctx, sampleResult(tt.id, rec, base.Add(tt.offset)), rec))
	}

	history, err := s.History(ctx, "fp-raw")
	require.NoError(t, err)
	var ids []string
	for _, h := range history {
		ids = append(ids, h.ID)
	}
	assert.Equal(t, []string{"nanos", "hundredths", "tenth", "whole-second"}, ids)
	assert.True(t, base.Add(120*time.Millisecond+7).Equal(history[0].Started))
}

func TestLoad_RetractedEvidenceIsHidden(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	rec := sampleRecord()
	rec.Put(evidence.KeyURL, "https://stale.example", types.WhenceDocument)
	rec.Retract(evidence.KeyURL, types.WhencePublisher)
	rec.Put(evidence.KeyURL, "https://www.nature.com/articles/nature12373", types.WhencePublisher)

	require.NoError(t, s.Save(ctx, sampleResult("s1", rec, time.Now().UTC()), rec))
	exp, err := s.Load(ctx, "s1")
	require.NoError(t, err)

	require.Len(t, exp.Retractions, 1)
	assert.Equal(t, evidence.KeyURL, exp.Retractions[0].Key)
	assert.Equal(t, types.WhencePublisher, exp.Retractions[0].Whence)
	assert.Equal(t, rec.Retractions()[0].Seq, exp.Retractions[0].Seq)

	hidden := map[string]bool{}
	for _, e := range exp.Evidence {
		if e.Key == evidence.KeyURL {
			hidden[e.Value] = e.Hidden
		}
	}
	assert.Equal(t, map[string]bool{
		"https://stale.example":                       true,
		"https://www.nature.com/articles/nature12373": false,
	}, hidden)
	for _, e := range exp.Evidence {
		if e.Key != evidence.KeyURL {
			assert.False(t, e.Hidden, e.Key)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, s.ExportYAML(ctx, "s1", true, &buf))
	assert.Contains(t, buf.String(), "hidden: true")
	assert.Contains(t, buf.String(), "retractions:")
}

func TestFindTitles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := sampleRecord()
	require.NoError(t, s.Save(ctx, sampleResult("thermo", rec, time.Now().UTC()), rec))

	other := evidence.NewRecord()
	other.Put(evidence.KeyTitle, "Deep learning for genomics", types.WhenceCrossRef)
	require.NoError(t, s.Save(ctx, sampleResult("genomics", other, time.Now().UTC()), other))

	found, err := s.FindTitles(ctx, "thermometry")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "thermo", found[0].ID)

	found, err = s.FindTitles(ctx, "genomics OR living")
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestExportYAML(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	rec := sampleRecord()
	require.NoError(t, s.Save(ctx, sampleResult("s1", rec, time.Now().UTC()), rec))

	var buf bytes.Buffer
	require.NoError(t, s.ExportYAML(ctx, "s1", false, &buf))

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "s1", doc["id"])
	assert.NotContains(t, doc, "evidence")
	assert.Contains(t, doc, "metadata")
	assert.Contains(t, doc, "summary")

	buf.Reset()
	require.NoError(t, s.ExportYAML(ctx, "s1", true, &buf))
	assert.Contains(t, buf.String(), "evidence:")
}
