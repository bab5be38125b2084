// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session drives one document load cycle: a fresh metadata record
// and event log, the three resolver stages, and the diagnostic summary.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/paper-resolver/internal/document"
	"github.com/pdiddy/paper-resolver/internal/evidence"
	"github.com/pdiddy/paper-resolver/internal/outcome"
	"github.com/pdiddy/paper-resolver/internal/resolve"
	"github.com/pdiddy/paper-resolver/pkg/types"
)

// ErrorsScratch is the document scratch list that receives the collated
// error annotation.
const ErrorsScratch = "errors.metadata"

// userWeight ranks seeded values above document scrapes and below registries.
const userWeight = 8

// Result is the outcome of one load cycle.
type Result struct {
	ID           string                `json:"id" yaml:"id"`
	Document     string                `json:"document" yaml:"document"`
	Fingerprints []string              `json:"fingerprints" yaml:"fingerprints"`
	Started      time.Time             `json:"started" yaml:"started"`
	Finished     time.Time             `json:"finished" yaml:"finished"`
	Metadata     types.Metadata        `json:"metadata" yaml:"metadata"`
	Summary      *outcome.Summary      `json:"summary,omitempty" yaml:"summary,omitempty"`
	Events       []types.Event         `json:"events" yaml:"events"`
	Stages       []resolve.StageReport `json:"-" yaml:"-"`
}

// Session owns the record and event log of one document. Sessions share
// nothing mutable with each other.
type Session struct {
	ID string

	doc    document.Document
	engine *resolve.Engine
	record *evidence.Record
	events *outcome.Log
	log    *zap.Logger
	name   string
}

// New starts a session for doc. doc may be nil when only user-supplied
// identifiers are available.
func New(doc document.Document, engine *resolve.Engine, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	id := uuid.NewString()
	s := &Session{
		ID:     id,
		doc:    doc,
		engine: engine,
		record: evidence.NewRecord(),
		events: outcome.NewLog(),
		log:    log.With(zap.String("session", id)),
	}
	if n, ok := doc.(interface{ Name() string }); ok {
		s.name = n.Name()
	}
	return s
}

// Record exposes the session's record, for seeding evidence before Load.
func (s *Session) Record() *evidence.Record {
	return s.record
}

// Seed records user-supplied identifiers and title. They outrank scraped
// values but not registry data.
func (s *Session) Seed(identifiers map[string]string, title string) {
	up := evidence.NewUpdate(types.WhenceUser, userWeight)
	for kind, v := range identifiers {
		up.SetIdentifier(kind, v)
	}
	up.Set(evidence.KeyTitle, title)
	s.record.Merge(up)
}

// Load runs identify, expand and dereference, then summarises the events.
// When anything failed the collated summary is attached to the document.
func (s *Session) Load(ctx context.Context) (*Result, error) {
	res := &Result{ID: s.ID, Document: s.name, Started: time.Now().UTC()}
	if s.doc != nil {
		res.Fingerprints = s.doc.Fingerprints()
	}

	s.log.Info("load cycle started", zap.String("document", s.name))
	res.Stages = s.engine.RunAll(ctx, s.record, s.doc, s.events)

	res.Events = s.events.Events()
	res.Metadata = s.record.Snapshot()
	res.Summary = outcome.Summarize(res.Events)
	res.Finished = time.Now().UTC()

	if res.Summary != nil {
		ann, err := outcome.Collate(res.Summary)
		if err != nil {
			return res, fmt.Errorf("collating errors: %w", err)
		}
		if s.doc != nil {
			s.doc.AddAnnotation(ann, ErrorsScratch)
		}
		s.log.Warn("load cycle finished with errors",
			zap.Int("failures", res.Summary.Failures),
			zap.String("verdict", string(res.Summary.Verdict)),
		)
	} else {
		s.log.Info("load cycle finished", zap.String("title", res.Metadata.Fields[evidence.KeyTitle]))
	}
	return res, nil
}
