// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve implements the purpose-ordered dispatch engine that threads
// one metadata record through every registered resolver unit of a stage.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-resolver/internal/document"
	"github.com/pdiddy/paper-resolver/internal/evidence"
	"github.com/pdiddy/paper-resolver/pkg/types"
)

// Unit is one resolver in the pipeline. Units are stateless; everything they
// learn is returned as an update and merged into the shared record.
type Unit interface {
	// Component names the source the unit talks to (e.g. "CrossRef").
	Component() string

	// Method names the operation (e.g. "search").
	Method() string

	// Purposes lists the stages the unit runs in.
	Purposes() []types.Purpose

	// Priority orders units within a stage; lower runs earlier.
	Priority() int

	// Resolve inspects the record and document and returns what it found.
	// A nil update means "no opinion".
	Resolve(ctx context.Context, rec *evidence.Record, doc document.Document) (*evidence.Update, error)
}

// ErrSkipped is returned, usually wrapped with a reason, by a unit whose
// preconditions are not met. A skipped call is neither a success nor a
// failure.
var ErrSkipped = errors.New("resolver skipped")

// Local is implemented by units that consult no external service, such as
// the document scraper and the link builders. Their calls are not recorded
// as successes, so a load with no reachable service still reads as offline.
type Local interface {
	Local() bool
}

func isLocal(u Unit) bool {
	l, ok := u.(Local)
	return ok && l.Local()
}

// Recorder receives the outcome of every unit call.
type Recorder interface {
	Success(component, method string)
	Failure(component, method string, err error)
	Ignored(component, method, message string)
}

// StageReport counts what happened during one stage.
type StageReport struct {
	Purpose  types.Purpose
	Ran      int
	Skipped  int
	Failed   int
	Merged   int
	Duration time.Duration
}

// Engine dispatches resolver units by purpose. Units are registered
// explicitly at startup; the engine holds no per-document state and may be
// shared by concurrent sessions once registration is complete.
type Engine struct {
	units []Unit
	log   *zap.Logger
}

// NewEngine creates an engine with no units. A nil logger discards output.
func NewEngine(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{log: log}
}

// Register adds units in order. Registration order breaks priority ties.
func (e *Engine) Register(units ...Unit) {
	e.units = append(e.units, units...)
}

// Units returns the units serving purpose, sorted by ascending priority with
// registration order preserved on ties.
func (e *Engine) Units(purpose types.Purpose) []Unit {
	var out []Unit
	for _, u := range e.units {
		for _, p := range u.Purposes() {
			if p == purpose {
				out = append(out, u)
				break
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority() < out[j].Priority()
	})
	return out
}

// Run executes every unit of one stage sequentially against rec. A failing
// unit is recorded and the stage moves on; it never aborts the stage. Each
// update is merged before the next unit runs.
//
// Cancellation of ctx does not interrupt the stage: units run with a
// detached context and are bounded by their adapters' own timeouts.
func (e *Engine) Run(ctx context.Context, purpose types.Purpose, rec *evidence.Record, doc document.Document, events Recorder) StageReport {
	start := time.Now()
	report := StageReport{Purpose: purpose}
	log := e.log.With(zap.String("stage", string(purpose)))
	ctx = context.WithoutCancel(ctx)

	for _, u := range e.Units(purpose) {
		ulog := log.With(zap.String("component", u.Component()), zap.String("method", u.Method()))

		update, err := call(ctx, u, rec, doc)
		switch {
		case errors.Is(err, ErrSkipped):
			report.Skipped++
			ulog.Debug("resolver skipped", zap.String("reason", err.Error()))
			continue
		case err != nil:
			report.Ran++
			report.Failed++
			ulog.Warn("resolver failed", zap.Error(err))
			events.Failure(u.Component(), u.Method(), err)
			continue
		}
		report.Ran++
		if !isLocal(u) {
			events.Success(u.Component(), u.Method())
		}

		for _, note := range update.Notes() {
			ulog.Debug("resolver ignored candidate", zap.String("reason", note))
			events.Ignored(u.Component(), u.Method(), note)
		}
		if update.IsEmpty() {
			ulog.Debug("resolver had no opinion")
			continue
		}
		rec.Merge(update)
		report.Merged++
		ulog.Debug("merged update", zap.Strings("keys", update.Keys()))
	}

	report.Duration = time.Since(start)
	log.Info("stage complete",
		zap.Int("ran", report.Ran),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Int("merged", report.Merged),
		zap.Duration("duration", report.Duration),
	)
	return report
}

// RunAll executes identify, expand and dereference in order.
func (e *Engine) RunAll(ctx context.Context, rec *evidence.Record, doc document.Document, events Recorder) []StageReport {
	reports := make([]StageReport, 0, len(types.Stages))
	for _, p := range types.Stages {
		reports = append(reports, e.Run(ctx, p, rec, doc, events))
	}
	return reports
}

// call invokes one unit, converting a panic into an error.
func call(ctx context.Context, u Unit, rec *evidence.Record, doc document.Document) (update *evidence.Update, err error) {
	defer func() {
		if r := recover(); r != nil {
			update, err = nil, fmt.Errorf("%s %s panicked: %v", u.Component(), u.Method(), r)
		}
	}()
	return u.Resolve(ctx, rec, doc)
}
