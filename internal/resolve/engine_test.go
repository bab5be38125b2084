// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/paper-resolver/internal/document"
	"github.com/pdiddy/paper-resolver/internal/evidence"
	"github.com/pdiddy/paper-resolver/internal/outcome"
	"github.com/pdiddy/paper-resolver/pkg/types"
)

// fakeUnit is a configurable resolver unit for engine tests.
type fakeUnit struct {
	component string
	method    string
	purposes  []types.Purpose
	priority  int
	fn        func(rec *evidence.Record) (*evidence.Update, error)
	calls     *[]string
}

func (f *fakeUnit) Component() string         { return f.component }
func (f *fakeUnit) Method() string            { return f.method }
func (f *fakeUnit) Purposes() []types.Purpose { return f.purposes }
func (f *fakeUnit) Priority() int             { return f.priority }

func (f *fakeUnit) Resolve(_ context.Context, rec *evidence.Record, _ document.Document) (*evidence.Update, error) {
	if f.calls != nil {
		*f.calls = append(*f.calls, f.component)
	}
	if f.fn == nil {
		return nil, nil
	}
	return f.fn(rec)
}

func unit(component string, priority int, calls *[]string, fn func(*evidence.Record) (*evidence.Update, error)) *fakeUnit {
	return &fakeUnit{
		component: component,
		method:    "resolve",
		purposes:  []types.Purpose{types.PurposeIdentify},
		priority:  priority,
		fn:        fn,
		calls:     calls,
	}
}

func countCategories(events []types.Event) map[types.Category]int {
	counts := map[types.Category]int{}
	for _, e := range events {
		counts[e.Category]++
	}
	return counts
}

func TestRun_FailingUnitDoesNotAbortStage(t *testing.T) {
	var calls []string
	e := NewEngine(zaptest.NewLogger(t))
	e.Register(
		unit("one", 1, &calls, nil),
		unit("two", 2, &calls, func(*evidence.Record) (*evidence.Update, error) {
			return nil, errors.New("registry exploded")
		}),
		unit("three", 3, &calls, nil),
	)

	log := outcome.NewLog()
	report := e.Run(context.Background(), types.PurposeIdentify, evidence.NewRecord(), nil, log)

	assert.Equal(t, []string{"one", "two", "three"}, calls)
	counts := countCategories(log.Events())
	assert.Equal(t, 2, counts[types.CategorySuccess])
	assert.Equal(t, 1, counts[types.CategoryUnknown])
	assert.Len(t, log.Events(), 3)
	assert.Equal(t, 3, report.Ran)
	assert.Equal(t, 1, report.Failed)
}

func TestRun_PanicIsRecordedAsFailure(t *testing.T) {
	var calls []string
	e := NewEngine(zaptest.NewLogger(t))
	e.Register(
		unit("boom", 1, &calls, func(*evidence.Record) (*evidence.Update, error) {
			panic("nil map")
		}),
		unit("after", 2, &calls, nil),
	)

	log := outcome.NewLog()
	e.Run(context.Background(), types.PurposeIdentify, evidence.NewRecord(), nil, log)

	events := log.Events()
	require.Len(t, events, 2)
	assert.Equal(t, types.CategoryUnknown, events[0].Category)
	assert.Contains(t, events[0].Message, "nil map")
	assert.Equal(t, types.CategorySuccess, events[1].Category)
}

func TestRun_LaterUnitsSeeEarlierUpdates(t *testing.T) {
	e := NewEngine(zaptest.NewLogger(t))
	var seen string
	e.Register(
		unit("consumer", 20, nil, func(rec *evidence.Record) (*evidence.Update, error) {
			seen = rec.Identifier(types.IDDOI)
			return nil, nil
		}),
		unit("producer", 10, nil, func(*evidence.Record) (*evidence.Update, error) {
			return evidence.NewUpdate(types.WhenceCrossRef, 20).SetIdentifier(types.IDDOI, "10.1/abc"), nil
		}),
	)

	rec := evidence.NewRecord()
	report := e.Run(context.Background(), types.PurposeIdentify, rec, nil, outcome.NewLog())

	assert.Equal(t, "10.1/abc", seen)
	assert.Equal(t, 1, report.Merged)
}

func TestRun_RetractDropsHeldValue(t *testing.T) {
	e := NewEngine(zaptest.NewLogger(t))
	e.Register(unit("retractor", 1, nil, func(*evidence.Record) (*evidence.Update, error) {
		return evidence.NewUpdate(types.WhencePublisher, 1).Retract(evidence.KeyURL), nil
	}))

	rec := evidence.NewRecord()
	rec.Put(evidence.KeyURL, "https://stale.example", types.WhenceDocument)
	e.Run(context.Background(), types.PurposeIdentify, rec, nil, outcome.NewLog())

	_, ok := rec.Get(evidence.KeyURL)
	assert.False(t, ok)
	assert.Equal(t, 1, rec.Len(evidence.KeyURL), "retraction keeps the entry")
}

func TestRun_NotesBecomeIgnoredEvents(t *testing.T) {
	e := NewEngine(zaptest.NewLogger(t))
	e.Register(unit("CrossRef", 1, nil, func(*evidence.Record) (*evidence.Update, error) {
		return evidence.NewUpdate(types.WhenceCrossRef, 20).Ignore("title mismatch"), nil
	}))

	rec := evidence.NewRecord()
	log := outcome.NewLog()
	report := e.Run(context.Background(), types.PurposeIdentify, rec, nil, log)

	events := log.Events()
	require.Len(t, events, 2)
	assert.Equal(t, types.CategorySuccess, events[0].Category)
	assert.Equal(t, types.Event{Component: "CrossRef", Method: "resolve", Category: types.CategoryIgnored, Message: "title mismatch"}, events[1])
	assert.Zero(t, report.Merged)
	assert.Zero(t, rec.Size())
	assert.Nil(t, outcome.Summarize(events), "ignored outcomes are not failures")
}

type localUnit struct{ *fakeUnit }

func (localUnit) Local() bool { return true }

func TestRun_SkippedAndLocalUnitsAreNotSuccesses(t *testing.T) {
	e := NewEngine(zaptest.NewLogger(t))
	e.Register(
		localUnit{unit("Document", 0, nil, func(*evidence.Record) (*evidence.Update, error) {
			return evidence.NewUpdate(types.WhenceDocument, 5).Set(evidence.KeyTitle, "Scraped"), nil
		})},
		unit("CrossRef", 1, nil, func(*evidence.Record) (*evidence.Update, error) {
			return nil, fmt.Errorf("%w: DOI already held", ErrSkipped)
		}),
		unit("PubMed", 2, nil, func(*evidence.Record) (*evidence.Update, error) {
			return nil, &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
		}),
	)

	rec := evidence.NewRecord()
	log := outcome.NewLog()
	report := e.Run(context.Background(), types.PurposeIdentify, rec, nil, log)

	assert.Equal(t, "Scraped", rec.GetOr(evidence.KeyTitle, ""), "local updates still merge")
	assert.Equal(t, 2, report.Ran)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.Failed)

	events := log.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "PubMed", events[0].Component)

	s := outcome.Summarize(events)
	require.NotNil(t, s)
	assert.Equal(t, outcome.VerdictNoConnectivity, s.Verdict)
}

func TestUnits_PriorityThenRegistrationOrder(t *testing.T) {
	e := NewEngine(nil)
	e.Register(
		unit("b", 5, nil, nil),
		unit("a", 1, nil, nil),
		unit("c", 5, nil, nil),
		&fakeUnit{component: "expand-only", purposes: []types.Purpose{types.PurposeExpand}},
		unit("d", 5, nil, nil),
	)

	var names []string
	for _, u := range e.Units(types.PurposeIdentify) {
		names = append(names, u.Component())
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, names)
	assert.Len(t, e.Units(types.PurposeDereference), 0)
}

func TestRunAll_StageIsolation(t *testing.T) {
	var calls []string
	e := NewEngine(zaptest.NewLogger(t))
	e.Register(&fakeUnit{
		component: "expander",
		method:    "fetch",
		purposes:  []types.Purpose{types.PurposeExpand},
		calls:     &calls,
		fn: func(*evidence.Record) (*evidence.Update, error) {
			return evidence.NewUpdate(types.WhenceCrossRef, 20).Set(evidence.KeyVolume, "500"), nil
		},
	})

	rec := evidence.NewRecord()
	rec.Put(evidence.KeyTitle, "Held", types.WhenceDocument)

	identify := e.Run(context.Background(), types.PurposeIdentify, rec, nil, outcome.NewLog())
	assert.Zero(t, identify.Ran)
	assert.Equal(t, 1, rec.Size(), "identify has no units and leaves the record unchanged")

	reports := e.RunAll(context.Background(), rec, nil, outcome.NewLog())
	require.Len(t, reports, 3)
	assert.Equal(t, types.PurposeIdentify, reports[0].Purpose)
	assert.Equal(t, 1, reports[1].Ran)
	assert.Zero(t, reports[2].Ran)
	assert.Equal(t, []string{"expander"}, calls)
	assert.Equal(t, "500", rec.GetOr(evidence.KeyVolume, ""))
}

func TestRun_CancelledContextDoesNotStopStage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var alive []bool
	e := NewEngine(zaptest.NewLogger(t))
	e.Register(&fakeUnit{component: "x", purposes: []types.Purpose{types.PurposeIdentify}})
	e.Register(ctxUnit{seen: &alive})

	e.Run(ctx, types.PurposeIdentify, evidence.NewRecord(), nil, outcome.NewLog())
	assert.Equal(t, []bool{true}, alive)
}

type ctxUnit struct{ seen *[]bool }

func (ctxUnit) Component() string         { return "ctx" }
func (ctxUnit) Method() string            { return "check" }
func (ctxUnit) Purposes() []types.Purpose { return []types.Purpose{types.PurposeIdentify} }
func (ctxUnit) Priority() int             { return 0 }

func (c ctxUnit) Resolve(ctx context.Context, _ *evidence.Record, _ document.Document) (*evidence.Update, error) {
	*c.seen = append(*c.seen, ctx.Err() == nil)
	return nil, nil
}
