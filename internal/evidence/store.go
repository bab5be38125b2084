// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package evidence accumulates provenance-tagged metadata values and
// selects, per key, the value the rest of the pipeline should believe.
//
// Selection order for a key is weight descending, then timestamp
// descending (compared as fixed-width ISO-8601 strings), then insertion
// order ascending: among entries with equal weight and equal timestamp the
// first one inserted wins. Entries are never mutated or removed.
package evidence

import (
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/paper-resolver/pkg/types"
)

// ListSuffix marks a naturally multi-valued key such as "authors[]".
const ListSuffix = "[]"

// IsListKey reports whether key names a multi-valued field.
func IsListKey(key string) bool {
	return strings.HasSuffix(key, ListSuffix)
}

// Retraction hides every entry for Key inserted before it from selection.
type Retraction struct {
	Key    string    `json:"key" yaml:"key"`
	Whence string    `json:"whence" yaml:"whence"`
	When   time.Time `json:"when" yaml:"when"`
	Seq    int       `json:"seq" yaml:"seq"`
}

// Store is an append-only accumulator of Evidence. A Store belongs to one
// document session and is not safe for concurrent writers.
type Store struct {
	entries     []types.Evidence
	byKey       map[string][]int
	retractions []Retraction
	hiddenBelow map[string]int
	seq         int
	last        time.Time
	now         func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock replaces the wall clock used to timestamp entries.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore returns an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		byKey:       make(map[string][]int),
		hiddenBelow: make(map[string]int),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type putOptions struct {
	weight int
	when   time.Time
}

// PutOption adjusts the provenance of a single Put.
type PutOption func(*putOptions)

// WithWeight sets the evidence weight (default 1).
func WithWeight(w int) PutOption {
	return func(o *putOptions) {
		o.weight = w
	}
}

// WithWhen sets the evidence timestamp (default: the store clock).
func WithWhen(t time.Time) PutOption {
	return func(o *putOptions) {
		o.when = t
	}
}

// Put appends a scalar value for key.
func (s *Store) Put(key, value, whence string, opts ...PutOption) types.Evidence {
	return s.append(types.Evidence{Key: key, Value: value, Whence: whence}, opts)
}

// PutList appends a multi-valued entry for key.
func (s *Store) PutList(key string, values []string, whence string, opts ...PutOption) types.Evidence {
	list := make([]string, len(values))
	copy(list, values)
	return s.append(types.Evidence{Key: key, List: list, Whence: whence}, opts)
}

// PutLink appends a link entry under KeyLinks.
func (s *Store) PutLink(link types.Link, whence string, opts ...PutOption) types.Evidence {
	l := link
	l.Weight, l.Whence = 0, ""
	return s.append(types.Evidence{Key: KeyLinks, Value: link.URL, Link: &l, Whence: whence}, opts)
}

func (s *Store) append(e types.Evidence, opts []PutOption) types.Evidence {
	o := putOptions{weight: 1}
	for _, opt := range opts {
		opt(&o)
	}
	e.Weight = o.weight
	e.When = s.stamp(o.when)
	e.Seq = s.nextSeq()

	s.byKey[e.Key] = append(s.byKey[e.Key], len(s.entries))
	s.entries = append(s.entries, e)
	return e
}

// stamp returns the entry timestamp. Clock-supplied stamps are strictly
// increasing within a store so two default puts never tie.
func (s *Store) stamp(explicit time.Time) time.Time {
	if !explicit.IsZero() {
		t := explicit.UTC()
		if t.After(s.last) {
			s.last = t
		}
		return t
	}
	t := s.now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Nanosecond)
	}
	s.last = t
	return t
}

func (s *Store) nextSeq() int {
	s.seq++
	return s.seq
}

// Retract hides every value currently held for key. Later puts for the key
// are visible again. Nothing is deleted.
func (s *Store) Retract(key, whence string) {
	r := Retraction{Key: key, Whence: whence, When: s.stamp(time.Time{}), Seq: s.nextSeq()}
	s.retractions = append(s.retractions, r)
	s.hiddenBelow[key] = r.Seq
}

// Retractions returns every retraction in the order it was made.
func (s *Store) Retractions() []Retraction {
	out := make([]Retraction, len(s.retractions))
	copy(out, s.retractions)
	return out
}

// less orders two entries for selection.
func less(a, b types.Evidence) bool {
	if a.Weight != b.Weight {
		return a.Weight > b.Weight
	}
	aw, bw := a.WhenString(), b.WhenString()
	if aw != bw {
		return aw > bw
	}
	return a.Seq < b.Seq
}

// Ranked returns the visible entries for key in selection order.
func (s *Store) Ranked(key string) []types.Evidence {
	idx := s.byKey[key]
	cutoff := s.hiddenBelow[key]
	out := make([]types.Evidence, 0, len(idx))
	for _, i := range idx {
		if s.entries[i].Seq > cutoff {
			out = append(out, s.entries[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j])
	})
	return out
}

// Lookup returns the winning entry for key.
func (s *Store) Lookup(key string) (types.Evidence, bool) {
	ranked := s.Ranked(key)
	if len(ranked) == 0 {
		return types.Evidence{}, false
	}
	return ranked[0], true
}

// Get returns the winning value for key. List keys return their winning
// list joined with "; ".
func (s *Store) Get(key string) (string, bool) {
	e, ok := s.Lookup(key)
	if !ok {
		return "", false
	}
	if IsListKey(key) && e.Link == nil {
		return strings.Join(e.List, "; "), true
	}
	return e.Value, true
}

// GetOr returns the winning value for key, or def when no evidence exists.
func (s *Store) GetOr(key, def string) string {
	if v, ok := s.Get(key); ok {
		return v
	}
	return def
}

// List returns the winning list for a multi-valued key.
func (s *Store) List(key string) []string {
	e, ok := s.Lookup(key)
	if !ok {
		return nil
	}
	if len(e.List) == 0 && e.Value != "" {
		return []string{e.Value}
	}
	out := make([]string, len(e.List))
	copy(out, e.List)
	return out
}

// Values returns every visible value for key in selection order.
func (s *Store) Values(key string) []string {
	ranked := s.Ranked(key)
	out := make([]string, 0, len(ranked))
	for _, e := range ranked {
		if len(e.List) > 0 {
			out = append(out, strings.Join(e.List, "; "))
			continue
		}
		out = append(out, e.Value)
	}
	return out
}

// Winners returns the winning entry for every key that has visible evidence.
func (s *Store) Winners() map[string]types.Evidence {
	out := make(map[string]types.Evidence, len(s.byKey))
	for key := range s.byKey {
		if e, ok := s.Lookup(key); ok {
			out[key] = e
		}
	}
	return out
}

// Evidence returns every entry ever stored for key, hidden or not, in
// insertion order.
func (s *Store) Evidence(key string) []types.Evidence {
	idx := s.byKey[key]
	out := make([]types.Evidence, len(idx))
	for i, j := range idx {
		out[i] = s.entries[j]
	}
	return out
}

// Len returns the number of entries ever stored for key.
func (s *Store) Len(key string) int {
	return len(s.byKey[key])
}

// Size returns the total number of entries in the store.
func (s *Store) Size() int {
	return len(s.entries)
}

// Entries returns every entry in insertion order.
func (s *Store) Entries() []types.Evidence {
	out := make([]types.Evidence, len(s.entries))
	copy(out, s.entries)
	return out
}

// Keys returns every key with at least one entry, sorted.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.byKey))
	for k := range s.byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
