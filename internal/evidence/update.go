// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evidence

import (
	"sort"
	"strings"

	"github.com/pdiddy/paper-resolver/pkg/types"
)

type op struct {
	key     string
	value   string
	list    []string
	link    *types.Link
	retract bool
	weight  int
}

// Update is the sparse set of changes one resolver unit returns. Omitting a
// key means "no opinion"; Retract means "drop what is currently held".
// Empty values are never recorded.
type Update struct {
	Whence string
	Weight int

	ops   []op
	notes []string
}

// NewUpdate returns an empty update carrying the given provenance.
func NewUpdate(whence string, weight int) *Update {
	return &Update{Whence: whence, Weight: weight}
}

// Set records a scalar value.
func (u *Update) Set(key, value string) *Update {
	value = strings.TrimSpace(value)
	if value == "" {
		return u
	}
	u.ops = append(u.ops, op{key: key, value: value})
	return u
}

// SetWeighted records a scalar value at weight instead of the update's own.
func (u *Update) SetWeighted(key, value string, weight int) *Update {
	value = strings.TrimSpace(value)
	if value == "" {
		return u
	}
	u.ops = append(u.ops, op{key: key, value: value, weight: weight})
	return u
}

// SetList records a multi-valued entry. Blank items are dropped.
func (u *Update) SetList(key string, values []string) *Update {
	var list []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			list = append(list, v)
		}
	}
	if len(list) == 0 {
		return u
	}
	u.ops = append(u.ops, op{key: key, list: list})
	return u
}

// SetBlob records an unparsed response under a raw_ key without trimming.
func (u *Update) SetBlob(name, blob string) *Update {
	if blob == "" {
		return u
	}
	u.ops = append(u.ops, op{key: RawPrefix + name, value: blob})
	return u
}

// SetIdentifier records an identifier of the given kind.
func (u *Update) SetIdentifier(kind, value string) *Update {
	return u.Set(IdentifierKey(kind), value)
}

// AddLink records a link.
func (u *Update) AddLink(l types.Link) *Update {
	if strings.TrimSpace(l.URL) == "" {
		return u
	}
	link := l
	u.ops = append(u.ops, op{key: KeyLinks, link: &link})
	return u
}

// Retract asks for every value currently held for key to be dropped.
func (u *Update) Retract(key string) *Update {
	u.ops = append(u.ops, op{key: key, retract: true})
	return u
}

// SetWork records every populated bibliographic field of w.
func (u *Update) SetWork(w *types.Work) *Update {
	if w == nil {
		return u
	}
	u.Set(KeyTitle, w.Title)
	u.SetList(KeyAuthors, w.Authors)
	u.Set(KeyJournal, w.Journal)
	u.Set(KeyPublisher, w.Publisher)
	u.Set(KeyISSN, w.ISSN)
	u.Set(KeyVolume, w.Volume)
	u.Set(KeyIssue, w.Issue)
	u.Set(KeyPages, w.Pages)
	u.Set(KeyYear, w.Year)
	u.Set(KeyAbstract, w.Abstract)
	for _, kind := range sortedKinds(w.Identifiers) {
		u.SetIdentifier(kind, w.Identifiers[kind])
	}
	for _, l := range w.Links {
		u.AddLink(l)
	}
	return u
}

// Ignore notes an expected negative result, such as a search hit that did
// not match the document.
func (u *Update) Ignore(message string) *Update {
	u.notes = append(u.notes, message)
	return u
}

// Notes returns the ignore notes recorded on u.
func (u *Update) Notes() []string {
	if u == nil {
		return nil
	}
	return u.notes
}

// Len returns the number of recorded operations.
func (u *Update) Len() int {
	if u == nil {
		return 0
	}
	return len(u.ops)
}

// IsEmpty reports whether u changes nothing.
func (u *Update) IsEmpty() bool {
	return u.Len() == 0
}

// Keys returns the keys touched by u in operation order.
func (u *Update) Keys() []string {
	if u == nil {
		return nil
	}
	keys := make([]string, len(u.ops))
	for i, o := range u.ops {
		keys[i] = o.key
	}
	return keys
}

func sortedKinds(ids map[string]string) []string {
	kinds := make([]string, 0, len(ids))
	for k := range ids {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
