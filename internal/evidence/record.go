// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evidence

import (
	"sort"
	"strings"

	"github.com/pdiddy/paper-resolver/pkg/types"
)

// Well-known metadata keys.
const (
	KeyTitle         = "title"
	KeyAuthors       = "authors[]"
	KeyJournal       = "publication-title"
	KeyPublisher     = "publisher"
	KeyISSN          = "publication-issn"
	KeyVolume        = "volume"
	KeyIssue         = "issue"
	KeyPages         = "pages"
	KeyYear          = "year"
	KeyAbstract      = "abstract"
	KeyURL           = "url"
	KeyRedirectedURL = "redirected_url"
	KeyLinks         = "links[]"
)

// RawPrefix marks keys holding unparsed registry responses.
const RawPrefix = "raw_"

const identifierPrefix = "identifiers["

// IdentifierKey returns the store key for an identifier kind.
func IdentifierKey(kind string) string {
	return identifierPrefix + kind + "]"
}

// IdentifierKind extracts the kind from an identifier key.
func IdentifierKind(key string) (string, bool) {
	if !strings.HasPrefix(key, identifierPrefix) || !strings.HasSuffix(key, "]") {
		return "", false
	}
	return key[len(identifierPrefix) : len(key)-1], true
}

// Record is the metadata record threaded through every resolver unit of
// one load cycle. Identifiers and links live in the same evidence store as
// every other key, so the same selection rules apply to them.
type Record struct {
	*Store
}

// NewRecord returns an empty record.
func NewRecord(opts ...StoreOption) *Record {
	return &Record{Store: NewStore(opts...)}
}

// Title returns the selected title, or "".
func (r *Record) Title() string {
	return r.GetOr(KeyTitle, "")
}

// Identifier returns the selected identifier of the given kind, or "".
func (r *Record) Identifier(kind string) string {
	return r.GetOr(IdentifierKey(kind), "")
}

// Identifiers returns the selected value of every identifier kind.
func (r *Record) Identifiers() map[string]string {
	out := make(map[string]string)
	for key, e := range r.Winners() {
		if kind, ok := IdentifierKind(key); ok {
			out[kind] = e.Value
		}
	}
	return out
}

// Confirmed reports whether the selected identifier of the given kind was
// vouched for by something other than the document scrapers.
func (r *Record) Confirmed(kind string) bool {
	e, ok := r.Lookup(IdentifierKey(kind))
	return ok && e.Whence != types.WhenceDocument
}

// Links returns the visible links, one per URL, PDFs first, then articles,
// abstracts and searches, then by weight.
func (r *Record) Links() []types.Link {
	seen := make(map[string]bool)
	var links []types.Link
	for _, e := range r.Ranked(KeyLinks) {
		if e.Link == nil || seen[e.Link.URL] {
			continue
		}
		seen[e.Link.URL] = true
		l := *e.Link
		l.Weight = e.Weight
		l.Whence = e.Whence
		links = append(links, l)
	}
	sort.SliceStable(links, func(i, j int) bool {
		a, b := links[i], links[j]
		aPDF, bPDF := a.Mime == types.MimePDF, b.Mime == types.MimePDF
		if aPDF != bPDF {
			return aPDF
		}
		if ra, rb := linkRank(a.Type), linkRank(b.Type); ra != rb {
			return ra > rb
		}
		return a.Weight > b.Weight
	})
	return links
}

func linkRank(t string) int {
	switch t {
	case types.LinkArticle:
		return 3
	case types.LinkAbstract:
		return 2
	case types.LinkSearch:
		return 1
	default:
		return 0
	}
}

// HasPDF reports whether any visible link is a PDF.
func (r *Record) HasPDF() bool {
	for _, l := range r.Links() {
		if l.Mime == types.MimePDF {
			return true
		}
	}
	return false
}

// Merge applies a partial update in the order its operations were added.
func (r *Record) Merge(u *Update) {
	if u == nil {
		return
	}
	for _, o := range u.ops {
		var opts []PutOption
		switch {
		case o.weight != 0:
			opts = append(opts, WithWeight(o.weight))
		case u.Weight != 0:
			opts = append(opts, WithWeight(u.Weight))
		}
		switch {
		case o.retract:
			r.Retract(o.key, u.Whence)
		case o.link != nil:
			r.PutLink(*o.link, u.Whence, opts...)
		case o.list != nil:
			r.PutList(o.key, o.list, u.Whence, opts...)
		default:
			r.Put(o.key, o.value, u.Whence, opts...)
		}
	}
}

// Snapshot returns the selected values. Raw registry blobs are left out.
func (r *Record) Snapshot() types.Metadata {
	m := types.Metadata{
		Fields:      make(map[string]string),
		Lists:       make(map[string][]string),
		Identifiers: make(map[string]string),
	}
	for key, e := range r.Winners() {
		switch {
		case key == KeyLinks, strings.HasPrefix(key, RawPrefix):
		case IsListKey(key):
			m.Lists[strings.TrimSuffix(key, ListSuffix)] = r.List(key)
		default:
			if kind, ok := IdentifierKind(key); ok {
				m.Identifiers[kind] = e.Value
				continue
			}
			m.Fields[key] = e.Value
		}
	}
	m.Links = r.Links()
	return m
}
