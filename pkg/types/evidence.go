// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paper-resolver
// pipeline: provenance-tagged evidence, registry results, session events,
// annotations, and configuration.
package types

import "time"

// WhenLayout is the fixed-width UTC ISO-8601 layout used to compare
// evidence timestamps. Fixed width keeps lexical and chronological order
// identical.
const WhenLayout = "2006-01-02T15:04:05.000000000Z"

// Well-known whence values.
const (
	WhenceDocument  = "document"
	WhenceUser      = "user"
	WhenceArxiv     = "arxiv"
	WhenceCrossRef  = "crossref"
	WhencePubMed    = "pubmed"
	WhencePMC       = "pmc"
	WhenceDOI       = "doi"
	WhenceOpenAlex  = "openalex"
	WhencePublisher = "publisher"
)

// Identifier kinds stored under identifiers[<kind>].
const (
	IDDOI    = "doi"
	IDPubMed = "pubmed"
	IDPMC    = "pmc"
	IDArxiv  = "arxiv"
	IDPII    = "pii"
	IDUtopia = "utopia"
)

// Evidence is one provenance-tagged observation of a value for a metadata
// key. Evidence is immutable once stored.
type Evidence struct {
	// Key is the metadata key, e.g. "title", "authors[]", "identifiers[doi]".
	Key string `json:"key" yaml:"key"`

	// Value is the scalar value (or blob contents) for single-valued keys.
	Value string `json:"value,omitempty" yaml:"value,omitempty"`

	// List holds the values of a naturally multi-valued key such as "authors[]".
	List []string `json:"list,omitempty" yaml:"list,omitempty"`

	// Link is set for entries under the "links[]" key.
	Link *Link `json:"link,omitempty" yaml:"link,omitempty"`

	// Whence identifies the source that supplied the value.
	Whence string `json:"whence" yaml:"whence"`

	// Weight ranks competing evidence for the same key; higher wins.
	Weight int `json:"weight" yaml:"weight"`

	// When is the time the evidence was recorded.
	When time.Time `json:"when" yaml:"when"`

	// Seq is the insertion sequence number within the owning store.
	Seq int `json:"seq" yaml:"seq"`
}

// WhenString returns When in the comparison layout.
func (e Evidence) WhenString() string {
	return e.When.UTC().Format(WhenLayout)
}

// Link describes a place where the full content or abstract of a document
// can be fetched.
type Link struct {
	URL   string `json:"url" yaml:"url"`
	Mime  string `json:"mime,omitempty" yaml:"mime,omitempty"`
	Type  string `json:"type,omitempty" yaml:"type,omitempty"`
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Weight and Whence mirror the provenance of the evidence entry holding
	// the link. They are filled in when links are read back from a record.
	Weight int    `json:"weight" yaml:"weight"`
	Whence string `json:"whence" yaml:"whence"`
}

// Link types, in ascending order of preference.
const (
	LinkSearch   = "search"
	LinkAbstract = "abstract"
	LinkArticle  = "article"
)

// MimePDF is the mime type of full-text PDF links.
const MimePDF = "application/pdf"

// Metadata is a read-only snapshot of a record's selected values.
type Metadata struct {
	Fields      map[string]string   `json:"fields" yaml:"fields"`
	Lists       map[string][]string `json:"lists,omitempty" yaml:"lists,omitempty"`
	Identifiers map[string]string   `json:"identifiers" yaml:"identifiers"`
	Links       []Link              `json:"links,omitempty" yaml:"links,omitempty"`
}
