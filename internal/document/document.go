// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package document provides the document capability the resolution
// pipeline consumes: full text, regex search, content fingerprints and
// per-scratch annotation lists.
package document

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/pdiddy/paper-resolver/pkg/types"
)

// Match is one hit of a text search.
type Match struct {
	// Text is the matched text exactly as it appears in the document.
	Text  string `json:"text" yaml:"text"`
	Start int    `json:"start" yaml:"start"`
	End   int    `json:"end" yaml:"end"`
}

// Document is a loaded document the resolvers can inspect and annotate.
type Document interface {
	// Fingerprints returns content hashes identifying the document.
	Fingerprints() []string

	// SearchText returns every match of pattern in the full text.
	SearchText(pattern string, caseInsensitive bool) ([]Match, error)

	// FindInContext returns occurrences of text surrounded by prefix and
	// suffix. Only the text part is reported.
	FindInContext(prefix, text, suffix string) []Match

	// FullText returns the extracted text of the whole document.
	FullText() string

	// AddAnnotation stores a in the named scratch list.
	AddAnnotation(a types.Annotation, scratch string)

	// Annotations returns the annotations stored in the named scratch list.
	Annotations(scratch string) []types.Annotation
}

// Text is an in-memory Document backed by extracted plain text.
type Text struct {
	name   string
	text   string
	prints []string

	mu          sync.Mutex
	annotations map[string][]types.Annotation
}

// NewText returns a document over the given text. Raw is the original file
// content used for fingerprinting; when nil the text itself is hashed.
func NewText(name, text string, raw []byte) *Text {
	if raw == nil {
		raw = []byte(text)
	}
	prints := []string{fingerprint(raw)}
	if normalized := fingerprint([]byte(strings.Join(strings.Fields(text), " "))); normalized != prints[0] {
		prints = append(prints, normalized)
	}
	return &Text{
		name:        name,
		text:        text,
		prints:      prints,
		annotations: make(map[string][]types.Annotation),
	}
}

func fingerprint(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Name returns the name the document was loaded under.
func (d *Text) Name() string { return d.name }

// Fingerprints returns the raw-content hash followed by the hash of the
// whitespace-normalised text when it differs.
func (d *Text) Fingerprints() []string {
	out := make([]string, len(d.prints))
	copy(out, d.prints)
	return out
}

// FullText returns the document text.
func (d *Text) FullText() string { return d.text }

// SearchText compiles pattern and returns all non-overlapping matches.
func (d *Text) SearchText(pattern string, caseInsensitive bool) ([]Match, error) {
	if caseInsensitive && !strings.HasPrefix(pattern, "(?i)") {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling search pattern: %w", err)
	}
	var out []Match
	for _, loc := range re.FindAllStringIndex(d.text, -1) {
		out = append(out, Match{Text: d.text[loc[0]:loc[1]], Start: loc[0], End: loc[1]})
	}
	return out, nil
}

// FindInContext matches literally, ignoring case.
func (d *Text) FindInContext(prefix, text, suffix string) []Match {
	if text == "" {
		return nil
	}
	pattern := "(?i)" + regexp.QuoteMeta(prefix) + "(" + regexp.QuoteMeta(text) + ")" + regexp.QuoteMeta(suffix)
	re := regexp.MustCompile(pattern)
	var out []Match
	for _, loc := range re.FindAllStringSubmatchIndex(d.text, -1) {
		out = append(out, Match{Text: d.text[loc[2]:loc[3]], Start: loc[2], End: loc[3]})
	}
	return out
}

// AddAnnotation appends a to the scratch list.
func (d *Text) AddAnnotation(a types.Annotation, scratch string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.annotations[scratch] = append(d.annotations[scratch], a)
}

// Annotations returns a copy of the scratch list.
func (d *Text) Annotations(scratch string) []types.Annotation {
	d.mu.Lock()
	defer d.mu.Unlock()
	list := d.annotations[scratch]
	out := make([]types.Annotation, len(list))
	copy(out, list)
	return out
}
