// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reconcile decides whether a title returned by a registry search
// names the document being resolved.
//
// A candidate is accepted on a precise match (normalised strings equal) or
// on a contextual match (the candidate, with dashes loosened, occurs in the
// document text). A contextual match reports the document's own wording.
package reconcile

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/paper-resolver/internal/document"
)

// Kind says how a candidate was accepted.
type Kind int

const (
	NoMatch Kind = iota
	Precise
	Contextual
)

func (k Kind) String() string {
	switch k {
	case Precise:
		return "precise"
	case Contextual:
		return "contextual"
	default:
		return "none"
	}
}

// Result is the outcome of reconciling one candidate title.
type Result struct {
	Kind Kind

	// Title is the title to record: the candidate on a precise match, the
	// literal document text on a contextual match.
	Title string
}

// Accepted reports whether the candidate was accepted.
func (r Result) Accepted() bool {
	return r.Kind != NoMatch
}

// dashes lists the code points treated as interchangeable hyphens.
const dashes = "\u002D\u007E\u00AD\u058A\u05BE\u1400\u1806\u2010\u2011\u2012\u2013\u2014\u2015" +
	"\u2053\u207B\u208B\u2212\u2E17\u2E3A\u2E3B\u301C\u3030\u30A0\uFE31\uFE32\uFE58\uFE63\uFF0D"

// dashClass is a character class matching any dash.
var dashClass = func() string {
	var b strings.Builder
	b.WriteString(`[\p{Pd}`)
	for _, r := range dashes {
		fmt.Fprintf(&b, `\x{%X}`, r)
	}
	b.WriteString(`]`)
	return b.String()
}()

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

// Normalize collapses every run of non-word characters to one space, trims,
// and case-folds.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = nonWord.ReplaceAllString(s, " ")
	return cases.Fold().String(strings.TrimSpace(s))
}

// clean trims whitespace and a trailing full stop.
func clean(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ".")
	return strings.TrimSpace(s)
}

// Title reconciles candidate against the title already held and, failing
// that, the document text. doc may be nil, in which case only a precise
// match can succeed. A candidate with no letters or digits never matches.
func Title(candidate, held string, doc document.Document) Result {
	candidate = clean(candidate)
	n := Normalize(candidate)
	if n == "" {
		return Result{}
	}

	if held = clean(held); held != "" {
		if n == Normalize(held) {
			return Result{Kind: Precise, Title: candidate}
		}
	}

	if doc == nil {
		return Result{}
	}
	if text, ok := findInDocument(candidate, doc); ok {
		return Result{Kind: Contextual, Title: text}
	}
	return Result{}
}

// Pattern builds the case-insensitive, dash-tolerant search pattern for a
// candidate title. Whitespace runs match any whitespace; dash runs match
// any run of dash code points.
func Pattern(candidate string) string {
	var parts []string
	var word []rune
	flush := func() {
		if len(word) > 0 {
			parts = append(parts, regexp.QuoteMeta(string(word)))
			word = word[:0]
		}
	}

	inDash, inSpace := false, false
	for _, r := range candidate {
		switch {
		case isDash(r):
			flush()
			if !inDash {
				parts = append(parts, dashClass+`+`)
			}
			inDash, inSpace = true, false
		case unicode.IsSpace(r):
			flush()
			if !inSpace {
				parts = append(parts, `\s+`)
			}
			inDash, inSpace = false, true
		default:
			word = append(word, r)
			inDash, inSpace = false, false
		}
	}
	flush()
	return "(?i)" + strings.Join(parts, "")
}

func isDash(r rune) bool {
	return strings.ContainsRune(dashes, r) || unicode.Is(unicode.Pd, r)
}

func findInDocument(candidate string, doc document.Document) (string, bool) {
	matches, err := doc.SearchText(Pattern(candidate), true)
	if err == nil && len(matches) > 0 {
		return matches[0].Text, true
	}
	if matches := doc.FindInContext("", candidate, ""); len(matches) > 0 {
		return matches[0].Text, true
	}
	return "", false
}
