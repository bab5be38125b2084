// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ident classifies and normalises scholarly identifiers and builds
// the canonical URLs they resolve to.
package ident

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Kind classifies an input identifier.
type Kind int

const (
	KindUnknown Kind = iota
	KindArxiv
	KindDOI
	KindPubMed
	KindPMC
	KindURL
)

func (k Kind) String() string {
	switch k {
	case KindArxiv:
		return "arxiv"
	case KindDOI:
		return "doi"
	case KindPubMed:
		return "pubmed"
	case KindPMC:
		return "pmc"
	case KindURL:
		return "url"
	default:
		return "unknown"
	}
}

// Canonical URL bases. Declared as vars so tests can substitute servers.
var (
	doiBase      = "https://doi.org/"
	arxivAbsBase = "https://arxiv.org/abs/"
	arxivPDFBase = "https://arxiv.org/pdf/"
	pubmedBase   = "https://pubmed.ncbi.nlm.nih.gov/"
	pmcBase      = "https://www.ncbi.nlm.nih.gov/pmc/articles/"
)

// arxivPattern matches new-style ("2301.07041", "arXiv:2301.07041v2") and
// old-style ("hep-th/9901001") arXiv IDs.
var arxivPattern = regexp.MustCompile(`^(?i:arxiv:)?(\d{4}\.\d{4,5}(?:v\d+)?|[a-z-]+(?:\.[A-Z]{2})?/\d{7}(?:v\d+)?)$`)

// doiPattern matches DOIs: "10.1145/1234567.1234568".
var doiPattern = regexp.MustCompile(`^10\.\d{4,9}/[^\s]+$`)

var (
	pmidPattern  = regexp.MustCompile(`^(?i:pmid:?\s*)?(\d{1,9})$`)
	pmcidPattern = regexp.MustCompile(`^(?i:pmc)(\d+)$`)
)

// DOIText finds DOIs in running text.
var DOIText = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

// ArxivText finds arXiv stamps such as "arXiv:1703.01234v2 [cs.LG]" in
// running text. Group 1 is the ID without version.
var ArxivText = regexp.MustCompile(`arXiv:([\w.-]+/\d{7}|\d{4}\.\d{4,})(v\d+)+`)

// Classify determines the identifier kind and returns the normalised form.
func Classify(identifier string) (Kind, string) {
	identifier = strings.TrimSpace(identifier)

	if m := arxivPattern.FindStringSubmatch(identifier); m != nil {
		return KindArxiv, m[1]
	}

	if doi := NormalizeDOI(identifier); doiPattern.MatchString(doi) {
		return KindDOI, doi
	}

	if m := pmcidPattern.FindStringSubmatch(identifier); m != nil {
		return KindPMC, "PMC" + m[1]
	}

	if m := pmidPattern.FindStringSubmatch(identifier); m != nil {
		return KindPubMed, m[1]
	}

	if u, err := url.Parse(identifier); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return KindURL, identifier
	}

	return KindUnknown, identifier
}

// NormalizeDOI strips resolver prefixes and trailing punctuation.
func NormalizeDOI(s string) string {
	s = strings.TrimSpace(s)
	for _, p := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "http://dx.doi.org/", "doi:", "DOI:", "DOI "} {
		if strings.HasPrefix(s, p) {
			s = strings.TrimSpace(s[len(p):])
			break
		}
	}
	return strings.TrimRight(s, ".,;:)")
}

// ValidDOI reports whether s looks like a complete DOI.
func ValidDOI(s string) bool {
	if len(s) < 10 || !strings.HasPrefix(s, "10.") {
		return false
	}
	slash := strings.Index(s, "/")
	return slash != -1 && slash < len(s)-1
}

// NormalizePMCID returns "PMC<digits>" for "PMC123" or "123".
func NormalizePMCID(s string) string {
	s = strings.TrimSpace(s)
	if m := pmcidPattern.FindStringSubmatch(s); m != nil {
		return "PMC" + m[1]
	}
	if m := pmidPattern.FindStringSubmatch(s); m != nil {
		return "PMC" + m[1]
	}
	return s
}

// StripArxivVersion drops a trailing "vN".
func StripArxivVersion(id string) string {
	if i := strings.LastIndex(id, "v"); i > 0 && i < len(id)-1 {
		if strings.Trim(id[i+1:], "0123456789") == "" {
			return id[:i]
		}
	}
	return id
}

// DOIURL returns the doi.org resolver URL for a DOI.
func DOIURL(doi string) string {
	return doiBase + doi
}

// ArxivAbsURL returns the arXiv abstract page.
func ArxivAbsURL(id string) string {
	return arxivAbsBase + id
}

// ArxivPDFURL returns the arXiv PDF endpoint.
func ArxivPDFURL(id string) string {
	return arxivPDFBase + id
}

// PubMedURL returns the PubMed abstract page for a PMID.
func PubMedURL(pmid string) string {
	return pubmedBase + pmid + "/"
}

// PMCArticleURL returns the PMC article page.
func PMCArticleURL(pmcid string) string {
	return pmcBase + NormalizePMCID(pmcid) + "/"
}

// PMCPDFURL returns the PMC PDF endpoint.
func PMCPDFURL(pmcid string) string {
	return pmcBase + NormalizePMCID(pmcid) + "/pdf/"
}

// Slug returns a filesystem-safe stem for the identifier.
func Slug(kind Kind, normalized string) string {
	switch kind {
	case KindArxiv, KindPubMed, KindPMC:
		return strings.ReplaceAll(normalized, "/", "-")
	case KindDOI:
		return strings.NewReplacer("/", "-", ":", "-").Replace(normalized)
	case KindURL:
		u, err := url.Parse(normalized)
		if err != nil || u.Host == "" {
			return "unknown"
		}
		return fmt.Sprintf("%s%s", u.Host, strings.ReplaceAll(strings.TrimSuffix(u.Path, "/"), "/", "-"))
	default:
		return "unknown"
	}
}
