// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Candidate is the result of a title search against a registry. It must be
// reconciled against the document before its identifiers are trusted.
type Candidate struct {
	// Title is the title as returned by the registry.
	Title string `json:"title" yaml:"title"`

	// Identifiers maps identifier kind (doi, pubmed, ...) to value.
	Identifiers map[string]string `json:"identifiers" yaml:"identifiers"`
}

// Work holds the bibliographic fields a registry returned for one identifier.
type Work struct {
	Title     string   `json:"title" yaml:"title"`
	Authors   []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Journal   string   `json:"journal,omitempty" yaml:"journal,omitempty"`
	Publisher string   `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	ISSN      string   `json:"issn,omitempty" yaml:"issn,omitempty"`
	Volume    string   `json:"volume,omitempty" yaml:"volume,omitempty"`
	Issue     string   `json:"issue,omitempty" yaml:"issue,omitempty"`
	Pages     string   `json:"pages,omitempty" yaml:"pages,omitempty"`
	Year      string   `json:"year,omitempty" yaml:"year,omitempty"`
	Abstract  string   `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Identifiers maps identifier kind to value.
	Identifiers map[string]string `json:"identifiers,omitempty" yaml:"identifiers,omitempty"`

	// Links lists full-text or abstract locations reported by the registry.
	Links []Link `json:"links,omitempty" yaml:"links,omitempty"`

	// Raw is the unparsed registry response, kept as a blob (e.g. NLM XML).
	Raw string `json:"-" yaml:"-"`
}

// LandingPage is what a publisher web page reveals about an article.
type LandingPage struct {
	// URL is the final URL after redirects.
	URL string `json:"url" yaml:"url"`

	// PDFURL is the citation_pdf_url meta value, if any.
	PDFURL string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`

	// Title is the citation_title meta value, if any.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// DOI is the citation_doi meta value, if any.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`
}
