// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package document

import (
	"strings"

	"github.com/pdiddy/paper-resolver/internal/ident"
)

// frontMatter bounds how much leading text the scrapers look at.
const frontMatter = 8000

func head(d Document) string {
	text := d.FullText()
	if len(text) > frontMatter {
		text = text[:frontMatter]
	}
	return text
}

// ScrapeDOI returns the first valid DOI on the front matter of d, or "".
func ScrapeDOI(d Document) string {
	for _, match := range ident.DOIText.FindAllString(head(d), -1) {
		if doi := ident.NormalizeDOI(match); ident.ValidDOI(doi) {
			return doi
		}
	}
	return ""
}

// ScrapeArxivID returns the versionless arXiv ID stamped on d, or "".
func ScrapeArxivID(d Document) string {
	if m := ident.ArxivText.FindStringSubmatch(head(d)); m != nil {
		return m[1]
	}
	return ""
}

// ScrapeTitle returns the first substantial line of d that does not look
// like a running header, or "".
func ScrapeTitle(d Document) string {
	for _, line := range strings.Split(head(d), "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if len(line) > 20 && len(line) < 300 && !isHeaderLine(line) {
			return line
		}
	}
	return ""
}

func isHeaderLine(line string) bool {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "journal"),
		strings.Contains(lower, "copyright"),
		strings.Contains(lower, "arxiv:"),
		strings.Contains(lower, "doi"),
		strings.Contains(lower, "http://"),
		strings.Contains(lower, "https://"):
		return true
	case strings.Contains(lower, "volume") && strings.Contains(lower, "issue"):
		return true
	case strings.Contains(lower, "article") && strings.Contains(lower, "published"):
		return true
	}
	return false
}
