// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/xml"
	"net/url"
	"strings"

	"github.com/pdiddy/paper-resolver/internal/ident"
	"github.com/pdiddy/paper-resolver/pkg/types"
)

// arxivAPIBase is the arXiv query endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// ArxivAdapter reads arXiv's Atom API.
type ArxivAdapter struct {
	Client  *Client
	BaseURL string
}

// NewArxivAdapter returns an adapter using c.
func NewArxivAdapter(c *Client, baseURL string) *ArxivAdapter {
	return &ArxivAdapter{Client: c, BaseURL: baseURL}
}

// Resolve looks up an arXiv ID. It returns ErrNotFound when arXiv has no
// entry for the ID.
func (a *ArxivAdapter) Resolve(ctx context.Context, id string) (*types.Work, error) {
	base := orDefault(a.BaseURL, arxivAPIBase)
	q := url.Values{"id_list": {id}, "start": {"0"}, "max_results": {"1"}}
	body, err := a.Client.Get(ctx, "resolve", base+"?"+q.Encode(), "application/atom+xml")
	if err != nil {
		return nil, err
	}

	var feed arxivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, invalid(a.Client.Name(), "resolve", err)
	}
	if len(feed.Entries) == 0 {
		return nil, ErrNotFound
	}
	entry := feed.Entries[0]
	if entry.Title == "Error" || extractArxivID(entry.ID) == "" {
		return nil, ErrNotFound
	}

	w := &types.Work{
		Title:       collapse(entry.Title),
		Abstract:    collapse(entry.Summary),
		Journal:     collapse(entry.JournalRef),
		Identifiers: map[string]string{types.IDArxiv: extractArxivID(entry.ID)},
		Raw:         string(body),
	}
	if len(entry.Published) >= 4 {
		w.Year = entry.Published[:4]
	}
	for _, au := range entry.Authors {
		if name := collapse(au.Name); name != "" {
			w.Authors = append(w.Authors, name)
		}
	}
	if doi := ident.NormalizeDOI(entry.DOI); ident.ValidDOI(doi) {
		w.Identifiers[types.IDDOI] = doi
	}
	for _, l := range entry.Links {
		switch {
		case l.Title == "pdf" || l.Type == types.MimePDF:
			w.Links = append(w.Links, types.Link{URL: l.Href, Mime: types.MimePDF, Type: types.LinkArticle, Title: "Download PDF from arXiv"})
		case l.Rel == "alternate":
			w.Links = append(w.Links, types.Link{URL: l.Href, Mime: "text/html", Type: types.LinkAbstract, Title: "Show on arXiv"})
		}
	}
	return w, nil
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID         string        `xml:"id"`
	Title      string        `xml:"title"`
	Summary    string        `xml:"summary"`
	Published  string        `xml:"published"`
	Authors    []arxivAuthor `xml:"author"`
	Links      []arxivLink   `xml:"link"`
	DOI        string        `xml:"http://arxiv.org/schemas/atom doi"`
	JournalRef string        `xml:"http://arxiv.org/schemas/atom journal_ref"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivLink struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Type  string `xml:"type,attr"`
	Title string `xml:"title,attr"`
}

// extractArxivID pulls the versionless arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" gives "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	return ident.StripArxivVersion(idURL[idx+len(prefix):])
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
