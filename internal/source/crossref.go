// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/paper-resolver/internal/ident"
	"github.com/pdiddy/paper-resolver/pkg/types"
)

// crossrefAPIBase is the CrossRef works endpoint. Declared as a var so
// tests can substitute an httptest server.
var crossrefAPIBase = "https://api.crossref.org/works"

// dominance is how far the best search hit must out-score the runner-up
// to be treated as the only plausible match.
const dominance = 2.0

// CrossRefAdapter reads the CrossRef REST API.
type CrossRefAdapter struct {
	Client  *Client
	BaseURL string

	// Mailto opts into CrossRef's polite pool.
	Mailto string
}

// NewCrossRefAdapter returns an adapter using c.
func NewCrossRefAdapter(c *Client, baseURL, mailto string) *CrossRefAdapter {
	return &CrossRefAdapter{Client: c, BaseURL: baseURL, Mailto: mailto}
}

// Search returns the single work CrossRef associates with title. It
// returns nil when nothing came back or the result is ambiguous.
func (a *CrossRefAdapter) Search(ctx context.Context, title string) (*types.Candidate, error) {
	q := url.Values{"query.bibliographic": {title}, "rows": {"2"}}
	if a.Mailto != "" {
		q.Set("mailto", a.Mailto)
	}
	body, err := a.Client.Get(ctx, "search", orDefault(a.BaseURL, crossrefAPIBase)+"?"+q.Encode(), "application/json")
	if err != nil {
		return nil, err
	}

	var resp crossrefListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, invalid(a.Client.Name(), "search", err)
	}
	items := resp.Message.Items
	switch {
	case len(items) == 0:
		return nil, nil
	case len(items) > 1 && items[0].Score < dominance*items[1].Score:
		return nil, nil
	}
	top := items[0]
	if len(top.Title) == 0 || top.DOI == "" {
		return nil, nil
	}
	return &types.Candidate{
		Title:       collapse(top.Title[0]),
		Identifiers: map[string]string{types.IDDOI: ident.NormalizeDOI(top.DOI)},
	}, nil
}

// Resolve returns the bibliographic record for doi.
func (a *CrossRefAdapter) Resolve(ctx context.Context, doi string) (*types.Work, error) {
	u := orDefault(a.BaseURL, crossrefAPIBase) + "/" + escapeDOI(doi)
	if a.Mailto != "" {
		u += "?" + url.Values{"mailto": {a.Mailto}}.Encode()
	}
	body, err := a.Client.Get(ctx, "resolve", u, "application/json")
	if err != nil {
		return nil, err
	}

	var resp crossrefWorkResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, invalid(a.Client.Name(), "resolve", err)
	}
	m := resp.Message

	w := &types.Work{
		Publisher:   m.Publisher,
		Volume:      m.Volume,
		Issue:       m.Issue,
		Pages:       m.Page,
		Abstract:    stripTags(m.Abstract),
		Identifiers: map[string]string{types.IDDOI: ident.NormalizeDOI(orDefault(m.DOI, doi))},
		Raw:         string(body),
	}
	if len(m.Title) > 0 {
		w.Title = collapse(m.Title[0])
	}
	if len(m.ContainerTitle) > 0 {
		w.Journal = collapse(m.ContainerTitle[0])
	}
	w.ISSN = pickISSN(m.ISSNType, m.ISSN)
	if y := m.Issued.year(); y != 0 {
		w.Year = strconv.Itoa(y)
	}
	for _, au := range m.Author {
		name := strings.Trim(au.Family+", "+au.Given, ", ")
		if name == "" {
			name = au.Name
		}
		if name != "" {
			w.Authors = append(w.Authors, name)
		}
	}
	for _, l := range m.Link {
		if l.ContentType == types.MimePDF {
			w.Links = append(w.Links, types.Link{URL: l.URL, Mime: types.MimePDF, Type: types.LinkArticle, Title: "Download PDF from publisher"})
		}
	}
	if w.Title == "" {
		return nil, fmt.Errorf("crossref resolve %s: %w", doi, ErrNotFound)
	}
	return w, nil
}

// escapeDOI path-escapes a DOI but keeps its slash readable.
func escapeDOI(doi string) string {
	return strings.ReplaceAll(url.PathEscape(doi), "%2F", "/")
}

// pickISSN prefers the electronic ISSN and formats bare 8-digit values.
func pickISSN(typed []crossrefISSN, plain []string) string {
	issn := ""
	for _, t := range typed {
		if t.Type == "electronic" {
			issn = t.Value
			break
		}
	}
	if issn == "" && len(plain) > 0 {
		issn = plain[0]
	}
	if len(issn) == 8 {
		issn = issn[:4] + "-" + issn[4:]
	}
	return issn
}

// stripTags drops inline markup (JATS, MathML) and unescapes entities.
func stripTags(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>' && depth > 0:
			depth--
			b.WriteRune(' ')
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return collapse(html.UnescapeString(b.String()))
}

type crossrefListResponse struct {
	Message struct {
		Items []crossrefItem `json:"items"`
	} `json:"message"`
}

type crossrefWorkResponse struct {
	Message crossrefItem `json:"message"`
}

type crossrefItem struct {
	DOI            string           `json:"DOI"`
	Title          []string         `json:"title"`
	ContainerTitle []string         `json:"container-title"`
	Publisher      string           `json:"publisher"`
	Volume         string           `json:"volume"`
	Issue          string           `json:"issue"`
	Page           string           `json:"page"`
	Abstract       string           `json:"abstract"`
	ISSN           []string         `json:"ISSN"`
	ISSNType       []crossrefISSN   `json:"issn-type"`
	Author         []crossrefAuthor `json:"author"`
	Issued         crossrefDate     `json:"issued"`
	Link           []crossrefLink   `json:"link"`
	Score          float64          `json:"score"`
}

type crossrefISSN struct {
	Value string `json:"value"`
	Type  string `json:"type"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	Name   string `json:"name"`
}

type crossrefDate struct {
	DateParts [][]int `json:"date-parts"`
}

func (d crossrefDate) year() int {
	if len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 {
		return 0
	}
	return d.DateParts[0][0]
}

type crossrefLink struct {
	URL         string `json:"URL"`
	ContentType string `json:"content-type"`
}
