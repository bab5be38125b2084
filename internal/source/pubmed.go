// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"

	"github.com/pdiddy/paper-resolver/internal/ident"
	"github.com/pdiddy/paper-resolver/pkg/types"
)

// eutilsBase is the NCBI E-utilities root. Declared as a var so tests can
// substitute an httptest server.
var eutilsBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// EUtils holds the parameters NCBI asks every E-utilities caller to send.
type EUtils struct {
	BaseURL string
	APIKey  string
	Email   string
	Tool    string
}

func (e EUtils) url(endpoint string, q url.Values) string {
	if e.APIKey != "" {
		q.Set("api_key", e.APIKey)
	}
	if e.Email != "" {
		q.Set("email", e.Email)
	}
	q.Set("tool", orDefault(e.Tool, "paper-resolver"))
	return orDefault(e.BaseURL, eutilsBase) + "/" + endpoint + "?" + q.Encode()
}

// PubMedAdapter reads PubMed through E-utilities.
type PubMedAdapter struct {
	Client *Client
	EUtils EUtils
}

// NewPubMedAdapter returns an adapter using c.
func NewPubMedAdapter(c *Client, e EUtils) *PubMedAdapter {
	return &PubMedAdapter{Client: c, EUtils: e}
}

// Identify returns the PMID indexed under doi, or "" when there is not
// exactly one.
func (a *PubMedAdapter) Identify(ctx context.Context, doi string) (string, error) {
	ids, err := a.esearch(ctx, "identify", doi+"[doi]", 2)
	if err != nil || len(ids) != 1 {
		return "", err
	}
	return ids[0], nil
}

// Search returns the single PubMed record whose title matches title, or
// nil when the search is empty or ambiguous.
func (a *PubMedAdapter) Search(ctx context.Context, title string) (*types.Candidate, error) {
	ids, err := a.esearch(ctx, "search", title+"[Title]", 2)
	if err != nil || len(ids) != 1 {
		return nil, err
	}
	pmid := ids[0]

	body, err := a.Client.Get(ctx, "search", a.EUtils.url("esummary.fcgi", url.Values{
		"db": {"pubmed"}, "id": {pmid}, "retmode": {"json"},
	}), "application/json")
	if err != nil {
		return nil, err
	}
	var sum esummaryResponse
	if err := json.Unmarshal(body, &sum); err != nil {
		return nil, invalid(a.Client.Name(), "search", err)
	}
	doc, ok := sum.Result[pmid]
	if !ok {
		return nil, nil
	}
	var rec esummaryRecord
	if err := json.Unmarshal(doc, &rec); err != nil {
		return nil, invalid(a.Client.Name(), "search", err)
	}

	c := &types.Candidate{
		Title:       strings.Trim(collapse(rec.Title), " ."),
		Identifiers: map[string]string{types.IDPubMed: pmid},
	}
	for _, id := range rec.ArticleIDs {
		switch id.IDType {
		case "doi":
			c.Identifiers[types.IDDOI] = ident.NormalizeDOI(id.Value)
		case "pmc":
			c.Identifiers[types.IDPMC] = ident.NormalizePMCID(id.Value)
		}
	}
	return c, nil
}

// Resolve fetches the MEDLINE record for pmid. The raw NLM XML is kept on
// the returned work.
func (a *PubMedAdapter) Resolve(ctx context.Context, pmid string) (*types.Work, error) {
	body, err := a.Client.Get(ctx, "fetch", a.EUtils.url("efetch.fcgi", url.Values{
		"db": {"pubmed"}, "id": {pmid}, "retmode": {"xml"},
	}), "application/xml")
	if err != nil {
		return nil, err
	}

	var set pubmedArticleSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, invalid(a.Client.Name(), "fetch", err)
	}
	if len(set.Articles) == 0 {
		return nil, fmt.Errorf("pubmed fetch %s: %w", pmid, ErrNotFound)
	}
	art := set.Articles[0]
	cit := art.Citation.Article

	w := &types.Work{
		Title:       strings.TrimSpace(stripTags(cit.Title.Inner)),
		Journal:     collapse(cit.Journal.Title),
		ISSN:        strings.TrimSpace(cit.Journal.ISSN),
		Volume:      strings.TrimSpace(cit.Journal.Issue.Volume),
		Issue:       strings.TrimSpace(cit.Journal.Issue.Issue),
		Year:        strings.TrimSpace(cit.Journal.Issue.PubDate.Year),
		Pages:       strings.TrimSpace(cit.Pagination),
		Identifiers: map[string]string{types.IDPubMed: orDefault(strings.TrimSpace(art.Citation.PMID), pmid)},
		Raw:         string(body),
	}
	var abstract []string
	for _, p := range cit.Abstract {
		if text := stripTags(p.Inner); text != "" {
			if p.Label != "" {
				text = p.Label + ": " + text
			}
			abstract = append(abstract, text)
		}
	}
	w.Abstract = strings.Join(abstract, "\n\n")
	for _, au := range cit.Authors {
		switch {
		case au.LastName != "":
			w.Authors = append(w.Authors, strings.Trim(au.LastName+", "+au.ForeName, ", "))
		case au.Collective != "":
			w.Authors = append(w.Authors, collapse(au.Collective))
		}
	}
	for _, id := range art.Data.ArticleIDs {
		v := strings.TrimSpace(id.Value)
		switch id.IDType {
		case "doi":
			w.Identifiers[types.IDDOI] = ident.NormalizeDOI(v)
		case "pmc":
			w.Identifiers[types.IDPMC] = ident.NormalizePMCID(v)
		case "pii":
			w.Identifiers[types.IDPII] = v
		}
	}
	return w, nil
}

func (a *PubMedAdapter) esearch(ctx context.Context, op, term string, retmax int) ([]string, error) {
	body, err := a.Client.Get(ctx, op, a.EUtils.url("esearch.fcgi", url.Values{
		"db": {"pubmed"}, "term": {term}, "retmax": {fmt.Sprint(retmax)}, "retmode": {"json"},
	}), "application/json")
	if err != nil {
		return nil, err
	}
	var resp esearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, invalid(a.Client.Name(), op, err)
	}
	return resp.Result.IDList, nil
}

type esearchResponse struct {
	Result struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

type esummaryResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

type esummaryRecord struct {
	Title      string `json:"title"`
	ArticleIDs []struct {
		IDType string `json:"idtype"`
		Value  string `json:"value"`
	} `json:"articleids"`
}

// MEDLINE XML structures.
type pubmedArticleSet struct {
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	Citation struct {
		PMID    string `xml:"PMID"`
		Article struct {
			Title   innerXML `xml:"ArticleTitle"`
			Journal struct {
				Title string `xml:"Title"`
				ISSN  string `xml:"ISSN"`
				Issue struct {
					Volume  string `xml:"Volume"`
					Issue   string `xml:"Issue"`
					PubDate struct {
						Year string `xml:"Year"`
					} `xml:"PubDate"`
				} `xml:"JournalIssue"`
			} `xml:"Journal"`
			Pagination string         `xml:"Pagination>MedlinePgn"`
			Abstract   []abstractText `xml:"Abstract>AbstractText"`
			Authors    []pubmedAuthor `xml:"AuthorList>Author"`
		} `xml:"Article"`
	} `xml:"MedlineCitation"`
	Data struct {
		ArticleIDs []articleID `xml:"ArticleIdList>ArticleId"`
	} `xml:"PubmedData"`
}

type innerXML struct {
	Inner string `xml:",innerxml"`
}

type abstractText struct {
	Label string `xml:"Label,attr"`
	Inner string `xml:",innerxml"`
}

type pubmedAuthor struct {
	LastName   string `xml:"LastName"`
	ForeName   string `xml:"ForeName"`
	Collective string `xml:"CollectiveName"`
}

type articleID struct {
	IDType string `xml:"IdType,attr"`
	Value  string `xml:",chardata"`
}
