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

// pmcIDConvBase is the PMC ID converter endpoint. Declared as a var so
// tests can substitute an httptest server.
var pmcIDConvBase = "https://www.ncbi.nlm.nih.gov/pmc/utils/idconv/v1.0/"

// PMCAdapter maps identifiers onto PubMed Central and fetches full-text
// records.
type PMCAdapter struct {
	Client    *Client
	IDConvURL string
	EUtils    EUtils
}

// NewPMCAdapter returns an adapter using c.
func NewPMCAdapter(c *Client, idconvURL string, e EUtils) *PMCAdapter {
	return &PMCAdapter{Client: c, IDConvURL: idconvURL, EUtils: e}
}

// Identify converts a DOI or PMID (idtype "doi" or "pmid") into the
// identifiers PMC holds for it. The map is empty when PMC has no record.
func (a *PMCAdapter) Identify(ctx context.Context, id, idtype string) (map[string]string, error) {
	q := url.Values{"ids": {id}, "idtype": {idtype}, "format": {"json"}, "tool": {orDefault(a.EUtils.Tool, "paper-resolver")}}
	if a.EUtils.Email != "" {
		q.Set("email", a.EUtils.Email)
	}
	body, err := a.Client.Get(ctx, "resolve", orDefault(a.IDConvURL, pmcIDConvBase)+"?"+q.Encode(), "application/json")
	if err != nil {
		return nil, err
	}

	var resp idconvResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, invalid(a.Client.Name(), "resolve", err)
	}
	out := make(map[string]string)
	if len(resp.Records) == 0 || resp.Records[0].Status == "error" {
		return out, nil
	}
	rec := resp.Records[0]
	if rec.PMCID != "" {
		out[types.IDPMC] = ident.NormalizePMCID(rec.PMCID)
	}
	if rec.PMID != "" {
		out[types.IDPubMed] = rec.PMID
	}
	if rec.DOI != "" {
		out[types.IDDOI] = ident.NormalizeDOI(rec.DOI)
	}
	return out, nil
}

// Fetch returns the PMC full-text record for pmcid. The raw NLM XML is kept
// on the returned work.
func (a *PMCAdapter) Fetch(ctx context.Context, pmcid string) (*types.Work, error) {
	digits := strings.TrimPrefix(ident.NormalizePMCID(pmcid), "PMC")
	body, err := a.Client.Get(ctx, "fetch", a.EUtils.url("efetch.fcgi", url.Values{
		"db": {"pmc"}, "id": {digits}, "retmode": {"xml"},
	}), "application/xml")
	if err != nil {
		return nil, err
	}

	var set pmcArticleSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, invalid(a.Client.Name(), "fetch", err)
	}
	if len(set.Articles) == 0 {
		return nil, fmt.Errorf("pmc fetch %s: %w", pmcid, ErrNotFound)
	}
	meta := set.Articles[0].Meta

	w := &types.Work{
		Title:       strings.TrimSpace(stripTags(meta.Title.Inner)),
		Volume:      strings.TrimSpace(meta.Volume),
		Issue:       strings.TrimSpace(meta.Issue),
		Identifiers: map[string]string{types.IDPMC: "PMC" + digits},
		Raw:         string(body),
	}
	for _, id := range meta.IDs {
		v := strings.TrimSpace(id.Value)
		switch id.Type {
		case "doi":
			w.Identifiers[types.IDDOI] = ident.NormalizeDOI(v)
		case "pmid":
			w.Identifiers[types.IDPubMed] = v
		}
	}
	return w, nil
}

type idconvResponse struct {
	Status  string `json:"status"`
	Records []struct {
		PMCID  string `json:"pmcid"`
		PMID   string `json:"pmid"`
		DOI    string `json:"doi"`
		Status string `json:"status"`
	} `json:"records"`
}

// JATS XML structures.
type pmcArticleSet struct {
	Articles []struct {
		Meta struct {
			Title  innerXML `xml:"title-group>article-title"`
			Volume string   `xml:"volume"`
			Issue  string   `xml:"issue"`
			IDs    []struct {
				Type  string `xml:"pub-id-type,attr"`
				Value string `xml:",chardata"`
			} `xml:"article-id"`
		} `xml:"front>article-meta"`
	} `xml:"article"`
}
