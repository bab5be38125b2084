// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/pdiddy/paper-resolver/pkg/types"
)

// openAlexAPIBase is the OpenAlex works endpoint. Declared as a var so tests
// can substitute an httptest server.
var openAlexAPIBase = "https://api.openalex.org/works/"

// OpenAlexAdapter finds open-access copies through OpenAlex.
type OpenAlexAdapter struct {
	Client  *Client
	BaseURL string
	Email   string
}

// NewOpenAlexAdapter returns an adapter using c.
func NewOpenAlexAdapter(c *Client, baseURL, email string) *OpenAlexAdapter {
	return &OpenAlexAdapter{Client: c, BaseURL: baseURL, Email: email}
}

// openAlexResponse captures the fields we need from an OpenAlex work record.
type openAlexResponse struct {
	Title          string            `json:"title"`
	BestOALocation *openAlexLocation `json:"best_oa_location"`
}

// openAlexLocation represents an open-access location in the OpenAlex response.
type openAlexLocation struct {
	PDFURL     string `json:"pdf_url"`
	LandingURL string `json:"landing_page_url"`
}

// OpenAccessPDF returns a PDF link for the best open-access copy of doi,
// or nil when OpenAlex knows of none.
func (a *OpenAlexAdapter) OpenAccessPDF(ctx context.Context, doi string) (*types.Link, error) {
	apiURL := orDefault(a.BaseURL, openAlexAPIBase) + "https://doi.org/" + doi
	if a.Email != "" {
		apiURL += "?" + url.Values{"mailto": {a.Email}}.Encode()
	}
	body, err := a.Client.Get(ctx, "resolve", apiURL, "application/json")
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	var oa openAlexResponse
	if err := json.Unmarshal(body, &oa); err != nil {
		return nil, invalid(a.Client.Name(), "resolve", err)
	}
	if oa.BestOALocation == nil || oa.BestOALocation.PDFURL == "" {
		return nil, nil
	}
	return &types.Link{
		URL:   oa.BestOALocation.PDFURL,
		Mime:  types.MimePDF,
		Type:  types.LinkArticle,
		Title: "Download open-access PDF",
	}, nil
}
