// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolvers

import (
	"context"
	"errors"
	"fmt"

	"github.com/pdiddy/paper-resolver/internal/document"
	"github.com/pdiddy/paper-resolver/internal/evidence"
	"github.com/pdiddy/paper-resolver/internal/ident"
	"github.com/pdiddy/paper-resolver/internal/source"
	"github.com/pdiddy/paper-resolver/pkg/types"
)

// doiLink points at the publisher through doi.org.
type doiLink struct {
	meta
	offline
}

func newDOILink() *doiLink {
	return &doiLink{meta{ComponentDOI, "link", types.PurposeDereference, 10}, offline{}}
}

func (u *doiLink) Resolve(_ context.Context, rec *evidence.Record, _ document.Document) (*evidence.Update, error) {
	doi := rec.Identifier(types.IDDOI)
	if doi == "" || !rec.Confirmed(types.IDDOI) {
		return nil, skip("no confirmed DOI")
	}
	link := ident.DOIURL(doi)
	return evidence.NewUpdate(types.WhenceDOI, weightDOI).
		Set(evidence.KeyURL, link).
		AddLink(types.Link{URL: link, Mime: "text/html", Type: types.LinkArticle, Title: "Publisher's web page"}), nil
}

// pubmedLink adds the PubMed abstract page.
type pubmedLink struct {
	meta
	offline
}

func newPubMedLink() *pubmedLink {
	return &pubmedLink{meta{ComponentPubMed, "link", types.PurposeDereference, 11}, offline{}}
}

func (u *pubmedLink) Resolve(_ context.Context, rec *evidence.Record, _ document.Document) (*evidence.Update, error) {
	pmid := rec.Identifier(types.IDPubMed)
	if pmid == "" {
		return nil, skip("no PMID")
	}
	return evidence.NewUpdate(types.WhencePubMed, weightPubMedLink).
		AddLink(types.Link{URL: ident.PubMedURL(pmid), Mime: "text/html", Type: types.LinkAbstract, Title: "Show in PubMed"}), nil
}

// arxivLink adds the arXiv abstract page and PDF.
type arxivLink struct {
	meta
	offline
}

func newArxivLink() *arxivLink {
	return &arxivLink{meta{ComponentArxiv, "link", types.PurposeDereference, 12}, offline{}}
}

func (u *arxivLink) Resolve(_ context.Context, rec *evidence.Record, _ document.Document) (*evidence.Update, error) {
	id := rec.Identifier(types.IDArxiv)
	if id == "" {
		return nil, skip("no arXiv ID")
	}
	return evidence.NewUpdate(types.WhenceArxiv, weightArxivLink).
		AddLink(types.Link{URL: ident.ArxivAbsURL(id), Mime: "text/html", Type: types.LinkAbstract, Title: "Show in arXiv"}).
		AddLink(types.Link{URL: ident.ArxivPDFURL(id), Mime: types.MimePDF, Type: types.LinkArticle, Title: "Download PDF from arXiv"}), nil
}

// openAlexPDF adds the best open-access PDF location.
type openAlexPDF struct {
	meta
	src OpenAlexSource
}

func newOpenAlexPDF(src OpenAlexSource) *openAlexPDF {
	return &openAlexPDF{meta{ComponentOpenAlex, "resolve", types.PurposeDereference, 20}, src}
}

func (u *openAlexPDF) Resolve(ctx context.Context, rec *evidence.Record, _ document.Document) (*evidence.Update, error) {
	doi := rec.Identifier(types.IDDOI)
	if doi == "" || !rec.Confirmed(types.IDDOI) {
		return nil, skip("no confirmed DOI")
	}
	link, err := u.src.OpenAccessPDF(ctx, doi)
	if err != nil || link == nil {
		return nil, err
	}
	return evidence.NewUpdate(types.WhenceOpenAlex, weightOpenAlex).AddLink(*link), nil
}

// publisherInspect follows the article URL to the publisher's landing page
// and picks up the advertised PDF.
type publisherInspect struct {
	meta
	src PublisherSource
}

func newPublisherInspect(src PublisherSource) *publisherInspect {
	return &publisherInspect{meta{ComponentPublisher, "resolve", types.PurposeDereference, 100}, src}
}

func (u *publisherInspect) Resolve(ctx context.Context, rec *evidence.Record, _ document.Document) (*evidence.Update, error) {
	pageURL, ok := rec.Get(evidence.KeyURL)
	if !ok {
		return nil, skip("no article URL")
	}
	up := evidence.NewUpdate(types.WhencePublisher, weightPublisher)
	lp, err := u.src.Inspect(ctx, pageURL)
	switch {
	case errors.Is(err, source.ErrDisallowed):
		return up.Ignore(fmt.Sprintf("robots.txt disallows %s", pageURL)), nil
	case source.IsNotFound(err):
		return up.Ignore(fmt.Sprintf("%s was not found", pageURL)), nil
	case err != nil:
		return nil, err
	}

	up.Set(evidence.KeyRedirectedURL, lp.URL)
	if lp.PDFURL != "" {
		up.AddLink(types.Link{URL: lp.PDFURL, Mime: types.MimePDF, Type: types.LinkArticle, Title: "Download PDF from publisher"})
	}
	if lp.DOI != "" && lp.DOI != rec.Identifier(types.IDDOI) {
		up.Ignore(fmt.Sprintf("landing page reports DOI %s", lp.DOI))
	}
	return up, nil
}

// pmcLink adds the PubMed Central article page and PDF.
type pmcLink struct {
	meta
	offline
}

func newPMCLink() *pmcLink {
	return &pmcLink{meta{ComponentPMC, "link", types.PurposeDereference, 102}, offline{}}
}

func (u *pmcLink) Resolve(_ context.Context, rec *evidence.Record, _ document.Document) (*evidence.Update, error) {
	pmcid := rec.Identifier(types.IDPMC)
	if pmcid == "" {
		return nil, skip("no PMCID")
	}
	return evidence.NewUpdate(types.WhencePMC, weightPMCLink).
		AddLink(types.Link{URL: ident.PMCArticleURL(pmcid), Mime: "text/html", Type: types.LinkArticle, Title: "Show in PubMed Central"}).
		AddLink(types.Link{URL: ident.PMCPDFURL(pmcid), Mime: types.MimePDF, Type: types.LinkArticle, Title: "Download PDF from PubMed Central"}), nil
}
