// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolvers

import (
	"context"
	"fmt"

	"github.com/pdiddy/paper-resolver/internal/document"
	"github.com/pdiddy/paper-resolver/internal/evidence"
	"github.com/pdiddy/paper-resolver/internal/reconcile"
	"github.com/pdiddy/paper-resolver/internal/source"
	"github.com/pdiddy/paper-resolver/pkg/types"
)

// scrape reads DOI, arXiv ID and title candidates off the document text.
type scrape struct {
	meta
	offline
}

func newScrape() *scrape {
	return &scrape{meta{ComponentDocument, "scrape", types.PurposeIdentify, 0}, offline{}}
}

func (u *scrape) Resolve(_ context.Context, _ *evidence.Record, doc document.Document) (*evidence.Update, error) {
	if doc == nil {
		return nil, skip("no document")
	}
	up := evidence.NewUpdate(types.WhenceDocument, weightDocument)
	up.SetIdentifier(types.IDDOI, document.ScrapeDOI(doc))
	up.SetIdentifier(types.IDArxiv, document.ScrapeArxivID(doc))
	up.Set(evidence.KeyTitle, document.ScrapeTitle(doc))
	return up, nil
}

// arxivResolve looks up an arXiv identifier. arXiv IDs stamped on a preprint
// are reliable, so the record is accepted without reconciliation.
type arxivResolve struct {
	meta
	src ArxivSource
}

func newArxivResolve(src ArxivSource) *arxivResolve {
	return &arxivResolve{meta{ComponentArxiv, "resolve", types.PurposeIdentify, 10}, src}
}

func (u *arxivResolve) Resolve(ctx context.Context, rec *evidence.Record, _ document.Document) (*evidence.Update, error) {
	id := rec.Identifier(types.IDArxiv)
	if id == "" {
		return nil, skip("no arXiv ID")
	}
	work, err := u.src.Resolve(ctx, id)
	if source.IsNotFound(err) {
		return evidence.NewUpdate(types.WhenceArxiv, weightArxiv).Ignore(fmt.Sprintf("arXiv has no record of %s", id)), nil
	}
	if err != nil {
		return nil, err
	}
	up := evidence.NewUpdate(types.WhenceArxiv, weightArxiv).SetWork(work)
	up.SetBlob("arxiv_atom", work.Raw)
	return up, nil
}

// accept reconciles a search candidate against the record and document.
// An accepted candidate contributes its identifiers and the reconciled
// title; a rejected one is noted as ignored.
func accept(c *types.Candidate, rec *evidence.Record, doc document.Document, whence string, weight int) *evidence.Update {
	up := evidence.NewUpdate(whence, weight)
	res := reconcile.Title(c.Title, rec.Title(), doc)
	if !res.Accepted() {
		return up.Ignore(fmt.Sprintf("candidate %q does not match the document", c.Title))
	}
	up.SetWeighted(evidence.KeyTitle, res.Title, weightReconciled)
	for _, kind := range sortedKeys(c.Identifiers) {
		up.SetIdentifier(kind, c.Identifiers[kind])
	}
	return up
}

// crossrefSearch finds a DOI by title when the document carries none.
type crossrefSearch struct {
	meta
	src CrossRefSource
}

func newCrossRefSearch(src CrossRefSource) *crossrefSearch {
	return &crossrefSearch{meta{ComponentCrossRef, "search", types.PurposeIdentify, 20}, src}
}

func (u *crossrefSearch) Resolve(ctx context.Context, rec *evidence.Record, doc document.Document) (*evidence.Update, error) {
	title := rec.Title()
	if rec.Identifier(types.IDDOI) != "" || title == "" {
		return nil, skip("DOI already held or no title")
	}
	c, err := u.src.Search(ctx, title)
	if err != nil || c == nil {
		return nil, err
	}
	return accept(c, rec, doc, types.WhenceCrossRef, weightCrossRef), nil
}

// crossrefResolve confirms a DOI scraped from the document by checking that
// the registered title matches the document.
type crossrefResolve struct {
	meta
	src CrossRefSource
}

func newCrossRefResolve(src CrossRefSource) *crossrefResolve {
	return &crossrefResolve{meta{ComponentCrossRef, "resolve", types.PurposeIdentify, 30}, src}
}

func (u *crossrefResolve) Resolve(ctx context.Context, rec *evidence.Record, doc document.Document) (*evidence.Update, error) {
	doi := rec.Identifier(types.IDDOI)
	if doi == "" || rec.Confirmed(types.IDDOI) {
		return nil, skip("no unconfirmed DOI")
	}
	up := evidence.NewUpdate(types.WhenceCrossRef, weightCrossRef)
	work, err := u.src.Resolve(ctx, doi)
	if source.IsNotFound(err) {
		return up.Ignore(fmt.Sprintf("%s is not registered with CrossRef", doi)), nil
	}
	if err != nil {
		return nil, err
	}

	res := reconcile.Title(work.Title, rec.Title(), doc)
	if !res.Accepted() {
		return up.Ignore(fmt.Sprintf("title registered for %s does not match the document", doi)), nil
	}
	up.SetIdentifier(types.IDDOI, doi)
	up.SetWeighted(evidence.KeyTitle, res.Title, weightReconciled)
	return up, nil
}

// pubmedIdentify maps a confirmed DOI to a PMID.
type pubmedIdentify struct {
	meta
	src PubMedSource
}

func newPubMedIdentify(src PubMedSource) *pubmedIdentify {
	return &pubmedIdentify{meta{ComponentPubMed, "resolve", types.PurposeIdentify, 40}, src}
}

func (u *pubmedIdentify) Resolve(ctx context.Context, rec *evidence.Record, _ document.Document) (*evidence.Update, error) {
	doi := rec.Identifier(types.IDDOI)
	if doi == "" || !rec.Confirmed(types.IDDOI) || rec.Identifier(types.IDPubMed) != "" {
		return nil, skip("no confirmed DOI or PMID already held")
	}
	pmid, err := u.src.Identify(ctx, doi)
	if err != nil || pmid == "" {
		return nil, err
	}
	return evidence.NewUpdate(types.WhencePubMed, weightPubMed).SetIdentifier(types.IDPubMed, pmid), nil
}

// pubmedSearch finds a PMID by title when none is known yet.
type pubmedSearch struct {
	meta
	src PubMedSource
}

func newPubMedSearch(src PubMedSource) *pubmedSearch {
	return &pubmedSearch{meta{ComponentPubMed, "search", types.PurposeIdentify, 45}, src}
}

func (u *pubmedSearch) Resolve(ctx context.Context, rec *evidence.Record, doc document.Document) (*evidence.Update, error) {
	title := rec.Title()
	if rec.Identifier(types.IDPubMed) != "" || title == "" {
		return nil, skip("PMID already held or no title")
	}
	c, err := u.src.Search(ctx, title)
	if err != nil || c == nil {
		return nil, err
	}
	return accept(c, rec, doc, types.WhencePubMed, weightPubMed), nil
}

// pmcIdentify maps a confirmed DOI or a PMID to a PMCID.
type pmcIdentify struct {
	meta
	src PMCSource
}

func newPMCIdentify(src PMCSource) *pmcIdentify {
	return &pmcIdentify{meta{ComponentPMC, "resolve", types.PurposeIdentify, 50}, src}
}

func (u *pmcIdentify) Resolve(ctx context.Context, rec *evidence.Record, _ document.Document) (*evidence.Update, error) {
	if rec.Identifier(types.IDPMC) != "" {
		return nil, skip("PMCID already held")
	}
	var id, idtype string
	switch {
	case rec.Identifier(types.IDDOI) != "" && rec.Confirmed(types.IDDOI):
		id, idtype = rec.Identifier(types.IDDOI), "doi"
	case rec.Identifier(types.IDPubMed) != "":
		id, idtype = rec.Identifier(types.IDPubMed), "pmid"
	default:
		return nil, skip("no confirmed DOI or PMID")
	}

	ids, err := u.src.Identify(ctx, id, idtype)
	if err != nil {
		return nil, err
	}
	up := evidence.NewUpdate(types.WhencePMC, weightPMC)
	up.SetIdentifier(types.IDPMC, ids[types.IDPMC])
	if rec.Identifier(types.IDPubMed) == "" {
		up.SetIdentifier(types.IDPubMed, ids[types.IDPubMed])
	}
	return up, nil
}
