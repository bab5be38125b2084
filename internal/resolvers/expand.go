// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolvers

import (
	"context"
	"sort"

	"github.com/pdiddy/paper-resolver/internal/document"
	"github.com/pdiddy/paper-resolver/internal/evidence"
	"github.com/pdiddy/paper-resolver/internal/source"
	"github.com/pdiddy/paper-resolver/pkg/types"
)

// crossrefFetch fills bibliographic fields for a confirmed DOI.
type crossrefFetch struct {
	meta
	src CrossRefSource
}

func newCrossRefFetch(src CrossRefSource) *crossrefFetch {
	return &crossrefFetch{meta{ComponentCrossRef, "fetch", types.PurposeExpand, 10}, src}
}

func (u *crossrefFetch) Resolve(ctx context.Context, rec *evidence.Record, _ document.Document) (*evidence.Update, error) {
	doi := rec.Identifier(types.IDDOI)
	if doi == "" || !rec.Confirmed(types.IDDOI) {
		return nil, skip("no confirmed DOI")
	}
	work, err := u.src.Resolve(ctx, doi)
	if source.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	up := evidence.NewUpdate(types.WhenceCrossRef, weightCrossRef).SetWork(work)
	up.SetBlob("crossref_json", work.Raw)
	return up, nil
}

// pubmedFetch fills bibliographic fields and keeps the raw NLM citation.
type pubmedFetch struct {
	meta
	src PubMedSource
}

func newPubMedFetch(src PubMedSource) *pubmedFetch {
	return &pubmedFetch{meta{ComponentPubMed, "fetch", types.PurposeExpand, 20}, src}
}

func (u *pubmedFetch) Resolve(ctx context.Context, rec *evidence.Record, _ document.Document) (*evidence.Update, error) {
	pmid := rec.Identifier(types.IDPubMed)
	if pmid == "" {
		return nil, skip("no PMID")
	}
	work, err := u.src.Resolve(ctx, pmid)
	if source.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	up := evidence.NewUpdate(types.WhencePubMed, weightPubMed).SetWork(work)
	up.SetBlob("pubmed_nlm", work.Raw)
	return up, nil
}

// pmcFetch keeps the raw PubMed Central article metadata.
type pmcFetch struct {
	meta
	src PMCSource
}

func newPMCFetch(src PMCSource) *pmcFetch {
	return &pmcFetch{meta{ComponentPMC, "fetch", types.PurposeExpand, 30}, src}
}

func (u *pmcFetch) Resolve(ctx context.Context, rec *evidence.Record, _ document.Document) (*evidence.Update, error) {
	pmcid := rec.Identifier(types.IDPMC)
	if pmcid == "" {
		return nil, skip("no PMCID")
	}
	work, err := u.src.Fetch(ctx, pmcid)
	if source.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	up := evidence.NewUpdate(types.WhencePMC, weightPMC).SetWork(work)
	up.SetBlob("pmc_nlm", work.Raw)
	return up, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
