// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolvers provides the concrete resolver units of the identify,
// expand and dereference stages and the default registration list.
package resolvers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-resolver/internal/resolve"
	"github.com/pdiddy/paper-resolver/internal/source"
	"github.com/pdiddy/paper-resolver/pkg/types"
)

// Component names reported in events.
const (
	ComponentDocument  = "Document"
	ComponentArxiv     = "ArXiv"
	ComponentCrossRef  = "CrossRef"
	ComponentPubMed    = "PubMed"
	ComponentPMC       = "PubMed Central"
	ComponentDOI       = "DOI"
	ComponentOpenAlex  = "OpenAlex"
	ComponentPublisher = "Publisher"
)

// Evidence weights per source.
const (
	weightDocument  = 5
	weightArxiv     = 10
	weightCrossRef  = 20
	weightPubMed    = 10
	weightPMC       = 10
	weightDOI       = 10
	weightOpenAlex  = 20
	weightPublisher = 100

	weightPubMedLink = 11
	weightArxivLink  = 12
	weightPMCLink    = 102

	// Titles that passed reconciliation outrank any registry's own title.
	weightReconciled = 30
)

// ArxivSource resolves arXiv identifiers.
type ArxivSource interface {
	Resolve(ctx context.Context, id string) (*types.Work, error)
}

// CrossRefSource searches and resolves DOIs.
type CrossRefSource interface {
	Search(ctx context.Context, title string) (*types.Candidate, error)
	Resolve(ctx context.Context, doi string) (*types.Work, error)
}

// PubMedSource maps DOIs and titles to PMIDs and fetches citations.
type PubMedSource interface {
	Identify(ctx context.Context, doi string) (string, error)
	Search(ctx context.Context, title string) (*types.Candidate, error)
	Resolve(ctx context.Context, pmid string) (*types.Work, error)
}

// PMCSource converts identifiers and fetches PubMed Central articles.
type PMCSource interface {
	Identify(ctx context.Context, id, idtype string) (map[string]string, error)
	Fetch(ctx context.Context, pmcid string) (*types.Work, error)
}

// OpenAlexSource finds open-access copies.
type OpenAlexSource interface {
	OpenAccessPDF(ctx context.Context, doi string) (*types.Link, error)
}

// PublisherSource inspects landing pages.
type PublisherSource interface {
	Inspect(ctx context.Context, pageURL string) (*types.LandingPage, error)
}

// Sources holds one adapter per registry. A nil field disables every unit
// backed by that registry.
type Sources struct {
	Arxiv     ArxivSource
	CrossRef  CrossRefSource
	PubMed    PubMedSource
	PMC       PMCSource
	OpenAlex  OpenAlexSource
	Publisher PublisherSource
}

// NewSources builds the HTTP adapters for every enabled registry.
func NewSources(cfg types.ResolverConfig, log *zap.Logger) Sources {
	var s Sources
	client := func(name string, sc types.SourceConfig) *source.Client {
		return source.NewClientFromConfig(name, cfg.HTTPConfig, sc, log)
	}
	eutils := source.EUtils{APIKey: cfg.NCBIAPIKey, Email: cfg.Email}

	if cfg.Arxiv.Enabled {
		s.Arxiv = source.NewArxivAdapter(client(ComponentArxiv, cfg.Arxiv), cfg.Arxiv.BaseURL)
	}
	if cfg.CrossRef.Enabled {
		s.CrossRef = source.NewCrossRefAdapter(client(ComponentCrossRef, cfg.CrossRef), cfg.CrossRef.BaseURL, cfg.Email)
	}
	if cfg.PubMed.Enabled {
		e := eutils
		e.BaseURL = cfg.PubMed.BaseURL
		s.PubMed = source.NewPubMedAdapter(client(ComponentPubMed, cfg.PubMed), e)
	}
	if cfg.PMC.Enabled {
		s.PMC = source.NewPMCAdapter(client(ComponentPMC, cfg.PMC), cfg.PMC.BaseURL, eutils)
	}
	if cfg.OpenAlex.Enabled {
		s.OpenAlex = source.NewOpenAlexAdapter(client(ComponentOpenAlex, cfg.OpenAlex), cfg.OpenAlex.BaseURL, cfg.Email)
	}
	if cfg.Publisher.Enabled {
		s.Publisher = source.NewPublisherAdapter(client(ComponentPublisher, cfg.Publisher), cfg.UserAgent)
	}
	return s
}

// Units returns the resolver units backed by s, in registration order.
// The document scraper and the link builders that need no network are
// always included.
func Units(s Sources) []resolve.Unit {
	units := []resolve.Unit{
		newScrape(),
		newDOILink(),
		newPubMedLink(),
		newArxivLink(),
		newPMCLink(),
	}
	if s.Arxiv != nil {
		units = append(units, newArxivResolve(s.Arxiv))
	}
	if s.CrossRef != nil {
		units = append(units,
			newCrossRefSearch(s.CrossRef),
			newCrossRefResolve(s.CrossRef),
			newCrossRefFetch(s.CrossRef),
		)
	}
	if s.PubMed != nil {
		units = append(units,
			newPubMedIdentify(s.PubMed),
			newPubMedSearch(s.PubMed),
			newPubMedFetch(s.PubMed),
		)
	}
	if s.PMC != nil {
		units = append(units,
			newPMCIdentify(s.PMC),
			newPMCFetch(s.PMC),
		)
	}
	if s.OpenAlex != nil {
		units = append(units, newOpenAlexPDF(s.OpenAlex))
	}
	if s.Publisher != nil {
		units = append(units, newPublisherInspect(s.Publisher))
	}
	return units
}

// Register adds the default units to e and logs what was registered.
func Register(e *resolve.Engine, s Sources, log *zap.Logger) {
	units := Units(s)
	e.Register(units...)
	if log != nil {
		for _, u := range units {
			log.Debug("registered resolver",
				zap.String("component", u.Component()),
				zap.String("method", u.Method()),
				zap.Int("priority", u.Priority()),
			)
		}
	}
}

// meta carries the identity every unit reports.
type meta struct {
	component string
	method    string
	purpose   types.Purpose
	priority  int
}

func (m meta) Component() string         { return m.component }
func (m meta) Method() string            { return m.method }
func (m meta) Purposes() []types.Purpose { return []types.Purpose{m.purpose} }
func (m meta) Priority() int             { return m.priority }

// offline marks units that build evidence without calling a service.
type offline struct{}

func (offline) Local() bool { return true }

// skip reports an unmet precondition; the engine records no outcome for it.
func skip(reason string) error {
	return fmt.Errorf("%w: %s", resolve.ErrSkipped, reason)
}
