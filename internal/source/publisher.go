// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/temoto/robotstxt"
	"golang.org/x/net/html"

	"github.com/pdiddy/paper-resolver/internal/ident"
	"github.com/pdiddy/paper-resolver/pkg/types"
)

// ErrDisallowed indicates robots.txt forbids fetching the page.
var ErrDisallowed = errors.New("disallowed by robots.txt")

// robotsTTL is how long a host's robots.txt is trusted.
var robotsTTL = 24 * time.Hour

// PublisherAdapter inspects publisher landing pages for Highwire-style
// citation_* meta tags.
type PublisherAdapter struct {
	Client *Client
	Agent  string

	robots *cache.Cache
}

// NewPublisherAdapter returns an adapter using c. Agent is the robots.txt
// user agent to test against.
func NewPublisherAdapter(c *Client, agent string) *PublisherAdapter {
	return &PublisherAdapter{
		Client: c,
		Agent:  orDefault(agent, "paper-resolver"),
		robots: cache.New(robotsTTL, time.Hour),
	}
}

// Inspect fetches pageURL, following redirects, and reports what the final
// page says about the article.
func (a *PublisherAdapter) Inspect(ctx context.Context, pageURL string) (*types.LandingPage, error) {
	allowed, err := a.allowed(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, fmt.Errorf("publisher %s: %w", pageURL, ErrDisallowed)
	}

	page, err := a.Client.Fetch(ctx, "resolve", pageURL, "text/html,application/xhtml+xml")
	if err != nil {
		return nil, err
	}

	lp := &types.LandingPage{URL: page.FinalURL}
	meta := citationMeta(page.Body)
	lp.Title = collapse(meta["citation_title"])
	if doi := ident.NormalizeDOI(orDefault(meta["citation_doi"], meta["dc.identifier"])); ident.ValidDOI(doi) {
		lp.DOI = doi
	}
	if pdf := meta["citation_pdf_url"]; pdf != "" {
		lp.PDFURL = resolveRef(page.FinalURL, pdf)
	}
	return lp, nil
}

// allowed consults the host's robots.txt. A missing or unreadable
// robots.txt allows everything.
func (a *PublisherAdapter) allowed(ctx context.Context, pageURL string) (bool, error) {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return false, fmt.Errorf("invalid URL %q", pageURL)
	}
	origin := u.Scheme + "://" + u.Host

	var robots *robotstxt.RobotsData
	if v, ok := a.robots.Get(origin); ok {
		robots = v.(*robotstxt.RobotsData)
	} else {
		body, err := a.Client.Get(ctx, "robots", origin+"/robots.txt", "text/plain")
		if err != nil {
			a.Client.log.Debug("robots.txt unavailable, allowing")
			return true, nil
		}
		robots, err = robotstxt.FromBytes(body)
		if err != nil {
			return true, nil
		}
		a.robots.Set(origin, robots, cache.DefaultExpiration)
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return robots.TestAgent(path, a.Agent), nil
}

// citationMeta collects <meta name=... content=...> pairs whose name starts
// with "citation_" or "dc.", lower-cased. The first occurrence of a name
// wins.
func citationMeta(body []byte) map[string]string {
	out := make(map[string]string)
	z := html.NewTokenizer(bytes.NewReader(body))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return out
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data == "body" {
				return out
			}
			if tok.Data != "meta" {
				continue
			}
			var name, content string
			for _, attr := range tok.Attr {
				switch strings.ToLower(attr.Key) {
				case "name", "property":
					name = strings.ToLower(strings.TrimSpace(attr.Val))
				case "content":
					content = strings.TrimSpace(attr.Val)
				}
			}
			if content == "" || !(strings.HasPrefix(name, "citation_") || strings.HasPrefix(name, "dc.")) {
				continue
			}
			if _, seen := out[name]; !seen {
				out[name] = content
			}
		}
	}
}

func resolveRef(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
