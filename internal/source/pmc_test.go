// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-resolver/pkg/types"
)

func TestPMCIdentify(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "doi", r.URL.Query().Get("idtype"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		w.Write([]byte(`{"status":"ok","records":[{"pmcid":"PMC4221854","pmid":"23903748","doi":"10.1038/nature12373"}]}`))
	}))
	defer ts.Close()
	old := pmcIDConvBase
	pmcIDConvBase = ts.URL
	defer func() { pmcIDConvBase = old }()

	ids, err := NewPMCAdapter(testClient(t), "", EUtils{}).Identify(context.Background(), "10.1038/nature12373", "doi")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		types.IDPMC:    "PMC4221854",
		types.IDPubMed: "23903748",
		types.IDDOI:    "10.1038/nature12373",
	}, ids)
}

func TestPMCIdentify_Unknown(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status":"ok","records":[{"pmid":"1","status":"error","errmsg":"invalid article id"}]}`))
	}))
	defer ts.Close()

	ids, err := NewPMCAdapter(testClient(t), ts.URL, EUtils{}).Identify(context.Background(), "1", "pmid")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

const jats = `<pmc-articleset><article>
<front><article-meta>
<article-id pub-id-type="pmid">23903748</article-id>
<article-id pub-id-type="doi">10.1038/nature12373</article-id>
<title-group><article-title>Nanometre-scale thermometry in a <italic>living</italic> cell</article-title></title-group>
<volume>500</volume><issue>7460</issue>
</article-meta></front></article></pmc-articleset>`

func TestPMCFetch(t *testing.T) {
	withEUtilsServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pmc", r.URL.Query().Get("db"))
		assert.Equal(t, "4221854", r.URL.Query().Get("id"))
		w.Write([]byte(jats))
	})

	work, err := NewPMCAdapter(testClient(t), "", EUtils{}).Fetch(context.Background(), "PMC4221854")
	require.NoError(t, err)
	assert.Equal(t, "Nanometre-scale thermometry in a living cell", work.Title)
	assert.Equal(t, "500", work.Volume)
	assert.Equal(t, "PMC4221854", work.Identifiers[types.IDPMC])
	assert.Equal(t, "23903748", work.Identifiers[types.IDPubMed])
	assert.Equal(t, "10.1038/nature12373", work.Identifiers[types.IDDOI])
	assert.Equal(t, jats, work.Raw)
}

func TestPMCFetch_Empty(t *testing.T) {
	withEUtilsServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<pmc-articleset></pmc-articleset>`))
	})

	_, err := NewPMCAdapter(testClient(t), "", EUtils{}).Fetch(context.Background(), "PMC1")
	assert.ErrorIs(t, err, ErrNotFound)
}
