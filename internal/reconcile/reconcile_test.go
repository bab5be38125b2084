// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-resolver/internal/document"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Deep Learning for Genomics.", "deep learning for genomics"},
		{"  Deep--Learning:  for (Genomics) ", "deep learning for genomics"},
		{"STRASSE", "strasse"},
		{"ﬁnding", "finding"},
		{"...", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "Normalize(%q)", tt.in)
	}
}

func TestTitle_Precise(t *testing.T) {
	r := Title("Deep Learning for Genomics.", "deep learning for genomics", nil)
	assert.Equal(t, Precise, r.Kind)
	assert.True(t, r.Accepted())
	assert.Equal(t, "Deep Learning for Genomics", r.Title)
}

func TestTitle_ContextualDash(t *testing.T) {
	doc := document.NewText("paper.txt", "Front matter\nSingle-cell atlases of the mouse brain\nAbstract", nil)

	r := Title("Single—cell atlases of the mouse brain", "Front matter", doc)
	assert.Equal(t, Contextual, r.Kind)
	assert.Equal(t, "Single-cell atlases of the mouse brain", r.Title, "document wording wins")
}

func TestTitle_ContextualAcrossLineBreak(t *testing.T) {
	doc := document.NewText("paper.txt", "A survey of graph\nneural networks\n", nil)

	r := Title("A Survey of Graph Neural Networks", "", doc)
	require.Equal(t, Contextual, r.Kind)
	assert.Equal(t, "A survey of graph\nneural networks", r.Title)
}

func TestTitle_Rejected(t *testing.T) {
	doc := document.NewText("paper.txt", "Single-cell atlases of the mouse brain", nil)

	r := Title("Protein folding with transformers", "Single-cell atlases of the mouse brain", doc)
	assert.Equal(t, NoMatch, r.Kind)
	assert.False(t, r.Accepted())
	assert.Empty(t, r.Title)
}

func TestTitle_EmptyCandidate(t *testing.T) {
	doc := document.NewText("paper.txt", "anything", nil)
	assert.False(t, Title("", "", doc).Accepted())
	assert.False(t, Title(" . ", ".", doc).Accepted())
}

func TestTitle_PunctuationOnlyCandidate(t *testing.T) {
	doc := document.NewText("paper.txt", "Nanometre-scale thermometry in a living cell (2013)", nil)

	tests := []struct {
		name      string
		candidate string
	}{
		{"em dash", "—"},
		{"hyphen run", "--"},
		{"mixed punctuation", "( - )"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Title(tt.candidate, "Nanometre-scale thermometry in a living cell", doc)
			assert.False(t, r.Accepted())
			assert.Empty(t, r.Title)
		})
	}
}

func TestTitle_NilDocumentOnlyPrecise(t *testing.T) {
	assert.False(t, Title("Something else entirely", "A title", nil).Accepted())
	assert.True(t, Title("A Title.", "a title", nil).Accepted())
}

func TestPattern(t *testing.T) {
	p := Pattern("Long-range  (interactions)")
	re, err := regexp.Compile(p)
	require.NoError(t, err)

	assert.True(t, re.MatchString("long–range (Interactions)"))
	assert.True(t, re.MatchString("Long−−range\n(interactions)"))
	assert.False(t, re.MatchString("Long range (interactions)"))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "precise", Precise.String())
	assert.Equal(t, "contextual", Contextual.String())
	assert.Equal(t, "none", NoMatch.String())
}
