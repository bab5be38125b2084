// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package document

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Open loads a document from disk. PDFs have their text extracted page by
// page; anything else is read as UTF-8 text.
func Open(path string) (*Text, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".pdf") || bytes.HasPrefix(raw, []byte("%PDF-")) {
		text, err := ExtractPDFText(raw, 0)
		if err != nil {
			return nil, fmt.Errorf("extracting text from %s: %w", path, err)
		}
		return NewText(filepath.Base(path), text, raw), nil
	}
	return NewText(filepath.Base(path), string(raw), raw), nil
}

// ExtractPDFText returns the plain text of the first maxPages pages of a
// PDF (all pages when maxPages <= 0). Pages that fail to decode are skipped.
func ExtractPDFText(raw []byte, maxPages int) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", err
	}

	if maxPages <= 0 || maxPages > r.NumPage() {
		maxPages = r.NumPage()
	}

	var b strings.Builder
	for i := 1; i <= maxPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String(), nil
}
