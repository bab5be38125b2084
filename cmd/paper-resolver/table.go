// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/pdiddy/paper-resolver/internal/outcome"
	"github.com/pdiddy/paper-resolver/internal/store"
	"github.com/pdiddy/paper-resolver/pkg/types"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// maxCell truncates long values so tables stay readable in a terminal.
const maxCell = 90

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range headers {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:           i + 1,
			Align:            align,
			AlignHeader:      text.AlignLeft,
			WidthMax:         maxCell,
			WidthMaxEnforcer: text.WrapSoft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// metadataRows flattens a final record into field/value rows: identifiers
// first, then scalar fields, list fields and links.
func metadataRows(md types.Metadata) [][]string {
	var rows [][]string
	for _, k := range sortedKeys(md.Identifiers) {
		rows = append(rows, []string{"identifiers." + k, md.Identifiers[k]})
	}
	for _, k := range sortedKeys(md.Fields) {
		rows = append(rows, []string{k, md.Fields[k]})
	}
	lists := make([]string, 0, len(md.Lists))
	for k := range md.Lists {
		lists = append(lists, k)
	}
	sort.Strings(lists)
	for _, k := range lists {
		rows = append(rows, []string{k, strings.Join(md.Lists[k], "; ")})
	}
	for _, l := range md.Links {
		label := "link"
		if l.Type != "" {
			label += " (" + l.Type + ")"
		}
		value := l.URL
		if l.Title != "" {
			value = l.Title + ": " + l.URL
		}
		rows = append(rows, []string{label, value})
	}
	return rows
}

func sessionRows(infos []store.SessionInfo) [][]string {
	rows := make([][]string, 0, len(infos))
	for _, s := range infos {
		rows = append(rows, []string{
			s.ID,
			s.Started.Local().Format(time.DateTime),
			s.Document,
			s.Title,
			s.DOI,
			verdictLabel(s.Verdict, s.Failures),
		})
	}
	return rows
}

var sessionHeaders = []string{"Session", "Started", "Document", "Title", "DOI", "Outcome"}

func verdictLabel(verdict string, failures int) string {
	if failures == 0 {
		return "ok"
	}
	return fmt.Sprintf("%s (%d)", verdict, failures)
}

// summaryText renders the diagnostic summary as plain text.
func summaryText(s *outcome.Summary) string {
	if s == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(s.Message)
	b.WriteByte('\n')
	for _, it := range s.Items {
		msg := it.Message
		if msg == "" {
			msg = string(it.Category)
		}
		fmt.Fprintf(&b, "  - %s %s: %s", it.Component, it.Method, msg)
		if it.Count > 1 {
			fmt.Fprintf(&b, " (x%d)", it.Count)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
