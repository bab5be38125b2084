// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-resolver/internal/document"
	"github.com/pdiddy/paper-resolver/internal/ident"
	"github.com/pdiddy/paper-resolver/internal/resolve"
	"github.com/pdiddy/paper-resolver/internal/resolvers"
	"github.com/pdiddy/paper-resolver/internal/session"
	"github.com/pdiddy/paper-resolver/pkg/types"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve FILE",
	Short: "Identify a document and resolve its metadata",
	Long: `Resolve loads a PDF or plain-text document, scrapes identifying hints from
its text, and runs the identify, expand and dereference stages against the
enabled registries. The final record is printed together with a summary of any
services that failed. The session is stored unless --no-store is given.

Seed flags add known identifiers before resolution starts; they outrank
values scraped from the document but not values confirmed by a registry.`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().String("doi", "", "seed the DOI")
	resolveCmd.Flags().String("pmid", "", "seed the PubMed ID")
	resolveCmd.Flags().String("arxiv", "", "seed the arXiv ID")
	resolveCmd.Flags().String("title", "", "seed the title")
	resolveCmd.Flags().Bool("json", false, "output the result as JSON")
	resolveCmd.Flags().Bool("yaml", false, "output the result as YAML")
	resolveCmd.Flags().Bool("no-store", false, "do not persist the session")
	resolveCmd.MarkFlagsMutuallyExclusive("json", "yaml")

	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	doc, err := document.Open(args[0])
	if err != nil {
		return err
	}

	engine := resolve.NewEngine(log)
	resolvers.Register(engine, resolvers.NewSources(cfg.Resolver, log), log)

	s := session.New(doc, engine, log)
	doi, _ := cmd.Flags().GetString("doi")
	pmid, _ := cmd.Flags().GetString("pmid")
	arxiv, _ := cmd.Flags().GetString("arxiv")
	title, _ := cmd.Flags().GetString("title")
	if doi = ident.NormalizeDOI(doi); doi != "" && !ident.ValidDOI(doi) {
		return fmt.Errorf("--doi %q is not a DOI", doi)
	}
	s.Seed(map[string]string{
		types.IDDOI:    doi,
		types.IDPubMed: strings.TrimSpace(pmid),
		types.IDArxiv:  ident.StripArxivVersion(strings.TrimSpace(arxiv)),
	}, title)

	res, err := s.Load(cmd.Context())
	if err != nil {
		return err
	}

	if noStore, _ := cmd.Flags().GetBool("no-store"); !noStore {
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Save(cmd.Context(), res, s.Record()); err != nil {
			return fmt.Errorf("saving session: %w", err)
		}
		log.Debug("session stored", zap.String("session", res.ID), zap.String("db", cfg.Store.Path))
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	asYAML, _ := cmd.Flags().GetBool("yaml")
	return writeResult(cmd.OutOrStdout(), res, asJSON, asYAML)
}

func writeResult(w io.Writer, res *session.Result, asJSON, asYAML bool) error {
	switch {
	case asJSON:
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case asYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return enc.Close()
	}

	fmt.Fprintf(w, "Session %s (%s)\n", res.ID, res.Finished.Sub(res.Started).Round(time.Millisecond))
	fmt.Fprintln(w, renderTable([]string{"Field", "Value"}, metadataRows(res.Metadata), nil))
	if res.Summary != nil {
		fmt.Fprintln(w)
		fmt.Fprint(w, summaryText(res.Summary))
	}
	return nil
}
