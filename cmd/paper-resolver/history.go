// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-resolver/internal/document"
	"github.com/pdiddy/paper-resolver/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history FILE|FINGERPRINT",
	Short: "List earlier sessions for a document",
	Long: `History lists stored sessions for a document, newest first. The argument is
either a document path, whose content fingerprints are computed, or a
fingerprint printed by an earlier export.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fingerprints := []string{args[0]}
	if _, err := os.Stat(args[0]); err == nil {
		doc, err := document.Open(args[0])
		if err != nil {
			return err
		}
		fingerprints = doc.Fingerprints()
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	var (
		infos []store.SessionInfo
		seen  = map[string]bool{}
	)
	for _, fp := range fingerprints {
		found, err := st.History(cmd.Context(), fp)
		if err != nil {
			return err
		}
		for _, s := range found {
			if !seen[s.ID] {
				seen[s.ID] = true
				infos = append(infos, s)
			}
		}
	}

	if len(infos) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No sessions found.")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(sessionHeaders, sessionRows(infos), nil))
	return nil
}
