// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var findCmd = &cobra.Command{
	Use:   "find QUERY",
	Short: "Search stored sessions by title",
	Long: `Find runs a full-text query over the titles of stored sessions and prints
the matches in relevance order. The query uses SQLite FTS5 syntax, so
"genomics OR proteomics" and prefix terms such as "therm*" work.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		found, err := st.FindTitles(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		if len(found) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No matching sessions.")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTable(sessionHeaders, sessionRows(found), nil))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(findCmd)
}
