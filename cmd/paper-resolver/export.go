// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export SESSION_ID",
	Short: "Write a stored session as YAML",
	Long: `Export writes the final record, diagnostic summary and outcome events of a
stored session as YAML. With --evidence the full provenance trail, including
raw registry responses, is written as well.`,
	Args: cobra.ExactArgs(1),
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

		withEvidence, _ := cmd.Flags().GetBool("evidence")
		out := cmd.OutOrStdout()
		if path, _ := cmd.Flags().GetString("output"); path != "" {
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("creating %s: %w", path, err)
			}
			defer f.Close()
			out = f
		}
		return st.ExportYAML(cmd.Context(), args[0], withEvidence, out)
	},
}

func init() {
	exportCmd.Flags().Bool("evidence", false, "include the full evidence trail")
	exportCmd.Flags().StringP("output", "o", "", "write to a file instead of stdout")

	rootCmd.AddCommand(exportCmd)
}
