// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paper-resolver CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/paper-resolver/internal/config"
	"github.com/pdiddy/paper-resolver/internal/logging"
	"github.com/pdiddy/paper-resolver/internal/secrets"
	"github.com/pdiddy/paper-resolver/internal/store"
	"github.com/pdiddy/paper-resolver/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds keys loaded from .secrets/ and .env at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the paper-resolver CLI.
var rootCmd = &cobra.Command{
	Use:   "paper-resolver",
	Short: "Resolve bibliographic metadata for scholarly documents",
	Long: `paper-resolver identifies a scholarly document, gathers its metadata from
CrossRef, PubMed, PubMed Central, arXiv, OpenAlex and the publisher's landing
page, and links it to its canonical web pages and PDFs.

Every observation is kept with its provenance. Sessions are stored in a local
SQLite database so earlier resolutions can be listed, searched and exported.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.LoadAll(".secrets/", ".env")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./paper-resolver.yaml or ~/.config/paper-resolver/paper-resolver.yaml)")
	rootCmd.PersistentFlags().String("db", "", "session database path (overrides store.path)")
	_ = viper.BindPFlag("store.path", rootCmd.PersistentFlags().Lookup("db"))
}

func initConfig() {
	config.SetDefaults(viper.GetViper())

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paper-resolver")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paper-resolver"))
		}
	}

	viper.SetEnvPrefix("PAPER_RESOLVER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig decodes the global viper state and fills gaps from secrets.
func loadConfig() (types.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return types.Config{}, err
	}
	config.ApplySecrets(&cfg, loadedSecrets)
	return cfg, nil
}

func newLogger(cfg types.Config) (*zap.Logger, error) {
	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	return log.With(zap.String("component", "paper-resolver")), nil
}

func openStore(cfg types.Config) (*store.Store, error) {
	s, err := store.NewStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}
	return s, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
