// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the zotero-ingest CLI.
// Implements: prd001-local-library, prd002-web-api, prd003-export,
//             prd004-fulltext (CLI surface).
// See docs/ARCHITECTURE § Pipeline Interface, § Project Structure.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/zotero-ingest/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the zotero-ingest CLI.
var rootCmd = &cobra.Command{
	Use:   "zotero-ingest",
	Short: "Load Zotero libraries into normalized documents",
	Long: `zotero-ingest reads a Zotero reference library and emits one document per
item, carrying the item's metadata and any stored text content. Libraries
load either from the local Zotero data directory (zotero.sqlite) or through
the Zotero Web API; both paths are strictly read-only.

Each stage is a subcommand: load renders a library as documents, search
runs a server-side query through the Web API, and extract produces text
sidecars for PDF attachments that have none.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
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

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./zotero-ingest.yaml or ~/.config/zotero-ingest/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("zotero-ingest")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "zotero-ingest"))
		}
	}

	viper.SetEnvPrefix("ZOTERO_INGEST")
	viper.AutomaticEnv()

	// Zotero's conventional variable names work alongside the prefixed ones.
	viper.BindEnv("api.user_id", "ZOTERO_INGEST_USER_ID", "ZOTERO_USER_ID")
	viper.BindEnv("api.key", "ZOTERO_INGEST_API_KEY", "ZOTERO_PRIVATE_KEY")
	viper.BindEnv("library.path", "ZOTERO_INGEST_LIBRARY", "ZOTERO_DATA_DIR")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
