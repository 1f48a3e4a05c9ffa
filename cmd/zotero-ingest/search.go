// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Search a Zotero library through the Web API",
	Long: `Search runs Zotero's server-side quick search, which matches titles,
creators, and years, and renders the matching items as documents. It always
uses the api source and needs a user ID and API key.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("format", "table", "output format: table, yaml, json, or csl")
	searchCmd.Flags().String("output", "", "write output to a file instead of stdout")
	searchCmd.Flags().String("user-id", "", "Zotero user ID")
	searchCmd.Flags().String("api-key", "", "Zotero API key")
	searchCmd.Flags().Int("page-size", defaultPageSize, "items per Web API request")
	searchCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 30s)")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide a search query")
	}

	client := newAPIClient(cmd, "")
	docs, err := client.Search(context.Background(), strings.Join(args, " "), os.Stderr)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")
	return renderDocs(docs, format, output)
}
