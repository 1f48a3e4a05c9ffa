// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/zotero-ingest/internal/ingest"
	"github.com/pdiddy/zotero-ingest/internal/webapi"
	"github.com/pdiddy/zotero-ingest/internal/zotero"
	"github.com/pdiddy/zotero-ingest/pkg/types"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultUserAgent  = "zotero-ingest/0.1"
	defaultPageSize   = 100
	defaultMaxRetries = 3
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load a Zotero library as normalized documents",
	Long: `Load reads a Zotero library and emits one document per item, carrying the
item's metadata and any stored text content. The local source reads the
zotero.sqlite database directly; the api source goes through the Zotero
Web API. The library is never modified.`,
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().String("library", "", "path to the Zotero data directory or zotero.sqlite (default ~/Zotero)")
	loadCmd.Flags().String("source", "", "library source: local or api (default local)")
	loadCmd.Flags().String("collection", "", "restrict the load to one collection key (api source)")
	loadCmd.Flags().String("fulltext-dir", "", "directory of extracted sidecar text files (default <library>/fulltext)")
	loadCmd.Flags().StringSlice("attachment-pattern", nil, "glob patterns for attachment filenames read as text")
	loadCmd.Flags().String("format", "table", "output format: table, yaml, json, or csl")
	loadCmd.Flags().String("output", "", "write output to a file instead of stdout")
	loadCmd.Flags().Bool("watch", false, "stay running and reload when the library changes (local source)")
	loadCmd.Flags().Duration("debounce", 0, "delay between a detected change and the reload (default 500ms)")
	loadCmd.Flags().String("user-id", "", "Zotero user ID (api source)")
	loadCmd.Flags().String("api-key", "", "Zotero API key (api source)")
	loadCmd.Flags().Int("page-size", defaultPageSize, "items per Web API request")
	loadCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 30s)")

	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	loadCfg := loadConfigFromFlags(cmd)
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")
	watch, _ := cmd.Flags().GetBool("watch")

	if loadCfg.Source == types.SourceAPI {
		if watch {
			return fmt.Errorf("--watch requires the local source")
		}
		client := newAPIClient(cmd, loadCfg.Collection)
		docs, _, err := ingest.Run(context.Background(), client, os.Stderr)
		if err != nil {
			return err
		}
		return renderDocs(docs, format, output)
	}

	lib, err := zotero.Open(libraryConfigFromFlags(cmd))
	if err != nil {
		return err
	}
	defer lib.Close()

	runOnce := func() error {
		docs, _, err := ingest.Run(context.Background(), lib, os.Stderr)
		if err != nil {
			return err
		}
		return renderDocs(docs, format, output)
	}

	if err := runOnce(); err != nil {
		return err
	}
	if !watch {
		return nil
	}

	debounce, _ := cmd.Flags().GetDuration("debounce")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Fprintln(os.Stderr, "Watching for library changes (Ctrl-C to stop)")
	if err := ingest.Watch(ctx, lib.Dir(), debounce, os.Stderr, runOnce); !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// renderDocs writes docs in the requested format to stdout, or to --output
// when set.
func renderDocs(docs []types.Document, format, output string) error {
	var render func([]types.Document, io.Writer) error
	switch format {
	case "table", "":
		render = func(d []types.Document, w io.Writer) error {
			ingest.FormatTable(d, w)
			return nil
		}
	case "yaml":
		render = ingest.FormatYAML
	case "json":
		render = ingest.FormatJSON
	case "csl":
		render = ingest.FormatCSL
	default:
		return fmt.Errorf("unsupported format %q: use table, yaml, json, or csl", format)
	}

	if output != "" {
		if err := ingest.WriteFile(docs, output, render); err != nil {
			return err
		}
		fmt.Println("Exported to", output)
		return nil
	}
	return render(docs, os.Stdout)
}

// --- flag plumbing ---

// loadConfigFromFlags resolves the source selection, falling back to the
// config file via viper.
func loadConfigFromFlags(cmd *cobra.Command) types.LoadConfig {
	source, _ := cmd.Flags().GetString("source")
	if source == "" {
		source = viper.GetString("load.source")
	}
	collection, _ := cmd.Flags().GetString("collection")
	if collection == "" {
		collection = viper.GetString("load.collection")
	}

	kind := types.SourceLocal
	if source == string(types.SourceAPI) {
		kind = types.SourceAPI
	}
	return types.LoadConfig{Source: kind, Collection: collection}
}

func libraryConfigFromFlags(cmd *cobra.Command) types.LibraryConfig {
	library, _ := cmd.Flags().GetString("library")
	if library == "" {
		library = viper.GetString("library.path")
	}
	if library == "" {
		if home, err := os.UserHomeDir(); err == nil {
			library = filepath.Join(home, "Zotero")
		}
	}

	fulltextDir, _ := cmd.Flags().GetString("fulltext-dir")
	if fulltextDir == "" {
		fulltextDir = viper.GetString("library.fulltext_dir")
	}

	patterns, _ := cmd.Flags().GetStringSlice("attachment-pattern")
	if len(patterns) == 0 {
		patterns = viper.GetStringSlice("library.attachment_patterns")
	}

	return types.LibraryConfig{
		Path:               library,
		FulltextDir:        fulltextDir,
		AttachmentPatterns: patterns,
	}
}

func apiConfigFromFlags(cmd *cobra.Command) types.APIConfig {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}

	userID, _ := cmd.Flags().GetString("user-id")
	if userID == "" {
		userID = viper.GetString("api.user_id")
	}
	userID = secretDefault("zotero-user-id", userID)

	apiKey, _ := cmd.Flags().GetString("api-key")
	if apiKey == "" {
		apiKey = viper.GetString("api.key")
	}
	apiKey = secretDefault("zotero-api-key", apiKey)

	pageSize, _ := cmd.Flags().GetInt("page-size")
	if pageSize == 0 {
		pageSize = defaultPageSize
	}

	return types.APIConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		UserID:     userID,
		APIKey:     apiKey,
		PageSize:   pageSize,
		MaxRetries: defaultMaxRetries,
	}
}

func newAPIClient(cmd *cobra.Command, collection string) *webapi.Client {
	cfg := apiConfigFromFlags(cmd)
	return &webapi.Client{
		HTTP:       &http.Client{Timeout: cfg.Timeout},
		Config:     cfg,
		Collection: collection,
	}
}
