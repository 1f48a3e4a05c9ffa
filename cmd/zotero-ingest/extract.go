// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/zotero-ingest/internal/container"
	"github.com/pdiddy/zotero-ingest/internal/fulltext"
	"github.com/pdiddy/zotero-ingest/internal/zotero"
	"github.com/pdiddy/zotero-ingest/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract text from PDF attachments into sidecar files",
	Long: `Extract runs the library's PDF attachments that have no stored text
through a pdftotext container and writes <KEY>.txt sidecar files. The next
load picks the sidecars up as document content. Requires docker or podman
with the extraction image present.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().String("library", "", "path to the Zotero data directory or zotero.sqlite (default ~/Zotero)")
	extractCmd.Flags().String("fulltext-dir", "", "directory for extracted sidecar files (default <library>/fulltext)")
	extractCmd.Flags().String("image", "", "container image for extraction (default pdftotext:latest)")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	lib, err := zotero.Open(libraryConfigFromFlags(cmd))
	if err != nil {
		return err
	}
	defer lib.Close()

	items, err := lib.Items(context.Background())
	if err != nil {
		return err
	}

	rt, err := container.DetectRuntime()
	if err != nil {
		return err
	}

	cfg := fulltextConfigFromFlags(cmd, lib)
	conv, err := fulltext.NewPdftotextConverter(rt, cfg.Image)
	if err != nil {
		return err
	}

	result := fulltext.ExtractBatch(conv, items, cfg.OutputDir, os.Stdout)
	if result.HasFailures() {
		return fmt.Errorf("%d attachment(s) failed extraction", result.Failed)
	}
	return nil
}

func fulltextConfigFromFlags(cmd *cobra.Command, lib *zotero.Library) types.FulltextConfig {
	image, _ := cmd.Flags().GetString("image")
	if image == "" {
		image = viper.GetString("fulltext.image")
	}
	return types.FulltextConfig{
		Image:     image,
		OutputDir: lib.FulltextDir(),
	}
}
