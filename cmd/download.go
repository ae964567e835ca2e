package cmd

import (
	"time"

	"go.uber.org/zap"

	"github.com/prgtools/prg2geoparquet/internal/download"
	"github.com/prgtools/prg2geoparquet/internal/logger"
	"github.com/spf13/cobra"
)

var skipFetch bool

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download the bulk PRG archive and unpack it into the XML directory",
	Long: `Fetch the nationwide address archive from the GUGiK bulk endpoint and
extract its feature documents into a flat XML directory. Each entry is
renamed to its trailing identifier segment; archive paths are discarded.`,
	Run: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().StringVar(&cfg.SourceURL, "url", cfg.SourceURL, "Bulk archive URL")
	downloadCmd.Flags().StringVar(&cfg.ZipPath, "zip", cfg.ZipPath, "Where to store the downloaded archive")
	downloadCmd.Flags().BoolVar(&skipFetch, "skip-fetch", false, "Only unpack an already downloaded archive")
}

func runDownload(cmd *cobra.Command, args []string) {
	log := logger.Get()
	start := time.Now()

	if !skipFetch {
		fetcher := download.NewFetcher()
		if err := fetcher.Fetch(cmd.Context(), cfg.SourceURL, cfg.ZipPath); err != nil {
			exitWithError("download failed", err)
		}
	}

	if err := download.Unpack(cfg.ZipPath, cfg.XMLDir); err != nil {
		exitWithError("unpack failed", err)
	}

	log.Info("Download complete",
		zap.String("xml_dir", cfg.XMLDir),
		zap.Duration("duration", time.Since(start).Round(time.Second)),
	)
}
