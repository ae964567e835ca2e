package cmd

import (
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/prgtools/prg2geoparquet/internal/config"
	"github.com/prgtools/prg2geoparquet/internal/logger"
	"github.com/spf13/cobra"
)

var (
	cfg             = config.DefaultConfig()
	cfgFile         string
	verbose         bool
	logFile         string
	metricsInterval time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "prg2geoparquet",
	Short: "Convert the PRG national address register to GeoParquet",
	Long: `prg2geoparquet turns the Polish national address register (PRG) GML dump
into a single compressed GeoParquet file.

Stages:
  - Strict schema-bound GML parsing of address point features
  - Lifecycle/validity filtering of closed and planned addresses
  - Point reprojection from EPSG:2180 to lon/lat (OGC:CRS84)
  - Mode-dependent column projection for the downstream consumer`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			if err := cfg.LoadFile(cfgFile); err != nil {
				return err
			}
		}
		cfg.Verbose = verbose
		cfg.LogFile = logFile
		cfg.MetricsInterval = metricsInterval

		if logFile != "" {
			logger.InitWithFile(verbose, logFile)
		} else {
			logger.Init(verbose)
		}
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&cfg.XMLDir, "xml-dir", cfg.XMLDir, "Directory holding the extracted GML documents")
	rootCmd.PersistentFlags().IntVarP(&cfg.Workers, "workers", "j", cfg.Workers, "Number of parallel workers")

	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Path to log file for persistent logging (JSON format)")
	rootCmd.PersistentFlags().DurationVar(&metricsInterval, "metrics-interval", 30*time.Second, "Interval for system metrics logging (e.g., 10s, 1m)")
}

func exitWithError(msg string, err error) {
	log := logger.Get()
	if err != nil {
		log.Error(msg, zap.Error(err))
	} else {
		log.Error(msg)
	}
	os.Exit(1)
}
