// Package pipeline orchestrates one batch run: strict read, mode-dependent
// filtering, geometry reprojection, column projection and the single-file
// GeoParquet write. Every stage is all-or-nothing; there is no
// partial-success mode.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/prgtools/prg2geoparquet/internal/config"
	"github.com/prgtools/prg2geoparquet/internal/filter"
	"github.com/prgtools/prg2geoparquet/internal/geometry"
	"github.com/prgtools/prg2geoparquet/internal/logger"
	"github.com/prgtools/prg2geoparquet/internal/metrics"
	"github.com/prgtools/prg2geoparquet/internal/prg"
	"github.com/prgtools/prg2geoparquet/internal/projection"
)

// Stats summarizes one completed run.
type Stats struct {
	Mode        projection.Mode
	RecordsRead int
	RecordsKept int
	RowsWritten int64
	Duration    time.Duration
}

// Run executes the full pipeline. The mode token is validated before any
// XML is touched; all later failures abort the batch without replacing a
// previous output file.
func Run(ctx context.Context, cfg *config.Config) (*Stats, error) {
	log := logger.Get()

	mode, err := projection.ParseMode(cfg.Mode)
	if err != nil {
		return nil, &ConfigError{Reason: "invalid mode", Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, &ConfigError{Reason: "invalid configuration", Err: err}
	}

	if cfg.MetricsInterval > 0 {
		metricsCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		collector := metrics.NewCollector(cfg.MetricsInterval, log)
		go collector.Start(metricsCtx)
	}

	start := time.Now()
	log.Info("Starting pipeline run",
		zap.String("mode", string(mode)),
		zap.String("xml_dir", cfg.XMLDir),
		zap.String("output", cfg.OutputPath),
		zap.Int("workers", cfg.Workers),
	)

	reader := prg.NewReader(cfg.Workers)
	records, err := reader.ReadDir(ctx, cfg.XMLDir)
	if err != nil {
		return nil, err
	}
	read := len(records)

	if mode.Filtered() {
		records = filter.KeepCurrent(records)
	}

	stage, err := geometry.NewStage(cfg.Workers)
	if err != nil {
		return nil, err
	}
	located, err := stage.Locate(ctx, records)
	if err != nil {
		return nil, &prg.ParseError{Reason: "geometry", Err: err}
	}

	if len(located) == 0 {
		return nil, &EmptyResultError{Mode: string(mode)}
	}
	log.Info("Projected record set ready", zap.Int("rows", len(located)))

	var written int64
	switch mode {
	case projection.ModeOverture:
		written, err = writeOverture(cfg, located)
	case projection.ModeOSMPoland:
		written, err = writeOSMPoland(cfg, located)
	}
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Mode:        mode,
		RecordsRead: read,
		RecordsKept: len(located),
		RowsWritten: written,
		Duration:    time.Since(start),
	}
	log.Info("Pipeline run complete",
		zap.Int("records_read", stats.RecordsRead),
		zap.Int("records_kept", stats.RecordsKept),
		zap.Int64("rows_written", stats.RowsWritten),
		zap.Duration("duration", stats.Duration.Round(time.Second)),
	)
	return stats, nil
}
