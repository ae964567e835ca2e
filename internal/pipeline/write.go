package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prgtools/prg2geoparquet/internal/config"
	"github.com/prgtools/prg2geoparquet/internal/geometry"
	"github.com/prgtools/prg2geoparquet/internal/geoparquet"
	"github.com/prgtools/prg2geoparquet/internal/projection"
)

func ensureOutputDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

func writeOverture(cfg *config.Config, located []geometry.Located) (int64, error) {
	if err := ensureOutputDir(cfg.OutputPath); err != nil {
		return 0, fmt.Errorf("creating output directory: %w", err)
	}
	w, err := geoparquet.NewOvertureWriter(cfg.OutputPath, cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("creating writer: %w", err)
	}
	rows := projection.OvertureRows(located)
	for i := range rows {
		if err := w.Write(&rows[i]); err != nil {
			w.Abort()
			return 0, fmt.Errorf("writing row: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("closing writer: %w", err)
	}
	return w.Rows(), nil
}

func writeOSMPoland(cfg *config.Config, located []geometry.Located) (int64, error) {
	if err := ensureOutputDir(cfg.OutputPath); err != nil {
		return 0, fmt.Errorf("creating output directory: %w", err)
	}
	w, err := geoparquet.NewOSMPolandWriter(cfg.OutputPath, cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("creating writer: %w", err)
	}
	rows := projection.OSMPolandRows(located)
	for i := range rows {
		if err := w.Write(&rows[i]); err != nil {
			w.Abort()
			return 0, fmt.Errorf("writing row: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("closing writer: %w", err)
	}
	return w.Rows(), nil
}
