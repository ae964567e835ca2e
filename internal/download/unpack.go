package download

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/prgtools/prg2geoparquet/internal/logger"
)

// EntryName returns the flat name an archive entry is extracted under: the
// trailing underscore-separated segment of its base name. The archive
// prefixes every entry with a compound dataset identifier that carries no
// information once the files sit in one directory.
func EntryName(archivePath string) string {
	base := filepath.Base(archivePath)
	parts := strings.Split(base, "_")
	return parts[len(parts)-1]
}

// Unpack extracts every file entry of the zip archive into dir, flattening
// archive paths and renaming entries with EntryName.
func Unpack(zipPath, dir string) error {
	log := logger.Get()
	log.Info("Unpacking archive", zap.String("zip", zipPath), zap.String("dir", dir))

	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer r.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create XML directory: %w", err)
	}

	var extracted int
	for _, entry := range r.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		name := EntryName(entry.Name)
		log.Debug("Extracting entry", zap.String("entry", entry.Name), zap.String("as", name))
		if err := extractEntry(entry, filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("failed to extract %s: %w", entry.Name, err)
		}
		extracted++
	}

	log.Info("Finished unpacking archive", zap.Int("files", extracted))
	return nil
}

func extractEntry(entry *zip.File, path string) error {
	in, err := entry.Open()
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(path)
	if err != nil {
		return err
	}

	_, err = io.Copy(out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	return err
}
