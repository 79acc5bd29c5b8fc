package extract

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

var (
	// ErrInvalidArchive is returned when the file is not a readable zip.
	ErrInvalidArchive = errors.New("invalid zip archive")
	// ErrUnsafePath is returned for entries that would land outside the target.
	ErrUnsafePath = errors.New("archive entry escapes target directory")
)

type Extractor struct {
	log *slog.Logger
}

func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{log: logger.With("component", "extract")}
}

// Extract expands every entry of the zip at archivePath into targetDir,
// keeping the relative paths stored in the archive. It returns the number of
// files written. A failure part-way leaves already extracted entries behind.
func (e *Extractor) Extract(archivePath, targetDir string) (int, error) {
	// The reader may come back together with an insecure-path warning; entry
	// names are checked below either way.
	zr, err := zip.OpenReader(archivePath)
	if zr == nil {
		if errors.Is(err, zip.ErrFormat) || errors.Is(err, zip.ErrAlgorithm) || errors.Is(err, zip.ErrChecksum) {
			return 0, fmt.Errorf("%w: %s: %v", ErrInvalidArchive, archivePath, err)
		}
		return 0, fmt.Errorf("open %s: %w", archivePath, err)
	}
	defer zr.Close()

	root, err := filepath.Abs(targetDir)
	if err != nil {
		return 0, err
	}

	// Resolve every destination before touching the disk so a hostile entry
	// rejects the whole archive.
	dests := make([]string, len(zr.File))
	for i, f := range zr.File {
		d, err := entryPath(root, f.Name)
		if err != nil {
			return 0, err
		}
		dests[i] = d
	}

	e.log.Info("extracting patch", "archive", archivePath, "target", root, "entries", len(zr.File))

	files := 0
	for i, f := range zr.File {
		dest := dests[i]
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return files, fmt.Errorf("create dir %s: %w", dest, err)
			}
			continue
		}
		if err := writeEntry(f, dest); err != nil {
			return files, err
		}
		files++
	}
	e.log.Info("extraction complete", "files", files)
	return files, nil
}

// entryPath maps a zip entry name onto root. Backslash separators written by
// some Windows tools are accepted.
func entryPath(root, name string) (string, error) {
	clean := strings.ReplaceAll(name, `\`, "/")
	if clean == "" || strings.HasPrefix(clean, "/") || filepath.VolumeName(filepath.FromSlash(clean)) != "" {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	dest := filepath.Join(root, filepath.FromSlash(clean))
	rel, err := filepath.Rel(root, dest)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	return dest, nil
}

func writeEntry(f *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", dest, err)
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		if errors.Is(err, zip.ErrChecksum) {
			return fmt.Errorf("%w: entry %s: %v", ErrInvalidArchive, f.Name, err)
		}
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return out.Close()
}
