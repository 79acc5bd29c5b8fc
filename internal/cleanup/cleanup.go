// Package cleanup removes the temporary patch artifacts from the installation
// directory.
package cleanup

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/spf13/afero"
)

type Cleaner struct {
	fs  afero.Fs
	log *slog.Logger
}

func New(fsys afero.Fs, logger *slog.Logger) *Cleaner {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{fs: fsys, log: logger.With("component", "cleanup")}
}

// Clean deletes the downloaded archive and then the patch tree, recursively.
// Both must exist: a missing archive means something else touched the
// installation directory during the run.
func (c *Cleaner) Clean(archivePath, patchDir string) error {
	if err := c.fs.Remove(archivePath); err != nil {
		return fmt.Errorf("remove %s: %w", archivePath, err)
	}
	if _, err := c.fs.Stat(patchDir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.log.Warn("patch tree already gone", "path", patchDir)
			return nil
		}
		return fmt.Errorf("stat %s: %w", patchDir, err)
	}
	if err := c.fs.RemoveAll(patchDir); err != nil {
		return fmt.Errorf("remove %s: %w", patchDir, err)
	}
	c.log.Info("cleanup complete", "archive", archivePath, "patch", patchDir)
	return nil
}
