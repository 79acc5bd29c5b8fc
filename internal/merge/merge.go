package merge

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// ErrTypeConflict is returned when the installation has a directory where
// the patch carries a file, or a file where the patch carries a directory.
var ErrTypeConflict = errors.New("destination type conflicts with patch entry")

// Stats counts what a merge did.
type Stats struct {
	Dirs     int // destination directories created
	Moved    int // files moved to a free destination
	Replaced int // files that replaced an existing destination file
	Skipped  int // files already in place (same underlying file)
}

func (s Stats) Files() int { return s.Moved + s.Replaced + s.Skipped }

type Merger struct {
	log *slog.Logger
}

func New(logger *slog.Logger) *Merger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Merger{log: logger.With("component", "merge")}
}

// Merge moves every file under src to the same relative path under dst,
// replacing existing files. Directories are created as needed and left in src.
// The first I/O error stops the merge; files moved before it stay moved.
func (m *Merger) Merge(src, dst string) (Stats, error) {
	var st Stats
	m.log.Info("merging patch", "src", src, "dst", dst)

	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			created, err := ensureDir(target)
			if err != nil {
				return err
			}
			if created {
				st.Dirs++
			}
			return nil
		}

		switch res, err := m.mergeFile(path, target); {
		case err != nil:
			return err
		case res == resultSkipped:
			st.Skipped++
		case res == resultReplaced:
			st.Replaced++
		default:
			st.Moved++
		}
		return nil
	})
	if err != nil {
		m.log.Error("merge aborted", "err", err, "moved", st.Moved, "replaced", st.Replaced)
		return st, err
	}

	m.log.Info("merge complete",
		"dirs", st.Dirs,
		"moved", st.Moved,
		"replaced", st.Replaced,
		"skipped", st.Skipped,
	)
	return st, nil
}

type result int

const (
	resultMoved result = iota
	resultReplaced
	resultSkipped
)

func ensureDir(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return false, nil
	case err == nil:
		return false, fmt.Errorf("%w: %s is a file, patch has a directory", ErrTypeConflict, path)
	case !errors.Is(err, fs.ErrNotExist):
		return false, err
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return false, err
	}
	return true, nil
}

// mergeFile places src at dst. Lstat is used on both sides so a symlink in
// the installation is replaced rather than followed.
func (m *Merger) mergeFile(src, dst string) (result, error) {
	dstInfo, err := os.Lstat(dst)
	if errors.Is(err, fs.ErrNotExist) {
		return resultMoved, move(src, dst)
	}
	if err != nil {
		return 0, err
	}
	if dstInfo.IsDir() {
		return 0, fmt.Errorf("%w: %s is a directory, patch has a file", ErrTypeConflict, dst)
	}

	srcInfo, err := os.Lstat(src)
	if err != nil {
		return 0, err
	}
	if os.SameFile(srcInfo, dstInfo) {
		m.log.Debug("already in place", "path", dst)
		return resultSkipped, nil
	}

	if err := os.Remove(dst); err != nil {
		return 0, fmt.Errorf("remove old %s: %w", dst, err)
	}
	if err := move(src, dst); err != nil {
		return 0, err
	}
	return resultReplaced, nil
}

func move(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !isCrossDevice(err) {
		return fmt.Errorf("move %s: %w", src, err)
	}
	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("copy %s across volumes: %w", src, err)
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}
