package readme

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/spf13/afero"
)

// DefaultName is the readme shipped at the top of the patch archive.
const DefaultName = "prepatch_readme.txt"

// Outcome says what happened to the readme.
type Outcome string

const (
	Moved   Outcome = "moved"   // placed on the desktop
	Removed Outcome = "removed" // user declined; deleted from the install dir
	Missing Outcome = "missing" // the patch did not ship a readme
)

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(question string) (bool, error)
}

type Options struct {
	FS         afero.Fs
	Confirmer  Confirmer
	DesktopDir string // defaults to the user's desktop directory
	Name       string
	Logger     *slog.Logger
}

type Placer struct {
	fs      afero.Fs
	confirm Confirmer
	desktop string
	name    string
	log     *slog.Logger
}

func New(opts Options) *Placer {
	p := &Placer{
		fs:      opts.FS,
		confirm: opts.Confirmer,
		desktop: opts.DesktopDir,
		name:    opts.Name,
		log:     opts.Logger,
	}
	if p.fs == nil {
		p.fs = afero.NewOsFs()
	}
	if p.desktop == "" {
		p.desktop = xdg.UserDirs.Desktop
	}
	if p.name == "" {
		p.name = DefaultName
	}
	if p.log == nil {
		p.log = slog.Default()
	}
	p.log = p.log.With("component", "readme")
	return p
}

// Place asks whether the readme in installDir should go to the desktop and
// either moves it there, replacing an older copy, or deletes it.
func (p *Placer) Place(installDir string) (Outcome, string, error) {
	src := filepath.Join(installDir, p.name)
	if ok, err := afero.Exists(p.fs, src); err != nil {
		return "", "", fmt.Errorf("stat %s: %w", src, err)
	} else if !ok {
		p.log.Info("patch has no readme", "path", src)
		return Missing, "", nil
	}

	want, err := p.confirm.Confirm("Do you want the readme with all the latest changes placed on your desktop?")
	if err != nil {
		return "", "", fmt.Errorf("read answer: %w", err)
	}
	if !want {
		if err := p.fs.Remove(src); err != nil {
			return "", "", fmt.Errorf("remove %s: %w", src, err)
		}
		return Removed, "", nil
	}

	dst := filepath.Join(p.desktop, p.name)
	if err := p.fs.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", "", fmt.Errorf("remove old %s: %w", dst, err)
	}
	if err := p.move(src, dst); err != nil {
		return "", "", err
	}
	p.log.Info("readme placed", "path", dst)
	return Moved, dst, nil
}

// move renames src to dst, copying when they live on different volumes.
func (p *Placer) move(src, dst string) error {
	if err := p.fs.Rename(src, dst); err == nil {
		return nil
	}
	info, err := p.fs.Stat(src)
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}
	b, err := afero.ReadFile(p.fs, src)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}
	if err := afero.WriteFile(p.fs, dst, b, info.Mode().Perm()); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}
	if err := p.fs.Remove(src); err != nil {
		return fmt.Errorf("remove %s: %w", src, err)
	}
	return nil
}
