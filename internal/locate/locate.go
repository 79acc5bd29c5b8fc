package locate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"hsa-patcher/internal/setting"
)

// ErrNotFound means no step produced an installation directory.
var ErrNotFound = errors.New("installation directory not found")

// errFound stops a directory walk once the target has been seen.
var errFound = errors.New("found")

// Source records which step produced the installation path.
type Source string

const (
	SourceExplicit Source = "explicit"
	SourceDefault  Source = "default"
	SourceSetting  Source = "setting"
	SourceScan     Source = "scan"
)

type Result struct {
	Path   string
	Source Source
}

type Options struct {
	// FS defaults to the OS filesystem.
	FS afero.Fs

	// Explicit, when set, is the only candidate: it must exist or Locate fails.
	Explicit string

	DefaultPath string
	Setting     setting.Store

	ScanRoot string
	Target   string
	// Workers bounds the number of concurrent search tasks. Zero uses GOMAXPROCS.
	Workers int

	Logger *slog.Logger
}

type Locator struct {
	fs          afero.Fs
	explicit    string
	defaultPath string
	setting     setting.Store
	scanRoot    string
	target      string
	workers     int
	log         *slog.Logger
}

func New(opts Options) *Locator {
	l := &Locator{
		fs:          opts.FS,
		explicit:    strings.TrimSpace(opts.Explicit),
		defaultPath: strings.TrimSpace(opts.DefaultPath),
		setting:     opts.Setting,
		scanRoot:    opts.ScanRoot,
		target:      opts.Target,
		workers:     opts.Workers,
		log:         opts.Logger,
	}
	if l.fs == nil {
		l.fs = afero.NewOsFs()
	}
	if l.workers <= 0 {
		l.workers = runtime.GOMAXPROCS(0)
	}
	if l.log == nil {
		l.log = slog.Default()
	}
	l.log = l.log.With("component", "locate")
	return l
}

// Locate resolves the installation directory: explicit path, then the
// conventional default, then the persisted setting, then a filesystem scan.
func (l *Locator) Locate(ctx context.Context) (Result, error) {
	if l.explicit != "" {
		if !l.isDir(l.explicit) {
			return Result{}, fmt.Errorf("%w: %s is not a directory", ErrNotFound, l.explicit)
		}
		return l.hit(l.explicit, SourceExplicit), nil
	}

	if l.defaultPath != "" && l.isDir(l.defaultPath) {
		return l.hit(l.defaultPath, SourceDefault), nil
	}

	if l.setting != nil {
		p, ok, err := l.setting.Get()
		switch {
		case err != nil:
			l.log.Warn("persisted install path unreadable", "err", err)
		case ok && l.isDir(p):
			return l.hit(p, SourceSetting), nil
		case ok:
			l.log.Info("persisted install path no longer exists", "path", p)
		}
	}

	p, err := l.Scan(ctx)
	if err != nil {
		return Result{}, err
	}
	return l.hit(p, SourceScan), nil
}

func (l *Locator) hit(p string, src Source) Result {
	l.log.Info("installation directory resolved", "path", p, "source", string(src))
	return Result{Path: p, Source: src}
}

// Scan starts one search task per top-level directory of the scan root and
// returns the first match. Remaining tasks are cancelled and not waited for.
func (l *Locator) Scan(ctx context.Context) (string, error) {
	if l.scanRoot == "" || l.target == "" {
		return "", ErrNotFound
	}
	entries, err := afero.ReadDir(l.fs, l.scanRoot)
	if err != nil {
		l.log.Warn("scan root unreadable", "root", l.scanRoot, "err", err)
		return "", fmt.Errorf("%w: list %s: %v", ErrNotFound, l.scanRoot, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	l.log.Info("scanning for installation", "root", l.scanRoot, "target", l.target, "workers", l.workers)

	found := make(chan string, 1)
	done := make(chan struct{})
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)

	go func() {
		defer close(done)
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			if gctx.Err() != nil {
				break
			}
			dir := filepath.Join(l.scanRoot, e.Name())
			g.Go(func() error {
				if p, ok := l.search(gctx, dir); ok {
					select {
					case found <- p:
					default:
					}
				}
				return nil
			})
		}
		_ = g.Wait()
	}()

	select {
	case p := <-found:
		return p, nil
	case <-done:
		select {
		case p := <-found:
			return p, nil
		default:
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "", ErrNotFound
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// search walks start looking for a directory named after the target. Any
// filesystem error only prunes the affected subtree.
func (l *Locator) search(ctx context.Context, start string) (string, bool) {
	var hit string
	err := afero.Walk(l.fs, start, func(path string, info fs.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			l.log.Debug("scan skipped path", "path", path, "err", err)
			return nil
		}
		if info == nil || !info.IsDir() {
			return nil
		}
		if info.Name() == l.target {
			hit = path
			return errFound
		}
		return nil
	})
	switch {
	case errors.Is(err, errFound):
		return hit, true
	case err != nil && !errors.Is(err, context.Canceled):
		l.log.Warn("scan branch failed", "dir", start, "err", err)
	}
	return "", false
}

func (l *Locator) isDir(p string) bool {
	ok, err := afero.IsDir(l.fs, p)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		l.log.Debug("stat failed", "path", p, "err", err)
	}
	return err == nil && ok
}
