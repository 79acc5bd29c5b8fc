package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"hsa-patcher/internal/locate"
	"hsa-patcher/internal/merge"
	"hsa-patcher/internal/readme"
	"hsa-patcher/internal/runlog"
	"hsa-patcher/internal/setting"
)

const (
	DefaultArchiveName  = "temp.zip"
	DefaultPatchDirName = "patch"
)

type Locator interface {
	Locate(ctx context.Context) (locate.Result, error)
}

type Fetcher interface {
	Download(ctx context.Context, url, dest string) (int64, error)
}

type Extractor interface {
	Extract(archivePath, targetDir string) (int, error)
}

type Merger interface {
	Merge(src, dst string) (merge.Stats, error)
}

type Cleaner interface {
	Clean(archivePath, patchDir string) error
}

type ReadmePlacer interface {
	Place(installDir string) (readme.Outcome, string, error)
}

type Config struct {
	PatchURL     string
	ArchiveName  string
	PatchDirName string

	// StrictMerge makes a merge failure stop the run like every other stage.
	// By default it is recorded as a warning and cleanup still runs.
	StrictMerge bool

	// Remember stores a scanned or explicitly given path in the setting store.
	Remember bool
}

// Deps are the stage implementations. Readme, Setting, Journal and OnStage
// are optional.
type Deps struct {
	Locator   Locator
	Fetcher   Fetcher
	Extractor Extractor
	Merger    Merger
	Cleaner   Cleaner
	Readme    ReadmePlacer
	Setting   setting.Store
	Journal   *runlog.Logger
	Logger    *slog.Logger

	// OnStage is called before each stage starts.
	OnStage func(Stage)
}

// Outcome is the terminal result of a run, reported once by the caller.
type Outcome struct {
	Install    locate.Result
	Archive    string
	PatchDir   string
	Bytes      int64
	Extracted  int
	Merge      merge.Stats
	Readme     readme.Outcome
	ReadmePath string

	// Warnings holds failures that did not stop the run.
	Warnings []error
	// Err is the fatal failure, always a *StageError.
	Err error
}

func (o Outcome) OK() bool { return o.Err == nil }

type Driver struct {
	cfg  Config
	deps Deps
	log  *slog.Logger
}

func New(cfg Config, deps Deps) *Driver {
	if cfg.ArchiveName == "" {
		cfg.ArchiveName = DefaultArchiveName
	}
	if cfg.PatchDirName == "" {
		cfg.PatchDirName = DefaultPatchDirName
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{cfg: cfg, deps: deps, log: logger.With("component", "pipeline")}
}

// Paths returns the archive and patch tree locations inside installDir.
func (d *Driver) Paths(installDir string) (archive, patchDir string) {
	return filepath.Join(installDir, d.cfg.ArchiveName), filepath.Join(installDir, d.cfg.PatchDirName)
}

// Run executes locate, download, extract, merge, cleanup and readme placement
// in order. No stage starts before the previous one has returned.
func (d *Driver) Run(ctx context.Context) Outcome {
	var out Outcome

	if err := d.stage(StageLocate, func(rec *runlog.Record) error {
		res, err := d.deps.Locator.Locate(ctx)
		out.Install = res
		rec.Path = res.Path
		return err
	}); err != nil {
		out.Err = err
		return out
	}
	out.Archive, out.PatchDir = d.Paths(out.Install.Path)

	if err := d.stage(StageDownload, func(rec *runlog.Record) error {
		n, err := d.deps.Fetcher.Download(ctx, d.cfg.PatchURL, out.Archive)
		out.Bytes = n
		rec.Path, rec.Bytes = out.Archive, n
		return err
	}); err != nil {
		out.Err = err
		return out
	}

	if err := d.stage(StageExtract, func(rec *runlog.Record) error {
		n, err := d.deps.Extractor.Extract(out.Archive, out.Install.Path)
		out.Extracted = n
		rec.Count = n
		return err
	}); err != nil {
		out.Err = err
		return out
	}

	if err := d.stage(StageMerge, func(rec *runlog.Record) error {
		st, err := d.deps.Merger.Merge(out.PatchDir, out.Install.Path)
		out.Merge = st
		rec.Count = st.Files()
		return err
	}); err != nil {
		if d.cfg.StrictMerge {
			out.Err = err
			return out
		}
		d.log.Warn("merge failed, continuing with cleanup", "err", err)
		out.Warnings = append(out.Warnings, err)
	}

	if err := d.stage(StageCleanup, func(rec *runlog.Record) error {
		rec.Path = out.PatchDir
		return d.deps.Cleaner.Clean(out.Archive, out.PatchDir)
	}); err != nil {
		out.Err = err
		return out
	}

	if d.deps.Readme != nil {
		if err := d.stage(StageReadme, func(rec *runlog.Record) error {
			o, p, err := d.deps.Readme.Place(out.Install.Path)
			out.Readme, out.ReadmePath = o, p
			rec.Path = p
			return err
		}); err != nil {
			out.Err = err
			return out
		}
	}

	d.remember(&out)
	return out
}

func (d *Driver) remember(out *Outcome) {
	if !d.cfg.Remember || d.deps.Setting == nil {
		return
	}
	if out.Install.Source != locate.SourceScan && out.Install.Source != locate.SourceExplicit {
		return
	}
	if err := d.deps.Setting.Set(out.Install.Path); err != nil {
		d.log.Warn("could not remember install path", "path", out.Install.Path, "err", err)
		out.Warnings = append(out.Warnings, err)
		return
	}
	d.log.Info("install path remembered", "path", out.Install.Path)
}

// stage runs fn and journals it. fn may fill in result fields of the record.
func (d *Driver) stage(name Stage, fn func(rec *runlog.Record) error) error {
	if d.deps.OnStage != nil {
		d.deps.OnStage(name)
	}
	start := time.Now()
	d.deps.Journal.Log(runlog.Record{Type: "stage", Stage: string(name), Status: "start"})

	rec := runlog.Record{Type: "stage", Stage: string(name), Status: "ok"}
	err := fn(&rec)
	elapsed := time.Since(start)
	rec.Millis = elapsed.Milliseconds()

	if err != nil {
		rec.Status = "error"
		rec.Message = err.Error()
		d.deps.Journal.Log(rec)
		d.log.Error("stage failed", "stage", string(name), "duration", elapsed, "err", err)
		return &StageError{Stage: name, Err: err}
	}
	d.deps.Journal.Log(rec)
	d.log.Debug("stage complete", "stage", string(name), "duration", elapsed)
	return nil
}
