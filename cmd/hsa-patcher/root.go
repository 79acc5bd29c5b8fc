package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"hsa-patcher/internal/cleanup"
	"hsa-patcher/internal/config"
	"hsa-patcher/internal/console"
	"hsa-patcher/internal/extract"
	"hsa-patcher/internal/fetch"
	"hsa-patcher/internal/locate"
	"hsa-patcher/internal/merge"
	"hsa-patcher/internal/pipeline"
	"hsa-patcher/internal/readme"
	"hsa-patcher/internal/runlog"
	"hsa-patcher/internal/setting"
)

const windowTitle = "HearthstoneAccess Beta Patcher"

// errReported means the failure was already shown to the user.
var errReported = errors.New("patch failed")

type rootOptions struct {
	configFile     string
	installDir     string
	patchURL       string
	nonInteractive bool
	verbosity      int
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "hsa-patcher",
		Short: "Install the latest HearthstoneAccess patch",
		Long: `hsa-patcher downloads the latest HearthstoneAccess patch and merges it into
your Hearthstone installation. Run it without arguments to find Hearthstone
automatically.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configFile, "config", "", "config file (default is ./config.yaml or ./config/config.yaml)")
	f.StringVar(&opts.installDir, "install-dir", "", "Hearthstone installation directory; skips the search")
	f.StringVar(&opts.patchURL, "patch-url", "", "download the patch from this URL")
	f.BoolVar(&opts.nonInteractive, "non-interactive", false, "never prompt; leave the readme in the install directory")
	f.CountVarP(&opts.verbosity, "verbose", "v", "increase log verbosity (-v INFO, -vv DEBUG)")
	return cmd
}

func run(cmd *cobra.Command, opts *rootOptions) error {
	runID := runlog.MakeRunID()
	stdin, stdout := cmd.InOrStdin(), cmd.OutOrStdout()

	cfg, err := config.Load(opts.configFile, cmd.Flags())
	if err != nil {
		p := console.New(stdin, stdout, !opts.nonInteractive && stdinIsTerminal(stdin))
		slog.Error("config load failed", "err", err, "run_id", runID)
		p.Say("Configuration Error: %v", err)
		p.WaitForEnter()
		return errReported
	}

	log := newLogger(cmd.ErrOrStderr(), cfg, opts.verbosity).With("run_id", runID)
	slog.SetDefault(log)

	if err := console.SetTitle(windowTitle); err != nil {
		log.Debug("set console title failed", "err", err)
	}

	prompter := console.New(stdin, stdout, cfg.Interactive && stdinIsTerminal(stdin))

	var journal *runlog.Logger
	if runlog.Enabled(cfg.NDJSONPath) {
		journal, err = runlog.New(cfg.NDJSONPath, runID)
		if err != nil {
			log.Warn("open ndjson journal failed, continuing without it", "path", cfg.NDJSONPath, "err", err)
		} else {
			defer func() { _ = journal.Close() }()
			log.Info("ndjson journal enabled", "path", cfg.NDJSONPath)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	driver := pipeline.New(pipeline.Config{
		PatchURL:    cfg.PatchURL,
		StrictMerge: cfg.StrictMerge,
		Remember:    cfg.Remember,
	}, buildDeps(cfg, prompter, journal, log))

	log.Info("starting hsa-patcher", "patch_url", cfg.PatchURL, "install_dir", cfg.InstallDir, "interactive", prompter.Interactive())
	out := driver.Run(ctx)
	report(prompter, out, cfg)
	prompter.WaitForEnter()

	if !out.OK() {
		if errors.Is(out.Err, context.Canceled) {
			log.Warn("run interrupted")
		}
		return errReported
	}
	return nil
}

func buildDeps(cfg config.Config, prompter *console.Prompter, journal *runlog.Logger, log *slog.Logger) pipeline.Deps {
	fsys := afero.NewOsFs()
	store := setting.NewDefault(cfg.EnvKey)

	deps := pipeline.Deps{
		Locator: locate.New(locate.Options{
			FS:          fsys,
			Explicit:    cfg.InstallDir,
			DefaultPath: cfg.DefaultInstallPath,
			Setting:     store,
			ScanRoot:    cfg.ScanRoot,
			Target:      cfg.TargetName,
			Workers:     cfg.ScanWorkers,
			Logger:      log,
		}),
		Fetcher:   fetch.New(nil, cfg.ChunkSize, log),
		Extractor: extract.New(log),
		Merger:    merge.New(log),
		Cleaner:   cleanup.New(fsys, log),
		Setting:   store,
		Journal:   journal,
		Logger:    log,
		OnStage:   func(s pipeline.Stage) { announce(prompter, s) },
	}
	// Without a terminal the readme stays in the install directory.
	if cfg.ReadmeEnabled && prompter.Interactive() {
		deps.Readme = readme.New(readme.Options{
			FS:        fsys,
			Confirmer: prompter,
			Name:      cfg.ReadmeName,
			Logger:    log,
		})
	}
	return deps
}

func newLogger(w io.Writer, cfg config.Config, verbosity int) *slog.Logger {
	level := cfg.LogLevel
	switch {
	case verbosity >= 2:
		level = slog.LevelDebug
	case verbosity == 1 && level > slog.LevelInfo:
		level = slog.LevelInfo
	}
	hopts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}

func stdinIsTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && console.IsInteractive(f)
}
