package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"hsa-patcher/internal/fetch"
	"hsa-patcher/internal/readme"
)

const (
	defaultConfigName = "config"

	DefaultPatchURL    = "https://hearthstoneaccess.com/files/pre_patch.zip"
	DefaultInstallPath = `C:\Program Files (x86)\Hearthstone`
	DefaultTargetName  = "Hearthstone"
	DefaultEnvKey      = "HEARTHSTONE_HOME"
)

type Config struct {
	PatchURL  string
	ChunkSize int

	// InstallDir skips location entirely when set.
	InstallDir         string
	DefaultInstallPath string
	TargetName         string
	EnvKey             string
	Remember           bool

	ScanRoot    string
	ScanWorkers int

	StrictMerge bool

	ReadmeEnabled bool
	ReadmeName    string

	LogLevel  slog.Level
	LogFormat string

	// NDJSONPath enables the run journal when set.
	NDJSONPath string

	Interactive bool
}

// flagKeys maps command-line flags onto config keys.
var flagKeys = map[string]string{
	"install-dir":     "install.dir",
	"patch-url":       "patch.url",
	"non-interactive": "interactive",
}

// Load reads config/config.yaml (or file when non-empty), HSA_* environment
// variables and the flags in fs, in increasing priority.
func Load(file string, fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(defaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("config")
	}

	v.SetEnvPrefix("HSA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("patch.url", DefaultPatchURL)
	v.SetDefault("download.chunk_size", fetch.DefaultChunkSize)
	v.SetDefault("install.dir", "")
	v.SetDefault("install.default_path", DefaultInstallPath)
	v.SetDefault("install.target_name", DefaultTargetName)
	v.SetDefault("install.env_key", DefaultEnvKey)
	v.SetDefault("install.remember", true)
	v.SetDefault("scan.root", DefaultScanRoot())
	v.SetDefault("scan.workers", runtime.NumCPU()*4)
	v.SetDefault("merge.strict", false)
	v.SetDefault("readme.enabled", true)
	v.SetDefault("readme.name", readme.DefaultName)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
	v.SetDefault("telemetry.ndjson_path", "")
	v.SetDefault("interactive", true)

	if file != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		// Config file is optional; env-only is fine.
		_ = v.ReadInConfig()
	}

	if fs != nil {
		for name, key := range flagKeys {
			f := fs.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if name == "non-interactive" {
				v.Set(key, f.Value.String() != "true")
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	cfg := Config{
		PatchURL:           strings.TrimSpace(v.GetString("patch.url")),
		ChunkSize:          v.GetInt("download.chunk_size"),
		InstallDir:         strings.TrimSpace(v.GetString("install.dir")),
		DefaultInstallPath: strings.TrimSpace(v.GetString("install.default_path")),
		TargetName:         strings.TrimSpace(v.GetString("install.target_name")),
		EnvKey:             strings.TrimSpace(v.GetString("install.env_key")),
		Remember:           v.GetBool("install.remember"),
		ScanRoot:           strings.TrimSpace(v.GetString("scan.root")),
		ScanWorkers:        v.GetInt("scan.workers"),
		StrictMerge:        v.GetBool("merge.strict"),
		ReadmeEnabled:      v.GetBool("readme.enabled"),
		ReadmeName:         strings.TrimSpace(v.GetString("readme.name")),
		LogFormat:          strings.ToLower(strings.TrimSpace(v.GetString("log.format"))),
		NDJSONPath:         strings.TrimSpace(v.GetString("telemetry.ndjson_path")),
		Interactive:        v.GetBool("interactive"),
	}

	if cfg.PatchURL == "" {
		return Config{}, fmt.Errorf("patch.url must not be empty")
	}
	if cfg.ChunkSize <= 0 {
		return Config{}, fmt.Errorf("invalid download.chunk_size %d", cfg.ChunkSize)
	}
	if cfg.TargetName == "" {
		return Config{}, fmt.Errorf("install.target_name must not be empty")
	}
	if strings.ContainsAny(cfg.TargetName, `/\`) {
		return Config{}, fmt.Errorf("install.target_name %q must be a single path element", cfg.TargetName)
	}
	if cfg.EnvKey == "" {
		return Config{}, fmt.Errorf("install.env_key must not be empty")
	}
	if cfg.ScanWorkers <= 0 {
		return Config{}, fmt.Errorf("invalid scan.workers %d", cfg.ScanWorkers)
	}
	if cfg.ReadmeName == "" {
		return Config{}, fmt.Errorf("readme.name must not be empty")
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return Config{}, fmt.Errorf("invalid log.format %q", cfg.LogFormat)
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("log.level"))); err != nil {
		return Config{}, fmt.Errorf("invalid log.level: %w", err)
	}
	if cfg.InstallDir != "" {
		abs, err := filepath.Abs(cfg.InstallDir)
		if err != nil {
			return Config{}, fmt.Errorf("resolve install.dir: %w", err)
		}
		cfg.InstallDir = abs
	}

	if cfg.NDJSONPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.NDJSONPath), 0o755); err != nil {
			return Config{}, fmt.Errorf("create telemetry dir: %w", err)
		}
	}
	return cfg, nil
}

// DefaultScanRoot is the root of the system drive.
func DefaultScanRoot() string {
	if runtime.GOOS == "windows" {
		if d := os.Getenv("SystemDrive"); d != "" {
			return d + `\`
		}
		return `C:\`
	}
	return "/"
}
