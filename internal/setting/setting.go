package setting

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// AppDirName is the per-user directory name under the XDG config home.
const AppDirName = "hsa-patcher"

// Store remembers a single installation path under a fixed key.
type Store interface {
	// Get returns the stored path. ok is false when nothing is stored.
	Get() (path string, ok bool, err error)
	Set(path string) error
}

// EnvStore reads the key from the process environment. It cannot persist:
// Set only updates the current process.
type EnvStore struct {
	Key string
}

func (s EnvStore) Get() (string, bool, error) {
	v := strings.TrimSpace(os.Getenv(s.Key))
	return v, v != "", nil
}

func (s EnvStore) Set(path string) error {
	return os.Setenv(s.Key, path)
}

// FileStore keeps key/value pairs in a small YAML document.
type FileStore struct {
	FS   afero.Fs
	Path string
	Key  string
}

// DefaultFilePath is settings.yaml under the user's XDG config home.
func DefaultFilePath() string {
	return filepath.Join(xdg.ConfigHome, AppDirName, "settings.yaml")
}

func NewFileStore(key string) *FileStore {
	return &FileStore{FS: afero.NewOsFs(), Path: DefaultFilePath(), Key: key}
}

func (s *FileStore) load() (map[string]string, error) {
	b, err := afero.ReadFile(s.FS, s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings %s: %w", s.Path, err)
	}
	values := map[string]string{}
	if err := yaml.Unmarshal(b, &values); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", s.Path, err)
	}
	return values, nil
}

func (s *FileStore) Get() (string, bool, error) {
	values, err := s.load()
	if err != nil {
		return "", false, err
	}
	v := strings.TrimSpace(values[s.Key])
	return v, v != "", nil
}

func (s *FileStore) Set(path string) error {
	values, err := s.load()
	if err != nil {
		return err
	}
	values[s.Key] = path
	b, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := s.FS.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	return afero.WriteFile(s.FS, s.Path, b, 0o644)
}

// Chain reads from the first store that has a value and writes to every store.
type Chain []Store

func (c Chain) Get() (string, bool, error) {
	var errs []error
	for _, s := range c {
		v, ok, err := s.Get()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			return v, true, nil
		}
	}
	return "", false, errors.Join(errs...)
}

func (c Chain) Set(path string) error {
	var errs []error
	for _, s := range c {
		if err := s.Set(path); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
