//go:build !windows

package setting

// NewDefault returns the environment variable backed by a settings file in the
// user's config directory.
func NewDefault(key string) Store {
	return Chain{EnvStore{Key: key}, NewFileStore(key)}
}
