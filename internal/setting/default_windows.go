//go:build windows

package setting

// NewDefault returns the process environment backed by the user's registry
// environment, which is where `setx` stores variables.
func NewDefault(key string) Store {
	return Chain{EnvStore{Key: key}, RegistryStore{Key: key}}
}
