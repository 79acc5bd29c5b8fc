//go:build windows

package setting

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

const envKeyPath = `Environment`

const (
	hwndBroadcast   = 0xffff
	wmSettingChange = 0x001A
	smtoAbortIfHung = 0x0002
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procSendMessageTimeoutW = user32.NewProc("SendMessageTimeoutW")
)

// RegistryStore reads and writes a user environment variable under
// HKCU\Environment.
type RegistryStore struct {
	Key string
}

func (s RegistryStore) Get() (string, bool, error) {
	k, err := registry.OpenKey(registry.CURRENT_USER, envKeyPath, registry.QUERY_VALUE)
	if err != nil {
		return "", false, fmt.Errorf("open HKCU\\%s: %w", envKeyPath, err)
	}
	defer k.Close()

	v, _, err := k.GetStringValue(s.Key)
	if errors.Is(err, registry.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read HKCU\\%s\\%s: %w", envKeyPath, s.Key, err)
	}
	v = strings.TrimSpace(v)
	return v, v != "", nil
}

func (s RegistryStore) Set(path string) error {
	k, err := registry.OpenKey(registry.CURRENT_USER, envKeyPath, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("open HKCU\\%s: %w", envKeyPath, err)
	}
	defer k.Close()

	if err := k.SetStringValue(s.Key, path); err != nil {
		return fmt.Errorf("write HKCU\\%s\\%s: %w", envKeyPath, s.Key, err)
	}
	broadcastEnvChange()
	return nil
}

// broadcastEnvChange tells running shells that the user environment changed.
// Failure only means new consoles pick the value up after the next logon.
func broadcastEnvChange() {
	if err := procSendMessageTimeoutW.Find(); err != nil {
		return
	}
	param, err := windows.UTF16PtrFromString(envKeyPath)
	if err != nil {
		return
	}
	var result uintptr
	_, _, _ = procSendMessageTimeoutW.Call(
		hwndBroadcast,
		wmSettingChange,
		0,
		uintptr(unsafe.Pointer(param)),
		smtoAbortIfHung,
		5000,
		uintptr(unsafe.Pointer(&result)),
	)
}
